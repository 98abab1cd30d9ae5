package core

// rlBlockSize is the fixed allocation unit for a run-length symbol
// stream, matching bcr.c's RLL_BLOCK_SIZE (0x100000 = 1 MiB).
const rlBlockSize = 1 << 20

// rlMaxRunCount is the largest count written into a single encoded
// byte (5 bits of count, stored as count-1, alongside the 3-bit
// symbol); longer runs are split across several bytes.
const rlMaxRunCount = 31

// rlTerminator is the sentinel symbol value (occupying the low 3 bits
// of a byte, count field 0) that marks the end of a stream. It is
// outside the six-symbol alphabet (spec.md §3, C4).
const rlTerminator = 7

// RLStreamEncoder run-length encodes a sequence of symbols into byte
// blocks of the form (count-1)<<3 | symbol, coalescing adjacent equal
// symbols into runs of up to rlMaxRunCount before starting a new byte.
// It is the Go counterpart of bcr.c's rll_t/rll_enc/rll_enc_finalize.
type RLStreamEncoder struct {
	blocks [][]byte
	cur    []byte

	haveRun   bool
	lastSym   Symbol
	lastCount uint64

	totalSyms uint64
	mc        [NumSymbols]uint64
}

// NewRLStreamEncoder returns an empty encoder.
func NewRLStreamEncoder() *RLStreamEncoder {
	return &RLStreamEncoder{}
}

func (e *RLStreamEncoder) pushByte(b byte) {
	if e.cur == nil {
		e.cur = make([]byte, 0, rlBlockSize)
	}
	e.cur = append(e.cur, b)
	if len(e.cur) == rlBlockSize {
		e.blocks = append(e.blocks, e.cur)
		e.cur = nil
	}
}

func (e *RLStreamEncoder) flushRun() {
	if !e.haveRun {
		return
	}
	remaining := e.lastCount
	for remaining > 0 {
		n := remaining
		if n > rlMaxRunCount {
			n = rlMaxRunCount
		}
		e.pushByte(byte((n-1)<<3) | byte(e.lastSym))
		remaining -= n
	}
	e.haveRun = false
	e.lastCount = 0
}

// EncRun appends count consecutive occurrences of sym.
func (e *RLStreamEncoder) EncRun(sym Symbol, count uint64) {
	if count == 0 {
		return
	}
	e.totalSyms += count
	e.mc[sym] += count
	if e.haveRun && sym == e.lastSym {
		e.lastCount += count
		return
	}
	e.flushRun()
	e.lastSym = sym
	e.lastCount = count
	e.haveRun = true
}

// Enc appends a single occurrence of sym.
func (e *RLStreamEncoder) Enc(sym Symbol) { e.EncRun(sym, 1) }

// NumSyms reports the number of symbol occurrences encoded so far.
func (e *RLStreamEncoder) NumSyms() uint64 { return e.totalSyms }

// MarginalCounts reports mc[0..5], the total occurrences of each symbol
// encoded so far -- spec.md §3's C4 marginal-count array, updated
// incrementally alongside totalSyms rather than derived by a separate
// pass over the encoded runs at Finalize time.
func (e *RLStreamEncoder) MarginalCounts() [NumSymbols]uint64 { return e.mc }

// Finalize flushes the pending run, writes the terminator byte, and
// returns the immutable stream. The encoder must not be used
// afterwards.
func (e *RLStreamEncoder) Finalize() *RLStream {
	e.flushRun()
	e.pushByte(rlTerminator)
	if e.cur != nil {
		e.blocks = append(e.blocks, e.cur)
		e.cur = nil
	}
	return &RLStream{blocks: e.blocks, numSyms: e.totalSyms, mc: e.mc}
}

// RLStream is a finalized, read-only run-length symbol stream.
type RLStream struct {
	blocks  [][]byte
	numSyms uint64
	mc      [NumSymbols]uint64
}

// NumSyms reports the number of symbol occurrences in the stream.
func (s *RLStream) NumSyms() uint64 { return s.numSyms }

// MarginalCounts reports mc[0..5], the total occurrences of each symbol
// in the stream. sum(MarginalCounts()) == NumSyms() always holds
// (spec.md §3's C4 invariant).
func (s *RLStream) MarginalCounts() [NumSymbols]uint64 { return s.mc }

// NewIterator returns a decoder positioned at the start of the stream.
func (s *RLStream) NewIterator() *RLStreamIterator {
	return &RLStreamIterator{stream: s}
}

// RLStreamIterator decodes a RLStream one run or one symbol at a time.
// It is the counterpart of bcr.c's rllitr_t/rll_dec.
type RLStreamIterator struct {
	stream *RLStream

	blockIdx, byteIdx int
	curSym            Symbol
	curRemaining      uint64
	done              bool
}

func (it *RLStreamIterator) nextByte() (byte, bool) {
	for it.blockIdx < len(it.stream.blocks) {
		blk := it.stream.blocks[it.blockIdx]
		if it.byteIdx < len(blk) {
			b := blk[it.byteIdx]
			it.byteIdx++
			return b, true
		}
		it.blockIdx++
		it.byteIdx = 0
	}
	return 0, false
}

// NextRun returns up to max occurrences (or the whole remaining run if
// max is 0) of the next symbol in the stream. ok is false once the
// terminator has been reached.
func (it *RLStreamIterator) NextRun(max uint64) (sym Symbol, count uint64, ok bool) {
	if it.done {
		return 0, 0, false
	}
	if it.curRemaining == 0 {
		b, present := it.nextByte()
		if !present {
			it.done = true
			return 0, 0, false
		}
		s := b & 0x7
		if s == rlTerminator {
			it.done = true
			return 0, 0, false
		}
		it.curSym = Symbol(s)
		it.curRemaining = uint64(b>>3) + 1
	}
	n := it.curRemaining
	if max > 0 && n > max {
		n = max
	}
	it.curRemaining -= n
	return it.curSym, n, true
}

// Next decodes a single symbol. ok is false at the terminator.
func (it *RLStreamIterator) Next() (Symbol, bool) {
	sym, n, ok := it.NextRun(1)
	if !ok {
		return 0, false
	}
	if n == 0 {
		return 0, false
	}
	return sym, true
}

// CopyTo transfers up to count decoded symbol occurrences from it into
// dst, run-at-a-time, mirroring bcr.c's rll_copy used by the BCR merge
// step to move an untouched suffix of a bucket's stream forward without
// re-deriving its runs.
func (it *RLStreamIterator) CopyTo(dst *RLStreamEncoder, count uint64) uint64 {
	var moved uint64
	for moved < count {
		sym, n, ok := it.NextRun(count - moved)
		if !ok {
			break
		}
		dst.EncRun(sym, n)
		moved += n
	}
	return moved
}
