package builder

import (
	"bcrgo/internal/core"
)

// BCR incrementally constructs the Burrows-Wheeler transform of a
// multiset of strings over {A, C, G, T, N} by the Bauer-Cox-Rosone
// insertion algorithm: it reads every sequence back to front, one
// column per cycle, threading each row's suffix rank through the six
// F-column buckets until every sequence has contributed its implicit
// sentinel. This is bcr_t from the original C reference, generalized
// from its fixed-length-only assumption to the variable per-sequence
// length spec.md's data model requires.
type BCR struct {
	opts Options

	nSeqs  uint64
	lens   []uint16
	maxLen int
	dna    *core.DNAStore
	nrand  core.NRandomizer

	bwt          [core.NumSymbols]*bucket
	finalStreams [core.NumSymbols]*core.RLStream

	built  bool
	closed bool
}

const maxSeqLen = 65535

// maxRows bounds the row table Build allocates up front, one entry per
// appended sequence. It exists to turn a pathological append count into
// a checked core.AllocFaultError instead of a runtime OOM panic during
// make([]activeRow, b.nSeqs) -- unlike a single sequence's length
// (bounded by maxSeqLen), the sequence count is unbounded by any other
// check and grows directly with attacker-controlled input (one Append
// call per record in, say, a hostile FASTA feed). A var, not a const,
// so tests can shrink it instead of actually appending billions of rows.
var maxRows uint64 = 1 << 32

// NewBCR returns an empty builder configured by opts.
func NewBCR(opts Options) *BCR {
	b := &BCR{
		opts: opts,
		dna:  core.NewDNAStore(),
	}
	if opts.RandomizeN {
		b.nrand = core.NewNRandomizer(opts.RandomSeed)
	}
	for s := 0; s < core.NumSymbols; s++ {
		b.bwt[s] = &bucket{sym: core.Symbol(s)}
	}
	return b
}

// Append records one sequence, given as symbol codes 1..5 (A, C, G, T,
// N respectively -- no sentinel). The sentinel each sequence implicitly
// ends with is inserted by Build, never supplied by the caller.
func (b *BCR) Append(bases []core.Symbol) error {
	if b.built {
		return core.NewInputInvalidError("builder: Append called after Build")
	}
	if len(bases) < 1 || len(bases) > maxSeqLen {
		return core.NewInputInvalidError("builder: sequence length %d outside [1, %d]", len(bases), maxSeqLen)
	}
	seqID := b.nSeqs
	length := uint16(len(bases))
	for i, sym := range bases {
		if sym < core.SymA || sym > core.SymN {
			return core.NewInputInvalidError("builder: symbol %d at offset %d is not in 1..5", sym, i)
		}
		col := len(bases) - 1 - i
		if sym == core.SymN {
			if b.opts.RandomizeN {
				b.dna.Set(seqID, col, b.nrand.Substitute(seqID, col))
			} else {
				b.dna.SetN(seqID, col)
			}
		} else {
			b.dna.Set(seqID, col, sym)
		}
	}
	b.lens = append(b.lens, length)
	b.nSeqs++
	if int(length) > b.maxLen {
		b.maxLen = int(length)
	}
	return nil
}

// NumSeqs reports how many sequences have been appended.
func (b *BCR) NumSeqs() uint64 { return b.nSeqs }

// Build runs the BCR insertion to completion, one cycle per column
// position from 0 to the longest appended sequence's length inclusive,
// and finalizes every bucket's accumulated data into a run-length
// symbol stream. It may only be called once.
func (b *BCR) Build() error {
	if b.built {
		return core.NewUsageFaultError("builder: Build called twice")
	}
	b.built = true

	obs := b.opts.observer()

	if b.nSeqs > 0 {
		if b.nSeqs > maxRows {
			return core.NewAllocFaultError("builder: %d rows exceeds the %d-row build table limit", b.nSeqs, maxRows)
		}
		rows := make([]activeRow, b.nSeqs)
		for k := range rows {
			rows[k] = activeRow{u: 0, v: core.PackV(uint64(k), b.lens[k], core.SymSentinel)}
		}
		for pos := 0; pos <= b.maxLen; pos++ {
			obs.OnCycleStart(pos, b.maxLen)
			rows = b.runCycle(rows, pos)
			if b.opts.TmpDir != "" {
				if err := b.checkpointColumn(pos); err != nil {
					return err
				}
			}
			obs.OnCycleEnd(pos, b.maxLen)
		}
	}

	for s := 0; s < core.NumSymbols; s++ {
		enc := core.NewRLStreamEncoder()
		for _, sym := range b.bwt[s].data {
			enc.Enc(sym)
		}
		b.finalStreams[s] = enc.Finalize()
		b.bwt[s].data = nil
	}
	obs.Logf("builder: build complete, %d sequences, %d cycles", b.nSeqs, b.maxLen+1)
	return nil
}

// checkpointColumn dumps column pos's bases to a fresh file under
// Options.TmpDir in the on-disk column format, once that column is no
// longer needed by any future cycle (runCycle has already consumed it
// for every row). Each call writes its own freshly named file. It is a
// durability/inspection checkpoint, not a memory-reclamation device:
// the column stays in the DNAStore afterwards and nothing is freed.
func (b *BCR) checkpointColumn(pos int) error {
	f, _, err := OpenTempColumnFile(b.opts.TmpDir)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := WriteColumn(f, b.dna, b.lens, pos); err != nil {
		return err
	}
	return nil
}

// Iterator returns a fresh reader over the finished BWT, walking the six
// buckets in sentinel, A, C, G, T, N order. It fails if Build has not
// run yet or the builder has been closed.
func (b *BCR) Iterator() (*Iterator, error) {
	if !b.built {
		return nil, core.NewUsageFaultError("builder: Iterator called before Build")
	}
	if b.closed {
		return nil, core.NewUsageFaultError("builder: Iterator called after Close")
	}
	return newIterator(b.finalStreams[:]), nil
}

// Close releases the builder's state. Subsequent Iterator calls fail.
func (b *BCR) Close() error {
	b.closed = true
	for s := range b.finalStreams {
		b.finalStreams[s] = nil
	}
	return nil
}
