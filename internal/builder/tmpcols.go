package builder

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"bcrgo/internal/core"
)

// TempColumnPath returns a fresh path under dir for one column dump
// file, named with a random UUID so concurrent builds sharing a
// TmpDir never collide -- the naming scheme is this project's own
// choice (the reference implementation never had a multi-tenant temp
// directory to worry about); the dump format on the wire is not.
func TempColumnPath(dir string) string {
	return filepath.Join(dir, fmt.Sprintf("bcr-%s.cols", uuid.NewString()))
}

// WriteColumn dumps one column of a DNAStore -- the base at column col
// for every one of numSeqs sequences -- to w in the sequence-of-chunks
// format spec.md's external interfaces section defines for temporary
// column storage: an int32 chunk count, then per chunk an int32 word
// count and, if non-zero, that many 8-byte words holding two bits per
// base. Sequences with no base at this column (already finished, or
// recorded as N) are packed as zero and distinguished on read-back by
// the caller consulting sequence length and the N side-table directly,
// the same way the in-memory DNAStore does.
func WriteColumn(w io.Writer, store *core.DNAStore, lens []uint16, col int) error {
	numSeqs := uint64(len(lens))
	const wordsPerChunk = dnaChunkWords
	nChunks := int32((numSeqs + dnaSymsPerWord*wordsPerChunk - 1) / (dnaSymsPerWord * wordsPerChunk))
	if numSeqs == 0 {
		nChunks = 0
	}
	if err := binary.Write(w, binary.LittleEndian, nChunks); err != nil {
		return core.NewIoFaultError("WriteColumn: header", err)
	}
	for c := int32(0); c < nChunks; c++ {
		words := make([]uint64, wordsPerChunk)
		base := uint64(c) * dnaSymsPerWord * wordsPerChunk
		nonZero := false
		for w64 := 0; w64 < wordsPerChunk; w64++ {
			var word uint64
			for lane := 0; lane < dnaSymsPerWord; lane++ {
				seqIdx := base + uint64(w64)*dnaSymsPerWord + uint64(lane)
				if seqIdx >= numSeqs {
					break
				}
				if col >= int(lens[seqIdx]) {
					continue // sequence finished before this column; leave the slot zero
				}
				sym := store.Get(seqIdx, col)
				if sym >= core.SymA && sym <= core.SymT {
					word |= uint64(sym-1) << (uint(lane) * 2)
				}
			}
			if word != 0 {
				nonZero = true
			}
			words[w64] = word
		}
		if !nonZero {
			if err := binary.Write(w, binary.LittleEndian, int32(0)); err != nil {
				return core.NewIoFaultError("WriteColumn: chunk header", err)
			}
			continue
		}
		if err := binary.Write(w, binary.LittleEndian, int32(wordsPerChunk)); err != nil {
			return core.NewIoFaultError("WriteColumn: chunk header", err)
		}
		if err := binary.Write(w, binary.LittleEndian, words); err != nil {
			return core.NewIoFaultError("WriteColumn: chunk body", err)
		}
	}
	return nil
}

// ReadColumn is the inverse of WriteColumn: it reconstructs the 2-bit
// codes for one column's numSeqs bases from r. It does not recover
// which of those bases were originally N, since WriteColumn does not
// carry the N side-table -- a caller round-tripping N-bearing input
// through TmpDir must persist DNAStore's N flags itself (see DESIGN.md).
func ReadColumn(r io.Reader, numSeqs uint64) ([]core.Symbol, error) {
	var nChunks int32
	if err := binary.Read(r, binary.LittleEndian, &nChunks); err != nil {
		return nil, core.NewIoFaultError("ReadColumn: header", err)
	}
	out := make([]core.Symbol, numSeqs)
	var seqIdx uint64
	for c := int32(0); c < nChunks; c++ {
		var words int32
		if err := binary.Read(r, binary.LittleEndian, &words); err != nil {
			return nil, core.NewIoFaultError("ReadColumn: chunk header", err)
		}
		if words == 0 {
			// An all-zero chunk holds code 0 (A) in every lane.
			for j := 0; j < dnaSymsPerWord*dnaChunkWords && seqIdx < numSeqs; j++ {
				out[seqIdx] = core.SymA
				seqIdx++
			}
			continue
		}
		buf := make([]uint64, words)
		if err := binary.Read(r, binary.LittleEndian, buf); err != nil {
			return nil, core.NewIoFaultError("ReadColumn: chunk body", err)
		}
		for _, word := range buf {
			for lane := 0; lane < dnaSymsPerWord; lane++ {
				if seqIdx >= numSeqs {
					break
				}
				code := (word >> (uint(lane) * 2)) & 0x3
				out[seqIdx] = core.Symbol(code + 1)
				seqIdx++
			}
		}
	}
	return out, nil
}

// OpenTempColumnFile creates a fresh temp column file under dir, per
// TempColumnPath, truncating any accidental collision.
func OpenTempColumnFile(dir string) (*os.File, string, error) {
	path := TempColumnPath(dir)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o644)
	if err != nil {
		return nil, "", core.NewIoFaultError("OpenTempColumnFile", err)
	}
	return f, path, nil
}

// dnaChunkWords matches the granularity WriteColumn packs its chunk
// headers at -- one chunk covers dnaChunkWords 64-bit words, well under
// the 2^20-symbol chunk DNAStore itself allocates in memory, since the
// on-disk format has no reason to share that granularity.
const dnaChunkWords = 1 << 10

// dnaSymsPerWord mirrors internal/core/dna.go's own constant of the
// same name: two bits per base, 64 bits per word.
const dnaSymsPerWord = 32
