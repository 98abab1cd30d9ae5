package core

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// NRandomizer turns an N call (symbol 5) into one of A/C/G/T (1..4) in a
// way that is a pure function of (seed, sequence index, column), rather
// than a draw from a shared, non-reentrant *rand.Rand. BCR applies it
// once per N while the sequence is appended, before any cycle runs, so
// the same seed and input always give the same substitution, whatever
// the build's threading mode and whatever order the calls happen in.
type NRandomizer struct {
	seed uint64
}

// NewNRandomizer builds a randomizer keyed on seed. Two randomizers
// built with the same seed substitute identically for every (seqIdx,
// col) pair.
func NewNRandomizer(seed uint64) NRandomizer {
	return NRandomizer{seed: seed}
}

// Substitute deterministically maps an N occurrence at sequence seqIdx,
// column col, to one of SymA..SymT.
func (r NRandomizer) Substitute(seqIdx uint64, col int) Symbol {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:8], r.seed)
	binary.LittleEndian.PutUint64(buf[8:16], seqIdx)
	binary.LittleEndian.PutUint64(buf[16:24], uint64(int64(col)))
	h := xxhash.Sum64(buf[:])
	return Symbol(1 + h%4)
}
