package core

import (
	"math/bits"

	"github.com/klauspost/cpuid/v2"
)

// popcountTable is an 8-bit lookup table for popcount8, kept around so
// the design stays portable to targets without a hardware popcount
// instruction (see Popcount64's fallback path below).
var popcountTable = func() [256]uint8 {
	var t [256]uint8
	for i := range t {
		t[i] = uint8(bits.OnesCount8(uint8(i)))
	}
	return t
}()

// hasHardwarePopcount caches the cpuid feature check once at init time.
var hasHardwarePopcount = cpuid.CPU.Supports(cpuid.POPCNT)

// Popcount8 returns the number of set bits in a single byte, via the
// lookup table.
func Popcount8(b byte) int {
	return int(popcountTable[b])
}

// Popcount64 returns the number of set bits in a 64-bit word. When the
// host CPU advertises a hardware POPCNT instruction it delegates to
// math/bits (which the Go compiler intrinsifies into that instruction);
// otherwise it falls back to the table-driven byte-wise sum so the
// primitive keeps working on targets without hardware popcount.
func Popcount64(w uint64) int {
	if hasHardwarePopcount {
		return bits.OnesCount64(w)
	}
	return Popcount8(byte(w)) +
		Popcount8(byte(w>>8)) +
		Popcount8(byte(w>>16)) +
		Popcount8(byte(w>>24)) +
		Popcount8(byte(w>>32)) +
		Popcount8(byte(w>>40)) +
		Popcount8(byte(w>>48)) +
		Popcount8(byte(w>>56))
}

// Popcount64Masked returns the popcount of w restricted to bits [0, n).
// n must be in [0, 64].
func Popcount64Masked(w uint64, n uint) int {
	if n == 0 {
		return 0
	}
	if n >= 64 {
		return Popcount64(w)
	}
	mask := uint64(1)<<n - 1
	return Popcount64(w & mask)
}

// Bits returns ceil(log2(n+1)), the number of bits needed to represent
// the integers [0, n].
func Bits(n uint64) uint {
	b := uint(0)
	for n > 0 {
		b++
		n >>= 1
	}
	return b
}
