package core

import "fmt"

// Symbol is one of the six BCR alphabet symbols: sentinel, A, C, G, T, N.
type Symbol uint8

const (
	SymSentinel Symbol = 0
	SymA        Symbol = 1
	SymC        Symbol = 2
	SymG        Symbol = 3
	SymT        Symbol = 4
	SymN        Symbol = 5

	NumSymbols = 6
)

// symbolChars mirrors bcr.c's "$ACGTN" literal.
var symbolChars = [NumSymbols]byte{'$', 'A', 'C', 'G', 'T', 'N'}

// Char returns the printable character for a symbol.
func (s Symbol) Char() byte {
	if int(s) >= NumSymbols {
		panic(fmt.Sprintf("core: symbol %d out of range", s))
	}
	return symbolChars[s]
}

func (s Symbol) String() string {
	return string(s.Char())
}

// baseComplement mirrors bcr-demo.c's seq_revcomp6: A<->T, C<->G, N and
// the sentinel are self-complementary.
var baseComplement = [NumSymbols]Symbol{SymSentinel, SymT, SymG, SymC, SymA, SymN}

// ComplementBase returns the Watson-Crick complement of a 1..5 symbol.
func ComplementBase(s Symbol) Symbol {
	return baseComplement[s]
}

// EncodeBase maps a raw ASCII nucleotide character to a BCR symbol code
// in 1..5, case-insensitively. Anything outside {A,C,G,T,N} (upper or
// lower case) maps to SymN, mirroring bcr-demo.c's seq_nt6_table, which
// maps every non-ACGT byte to N (5) before the caller decides whether to
// randomize it (see NRandomizer).
func EncodeBase(c byte) Symbol {
	switch c {
	case 'A', 'a':
		return SymA
	case 'C', 'c':
		return SymC
	case 'G', 'g':
		return SymG
	case 'T', 't':
		return SymT
	default:
		return SymN
	}
}

// DecodeBase is the inverse of EncodeBase for the four definite bases;
// it panics on the sentinel or N, which have no canonical ASCII base.
func DecodeBase(s Symbol) byte {
	switch s {
	case SymA:
		return 'A'
	case SymC:
		return 'C'
	case SymG:
		return 'G'
	case SymT:
		return 'T'
	default:
		panic(fmt.Sprintf("core: symbol %d has no canonical base letter", s))
	}
}
