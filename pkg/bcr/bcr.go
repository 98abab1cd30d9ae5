// Package bcr provides a Go-idiomatic front end to the Bauer-Cox-Rosone
// multi-string Burrows-Wheeler transform builder in internal/builder,
// translating between raw ASCII sequences and the internal 0..5 symbol
// alphabet the builder and its supporting run-length and rank/select
// structures operate on.
package bcr

import (
	"bcrgo/internal/builder"
	"bcrgo/internal/core"
)

// Options configures a Builder. See builder.Options for field docs; this
// is a thin re-export so callers never need to import internal/builder
// directly.
type Options = builder.Options

// DefaultOptions returns the conservative single-threaded, in-memory
// build configuration.
func DefaultOptions() Options { return builder.DefaultOptions() }

// Builder accepts ASCII nucleotide sequences and produces their
// multi-string Burrows-Wheeler transform.
type Builder struct {
	b *builder.BCR
}

// NewBuilder returns an empty Builder configured by opts.
func NewBuilder(opts Options) *Builder {
	return &Builder{b: builder.NewBCR(opts)}
}

// Append records one sequence. Bytes are matched case-insensitively
// against A/C/G/T; anything else (including a literal 'N') is treated
// as N and resolved per Options.RandomizeN as it is appended. seq must be
// between 1 and 65535 bytes.
func (bld *Builder) Append(seq []byte) error {
	return bld.b.Append(encode(seq))
}

// AppendWithReverseComplement appends seq and, in addition, its reverse
// complement, matching Options.IncludeReverseComplement's intent of
// indexing both strands of double-stranded input. It ignores the option
// itself so a caller can invoke it selectively per read.
func (bld *Builder) AppendWithReverseComplement(seq []byte) error {
	if err := bld.b.Append(encode(seq)); err != nil {
		return err
	}
	rc := make([]core.Symbol, len(seq))
	n := len(seq)
	for i, c := range seq {
		rc[n-1-i] = core.ComplementBase(core.EncodeBase(c))
	}
	return bld.b.Append(rc)
}

func encode(seq []byte) []core.Symbol {
	syms := make([]core.Symbol, len(seq))
	for i, c := range seq {
		syms[i] = core.EncodeBase(c)
	}
	return syms
}

// NumSeqs reports how many sequences have been appended.
func (bld *Builder) NumSeqs() uint64 { return bld.b.NumSeqs() }

// Build runs the transform to completion. It may only be called once.
func (bld *Builder) Build() error { return bld.b.Build() }

// Cell is one run of the transform: Count consecutive occurrences of an
// ASCII base ('$', 'A', 'C', 'G', 'T', or 'N').
type Cell struct {
	Base  byte
	Count uint64
}

// Iterator reads the finished transform one run at a time.
type Iterator struct {
	it *builder.Iterator
}

// Iterator returns a fresh reader over the finished transform. It fails
// if Build has not run yet or the Builder has been closed.
func (bld *Builder) Iterator() (*Iterator, error) {
	it, err := bld.b.Iterator()
	if err != nil {
		return nil, err
	}
	return &Iterator{it: it}, nil
}

// Next returns the next run, or ok=false once the transform is
// exhausted.
func (it *Iterator) Next() (Cell, bool) {
	c, ok := it.it.Next()
	if !ok {
		return Cell{}, false
	}
	return Cell{Base: c.Symbol.Char(), Count: c.Count}, true
}

// Close releases the Builder's state. Subsequent Iterator calls fail.
func (bld *Builder) Close() error { return bld.b.Close() }
