package builder

import "runtime"

// Options configures a Builder. Its boolean/threading fields mirror the
// RLO and THR flags accepted by the original build() call, kept as named
// struct fields rather than an OR-of-bitmask parameter because Go has no
// natural analogue for anonymous bit flags at a public API boundary.
// There is no FAST/memory-lean split: classification always runs the
// auxiliary-array counting sort (core.ClassifyBySymbol); see DESIGN.md
// for why the in-place cyclic-rotation alternative was dropped rather
// than wired to a flag.
type Options struct {
	// ReverseLexOrder enables the RLO tie-break during next_bwt: rows
	// that land on the same insertion position are additionally ordered
	// by the symbol they are about to insert, producing a BWT of the
	// input's reverse-lexicographic (rather than arbitrary) string
	// order. Two RLO builds of the same multiset of reads in different
	// append order are only guaranteed to agree on the resulting BWT as
	// a multiset of runs, not on any particular internal row sequence
	// that produced it -- callers comparing RLO output should treat it
	// as a set, not a sequence (spec.md §9).
	ReverseLexOrder bool

	// Threaded runs each cycle's five non-sentinel bucket splices
	// (symbols A, C, G, T, N) on their own goroutines instead of inline
	// on the caller's goroutine; the sentinel bucket always runs inline.
	// It does not depend on NumThreads: the fan-out is always exactly
	// five workers plus the inline sentinel bucket.
	Threaded bool

	// NumThreads bounds unrelated helper parallelism: the classification
	// tagging pre-pass (tagRows) is split across up to NumThreads
	// goroutines once a cycle has classifyPrepassThreshold or more rows.
	// It never changes the fixed five-bucket Threaded fan-out above.
	// Zero means runtime.NumCPU().
	NumThreads int

	// TmpDir, if non-empty, is a directory into which Build writes each
	// transposed DNA column, once the cycle that reads it has run, as its
	// own freshly named file in the column-dump format. The columns stay
	// resident in memory as well; the dumps do not replace them. Empty
	// means no dump is written (equivalent to passing a null tmp_path).
	TmpDir string

	// RandomizeN controls how the input's N bases are resolved to a
	// definite base for BWT purposes (spec.md §9's Open Question: N
	// handling must be decided and documented, not left implicit).
	// False (the default) keeps every N as its own symbol (bucket 5).
	// True substitutes each N with one of A/C/G/T when the sequence is
	// appended, deterministically keyed by (build seed, sequence index,
	// column) via NRandomizer, so the result does not depend on Threaded.
	RandomizeN bool

	// RandomSeed seeds NRandomizer when RandomizeN is set. Builds with
	// the same seed and the same input substitute the same bases.
	RandomSeed uint64

	// IncludeReverseComplement is not read by the builder or by pkg/bcr.
	// pkg/bcr.Builder.AppendWithReverseComplement appends each read's
	// reverse complement as a second entry whether or not it is set, and
	// Append never does.
	IncludeReverseComplement bool

	// Observer receives cycle and bucket progress callbacks. Nil is
	// treated as NoopObserver.
	Observer Observer
}

// DefaultOptions returns the conservative single-threaded, in-memory,
// insertion-order build configuration.
func DefaultOptions() Options {
	return Options{
		ReverseLexOrder: false,
		Threaded:        false,
		NumThreads:      runtime.NumCPU(),
		TmpDir:          "",
		RandomizeN:      false,
		Observer:        NoopObserver{},
	}
}

func (o Options) observer() Observer {
	if o.Observer == nil {
		return NoopObserver{}
	}
	return o.Observer
}

func (o Options) numThreads() int {
	if o.NumThreads <= 0 {
		return runtime.NumCPU()
	}
	return o.NumThreads
}
