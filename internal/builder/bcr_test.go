package builder

import (
	"errors"
	"sort"
	"testing"

	"bcrgo/internal/core"
)

// encodeSeq maps an ASCII string of A/C/G/T/N characters to symbol codes,
// the shape (*BCR).Append expects.
func encodeSeq(s string) []core.Symbol {
	out := make([]core.Symbol, len(s))
	for i := 0; i < len(s); i++ {
		out[i] = core.EncodeBase(s[i])
	}
	return out
}

// bwtString drains a built BCR's iterator into its run-length-expanded
// string form, sentinel written as '$'.
func bwtString(t *testing.T, b *BCR) string {
	t.Helper()
	it, err := b.Iterator()
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	var out []byte
	for cell, ok := it.Next(); ok; cell, ok = it.Next() {
		for i := uint64(0); i < cell.Count; i++ {
			out = append(out, cell.Symbol.Char())
		}
	}
	return string(out)
}

// TestBCRSingleSequence checks the BWT of the single string "ACGT" (with
// its implicit sentinel) against the rotation-sort of "ACGT$": sorted
// rotations $ACGT, ACGT$, CGT$A, GT$AC, T$ACG, whose last column reads
// "T$ACG".
func TestBCRSingleSequence(t *testing.T) {
	opts := DefaultOptions()
	b := NewBCR(opts)
	if err := b.Append(encodeSeq("ACGT")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := b.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer b.Close()

	got := bwtString(t, b)
	want := "T$ACG"
	if got != want {
		t.Fatalf("bwt = %q, want %q", got, want)
	}
}

// naiveBWT computes the BWT of a multiset of strings by direct rotation
// sort, each string implicitly terminated by a sentinel byte that
// compares before every letter -- a reference implementation independent
// of BCR's incremental insertion algorithm, used to cross-check its
// output exactly, row for row, which is what spec.md's S2 multi-string
// scenario calls for.
func naiveBWT(seqs []string) []byte {
	type rotation struct {
		seqIdx int
		bytes  []byte // sequence + sentinel marker (0x00), rotated to start at some offset
	}
	var rotations []rotation
	for i, s := range seqs {
		full := append([]byte(s), 0x00)
		for start := range full {
			rotated := append(append([]byte{}, full[start:]...), full[:start]...)
			rotations = append(rotations, rotation{seqIdx: i, bytes: rotated})
		}
	}
	sort.Slice(rotations, func(a, b int) bool {
		ra, rb := rotations[a].bytes, rotations[b].bytes
		for i := 0; i < len(ra) && i < len(rb); i++ {
			if ra[i] != rb[i] {
				return ra[i] < rb[i]
			}
		}
		return len(ra) < len(rb)
	})
	out := make([]byte, len(rotations))
	for i, r := range rotations {
		last := r.bytes[len(r.bytes)-1]
		if last == 0x00 {
			out[i] = '$'
		} else {
			out[i] = last
		}
	}
	return out
}

// TestBCRMultiSequenceMatchesNaiveBWT is spec.md's S2 scenario: several
// short reads, compared row-for-row against a straightforward
// rotation-sort reference BWT of the same multi-string collection.
func TestBCRMultiSequenceMatchesNaiveBWT(t *testing.T) {
	seqs := []string{"BANANA", "ACGT", "GATTACA"}
	// Restrict to the BCR alphabet: swap the non-ACGT letters of BANANA.
	seqs[0] = "ACAGAC"

	opts := DefaultOptions()
	b := NewBCR(opts)
	for _, s := range seqs {
		if err := b.Append(encodeSeq(s)); err != nil {
			t.Fatalf("Append(%q): %v", s, err)
		}
	}
	if err := b.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer b.Close()

	got := bwtString(t, b)
	want := string(naiveBWT(seqs))
	if got != want {
		t.Fatalf("bwt = %q, want %q", got, want)
	}
}

// TestBCREmptyInput is spec.md's S5 scenario: a builder that never sees
// an Append still Builds successfully and immediately reports an
// exhausted iterator.
func TestBCREmptyInput(t *testing.T) {
	b := NewBCR(DefaultOptions())
	if err := b.Build(); err != nil {
		t.Fatalf("Build on empty builder: %v", err)
	}
	defer b.Close()

	it, err := b.Iterator()
	if err != nil {
		t.Fatalf("Iterator: %v", err)
	}
	if _, ok := it.Next(); ok {
		t.Fatalf("expected an immediately exhausted iterator for empty input")
	}
}

// TestBCRBuildRejectsExcessiveRowCount exercises core.AllocFaultError:
// Build must refuse to allocate its row table rather than let an
// attacker-controlled append count run into a runtime OOM panic.
func TestBCRBuildRejectsExcessiveRowCount(t *testing.T) {
	old := maxRows
	maxRows = 2
	defer func() { maxRows = old }()

	b := NewBCR(DefaultOptions())
	for i := 0; i < 3; i++ {
		if err := b.Append(encodeSeq("ACGT")); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}
	err := b.Build()
	if err == nil {
		t.Fatalf("expected Build to reject a row count over maxRows")
	}
	var allocErr *core.AllocFaultError
	if !errors.As(err, &allocErr) {
		t.Fatalf("Build error = %v (%T), want *core.AllocFaultError", err, err)
	}
}

// TestBCRAllNSequenceIsolatesBucket is spec.md's S6 scenario: a long
// string of nothing but N bases, with N kept as its own symbol, must
// produce a transform of only Ns and its one sentinel.
func TestBCRAllNSequenceIsolatesBucket(t *testing.T) {
	const n = 5000
	seq := make([]core.Symbol, n)
	for i := range seq {
		seq[i] = core.SymN
	}

	opts := DefaultOptions()
	b := NewBCR(opts)
	if err := b.Append(seq); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := b.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer b.Close()

	got := bwtString(t, b)
	if len(got) != n+1 {
		t.Fatalf("bwt length = %d, want %d", len(got), n+1)
	}
	var sentinels, ns int
	for i := 0; i < len(got); i++ {
		switch got[i] {
		case '$':
			sentinels++
		case 'N':
			ns++
		default:
			t.Fatalf("unexpected symbol %q in an all-N sequence's bwt", got[i])
		}
	}
	if sentinels != 1 || ns != n {
		t.Fatalf("got %d sentinels and %d Ns, want 1 and %d", sentinels, ns, n)
	}
}

// TestBCRAllNSequenceWithRandomizeN checks that turning on N substitution
// removes every N from the transform's alphabet, and that the same seed
// reproduces the same output.
func TestBCRAllNSequenceWithRandomizeN(t *testing.T) {
	const n = 200
	seq := make([]core.Symbol, n)
	for i := range seq {
		seq[i] = core.SymN
	}

	build := func() string {
		opts := DefaultOptions()
		opts.RandomizeN = true
		opts.RandomSeed = 99
		b := NewBCR(opts)
		if err := b.Append(seq); err != nil {
			t.Fatalf("Append: %v", err)
		}
		if err := b.Build(); err != nil {
			t.Fatalf("Build: %v", err)
		}
		defer b.Close()
		return bwtString(t, b)
	}

	got1 := build()
	got2 := build()
	if got1 != got2 {
		t.Fatalf("same seed produced different transforms:\n%q\n%q", got1, got2)
	}
	for i := 0; i < len(got1); i++ {
		if got1[i] == 'N' {
			t.Fatalf("RandomizeN left an N in the transform at %d: %q", i, got1)
		}
	}
}

// TestBCRReverseLexOrderIsDeterministic checks that RLO builds of the
// same multiset in two different append orders complete and agree on
// how often each symbol occurs in the transform.
func TestBCRReverseLexOrderIsDeterministic(t *testing.T) {
	seqs := []string{"ACGTACG", "TTGGCA", "ACGTACG", "GATTACA"}
	reversed := make([]string, len(seqs))
	for i, s := range seqs {
		reversed[len(seqs)-1-i] = s
	}

	build := func(order []string) string {
		opts := DefaultOptions()
		opts.ReverseLexOrder = true
		b := NewBCR(opts)
		for _, s := range order {
			if err := b.Append(encodeSeq(s)); err != nil {
				t.Fatalf("Append(%q): %v", s, err)
			}
		}
		if err := b.Build(); err != nil {
			t.Fatalf("Build: %v", err)
		}
		defer b.Close()
		return bwtString(t, b)
	}

	a := build(seqs)
	c := build(reversed)

	countOf := func(s string) map[byte]int {
		m := make(map[byte]int)
		for i := 0; i < len(s); i++ {
			m[s[i]]++
		}
		return m
	}
	ca, cc := countOf(a), countOf(c)
	if len(ca) != len(cc) {
		t.Fatalf("symbol alphabets differ: %v vs %v", ca, cc)
	}
	for k, v := range ca {
		if cc[k] != v {
			t.Fatalf("symbol %q count differs by append order: %d vs %d", k, v, cc[k])
		}
	}
}

// TestBCRThreadedMatchesSerial checks that Threaded and non-Threaded
// builds of the same input produce the same transform, since the
// fan-out in runCycle must not change any row's outcome.
func TestBCRThreadedMatchesSerial(t *testing.T) {
	seqs := []string{"ACGTACGGTCA", "TTGGCCAATTN", "ACGTACGGTCA", "GATTACAGATTACA", "NNNACGTNNN"}

	build := func(threaded bool) string {
		opts := DefaultOptions()
		opts.Threaded = threaded
		opts.RandomizeN = true
		opts.RandomSeed = 7
		b := NewBCR(opts)
		for _, s := range seqs {
			if err := b.Append(encodeSeq(s)); err != nil {
				t.Fatalf("Append(%q): %v", s, err)
			}
		}
		if err := b.Build(); err != nil {
			t.Fatalf("Build: %v", err)
		}
		defer b.Close()
		return bwtString(t, b)
	}

	serial := build(false)
	threaded := build(true)
	if serial != threaded {
		t.Fatalf("threaded build diverged from serial build:\nserial:   %q\nthreaded: %q", serial, threaded)
	}
}

// TestBCRAppendAfterBuildFails and TestBCRBuildTwiceFails cover the
// lifecycle edge cases spec.md documents for the builder: Append after
// Build (an input-invalid error) and a second Build (a usage fault).
func TestBCRAppendAfterBuildFails(t *testing.T) {
	b := NewBCR(DefaultOptions())
	if err := b.Append(encodeSeq("ACGT")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := b.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer b.Close()
	if err := b.Append(encodeSeq("ACGT")); err == nil {
		t.Fatalf("expected Append after Build to fail")
	}
}

func TestBCRBuildTwiceFails(t *testing.T) {
	b := NewBCR(DefaultOptions())
	if err := b.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer b.Close()
	if err := b.Build(); err == nil {
		t.Fatalf("expected a second Build call to fail")
	}
}

func TestBCRIteratorBeforeBuildFails(t *testing.T) {
	b := NewBCR(DefaultOptions())
	if _, err := b.Iterator(); err == nil {
		t.Fatalf("expected Iterator before Build to fail")
	}
}

func TestBCRIteratorAfterCloseFails(t *testing.T) {
	b := NewBCR(DefaultOptions())
	if err := b.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := b.Iterator(); err == nil {
		t.Fatalf("expected Iterator after Close to fail")
	}
}

func TestBCRAppendRejectsOutOfRangeLength(t *testing.T) {
	b := NewBCR(DefaultOptions())
	if err := b.Append(nil); err == nil {
		t.Fatalf("expected Append of an empty sequence to fail")
	}
	tooLong := make([]core.Symbol, maxSeqLen+1)
	for i := range tooLong {
		tooLong[i] = core.SymA
	}
	if err := b.Append(tooLong); err == nil {
		t.Fatalf("expected Append past maxSeqLen to fail")
	}
}
