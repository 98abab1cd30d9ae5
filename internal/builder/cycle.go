package builder

import (
	"sort"
	"sync"

	"bcrgo/internal/core"
)

// bucket holds one of the six F-column partitions of the partial BWT
// under construction: the accumulated L-column values already committed
// for suffixes whose leading character is this bucket's symbol
// (bucketData), plus whatever rows are currently classified into it for
// the cycle in progress.
//
// bucketData is kept decompressed (one core.Symbol per historical
// insertion) for the whole build rather than incrementally run-length
// merged the way bcr.c's rll_copy/rll_enc dance keeps it byte-packed
// during construction. The two produce the same final bucket contents;
// this repo pays peak memory for a merge step that is a plain,
// easily-checked slice splice instead of a hand-rolled RLE stream merge,
// since nothing here can be exercised under a debugger before shipping.
// Finalize (see (*BCR).Build) run-length encodes each bucket's data
// exactly once, at the end, into a core.RLStream.
type bucket struct {
	sym  core.Symbol
	data []core.Symbol
}

// activeRow is a live (u, v) pair: u is this row's rank -- its index
// into the conceptual concatenation of all six buckets' data, valid as
// of the start of the current cycle -- and v packs the row's sequence
// id, its (invariant) length, and the symbol its bucket was classified
// under at the start of this cycle.
type activeRow struct {
	u uint64
	v uint64
}

// dropFinished removes rows whose bucket symbol is the sentinel, for
// every cycle after the first. A row lands back in the sentinel bucket
// only once it has already had its own sentinel written into some
// bucket's data (during the cycle that discovered pos >= its length);
// from that point on it contributes nothing further and must not be
// reclassified into bucket 0 a second time.
func dropFinished(rows []activeRow, pos int) []activeRow {
	if pos == 0 {
		return rows
	}
	kept := rows[:0]
	for _, r := range rows {
		if core.SymbolOf(r.v) == core.SymSentinel {
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// lookahead returns the character that will be written into whatever
// bucket the row is about to be classified into for cycle pos: the
// stored base at column pos if the row's sequence still has one, or the
// sentinel once pos reaches its length.
func lookahead(dna *core.DNAStore, seqID uint64, length uint16, pos int) core.Symbol {
	if pos >= int(length) {
		return core.SymSentinel
	}
	return dna.Get(seqID, pos)
}

// classifyPrepassThreshold is the row count above which tagging (the
// embarrassingly-parallel pre-pass ahead of ClassifyBySymbol's counting
// sort) is worth splitting across goroutines rather than paying the
// dispatch overhead for a handful of rows.
const classifyPrepassThreshold = 1 << 16

// tagRows fills tagged[i] with (index, row.v) for every row, chunked
// across up to threads goroutines when there are enough rows to make
// that worthwhile. This is the helper parallelism Options.NumThreads
// bounds: each goroutine only ever writes its own disjoint slice of
// tagged.
func tagRows(rows []activeRow, threads int) []core.Pair64 {
	tagged := make([]core.Pair64, len(rows))
	if threads < 2 || len(rows) < classifyPrepassThreshold {
		for i, r := range rows {
			tagged[i] = core.Pair64{U: uint64(i), V: r.v}
		}
		return tagged
	}

	chunk := (len(rows) + threads - 1) / threads
	var wg sync.WaitGroup
	for start := 0; start < len(rows); start += chunk {
		end := start + chunk
		if end > len(rows) {
			end = len(rows)
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				tagged[i] = core.Pair64{U: uint64(i), V: rows[i].v}
			}
		}(start, end)
	}
	wg.Wait()
	return tagged
}

// classifyIndices partitions row indices by their current bucket symbol,
// reusing core.ClassifyBySymbol's counting-sort classification -- this is
// bcr.c's set_bwt bucket-assignment step -- by tagging each index with
// the row's packed V and recovering the index (U) after classification.
func classifyIndices(rows []activeRow, threads int) [core.NumSymbols][]int {
	tagged := tagRows(rows, threads)
	bySymbol := core.ClassifyBySymbol(tagged, func(p core.Pair64) core.Symbol {
		return core.SymbolOf(p.V)
	})

	var groups [core.NumSymbols][]int
	for s := 0; s < core.NumSymbols; s++ {
		idx := make([]int, len(bySymbol[s]))
		for j, p := range bySymbol[s] {
			idx[j] = int(p.U)
		}
		groups[s] = idx
	}
	return groups
}

// cycleGroups partitions rows by their current bucket symbol and orders
// each bucket's rows by ascending rank, breaking ties (when rlo is set)
// by the symbol about to be inserted so that reverse-lexicographically
// equal suffixes settle into a single canonical relative order rather
// than whatever order Append happened to see them in. The non-RLO
// tie-break reuses core.SortPairsByU verbatim, keyed on rank with the
// row's own slice index as SortPairsByU's own secondary key; RLO's
// tie-break needs the about-to-be-inserted symbol instead, which
// SortPairsByU's fixed (U, V) key shape has no room for, so that path
// sorts directly.
func cycleGroups(rows []activeRow, ins []core.Symbol, rlo bool, threads int) [core.NumSymbols][]int {
	groups := classifyIndices(rows, threads)
	for s := range groups {
		idx := groups[s]
		if rlo {
			sort.Slice(idx, func(a, b int) bool {
				ra, rb := rows[idx[a]], rows[idx[b]]
				if ra.u != rb.u {
					return ra.u < rb.u
				}
				return ins[idx[a]] < ins[idx[b]]
			})
			continue
		}
		keys := make([]core.Pair64, len(idx))
		for j, i := range idx {
			keys[j] = core.Pair64{U: rows[i].u, V: uint64(i)}
		}
		core.SortPairsByU(keys)
		for j, k := range keys {
			idx[j] = int(k.V)
		}
	}
	return groups
}

// bucketBases returns, for every bucket, the number of characters
// already committed to it before this cycle's insertions -- each
// bucket's own accumulated length, independent of every other bucket's.
// A row's rank is always measured against the bucket it is about to
// occupy, never against some flat offset into a hypothetical
// concatenation of all six buckets.
func bucketBases(buckets [core.NumSymbols]*bucket) [core.NumSymbols]uint64 {
	var base [core.NumSymbols]uint64
	for s := 0; s < core.NumSymbols; s++ {
		base[s] = uint64(len(buckets[s].data))
	}
	return base
}

// assignNextRanks computes, for every row, the rank it will occupy
// within the bucket it is about to move into (ins[i]) once this cycle's
// insertions land. A target bucket's eventual contents interleave rows
// arriving from every source bucket in F-order (sentinel, A, C, G, T,
// N): a row moving into bucket a from source bucket s must rank after
// everything already resident in a (base[a]) and after every row from
// an earlier-processed source bucket that also moves into a, but before
// any row moving into a from a later-processed source bucket. Walking
// groups in F-order and, within each group, in the rank order cycleGroups
// already established, and handing out strictly increasing per-target
// counters reproduces exactly that order. This mirrors set_bwt/next_bwt's
// bcr->c[]/bwt->c[]/mc[] cross-bucket bookkeeping in bcr.c, computed here
// as plain counts rather than run-length-interleaved ones since buckets
// are kept as decompressed slices during construction (see bucket's
// doc comment).
func assignNextRanks(base [core.NumSymbols]uint64, ins []core.Symbol, groups [core.NumSymbols][]int) []uint64 {
	next := base
	nextU := make([]uint64, len(ins))
	for s := 0; s < core.NumSymbols; s++ {
		for _, i := range groups[s] {
			a := ins[i]
			nextU[i] = next[a]
			next[a]++
		}
	}
	return nextU
}

// runCycle advances the whole build by one column position: it drops
// finished rows, reclassifies and orders the survivors into their
// current buckets, splices each bucket's newly-inserted characters into
// its accumulated data at the position its rows' ranks indicate, assigns
// every row its rank in the bucket it is about to move into, and returns
// the rows again (now carrying next cycle's rank and bucket symbol) for
// the following call.
//
// runBucket does the per-bucket splice; when opts.Threaded is set the
// five non-sentinel buckets (A, C, G, T, N) run one per goroutine
// (bcr.c's fixed four-worker THR fan-out, generalized to also cover the
// N bucket) while bucket 0 always runs inline, matching the master/worker
// split of the original parallel driver. assignNextRanks runs inline on
// the caller's goroutine regardless of Threaded, since its cross-bucket
// counters have to be assigned in a fixed order to be deterministic.
func (b *BCR) runCycle(rows []activeRow, pos int) []activeRow {
	rows = dropFinished(rows, pos)
	ins := make([]core.Symbol, len(rows))
	for i, r := range rows {
		seqID := core.SeqID(r.v)
		ins[i] = lookahead(b.dna, seqID, b.lens[seqID], pos)
	}
	groups := cycleGroups(rows, ins, b.opts.ReverseLexOrder, b.opts.numThreads())
	base := bucketBases(b.bwt)
	nextU := assignNextRanks(base, ins, groups)

	run := func(s core.Symbol) {
		b.runBucket(s, rows, ins, groups[s], base[s])
	}

	if b.opts.Threaded {
		b.runParallel(run)
	} else {
		for s := 0; s < core.NumSymbols; s++ {
			run(core.Symbol(s))
		}
	}

	for i := range rows {
		rows[i].u = nextU[i]
		rows[i].v = core.WithSymbol(rows[i].v, ins[i])
	}

	obs := b.opts.observer()
	for s := 1; s < core.NumSymbols; s++ {
		if len(groups[s]) > 0 {
			obs.OnBucketComplete(pos, s)
		}
	}
	return rows
}

// runBucket splices the rows classified into bucket s (idx, already
// ordered by rank) into bucket s's accumulated data, in place of the
// gaps their ranks indicate. It only touches bucket s's own data; the
// row's rank and bucket symbol for the following cycle are assigned
// separately, by assignNextRanks, since those depend on every bucket's
// insertions this cycle, not just this one's.
func (b *BCR) runBucket(s core.Symbol, rows []activeRow, ins []core.Symbol, idx []int, base uint64) {
	bk := b.bwt[s]
	if len(idx) == 0 {
		return
	}
	old := bk.data
	next := make([]core.Symbol, 0, len(old)+len(idx))
	oldIdx := uint64(0)
	for _, i := range idx {
		offset := rows[i].u - base
		next = append(next, old[oldIdx:offset]...)
		oldIdx = offset
		next = append(next, ins[i])
	}
	next = append(next, old[oldIdx:]...)
	bk.data = next
}
