package builder

import (
	"sync"

	"bcrgo/internal/core"
)

// runParallel dispatches run for the five non-sentinel buckets (A, C, G,
// T, N) across goroutines and runs the sentinel bucket inline, then
// waits for every worker to finish before returning. Each bucket only
// ever touches its own bucket's accumulated data and its own slice of
// the shared rows array (partitioned by cycleGroups before this is
// called), so the workers share no mutable state and need no locking --
// a sync.WaitGroup is the only coordination required, standing in for
// bcr.c's spin-on-atomic-flag master/worker loop (spec.md's own design
// notes accept either).
//
// This always fans out across every non-sentinel bucket regardless of
// Options.NumThreads: NumThreads bounds unrelated helper parallelism
// within a single bucket's own work, not this fixed worker count.
func (b *BCR) runParallel(run func(core.Symbol)) {
	var wg sync.WaitGroup
	for s := core.SymA; s <= core.SymN; s++ {
		s := s
		wg.Add(1)
		go func() {
			defer wg.Done()
			run(s)
		}()
	}
	run(core.SymSentinel)
	wg.Wait()
}
