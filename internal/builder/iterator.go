package builder

import "bcrgo/internal/core"

// Cell is one run of the finished BWT: Count consecutive occurrences of
// Symbol.
type Cell struct {
	Symbol core.Symbol
	Count  uint64
}

// Iterator walks the finished BWT one run at a time across the six
// bucket streams in sentinel, A, C, G, T, N order, the concatenation
// spec.md's data model defines as the actual transform output. It is
// the counterpart of bcr.c's bcritr_t/bcr_itr_next, generalized to
// return whole runs (Cell) instead of raw decoded blocks, since callers
// building an FM-index or a rank/select structure over the result want
// run boundaries, not byte-block boundaries.
type Iterator struct {
	streams []*core.RLStream
	bucket  int
	cur     *core.RLStreamIterator
}

func newIterator(streams []*core.RLStream) *Iterator {
	it := &Iterator{streams: streams, bucket: -1}
	it.advanceBucket()
	return it
}

func (it *Iterator) advanceBucket() {
	for {
		it.bucket++
		if it.bucket >= len(it.streams) {
			it.cur = nil
			return
		}
		s := it.streams[it.bucket]
		if s == nil || s.NumSyms() == 0 {
			continue
		}
		it.cur = s.NewIterator()
		return
	}
}

// Next returns the next run in the transform, or ok=false once every
// bucket is exhausted.
func (it *Iterator) Next() (Cell, bool) {
	for it.cur != nil {
		sym, count, ok := it.cur.NextRun(0)
		if ok {
			return Cell{Symbol: sym, Count: count}, true
		}
		it.advanceBucket()
	}
	return Cell{}, false
}
