package tracing

import (
	"sort"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/hooking"
)

// SetCount is the activity of one set.
type SetCount struct {
	SetID     int    `json:"set"`
	Accesses  uint64 `json:"accesses"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// A SetCountTracer tallies accesses, misses and evictions per set.
type SetCountTracer struct {
	counts []SetCount
}

// NewSetCountTracer creates a tracer for a cache with numSets sets.
func NewSetCountTracer(numSets int) *SetCountTracer {
	t := &SetCountTracer{counts: make([]SetCount, numSets)}
	for i := range t.counts {
		t.counts[i].SetID = i
	}

	return t
}

// Func counts the access carried by the hook context.
func (t *SetCountTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != cache.HookPosAccess {
		return
	}

	res := ctx.Item.(cache.AccessEvent).Result
	count := &t.counts[res.SetID]

	count.Accesses++
	if !res.Hit {
		count.Misses++
	}

	if res.Evicted {
		count.Evictions++
	}
}

// Count returns the tallies of a set.
func (t *SetCountTracer) Count(setID int) SetCount {
	return t.counts[setID]
}

// Hottest returns up to n sets with the most misses. Ties go to the set with
// more accesses, then to the lower set ID. Sets never accessed are left out,
// and n <= 0 returns none.
func (t *SetCountTracer) Hottest(n int) []SetCount {
	sorted := make([]SetCount, 0, len(t.counts))
	for _, c := range t.counts {
		if c.Accesses > 0 {
			sorted = append(sorted, c)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Misses != sorted[j].Misses {
			return sorted[i].Misses > sorted[j].Misses
		}

		return sorted[i].Accesses > sorted[j].Accesses
	})

	if n <= 0 {
		return []SetCount{}
	}

	if n < len(sorted) {
		sorted = sorted[:n]
	}

	return sorted
}
