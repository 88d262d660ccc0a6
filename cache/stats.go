package cache

// Statistics holds the counters of a cache.
type Statistics struct {
	Accesses     uint64 `json:"accesses"`
	Misses       uint64 `json:"misses"`
	MemoryReads  uint64 `json:"memory_reads"`
	MemoryWrites uint64 `json:"memory_writes"`

	// Evictions counts the valid blocks that were replaced.
	Evictions uint64 `json:"evictions"`

	// WriteBacks counts the memory writes caused by dirty blocks leaving the
	// cache. They are included in MemoryWrites.
	WriteBacks uint64 `json:"write_backs"`
}

// Hits returns the number of accesses that did not miss.
func (s Statistics) Hits() uint64 {
	return s.Accesses - s.Misses
}

// MissRatio returns Misses / Accesses, or ErrNoAccesses if nothing was
// accessed.
func (s Statistics) MissRatio() (float64, error) {
	if s.Accesses == 0 {
		return 0, ErrNoAccesses
	}

	return float64(s.Misses) / float64(s.Accesses), nil
}
