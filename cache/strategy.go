package cache

import "strings"

// Op is the kind of a memory access.
type Op int

// Access kinds.
const (
	OpRead Op = iota
	OpWrite
)

func (o Op) String() string {
	switch o {
	case OpRead:
		return "R"
	case OpWrite:
		return "W"
	default:
		return "?"
	}
}

// ReplacementStrategy selects which victim finder a cache uses.
type ReplacementStrategy int

// Replacement strategies.
const (
	LRU ReplacementStrategy = iota
	FIFO

	// LegacyFIFO records arrival order like FIFO, but selects victims from a
	// recency table that is never updated. Every eviction therefore hits the
	// first way of the set. It exists to reproduce results of legacy
	// simulators that shipped with this behavior.
	LegacyFIFO
)

func (s ReplacementStrategy) String() string {
	switch s {
	case LRU:
		return "LRU"
	case FIFO:
		return "FIFO"
	case LegacyFIFO:
		return "LegacyFIFO"
	default:
		return "Unknown"
	}
}

// ParseReplacementStrategy accepts the numeric codes used on the command line
// (0 for LRU, 1 for FIFO) as well as the strategy names.
func ParseReplacementStrategy(s string) (ReplacementStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "lru":
		return LRU, nil
	case "1", "fifo":
		return FIFO, nil
	case "legacy-fifo", "legacyfifo":
		return LegacyFIFO, nil
	}

	return 0, &ConfigurationError{
		Field:  "replacement strategy",
		Value:  s,
		Reason: "must be one of 0, 1, lru, fifo, legacy-fifo",
	}
}

// WriteStrategy selects when a write reaches the memory.
type WriteStrategy int

// Write strategies.
const (
	WriteThrough WriteStrategy = iota
	WriteBack
)

func (s WriteStrategy) String() string {
	switch s {
	case WriteThrough:
		return "Write-Through"
	case WriteBack:
		return "Write-Back"
	default:
		return "Unknown"
	}
}

// ParseWriteStrategy accepts the numeric codes used on the command line (0 for
// write-through, 1 for write-back) as well as the strategy names.
func ParseWriteStrategy(s string) (WriteStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "write-through", "writethrough", "wt":
		return WriteThrough, nil
	case "1", "write-back", "writeback", "wb":
		return WriteBack, nil
	}

	return 0, &ConfigurationError{
		Field:  "write strategy",
		Value:  s,
		Reason: "must be one of 0, 1, write-through, write-back",
	}
}
