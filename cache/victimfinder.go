package cache

// A VictimFinder decides which block should be evicted. It is told about every
// hit and every fill so that it can keep its own ordering of the blocks.
type VictimFinder interface {
	// Visit is called when an access hits the block.
	Visit(block *Block)

	// Fill is called when a new block is installed into the block.
	Fill(block *Block)

	// FindVictim returns the block to replace in a full set.
	FindVictim(set *Set) *Block

	// Reset forgets all the ordering information.
	Reset()
}

// stampTable keeps one counter per (set, way). A stamped block receives the
// largest counter of its set plus one, so that the counters of a set order
// its blocks.
type stampTable struct {
	stamps [][]uint64
}

func newStampTable(numSets, numWays int) stampTable {
	t := stampTable{stamps: make([][]uint64, numSets)}
	for i := range t.stamps {
		t.stamps[i] = make([]uint64, numWays)
	}

	return t
}

func (t stampTable) stamp(block *Block) {
	row := t.stamps[block.SetID]

	var newest uint64
	for _, s := range row {
		if s > newest {
			newest = s
		}
	}

	row[block.WayID] = newest + 1
}

func (t stampTable) get(block *Block) uint64 {
	return t.stamps[block.SetID][block.WayID]
}

// minWay returns the way with the smallest counter. Ties go to the lowest way.
func (t stampTable) minWay(setID int) int {
	row := t.stamps[setID]
	way := 0

	for i := 1; i < len(row); i++ {
		if row[i] < row[way] {
			way = i
		}
	}

	return way
}

func (t stampTable) reset() {
	for _, row := range t.stamps {
		clear(row)
	}
}

// LRUVictimFinder evicts the least recently used block.
type LRUVictimFinder struct {
	recency stampTable
}

// NewLRUVictimFinder returns a newly constructed lru evictor.
func NewLRUVictimFinder(numSets, numWays int) *LRUVictimFinder {
	return &LRUVictimFinder{
		recency: newStampTable(numSets, numWays),
	}
}

// Visit marks the block as the most recently used one of its set.
func (e *LRUVictimFinder) Visit(block *Block) {
	e.recency.stamp(block)
}

// Fill marks the block as the most recently used one of its set.
func (e *LRUVictimFinder) Fill(block *Block) {
	e.recency.stamp(block)
}

// FindVictim returns the least recently used block in a set.
func (e *LRUVictimFinder) FindVictim(set *Set) *Block {
	return set.Blocks[e.recency.minWay(set.ID)]
}

// Recency returns the recency counter of the block. Larger is more recent.
func (e *LRUVictimFinder) Recency(block *Block) uint64 {
	return e.recency.get(block)
}

// Reset clears the recency counters.
func (e *LRUVictimFinder) Reset() {
	e.recency.reset()
}

// FIFOVictimFinder evicts the block that was filled the earliest. Hits do not
// change the order.
type FIFOVictimFinder struct {
	arrival stampTable
}

// NewFIFOVictimFinder returns a newly constructed fifo evictor.
func NewFIFOVictimFinder(numSets, numWays int) *FIFOVictimFinder {
	return &FIFOVictimFinder{
		arrival: newStampTable(numSets, numWays),
	}
}

// Visit does nothing.
func (e *FIFOVictimFinder) Visit(_ *Block) {
}

// Fill marks the block as the newest arrival of its set.
func (e *FIFOVictimFinder) Fill(block *Block) {
	e.arrival.stamp(block)
}

// FindVictim returns the oldest block in a set.
func (e *FIFOVictimFinder) FindVictim(set *Set) *Block {
	return set.Blocks[e.arrival.minWay(set.ID)]
}

// Arrival returns the arrival counter of the block. Larger is newer.
func (e *FIFOVictimFinder) Arrival(block *Block) uint64 {
	return e.arrival.get(block)
}

// Reset clears the arrival counters.
func (e *FIFOVictimFinder) Reset() {
	e.arrival.reset()
}

// LegacyFIFOVictimFinder tracks arrival order like FIFOVictimFinder but
// picks victims from a recency table it never writes to. Since all the
// counters of that table stay equal, the first way is always the victim.
type LegacyFIFOVictimFinder struct {
	*FIFOVictimFinder

	recency stampTable
}

// NewLegacyFIFOVictimFinder returns a newly constructed legacy fifo evictor.
func NewLegacyFIFOVictimFinder(numSets, numWays int) *LegacyFIFOVictimFinder {
	return &LegacyFIFOVictimFinder{
		FIFOVictimFinder: NewFIFOVictimFinder(numSets, numWays),
		recency:          newStampTable(numSets, numWays),
	}
}

// FindVictim returns the block with the lowest recency counter.
func (e *LegacyFIFOVictimFinder) FindVictim(set *Set) *Block {
	return set.Blocks[e.recency.minWay(set.ID)]
}

// Reset clears all counters.
func (e *LegacyFIFOVictimFinder) Reset() {
	e.FIFOVictimFinder.Reset()
	e.recency.reset()
}
