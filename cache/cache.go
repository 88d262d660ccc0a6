package cache

import "github.com/sarchlab/cachesim/hooking"

// AccessResult tells what an access did to the cache.
type AccessResult struct {
	Hit   bool
	SetID int
	WayID int
	Tag   uint64

	// Evicted is set when a valid block had to be replaced. EvictedTag is the
	// tag it held and WroteBack tells whether it was written to the memory.
	Evicted    bool
	EvictedTag uint64
	WroteBack  bool
}

// Cache is a set-associative cache. It is not safe for concurrent use.
type Cache struct {
	hooking.HookableBase

	name            string
	geometry        Geometry
	replaceStrategy ReplacementStrategy
	writeStrategy   WriteStrategy

	directory    *Directory
	victimFinder VictimFinder
	writePolicy  WritePolicy
	stats        Statistics
}

// Name returns the name of the cache.
func (c *Cache) Name() string {
	return c.name
}

// Geometry returns the shape of the cache.
func (c *Cache) Geometry() Geometry {
	return c.geometry
}

// ReplacementStrategy returns the replacement strategy the cache was built
// with.
func (c *Cache) ReplacementStrategy() ReplacementStrategy {
	return c.replaceStrategy
}

// WriteStrategy returns the write strategy the cache was built with.
func (c *Cache) WriteStrategy() WriteStrategy {
	return c.writeStrategy
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResidentTags returns the tags held by a set, in way order.
func (c *Cache) ResidentTags(setID int) []uint64 {
	return c.directory.ResidentTags(setID)
}

// Access simulates one memory access.
func (c *Cache) Access(op Op, addr uint64) AccessResult {
	setID, tag := c.geometry.Decode(addr)
	c.stats.Accesses++

	block := c.directory.Lookup(setID, tag)
	if block != nil {
		result := c.hit(op, block)
		c.traceAccess(op, addr, result)

		return result
	}

	result := c.miss(op, setID, tag)
	c.traceAccess(op, addr, result)

	return result
}

func (c *Cache) hit(op Op, block *Block) AccessResult {
	c.victimFinder.Visit(block)

	if op == OpWrite && c.writePolicy.WriteHit(block) {
		c.stats.MemoryWrites++
	}

	return AccessResult{
		Hit:   true,
		SetID: block.SetID,
		WayID: block.WayID,
		Tag:   block.Tag,
	}
}

func (c *Cache) miss(op Op, setID int, tag uint64) AccessResult {
	c.stats.Misses++
	c.stats.MemoryReads++

	result := AccessResult{
		SetID: setID,
		Tag:   tag,
	}

	block := c.directory.FindEmpty(setID)
	if block == nil {
		block = c.victimFinder.FindVictim(c.directory.GetSet(setID))
		c.evict(block, &result)
	}

	block.Tag = tag
	block.IsValid = true
	block.IsDirty = false
	c.victimFinder.Fill(block)

	if op == OpWrite && c.writePolicy.WriteFill(block) {
		c.stats.MemoryWrites++
	}

	result.WayID = block.WayID

	return result
}

func (c *Cache) evict(block *Block, result *AccessResult) {
	wroteBack := c.writePolicy.Evict(block)
	if wroteBack {
		c.stats.MemoryWrites++
		c.stats.WriteBacks++
	}

	c.stats.Evictions++
	c.traceEvict(block, wroteBack)

	result.Evicted = true
	result.EvictedTag = block.Tag
	result.WroteBack = wroteBack
}

// Flush writes every dirty block back to the memory. The blocks stay
// resident and become clean. It returns the number of blocks written back.
func (c *Cache) Flush() int {
	flushed := 0

	for i := range c.directory.Sets {
		for _, block := range c.directory.Sets[i].Blocks {
			if !block.IsValid || !c.writePolicy.Evict(block) {
				continue
			}

			block.IsDirty = false
			c.stats.MemoryWrites++
			c.stats.WriteBacks++
			flushed++
		}
	}

	return flushed
}

// Reset invalidates every block without writing anything back and clears the
// counters.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.victimFinder.Reset()
	c.stats = Statistics{}
}
