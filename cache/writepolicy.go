package cache

// A WritePolicy decides when written data reaches the memory. Each method
// reports whether a memory write happens as a consequence of the call.
type WritePolicy interface {
	// WriteHit is called when a write hits the block.
	WriteHit(block *Block) bool

	// WriteFill is called when a write misses and the block has just been
	// filled for it.
	WriteFill(block *Block) bool

	// Evict is called before a valid block is replaced or flushed.
	Evict(block *Block) bool
}

// WriteThroughPolicy sends every write to the memory immediately. Blocks are
// never dirty.
type WriteThroughPolicy struct{}

// WriteHit always writes to the memory.
func (WriteThroughPolicy) WriteHit(_ *Block) bool {
	return true
}

// WriteFill always writes to the memory.
func (WriteThroughPolicy) WriteFill(_ *Block) bool {
	return true
}

// Evict never writes, the memory is already up to date.
func (WriteThroughPolicy) Evict(_ *Block) bool {
	return false
}

// WriteBackPolicy marks written blocks dirty and defers the memory write
// until the block leaves the cache.
type WriteBackPolicy struct{}

// WriteHit marks the block dirty.
func (WriteBackPolicy) WriteHit(block *Block) bool {
	block.IsDirty = true
	return false
}

// WriteFill marks the block dirty.
func (WriteBackPolicy) WriteFill(block *Block) bool {
	block.IsDirty = true
	return false
}

// Evict writes the block back if it is dirty.
func (WriteBackPolicy) Evict(block *Block) bool {
	return block.IsDirty
}
