// Package cache models a set-associative hardware cache.
//
// The model only tracks which blocks are resident, never their contents. A
// Cache is fed one access at a time and accumulates hit, miss and memory
// traffic counters. Replacement (LRU, FIFO) and write handling
// (write-through, write-back) are strategies chosen once when the cache is
// built.
//
//	c, err := cache.MakeBuilder().
//		WithByteSize(32 * cache.KB).
//		WithWayAssociativity(8).
//		WithReplacementStrategy(cache.FIFO).
//		WithWriteStrategy(cache.WriteBack).
//		Build("L1")
package cache
