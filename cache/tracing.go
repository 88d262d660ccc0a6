package cache

import "github.com/sarchlab/cachesim/hooking"

// HookPosAccess is triggered after every access. The item is an AccessEvent.
var HookPosAccess = &hooking.HookPos{Name: "CacheAccess"}

// HookPosEvict is triggered before a valid block is replaced. The item is an
// EvictEvent.
var HookPosEvict = &hooking.HookPos{Name: "CacheEvict"}

// AccessEvent describes one simulated access.
type AccessEvent struct {
	Seq     uint64
	Op      Op
	Address uint64
	Result  AccessResult
}

// EvictEvent describes a block leaving the cache.
type EvictEvent struct {
	SetID     int
	WayID     int
	Tag       uint64
	WroteBack bool
}

func (c *Cache) traceAccess(op Op, addr uint64, result AccessResult) {
	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosAccess,
		Item: AccessEvent{
			Seq:     c.stats.Accesses,
			Op:      op,
			Address: addr,
			Result:  result,
		},
	})
}

func (c *Cache) traceEvict(block *Block, wroteBack bool) {
	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosEvict,
		Item: EvictEvent{
			SetID:     block.SetID,
			WayID:     block.WayID,
			Tag:       block.Tag,
			WroteBack: wroteBack,
		},
	})
}
