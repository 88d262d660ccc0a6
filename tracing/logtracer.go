package tracing

import (
	"log"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/hooking"
)

// A LogTracer prints one line per access.
type LogTracer struct {
	logger *log.Logger
}

// NewLogTracer creates a LogTracer that writes to logger.
func NewLogTracer(logger *log.Logger) *LogTracer {
	return &LogTracer{logger: logger}
}

// Func prints the access or eviction carried by the hook context.
func (t *LogTracer) Func(ctx hooking.HookCtx) {
	switch item := ctx.Item.(type) {
	case cache.AccessEvent:
		res := item.Result
		kind := "miss"
		if res.Hit {
			kind = "hit"
		}

		t.logger.Printf("access, %d, %s, 0x%x, %d, %d, 0x%x, %s\n",
			item.Seq, item.Op, item.Address,
			res.SetID, res.WayID, res.Tag, kind)
	case cache.EvictEvent:
		t.logger.Printf("evict, %d, %d, 0x%x, %t\n",
			item.SetID, item.WayID, item.Tag, item.WroteBack)
	}
}
