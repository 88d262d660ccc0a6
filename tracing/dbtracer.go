package tracing

import (
	"fmt"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/hooking"
)

// AccessTableName is the table DBTracer writes to.
const AccessTableName = "cache_accesses"

// AccessEntry is a row of the access table. Addresses are stored as hex
// strings since SQLite integers are signed.
type AccessEntry struct {
	RunID      string
	Seq        uint64
	Op         string
	Address    string
	SetID      int
	WayID      int
	Tag        string
	Hit        bool
	Evicted    bool
	EvictedTag string
	WroteBack  bool
}

// A DBTracer is a hook that records every cache access into a data recorder.
type DBTracer struct {
	runID        string
	dataRecorder datarecording.DataRecorder
}

// NewDBTracer creates a DBTracer and the table it writes to.
func NewDBTracer(
	dataRecorder datarecording.DataRecorder,
	runID string,
) *DBTracer {
	t := &DBTracer{
		runID:        runID,
		dataRecorder: dataRecorder,
	}

	t.dataRecorder.CreateTable(AccessTableName, AccessEntry{})

	return t
}

// Func records the access carried by the hook context.
func (t *DBTracer) Func(ctx hooking.HookCtx) {
	if ctx.Pos != cache.HookPosAccess {
		return
	}

	event := ctx.Item.(cache.AccessEvent)
	res := event.Result

	entry := AccessEntry{
		RunID:     t.runID,
		Seq:       event.Seq,
		Op:        event.Op.String(),
		Address:   hex(event.Address),
		SetID:     res.SetID,
		WayID:     res.WayID,
		Tag:       hex(res.Tag),
		Hit:       res.Hit,
		Evicted:   res.Evicted,
		WroteBack: res.WroteBack,
	}

	if res.Evicted {
		entry.EvictedTag = hex(res.EvictedTag)
	}

	t.dataRecorder.InsertData(AccessTableName, entry)
}

func hex(v uint64) string {
	return fmt.Sprintf("0x%x", v)
}
