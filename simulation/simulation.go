// Package simulation drives a cache through a trace and wires the optional
// recording, logging, and monitoring services around it.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/tracefile"
	"github.com/sarchlab/cachesim/tracing"
)

// SummaryTableName is the table that holds one row per recorded run.
const SummaryTableName = "run_summary"

const checkInterval = 1024

// RunSummary is a row of the summary table.
type RunSummary struct {
	RunID         string
	TraceFile     string
	CacheSize     uint64
	Associativity int
	BlockSize     uint64
	Replacement   string
	WritePolicy   string
	Accesses      uint64
	Misses        uint64
	MemoryReads   uint64
	MemoryWrites  uint64
	Evictions     uint64
	WriteBacks    uint64
	Flushed       int
}

// A Simulation feeds trace records to a cache.
type Simulation struct {
	id    string
	lock  sync.Mutex
	cache *cache.Cache
	flush bool

	flushed   int
	setTracer *tracing.SetCountTracer

	dataRecorder datarecording.DataRecorder
	monitor      *monitoring.Monitor
}

// ID returns the unique ID of the simulation. Recorded rows carry it as the
// run ID.
func (s *Simulation) ID() string {
	return s.id
}

// Cache returns the simulated cache.
func (s *Simulation) Cache() *cache.Cache {
	return s.cache
}

// SetTracer returns the tracer that counts per-set activity.
func (s *Simulation) SetTracer() *tracing.SetCountTracer {
	return s.setTracer
}

// GetDataRecorder returns the data recorder, or nil if recording is off.
func (s *Simulation) GetDataRecorder() datarecording.DataRecorder {
	return s.dataRecorder
}

// GetMonitor returns the monitor, or nil if monitoring is off.
func (s *Simulation) GetMonitor() *monitoring.Monitor {
	return s.monitor
}

// Flushed returns the number of blocks written back by the final flush.
func (s *Simulation) Flushed() int {
	return s.flushed
}

// Stats returns a snapshot of the cache statistics.
func (s *Simulation) Stats() cache.Statistics {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.cache.Stats()
}

// RunFile runs the trace stored at path.
func (s *Simulation) RunFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var size uint64

	info, err := f.Stat()
	if err == nil {
		size = uint64(info.Size())
	}

	return s.run(ctx, filepath.Base(path), f, size)
}

// Run runs the trace read from r.
func (s *Simulation) Run(ctx context.Context, r io.Reader) error {
	return s.run(ctx, "", r, 0)
}

func (s *Simulation) run(
	ctx context.Context,
	traceName string,
	r io.Reader,
	size uint64,
) error {
	reader := tracefile.NewReader(r)

	var bar *monitoring.ProgressBar
	if s.monitor != nil {
		bar = s.monitor.CreateProgressBar(strings.TrimSpace("Trace "+traceName), size)
		defer s.monitor.CompleteProgressBar(bar)
	}

	for n := 1; ; n++ {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("reading trace: %w", err)
		}

		s.lock.Lock()
		s.cache.Access(rec.Op, rec.Address)
		s.lock.Unlock()

		if n%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}

			if bar != nil {
				bar.SetFinished(reader.BytesRead())
			}
		}
	}

	if bar != nil {
		bar.SetFinished(reader.BytesRead())
	}

	if s.flush {
		s.lock.Lock()
		s.flushed = s.cache.Flush()
		s.lock.Unlock()
	}

	s.recordSummary(traceName)

	return nil
}

func (s *Simulation) recordSummary(traceName string) {
	if s.dataRecorder == nil {
		return
	}

	g := s.cache.Geometry()
	stats := s.Stats()

	s.dataRecorder.InsertData(SummaryTableName, RunSummary{
		RunID:         s.id,
		TraceFile:     traceName,
		CacheSize:     g.ByteSize,
		Associativity: g.WayAssociativity,
		BlockSize:     g.BlockSize,
		Replacement:   s.cache.ReplacementStrategy().String(),
		WritePolicy:   s.cache.WriteStrategy().String(),
		Accesses:      stats.Accesses,
		Misses:        stats.Misses,
		MemoryReads:   stats.MemoryReads,
		MemoryWrites:  stats.MemoryWrites,
		Evictions:     stats.Evictions,
		WriteBacks:    stats.WriteBacks,
		Flushed:       s.flushed,
	})
}

// Terminate flushes the recorder and stops the monitor.
func (s *Simulation) Terminate() error {
	var errs []error

	if s.monitor != nil {
		errs = append(errs, s.monitor.StopServer(context.Background()))
	}

	if s.dataRecorder != nil {
		errs = append(errs, s.dataRecorder.Close())
	}

	return errors.Join(errs...)
}
