package simulation

import (
	"errors"
	"log"

	"github.com/rs/xid"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/monitoring"
	"github.com/sarchlab/cachesim/tracing"
)

// Builder can be used to build a simulation.
type Builder struct {
	cacheBuilder cache.Builder
	cacheName    string
	recordOn     bool
	recordPath   string
	monitorOn    bool
	monitorPort  int
	openBrowser  bool
	logger       *log.Logger
	flush        bool
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		cacheBuilder: cache.MakeBuilder(),
		cacheName:    "Cache",
	}
}

// WithCacheBuilder sets the builder used to create the simulated cache.
func (b Builder) WithCacheBuilder(cacheBuilder cache.Builder) Builder {
	b.cacheBuilder = cacheBuilder
	return b
}

// WithCacheName sets the name of the simulated cache.
func (b Builder) WithCacheName(name string) Builder {
	b.cacheName = name
	return b
}

// WithRecording makes the simulation record every access and a run summary
// into the SQLite database at path. An empty path generates a file name.
func (b Builder) WithRecording(path string) Builder {
	b.recordOn = true
	b.recordPath = path

	return b
}

// WithMonitoring starts a monitoring server while the simulation runs.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser opens the monitoring page once the server is up.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

// WithLogger logs every access and eviction to logger.
func (b Builder) WithLogger(logger *log.Logger) Builder {
	b.logger = logger
	return b
}

// WithFlush writes back every dirty block once the trace ends.
func (b Builder) WithFlush() Builder {
	b.flush = true
	return b
}

func (b Builder) parametersMustBeValid() error {
	if !b.monitorOn && b.monitorPort != 0 {
		return errors.New(
			"monitor port cannot be set when monitoring is disabled")
	}

	if !b.monitorOn && b.openBrowser {
		return errors.New(
			"browser cannot be opened when monitoring is disabled")
	}

	return nil
}

// Build builds the simulation.
func (b Builder) Build() (*Simulation, error) {
	if err := b.parametersMustBeValid(); err != nil {
		return nil, err
	}

	c, err := b.cacheBuilder.Build(b.cacheName)
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		id:    xid.New().String(),
		cache: c,
		flush: b.flush,
	}

	s.setTracer = tracing.NewSetCountTracer(c.Geometry().NumSets())
	c.AcceptHook(s.setTracer)

	if b.logger != nil {
		c.AcceptHook(tracing.NewLogTracer(b.logger))
	}

	if b.recordOn {
		err = b.attachRecorder(s)
		if err != nil {
			return nil, err
		}
	}

	if b.monitorOn {
		err = b.attachMonitor(s)
		if err != nil {
			s.Terminate()
			return nil, err
		}
	}

	return s, nil
}

func (b Builder) attachRecorder(s *Simulation) error {
	path := b.recordPath
	if path == "" {
		path = "cachesim_" + s.id
	}

	recorder, err := datarecording.New(path)
	if err != nil {
		return err
	}

	recorder.CreateTable(SummaryTableName, RunSummary{})

	s.dataRecorder = recorder
	s.cache.AcceptHook(tracing.NewDBTracer(recorder, s.id))

	return nil
}

func (b Builder) attachMonitor(s *Simulation) error {
	s.monitor = monitoring.NewMonitor()
	if b.monitorPort > 0 {
		s.monitor.WithPortNumber(b.monitorPort)
	}

	s.monitor.RegisterCache(s.cache, &s.lock)

	err := s.monitor.StartServer()
	if err != nil {
		return err
	}

	if b.openBrowser {
		err = s.monitor.OpenInBrowser()
		if err != nil {
			log.Printf("cannot open browser: %v", err)
		}
	}

	return nil
}
