package cmd

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/report"
	"github.com/sarchlab/cachesim/simulation"
)

type runOptions struct {
	blockSize   uint64
	legacyFIFO  bool
	flush       bool
	format      string
	record      string
	monitor     bool
	monitorPort int
	openBrowser bool
	verbose     bool
	hottest     int
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	runCmd := &cobra.Command{
		Use:   "run <CACHE_SIZE> <ASSOC> <REPLACEMENT> <WB> <TRACE_FILE>",
		Short: "Run a trace through a cache and print the statistics",
		Long: `Run a trace through a cache and print the statistics.

REPLACEMENT is 0 (LRU) or 1 (FIFO). WB is 0 (write-through) or
1 (write-back). Names such as lru, fifo, wt and wb are also accepted.`,
		Args: cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := opts.applyEnv(cmd)
			if err != nil {
				return err
			}

			return opts.run(cmd, args)
		},
	}

	flags := runCmd.Flags()
	flags.Uint64Var(&opts.blockSize, "block-size", cache.DefaultBlockSize,
		"size of a cache block in bytes")
	flags.BoolVar(&opts.legacyFIFO, "legacy-fifo", false,
		"always evict way 0 of a full set, requires FIFO replacement")
	flags.BoolVar(&opts.flush, "flush", false,
		"write back dirty blocks at the end of the trace")
	flags.StringVar(&opts.format, "format", "text",
		"report format, text or json")
	flags.StringVar(&opts.record, "record", "",
		"record every access into the given SQLite database")
	flags.BoolVar(&opts.monitor, "monitor", false,
		"serve the simulation state over HTTP while running")
	flags.IntVar(&opts.monitorPort, "monitor-port", 0,
		"port of the monitoring server, random if not above 1000")
	flags.BoolVar(&opts.openBrowser, "open-browser", false,
		"open the monitoring server in a browser")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false,
		"log every access to stderr")
	flags.IntVar(&opts.hottest, "hottest", 5,
		"number of most-missed sets listed in the json report")

	return runCmd
}

func (o *runOptions) applyEnv(cmd *cobra.Command) error {
	flags := cmd.Flags()

	if v, ok := os.LookupEnv(EnvRecord); ok && !flags.Changed("record") {
		o.record = v
	}

	if v, ok := os.LookupEnv(EnvFormat); ok && !flags.Changed("format") {
		o.format = v
	}

	if v, ok := os.LookupEnv(EnvMonitorPort); ok &&
		!flags.Changed("monitor-port") {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvMonitorPort, err)
		}

		o.monitorPort = port
		o.monitor = true
	}

	if flags.Changed("monitor-port") || o.openBrowser {
		o.monitor = true
	}

	return nil
}

func (o *runOptions) cacheBuilder(args []string) (cache.Builder, error) {
	byteSize, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return cache.Builder{}, &cache.ConfigurationError{
			Field: "byte size", Value: args[0], Reason: "must be an integer",
		}
	}

	assoc, err := strconv.Atoi(args[1])
	if err != nil {
		return cache.Builder{}, &cache.ConfigurationError{
			Field: "way associativity", Value: args[1],
			Reason: "must be an integer",
		}
	}

	replacement, err := cache.ParseReplacementStrategy(args[2])
	if err != nil {
		return cache.Builder{}, err
	}

	if o.legacyFIFO {
		if replacement == cache.LRU {
			return cache.Builder{}, &cache.ConfigurationError{
				Field: "replacement strategy", Value: args[2],
				Reason: "cannot be combined with --legacy-fifo",
			}
		}

		replacement = cache.LegacyFIFO
	}

	write, err := cache.ParseWriteStrategy(args[3])
	if err != nil {
		return cache.Builder{}, err
	}

	return cache.MakeBuilder().
		WithByteSize(byteSize).
		WithWayAssociativity(assoc).
		WithBlockSize(o.blockSize).
		WithReplacementStrategy(replacement).
		WithWriteStrategy(write), nil
}

func (o *runOptions) simulationBuilder(
	cmd *cobra.Command,
	cacheBuilder cache.Builder,
) simulation.Builder {
	b := simulation.MakeBuilder().WithCacheBuilder(cacheBuilder)

	if o.record != "" {
		b = b.WithRecording(o.record)
	}

	if o.monitor {
		b = b.WithMonitoring().WithMonitorPort(o.monitorPort)
	}

	if o.openBrowser {
		b = b.WithBrowser()
	}

	if o.verbose {
		b = b.WithLogger(log.New(cmd.ErrOrStderr(), "", 0))
	}

	if o.flush {
		b = b.WithFlush()
	}

	return b
}

func (o *runOptions) run(cmd *cobra.Command, args []string) error {
	format, err := report.ParseFormat(o.format)
	if err != nil {
		return err
	}

	if o.hottest < 0 {
		return fmt.Errorf("--hottest must not be negative, got %d", o.hottest)
	}

	cacheBuilder, err := o.cacheBuilder(args)
	if err != nil {
		return err
	}

	sim, err := o.simulationBuilder(cmd, cacheBuilder).Build()
	if err != nil {
		return err
	}

	err = sim.RunFile(cmd.Context(), args[4])
	if err != nil {
		_ = sim.Terminate()
		return fmt.Errorf("running %s: %w", args[4], err)
	}

	err = sim.Terminate()
	if err != nil {
		return err
	}

	r := report.FromCache(sim.Cache())
	r.Flushed = sim.Flushed()
	r.HottestSets = sim.SetTracer().Hottest(o.hottest)

	return report.Write(cmd.OutOrStdout(), r, format)
}
