// Package monitoring turns a running simulation into a web server so that its
// progress and counters can be inspected while it runs.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/cachesim/cache"
)

// Monitor can turn a simulation into a server and allows external monitoring
// of the simulation.
type Monitor struct {
	portNumber      int
	profileDuration time.Duration

	cacheLock sync.Locker
	cache     *cache.Cache

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server   *http.Server
	listener net.Listener
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{
		profileDuration: time.Second,
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber <= 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterCache registers the cache to expose. The monitor holds lock while
// it reads the cache, so the simulation must hold the same lock while it
// mutates the cache.
func (m *Monitor) RegisterCache(c *cache.Cache, lock sync.Locker) {
	m.cache = c
	m.cacheLock = lock
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

func (m *Monitor) router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/stats", m.stats)
	r.HandleFunc("/api/cache", m.cacheDetails)
	r.HandleFunc("/api/set/{id:[0-9]+}", m.setDetails)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/debug/pprof/").Handler(http.DefaultServeMux)

	return r
}

// StartServer starts the monitor as a web server in the background.
func (m *Monitor) StartServer() error {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return fmt.Errorf("starting monitor: %w", err)
	}

	m.listener = listener
	m.server = &http.Server{
		Handler:           m.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.URL())

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Monitor stopped: %v\n", err)
		}
	}()

	return nil
}

// URL returns the address the server listens on. It is empty before
// StartServer.
func (m *Monitor) URL() string {
	if m.listener == nil {
		return ""
	}

	return fmt.Sprintf("http://localhost:%d",
		m.listener.Addr().(*net.TCPAddr).Port)
}

// OpenInBrowser opens the monitor page with the default browser.
func (m *Monitor) OpenInBrowser() error {
	if m.listener == nil {
		return errors.New("monitor is not running")
	}

	return browser.OpenURL(m.URL() + "/api/stats")
}

// StopServer shuts the server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressBarRsp, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type statsRsp struct {
	Name      string           `json:"name"`
	Stats     cache.Statistics `json:"stats"`
	Hits      uint64           `json:"hits"`
	MissRatio *float64         `json:"miss_ratio"`
}

func (m *Monitor) cacheOr404(w http.ResponseWriter) bool {
	if m.cache == nil {
		http.Error(w, "no cache registered", http.StatusNotFound)
		return false
	}

	return true
}

func (m *Monitor) stats(w http.ResponseWriter, _ *http.Request) {
	if !m.cacheOr404(w) {
		return
	}

	m.cacheLock.Lock()
	stats := m.cache.Stats()
	m.cacheLock.Unlock()

	rsp := statsRsp{
		Name:  m.cache.Name(),
		Stats: stats,
		Hits:  stats.Hits(),
	}

	if ratio, err := stats.MissRatio(); err == nil {
		rsp.MissRatio = &ratio
	}

	writeJSON(w, rsp)
}

func (m *Monitor) cacheDetails(w http.ResponseWriter, _ *http.Request) {
	if !m.cacheOr404(w) {
		return
	}

	buf := &bytes.Buffer{}

	m.cacheLock.Lock()
	serializer := goseth.NewSerializer()
	serializer.SetRoot(m.cache)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(buf)
	m.cacheLock.Unlock()

	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}

type setRsp struct {
	SetID int      `json:"set"`
	Tags  []string `json:"tags"`
}

func (m *Monitor) setDetails(w http.ResponseWriter, r *http.Request) {
	if !m.cacheOr404(w) {
		return
	}

	setID, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || setID >= m.cache.Geometry().NumSets() {
		http.Error(w, "set not found", http.StatusNotFound)
		return
	}

	m.cacheLock.Lock()
	tags := m.cache.ResidentTags(setID)
	m.cacheLock.Unlock()

	rsp := setRsp{SetID: setID, Tags: make([]string, 0, len(tags))}
	for _, t := range tags {
		rsp.Tags = append(rsp.Tags, fmt.Sprintf("0x%x", t))
	}

	writeJSON(w, rsp)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	rsp, err := currentResources()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, rsp)
}

func currentResources() (resourceRsp, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return resourceRsp{}, err
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		return resourceRsp{}, err
	}

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		return resourceRsp{}, err
	}

	return resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	}, nil
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, prof)
}
