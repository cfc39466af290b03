package svcdeck

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/svcdeck/svcdeck/internal/config"
	"github.com/svcdeck/svcdeck/internal/health"
	"github.com/svcdeck/svcdeck/internal/history"
	"github.com/svcdeck/svcdeck/internal/logtail"
	"github.com/svcdeck/svcdeck/internal/metrics"
	"github.com/svcdeck/svcdeck/internal/monitor"
	"github.com/svcdeck/svcdeck/internal/orchestrator"
	"github.com/svcdeck/svcdeck/internal/registry"
	iapi "github.com/svcdeck/svcdeck/internal/server"
	"github.com/svcdeck/svcdeck/internal/status"
	"github.com/svcdeck/svcdeck/internal/tracker"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type ServiceConfig = registry.ServiceConfig

type ServiceStatus = status.ServiceStatus

type Verdict = tracker.Verdict

type LogEntry = logtail.Entry

type HistoryEvent = history.Event

type HistorySink = history.Sink

type Options = orchestrator.Options

// Deck is a thin facade over the internal orchestrator wiring. It provides
// a stable public API for embedding.
type Deck struct {
	reg  *registry.Registry
	trk  *tracker.Tracker
	orch *orchestrator.Orchestrator
	mon  *monitor.Monitor
}

// New wires a deck for the given services with the given timing options.
func New(services []ServiceConfig, opts Options) (*Deck, error) {
	reg, err := registry.New(services)
	if err != nil {
		return nil, err
	}
	trk := tracker.New()
	res := status.NewResolver(reg, trk)
	chk := health.NewChecker(reg, trk)
	orch := orchestrator.New(reg, trk, res, chk, opts)
	return &Deck{reg: reg, trk: trk, orch: orch}, nil
}

func (d *Deck) Start(name string) error                   { return d.orch.Start(name) }
func (d *Deck) Stop(name string) (bool, error)            { return d.orch.Stop(name) }
func (d *Deck) Restart(name string) error                 { return d.orch.Restart(name) }
func (d *Deck) StartAll() []string                        { return d.orch.StartAll() }
func (d *Deck) StopAll() []string                         { return d.orch.StopAll() }
func (d *Deck) Status(name string) (ServiceStatus, error) { return d.orch.Status(name) }
func (d *Deck) StatusAll() []ServiceStatus                { return d.orch.StatusAll() }
func (d *Deck) CheckHealth(name string) (Verdict, error)  { return d.orch.CheckHealth(name) }
func (d *Deck) SetAutoRestart(name string, enabled bool) error {
	return d.orch.SetAutoRestart(name, enabled)
}
func (d *Deck) AddHistorySink(s HistorySink) { d.orch.AddSink(s) }

// TailLogs returns the last n lines of name's configured log file.
func (d *Deck) TailLogs(name string, n int) ([]LogEntry, error) {
	c, err := d.reg.Get(name)
	if err != nil {
		return nil, err
	}
	return logtail.Tail(c.LogPath, name, n)
}

// ClearLogs truncates name's configured log file.
func (d *Deck) ClearLogs(name string) error {
	c, err := d.reg.Get(name)
	if err != nil {
		return err
	}
	return logtail.Truncate(c.LogPath)
}

// StartMonitor launches the auto-restart loop with the given tick interval.
// Zero means the default.
func (d *Deck) StartMonitor(interval time.Duration) {
	if d.mon == nil {
		d.mon = monitor.New(d.orch, interval)
	}
	d.mon.Start()
}

// StopMonitor halts the auto-restart loop if running.
func (d *Deck) StopMonitor() {
	if d.mon != nil {
		d.mon.Stop()
	}
}

// LoadConfig reads a TOML config file.
func LoadConfig(path string) (*cfg.FileConfig, error) {
	return cfg.Load(path)
}

// NewHTTPServer starts an HTTP server exposing the deck's API.
func NewHTTPServer(addr, basePath string, d *Deck) (*http.Server, error) {
	return iapi.NewServer(addr, basePath, d.orch, d.reg)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// ServeMetrics starts an HTTP server on addr exposing /metrics using the default registry.
// It returns any immediate listen error; otherwise it runs the server in the caller goroutine.
func ServeMetrics(addr string) error {
	http.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
