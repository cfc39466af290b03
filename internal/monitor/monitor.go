package monitor

import (
	"log/slog"
	"sync"
	"time"

	"github.com/svcdeck/svcdeck/internal/metrics"
	"github.com/svcdeck/svcdeck/internal/status"
)

// DefaultInterval matches the observed production tick.
const DefaultInterval = 10 * time.Second

// Supervisor is the slice of the orchestrator the monitor needs.
type Supervisor interface {
	AutoRestartServices() []string
	Status(name string) (status.ServiceStatus, error)
	Restart(name string) error
	StatusAll() []status.ServiceStatus
}

// Monitor periodically restarts auto-restart-enabled services that are not
// running. Restarts are dispatched on their own goroutines; a restart that
// outlasts one interval may overlap with the next tick's attempt for the
// same service.
type Monitor struct {
	sup      Supervisor
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
}

func New(sup Supervisor, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Monitor{sup: sup, interval: interval}
}

// Start launches the background loop. Calling Start on a running monitor is
// a no-op.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.stop != nil {
		m.mu.Unlock()
		return // already running
	}
	stop := make(chan struct{})
	m.stop = stop
	m.mu.Unlock()
	go func() {
		t := time.NewTicker(m.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				m.Tick()
			case <-stop:
				return
			}
		}
	}()
}

// Stop halts the background loop if running. In-flight restarts finish on
// their own.
func (m *Monitor) Stop() {
	m.mu.Lock()
	ch := m.stop
	m.stop = nil
	m.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}

// Tick runs one monitoring pass: every auto-restart-enabled service that is
// not running gets a restart dispatched on its own goroutine.
func (m *Monitor) Tick() {
	running := 0
	for _, st := range m.sup.StatusAll() {
		if st.State == status.StateRunning {
			running++
		}
	}
	metrics.SetRunningServices(running)

	for _, name := range m.sup.AutoRestartServices() {
		st, err := m.sup.Status(name)
		if err != nil {
			slog.Error("monitor status check failed", "service", name, "error", err)
			continue
		}
		if st.State == status.StateRunning {
			continue
		}
		slog.Info("auto-restarting service", "service", name)
		metrics.IncMonitorRestart(name)
		go func(name string) {
			if err := m.sup.Restart(name); err != nil {
				slog.Error("auto-restart failed", "service", name, "error", err)
			}
		}(name)
	}
}
