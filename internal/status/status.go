package status

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/svcdeck/svcdeck/internal/procscan"
	"github.com/svcdeck/svcdeck/internal/registry"
	"github.com/svcdeck/svcdeck/internal/tracker"
)

// State is the lifecycle state reported for a service.
type State string

const (
	StateRunning  State = "running"
	StateStopped  State = "stopped"
	StateError    State = "error"
	StateUnknown  State = "unknown"
	StateStarting State = "starting"
	StateStopping State = "stopping"
)

// ServiceStatus is a point-in-time view of a service. It is recomputed on
// every query and never stored.
type ServiceStatus struct {
	Name          string          `json:"name"`
	State         State           `json:"status"`
	PID           int             `json:"pid,omitempty"`
	Port          int             `json:"port,omitempty"`
	UptimeSeconds uint64          `json:"uptime,omitempty"`
	Health        tracker.Verdict `json:"health"`
	CPUPercent    float64         `json:"cpuUsage"`
	MemoryMB      uint64          `json:"memoryUsage"`
	AutoRestart   bool            `json:"autoRestartEnabled"`
	Restarts      int             `json:"restartCount"`
}

// Resolver computes service statuses by cross-referencing the registry, the
// tracker, and a fresh snapshot of the OS process table.
type Resolver struct {
	reg      *registry.Registry
	trk      *tracker.Tracker
	snapshot func() (*procscan.Snapshot, error)
}

func NewResolver(reg *registry.Registry, trk *tracker.Tracker) *Resolver {
	return &Resolver{reg: reg, trk: trk, snapshot: procscan.Take}
}

// SetSnapshotFunc replaces the process-table source. Intended for callers
// that need a deterministic table (see procscan.NewStatic).
func (r *Resolver) SetSnapshotFunc(fn func() (*procscan.Snapshot, error)) {
	r.snapshot = fn
}

// Resolve computes the current status of name. A tracked pid found live in
// the snapshot wins; otherwise, when the service declares a port, the
// heuristic command-line scan is tried; otherwise the service is stopped.
func (r *Resolver) Resolve(name string) (ServiceStatus, error) {
	cfg, err := r.reg.Get(name)
	if err != nil {
		return ServiceStatus{}, err
	}
	snap, err := r.snapshot()
	if err != nil {
		return ServiceStatus{}, err
	}

	st := ServiceStatus{
		Name:        cfg.Name,
		State:       StateStopped,
		Port:        cfg.Port,
		Health:      tracker.VerdictUnknown,
		AutoRestart: cfg.AutoRestart,
	}

	rec, tracked := r.trk.Get(name)
	if tracked {
		st.Health = rec.Health
		st.Restarts = rec.Restarts
		st.UptimeSeconds = uint64(time.Since(rec.StartedAt).Seconds())
		if p, ok := snap.Lookup(rec.PID); ok {
			st.State = StateRunning
			st.PID = rec.PID
			st.CPUPercent = p.CPUPercent
			st.MemoryMB = p.MemoryMB
			return st, nil
		}
	}
	if cfg.Port > 0 {
		if p, ok := snap.FindByHints(cfg.Name, portHint(cfg.Port)); ok {
			st.State = StateRunning
			st.PID = int(p.PID)
			st.CPUPercent = p.CPUPercent
			st.MemoryMB = p.MemoryMB
		}
	}
	return st, nil
}

// ResolveAll resolves every registered service. Per-service failures are
// logged and the service is omitted; the call itself never fails.
func (r *Resolver) ResolveAll() []ServiceStatus {
	configs := r.reg.List()
	out := make([]ServiceStatus, 0, len(configs))
	for _, cfg := range configs {
		st, err := r.Resolve(cfg.Name)
		if err != nil {
			slog.Error("resolve service status", "service", cfg.Name, "error", err)
			continue
		}
		out = append(out, st)
	}
	return out
}

func portHint(port int) string {
	if port <= 0 {
		return ""
	}
	return strconv.Itoa(port)
}
