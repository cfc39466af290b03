package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"sort"
	"strconv"
	"time"

	"github.com/svcdeck/svcdeck/internal/health"
	"github.com/svcdeck/svcdeck/internal/history"
	"github.com/svcdeck/svcdeck/internal/metrics"
	"github.com/svcdeck/svcdeck/internal/procscan"
	"github.com/svcdeck/svcdeck/internal/registry"
	"github.com/svcdeck/svcdeck/internal/status"
	"github.com/svcdeck/svcdeck/internal/tracker"
)

// Batch ordering strategies for StartAll.
const (
	OrderingDependency  = "dependency"  // ascending direct-dependency count
	OrderingTopological = "topological" // full topological order
)

// Default timing parameters. Each can be overridden via Options.
const (
	DefaultSettleDelay    = 2 * time.Second
	DefaultCorrelateDelay = 500 * time.Millisecond
	DefaultRestartDelay   = 2 * time.Second
	DefaultBatchDelay     = 500 * time.Millisecond
)

// Options tunes orchestration timing and batch ordering. Zero values take
// the package defaults.
type Options struct {
	SettleDelay    time.Duration // wait after starting a dependency
	CorrelateDelay time.Duration // wait before the post-launch process scan
	RestartDelay   time.Duration // wait between stop and start during restart
	BatchDelay     time.Duration // spacing between services in StartAll
	Ordering       string        // OrderingDependency or OrderingTopological
}

func (o Options) withDefaults() Options {
	if o.SettleDelay <= 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.CorrelateDelay <= 0 {
		o.CorrelateDelay = DefaultCorrelateDelay
	}
	if o.RestartDelay <= 0 {
		o.RestartDelay = DefaultRestartDelay
	}
	if o.BatchDelay <= 0 {
		o.BatchDelay = DefaultBatchDelay
	}
	if o.Ordering == "" {
		o.Ordering = OrderingDependency
	}
	return o
}

// Orchestrator starts, stops, and restarts the registered services. Launched
// processes run in their own process groups and outlive this process; the
// tracker holds the orchestrator's best-effort belief about their pids.
type Orchestrator struct {
	reg  *registry.Registry
	trk  *tracker.Tracker
	res  *status.Resolver
	chk  *health.Checker
	opts Options

	sinks []history.Sink

	// overridable in tests
	snapshot func() (*procscan.Snapshot, error)
	killPort func(port int) error
}

func New(reg *registry.Registry, trk *tracker.Tracker, res *status.Resolver, chk *health.Checker, opts Options) *Orchestrator {
	return &Orchestrator{
		reg:      reg,
		trk:      trk,
		res:      res,
		chk:      chk,
		opts:     opts.withDefaults(),
		snapshot: procscan.Take,
		killPort: killByPort,
	}
}

// AddSink registers a lifecycle event sink. Sinks receive start, stop,
// restart, and auto-restart toggles; send failures are logged and dropped.
func (o *Orchestrator) AddSink(s history.Sink) {
	if s != nil {
		o.sinks = append(o.sinks, s)
	}
}

func (o *Orchestrator) record(e history.Event) {
	for _, s := range o.sinks {
		if err := s.Send(context.Background(), e); err != nil {
			slog.Warn("history sink send failed", "service", e.Service, "event", string(e.Type), "error", err)
		}
	}
}

// Start launches name after ensuring every declared dependency is running.
// Dependency resolution is depth-first with cycle detection; each freshly
// started dependency is followed by the settle delay. Success means the OS
// launch succeeded, independent of whether pid correlation found the real
// child behind an intermediary shell.
func (o *Orchestrator) Start(name string) error {
	return o.startWithDeps(name, make(map[string]bool))
}

func (o *Orchestrator) startWithDeps(name string, path map[string]bool) error {
	if path[name] {
		return fmt.Errorf("dependency cycle detected at %s", name)
	}
	path[name] = true
	defer delete(path, name)

	cfg, err := o.reg.Get(name)
	if err != nil {
		return err
	}
	for _, dep := range cfg.Dependencies {
		st, err := o.res.Resolve(dep)
		if err != nil {
			return fmt.Errorf("failed to resolve dependency %s: %w", dep, err)
		}
		if st.State == status.StateRunning {
			continue
		}
		if err := o.startWithDeps(dep, path); err != nil {
			return fmt.Errorf("failed to start dependency %s: %w", dep, err)
		}
		time.Sleep(o.opts.SettleDelay)
	}
	return o.launchAndTrack(cfg)
}

func (o *Orchestrator) launchAndTrack(cfg registry.ServiceConfig) error {
	cmd, err := launch(cfg)
	if err != nil {
		return err
	}
	pid := cmd.Process.Pid
	slog.Info("service launched", "service", cfg.Name, "pid", pid)
	metrics.IncStart(cfg.Name)

	// The launched pid may be an intermediary shell. Give the real child a
	// moment to appear, then try to correlate it by command line.
	time.Sleep(o.opts.CorrelateDelay)
	if snap, err := o.snapshot(); err == nil {
		if p, ok := snap.FindByHints(cfg.Name, portHint(cfg.Port)); ok {
			pid = int(p.PID)
		}
	}
	o.trk.Track(cfg.Name, pid)
	o.record(history.Event{Type: history.EventStart, OccurredAt: time.Now().UTC(), Service: cfg.Name, PID: pid})
	return nil
}

// Stop drops the tracker record and, when the service declares a port, kills
// whatever listens on it. A portless service cannot be stopped this way and
// reports false without error.
func (o *Orchestrator) Stop(name string) (bool, error) {
	cfg, err := o.reg.Get(name)
	if err != nil {
		return false, err
	}
	o.trk.Untrack(name)
	if cfg.Port <= 0 {
		return false, nil
	}
	if err := o.killPort(cfg.Port); err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			// nothing was listening, or the kill itself failed
			return false, nil
		}
		return false, fmt.Errorf("failed to stop %s on port %d: %w", name, cfg.Port, err)
	}
	metrics.IncStop(name)
	o.record(history.Event{Type: history.EventStop, OccurredAt: time.Now().UTC(), Service: name, Detail: "port " + strconv.Itoa(cfg.Port)})
	return true, nil
}

// Restart stops name, waits the restart delay, bumps its restart counter,
// and starts it again. The sequence is not atomic; concurrent callers may
// interleave.
func (o *Orchestrator) Restart(name string) error {
	if _, err := o.reg.Get(name); err != nil {
		return err
	}
	if _, err := o.Stop(name); err != nil {
		slog.Warn("stop before restart failed", "service", name, "error", err)
	}
	time.Sleep(o.opts.RestartDelay)
	o.trk.BumpRestart(name)
	if err := o.Start(name); err != nil {
		return err
	}
	metrics.IncRestart(name)
	o.record(history.Event{Type: history.EventRestart, OccurredAt: time.Now().UTC(), Service: name})
	return nil
}

// StartAll starts every registered service in batch order with the batch
// delay between launches. It never aborts; the returned lines report one
// outcome per service.
func (o *Orchestrator) StartAll() []string {
	order := o.startOrder()
	results := make([]string, 0, len(order))
	for i, name := range order {
		if i > 0 {
			time.Sleep(o.opts.BatchDelay)
		}
		if err := o.Start(name); err != nil {
			results = append(results, fmt.Sprintf("%s: failed - %v", name, err))
			continue
		}
		results = append(results, fmt.Sprintf("%s: started", name))
	}
	return results
}

// StopAll stops every registered service, reporting one outcome line per
// service. Stops that found nothing to kill still count as stopped.
func (o *Orchestrator) StopAll() []string {
	configs := o.reg.List()
	results := make([]string, 0, len(configs))
	for _, cfg := range configs {
		if _, err := o.Stop(cfg.Name); err != nil {
			results = append(results, fmt.Sprintf("%s: failed - %v", cfg.Name, err))
			continue
		}
		results = append(results, fmt.Sprintf("%s: stopped", cfg.Name))
	}
	return results
}

// startOrder computes the StartAll launch order. The default sorts by
// ascending direct-dependency count; OrderingTopological runs Kahn's
// algorithm over the dependency graph instead. Ties break by name.
func (o *Orchestrator) startOrder() []string {
	configs := o.reg.List()
	if o.opts.Ordering == OrderingTopological {
		return topoOrder(configs)
	}
	names := make([]string, len(configs))
	for i, cfg := range configs {
		names[i] = cfg.Name
	}
	sort.SliceStable(names, func(i, j int) bool {
		ci, _ := o.reg.Get(names[i])
		cj, _ := o.reg.Get(names[j])
		return len(ci.Dependencies) < len(cj.Dependencies)
	})
	return names
}

// topoOrder is Kahn's algorithm: dependencies before dependents, name order
// among ready nodes. Nodes left over from a cycle are appended in name order
// so every service still gets one outcome line.
func topoOrder(configs []registry.ServiceConfig) []string {
	indeg := make(map[string]int, len(configs))
	dependents := make(map[string][]string, len(configs))
	for _, cfg := range configs {
		indeg[cfg.Name] = len(cfg.Dependencies)
		for _, dep := range cfg.Dependencies {
			dependents[dep] = append(dependents[dep], cfg.Name)
		}
	}
	var ready []string
	for _, cfg := range configs {
		if indeg[cfg.Name] == 0 {
			ready = append(ready, cfg.Name)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(configs))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		var unblocked []string
		for _, d := range dependents[name] {
			indeg[d]--
			if indeg[d] == 0 {
				unblocked = append(unblocked, d)
			}
		}
		sort.Strings(unblocked)
		ready = append(ready, unblocked...)
	}
	if len(order) < len(configs) {
		var rest []string
		seen := make(map[string]bool, len(order))
		for _, n := range order {
			seen[n] = true
		}
		for _, cfg := range configs {
			if !seen[cfg.Name] {
				rest = append(rest, cfg.Name)
			}
		}
		sort.Strings(rest)
		order = append(order, rest...)
	}
	return order
}

// CheckHealth probes name and records the verdict.
func (o *Orchestrator) CheckHealth(name string) (tracker.Verdict, error) {
	return o.chk.Check(name)
}

// SetAutoRestart flips the auto-restart flag for name.
func (o *Orchestrator) SetAutoRestart(name string, enabled bool) error {
	if err := o.reg.SetAutoRestart(name, enabled); err != nil {
		return err
	}
	o.record(history.Event{Type: history.EventAutoRestart, OccurredAt: time.Now().UTC(), Service: name, Detail: "enabled=" + strconv.FormatBool(enabled)})
	return nil
}

// AutoRestartServices lists the names with auto-restart enabled, sorted.
func (o *Orchestrator) AutoRestartServices() []string {
	var names []string
	for _, cfg := range o.reg.List() {
		if cfg.AutoRestart {
			names = append(names, cfg.Name)
		}
	}
	return names
}

// Status resolves the current status of one service.
func (o *Orchestrator) Status(name string) (status.ServiceStatus, error) {
	return o.res.Resolve(name)
}

// StatusAll resolves every registered service.
func (o *Orchestrator) StatusAll() []status.ServiceStatus {
	return o.res.ResolveAll()
}

func killByPort(port int) error {
	// #nosec G204
	cmd := exec.Command("/bin/sh", "-c", fmt.Sprintf("lsof -t -i tcp:%d | xargs kill -9", port))
	return cmd.Run()
}

func portHint(port int) string {
	if port <= 0 {
		return ""
	}
	return strconv.Itoa(port)
}
