package status

import (
	"errors"
	"testing"

	"github.com/svcdeck/svcdeck/internal/procscan"
	"github.com/svcdeck/svcdeck/internal/registry"
	"github.com/svcdeck/svcdeck/internal/tracker"
)

func newResolver(t *testing.T, snap *procscan.Snapshot) (*Resolver, *tracker.Tracker) {
	t.Helper()
	reg, err := registry.New([]registry.ServiceConfig{
		{Name: "backend", Command: "npm run dev", Port: 3000},
		{Name: "web-app", Command: "npm run dev", Port: 5173, Dependencies: []string{"backend"}},
		{Name: "worker", Command: "python worker.py"},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	trk := tracker.New()
	r := NewResolver(reg, trk)
	r.SetSnapshotFunc(func() (*procscan.Snapshot, error) { return snap, nil })
	return r, trk
}

func TestResolveUnknownName(t *testing.T) {
	r, _ := newResolver(t, procscan.NewStatic())
	if _, err := r.Resolve("nope"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveTrackedAndLive(t *testing.T) {
	snap := procscan.NewStatic(procscan.Proc{PID: 42, Cmdline: "node server.js", CPUPercent: 1.5, MemoryMB: 64})
	r, trk := newResolver(t, snap)
	trk.Track("backend", 42)
	trk.RecordHealth("backend", tracker.VerdictHealthy)

	st, err := r.Resolve("backend")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if st.State != StateRunning {
		t.Fatalf("state = %q, want running", st.State)
	}
	if st.PID != 42 || st.MemoryMB != 64 {
		t.Fatalf("unexpected status: %+v", st)
	}
	if st.Health != tracker.VerdictHealthy {
		t.Fatalf("health = %q, want healthy", st.Health)
	}
}

func TestResolveStalePidFallsBackToPortScan(t *testing.T) {
	// tracked pid 42 is not in the snapshot, but a process matching the
	// port is; the heuristic scan should attribute it to the service
	snap := procscan.NewStatic(procscan.Proc{PID: 77, Cmdline: "node server.js --port 3000"})
	r, trk := newResolver(t, snap)
	trk.Track("backend", 42)

	st, err := r.Resolve("backend")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if st.State != StateRunning || st.PID != 77 {
		t.Fatalf("status = %+v, want running via port scan with pid 77", st)
	}
	if st.UptimeSeconds == 0 && st.Restarts != 0 {
		t.Fatalf("tracked fields should still come from the tracker")
	}
}

func TestResolvePortlessUntrackedIsStopped(t *testing.T) {
	snap := procscan.NewStatic(procscan.Proc{PID: 5, Cmdline: "python worker.py"})
	r, _ := newResolver(t, snap)
	// worker declares no port: the heuristic scan must not run even though
	// a matching command line exists
	st, err := r.Resolve("worker")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if st.State != StateStopped {
		t.Fatalf("state = %q, want stopped (no port, no tracked pid)", st.State)
	}
	if st.Health != tracker.VerdictUnknown || st.Restarts != 0 {
		t.Fatalf("untracked defaults wrong: %+v", st)
	}
}

func TestResolveAllOmitsNothingOnHappyPath(t *testing.T) {
	r, _ := newResolver(t, procscan.NewStatic())
	all := r.ResolveAll()
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for _, st := range all {
		if st.State != StateStopped {
			t.Fatalf("%s state = %q, want stopped", st.Name, st.State)
		}
	}
}
