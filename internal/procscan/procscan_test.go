package procscan

import (
	"os"
	"runtime"
	"testing"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

func TestTakeSeesSelf(t *testing.T) {
	requireUnix(t)
	snap, err := Take()
	if err != nil {
		t.Fatalf("take: %v", err)
	}
	p, ok := snap.Lookup(os.Getpid())
	if !ok {
		t.Fatalf("snapshot does not contain our own pid %d", os.Getpid())
	}
	if p.Cmdline == "" {
		t.Fatalf("cmdline empty for own process")
	}
}

func TestLookupMissing(t *testing.T) {
	snap := NewStatic(Proc{PID: 10, Cmdline: "sleep 1"})
	if _, ok := snap.Lookup(99999); ok {
		t.Fatalf("lookup should miss")
	}
}

func TestFindByHintsFirstMatchByPID(t *testing.T) {
	snap := NewStatic(
		Proc{PID: 300, Cmdline: "node server.js --port 3000"},
		Proc{PID: 100, Cmdline: "npm run dev backend"},
		Proc{PID: 200, Cmdline: "vite --port 5173 backend"},
	)
	p, ok := snap.FindByHints("backend")
	if !ok {
		t.Fatalf("expected match")
	}
	if p.PID != 100 {
		t.Fatalf("pid = %d, want lowest-pid match 100", p.PID)
	}
	p, ok = snap.FindByHints("", "3000")
	if !ok || p.PID != 300 {
		t.Fatalf("port hint match = %+v ok=%v, want pid 300", p, ok)
	}
	if _, ok := snap.FindByHints("nothing-matches"); ok {
		t.Fatalf("expected no match")
	}
	if _, ok := snap.FindByHints(""); ok {
		t.Fatalf("empty hint must not match")
	}
}
