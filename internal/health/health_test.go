package health

import (
	"net"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/svcdeck/svcdeck/internal/registry"
	"github.com/svcdeck/svcdeck/internal/tracker"
)

func newChecker(t *testing.T, configs []registry.ServiceConfig) (*Checker, *tracker.Tracker) {
	t.Helper()
	reg, err := registry.New(configs)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	trk := tracker.New()
	return NewChecker(reg, trk), trk
}

func TestCheckUnknownName(t *testing.T) {
	c, _ := newChecker(t, nil)
	if _, err := c.Check("nope"); err == nil {
		t.Fatalf("expected error for unknown service")
	}
}

func TestCheckHTTPHealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c, trk := newChecker(t, []registry.ServiceConfig{
		{Name: "web", Command: "true", HealthURL: srv.URL},
	})
	trk.Track("web", 1)
	v, err := c.Check("web")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if v != tracker.VerdictHealthy {
		t.Fatalf("verdict = %q, want healthy", v)
	}
	rec, _ := trk.Get("web")
	if rec.Health != tracker.VerdictHealthy {
		t.Fatalf("verdict not recorded into tracker")
	}
}

func TestCheckHTTPServerErrorIsUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := newChecker(t, []registry.ServiceConfig{
		{Name: "web", Command: "true", HealthURL: srv.URL},
	})
	v, _ := c.Check("web")
	if v != tracker.VerdictUnhealthy {
		t.Fatalf("verdict = %q, want unhealthy for HTTP 500", v)
	}
}

func TestCheckHTTPConnectionRefusedIsUnhealthy(t *testing.T) {
	c, _ := newChecker(t, []registry.ServiceConfig{
		{Name: "web", Command: "true", HealthURL: "http://127.0.0.1:1/health"},
	})
	v, _ := c.Check("web")
	if v != tracker.VerdictUnhealthy {
		t.Fatalf("verdict = %q, want unhealthy for refused connection", v)
	}
}

func TestCheckTCPFallback(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	c, _ := newChecker(t, []registry.ServiceConfig{
		{Name: "api", Command: "true", Port: port},
	})
	v, _ := c.Check("api")
	if v != tracker.VerdictHealthy {
		t.Fatalf("verdict = %q, want healthy for open port", v)
	}

	_ = ln.Close()
	v, _ = c.Check("api")
	if v != tracker.VerdictUnhealthy {
		t.Fatalf("verdict = %q, want unhealthy for closed port", v)
	}
}

func TestCheckNoURLNoPortIsUnknown(t *testing.T) {
	var dialed atomic.Bool
	c, trk := newChecker(t, []registry.ServiceConfig{
		{Name: "worker", Command: "true"},
	})
	c.client.Transport = roundTripFunc(func(r *http.Request) (*http.Response, error) {
		dialed.Store(true)
		return nil, net.ErrClosed
	})
	trk.Track("worker", 1)
	v, err := c.Check("worker")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if v != tracker.VerdictUnknown {
		t.Fatalf("verdict = %q, want unknown", v)
	}
	if dialed.Load() {
		t.Fatalf("no network I/O may be performed without URL or port")
	}
	rec, _ := trk.Get("worker")
	if rec.Health != tracker.VerdictUnknown {
		t.Fatalf("unknown verdict should still be recorded")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
