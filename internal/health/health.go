package health

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/svcdeck/svcdeck/internal/metrics"
	"github.com/svcdeck/svcdeck/internal/registry"
	"github.com/svcdeck/svcdeck/internal/tracker"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultDialTimeout = 3 * time.Second
)

// Checker performs single health probes against services and records the
// verdict into the tracker.
type Checker struct {
	reg    *registry.Registry
	trk    *tracker.Tracker
	client *http.Client
}

func NewChecker(reg *registry.Registry, trk *tracker.Tracker) *Checker {
	return &Checker{
		reg:    reg,
		trk:    trk,
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// Check probes name once. A configured health URL is probed with a GET where
// any 2xx is healthy and everything else (bad status, timeout, refused
// connection, DNS failure) is unhealthy, undistinguished. Without a URL a
// configured port is probed with a raw TCP connect. With neither, the
// verdict is unknown and no network call is made. The verdict is recorded
// into the tracker before it is returned.
func (c *Checker) Check(name string) (tracker.Verdict, error) {
	cfg, err := c.reg.Get(name)
	if err != nil {
		return tracker.VerdictUnknown, err
	}
	v := c.probe(cfg)
	c.trk.RecordHealth(name, v)
	metrics.IncHealthCheck(name, string(v))
	return v, nil
}

func (c *Checker) probe(cfg registry.ServiceConfig) tracker.Verdict {
	if cfg.HealthURL != "" {
		resp, err := c.client.Get(cfg.HealthURL)
		if err != nil {
			return tracker.VerdictUnhealthy
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return tracker.VerdictHealthy
		}
		return tracker.VerdictUnhealthy
	}
	if cfg.Port > 0 {
		addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
		conn, err := net.DialTimeout("tcp", addr, defaultDialTimeout)
		if err != nil {
			return tracker.VerdictUnhealthy
		}
		_ = conn.Close()
		return tracker.VerdictHealthy
	}
	return tracker.VerdictUnknown
}
