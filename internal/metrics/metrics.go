package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors. They are registered via Register.
var (
	regOK atomic.Bool

	serviceStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcdeck",
			Subsystem: "service",
			Name:      "starts_total",
			Help:      "Number of successful service launches.",
		}, []string{"name"},
	)
	serviceStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcdeck",
			Subsystem: "service",
			Name:      "stops_total",
			Help:      "Number of stop operations issued.",
		}, []string{"name"},
	)
	serviceRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcdeck",
			Subsystem: "service",
			Name:      "restarts_total",
			Help:      "Number of restart operations issued.",
		}, []string{"name"},
	)
	monitorRestarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcdeck",
			Subsystem: "monitor",
			Name:      "restarts_total",
			Help:      "Number of restarts triggered by the auto-restart monitor.",
		}, []string{"name"},
	)
	healthChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "svcdeck",
			Subsystem: "health",
			Name:      "checks_total",
			Help:      "Number of health probes by verdict.",
		}, []string{"name", "verdict"},
	)
	runningServices = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "svcdeck",
			Subsystem: "service",
			Name:      "running",
			Help:      "Number of services currently observed running.",
		},
	)
)

// Register registers all metrics with the provided registerer.
// It is safe to call multiple times; subsequent calls after success are no-ops.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{serviceStarts, serviceStops, serviceRestarts, monitorRestarts, healthChecks, runningServices}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			// If already registered, ignore (allows double Register with default registry)
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler returns an http.Handler that serves Prometheus metrics for the
// DefaultGatherer.
func Handler() http.Handler { return promhttp.Handler() }

// Below are lightweight helpers used by internal packages to record metrics.
// They no-op if Register hasn't been called.

func IncStart(name string) {
	if regOK.Load() {
		serviceStarts.WithLabelValues(name).Inc()
	}
}

func IncStop(name string) {
	if regOK.Load() {
		serviceStops.WithLabelValues(name).Inc()
	}
}

func IncRestart(name string) {
	if regOK.Load() {
		serviceRestarts.WithLabelValues(name).Inc()
	}
}

func IncMonitorRestart(name string) {
	if regOK.Load() {
		monitorRestarts.WithLabelValues(name).Inc()
	}
}

func IncHealthCheck(name, verdict string) {
	if regOK.Load() {
		healthChecks.WithLabelValues(name, verdict).Inc()
	}
}

func SetRunningServices(n int) {
	if regOK.Load() {
		runningServices.Set(float64(n))
	}
}
