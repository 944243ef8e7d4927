// Package metrics exposes Prometheus collectors for reading sessions and the
// HTTP API.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/arcana/internal/events"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "arcana"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	sessionEvents  *prometheus.CounterVec
	sessionErrors  *prometheus.CounterVec
	sessionsActive prometheus.Gauge
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// MustNewMetrics creates the collectors and registers them with reg, or the
// default registerer when reg is nil. Registration errors panic, like the
// promauto helpers.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		sessionEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "events_total",
				Help:      "Session events by type.",
			},
			[]string{"type"},
		),
		sessionErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "errors_total",
				Help:      "Session step failures by retryability.",
			},
			[]string{"retryable"},
		),
		sessionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "session",
				Name:      "active",
				Help:      "Reading sessions currently open.",
			},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests by method, route and status code.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request latency by method and route.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	reg.MustRegister(m.sessionEvents, m.sessionErrors, m.sessionsActive, m.httpRequests, m.httpDuration)
	return m
}

// HandleEvent implements events.EventHandler.
func (m *Metrics) HandleEvent(_ context.Context, e *events.Event) error {
	if m == nil || e == nil {
		return nil
	}
	m.sessionEvents.WithLabelValues(string(e.Type)).Inc()

	switch e.Type {
	case events.TypeSessionStarted:
		m.sessionsActive.Inc()
	case events.TypeSessionClosed:
		m.sessionsActive.Dec()
	case events.TypeSessionError:
		var payload struct {
			Retryable bool `json:"retryable"`
		}
		// Payloads without the flag count as not retryable.
		_ = e.UnmarshalPayload(&payload)
		m.sessionErrors.WithLabelValues(strconv.FormatBool(payload.Retryable)).Inc()
	}
	return nil
}

// Middleware records request counts and latency. Routes are labelled with
// their chi pattern so IDs do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
