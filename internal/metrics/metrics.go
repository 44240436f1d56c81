// Package metrics exposes pipeline lifecycle events as Prometheus collectors.
package metrics

import (
	"context"
	"net/http"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors holds the pipeline metrics and the registry they live in.
type Collectors struct {
	Registry *prometheus.Registry

	StageAttempts   *prometheus.CounterVec
	StageFinalized  *prometheus.CounterVec
	Sessions        *prometheus.CounterVec
	BackendDuration *prometheus.HistogramVec
}

// New registers the pipeline collectors, plus the Go and process collectors,
// on a fresh registry.
func New() *Collectors {
	c := &Collectors{
		Registry: prometheus.NewRegistry(),
		StageAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gazette_stage_attempts_total",
				Help: "Total number of stage attempts, parse failures included",
			},
			[]string{"stage"},
		),
		StageFinalized: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gazette_stage_finalized_total",
				Help: "Stages that left the controller, by finalize reason",
			},
			[]string{"stage", "reason"},
		),
		Sessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gazette_sessions_total",
				Help: "Closed sessions by outcome",
			},
			[]string{"outcome"},
		),
		BackendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gazette_backend_duration_seconds",
				Help:    "Latency of generative backend calls",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
			},
			[]string{"stage"},
		),
	}
	c.Registry.MustRegister(
		c.StageAttempts,
		c.StageFinalized,
		c.Sessions,
		c.BackendDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Hooks returns lifecycle hooks that record into c.
func (c *Collectors) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateChange: func(_ context.Context, e *domain.StageEvent) {
			if e.To == domain.StateExecuting {
				c.StageAttempts.WithLabelValues(e.Stage.Key()).Inc()
			}
		},
		OnStageLeave: func(_ context.Context, e *domain.StageEvent) {
			reason := string(e.Reason)
			if reason == "" {
				reason = string(domain.StateFailed)
			}
			c.StageFinalized.WithLabelValues(e.Stage.Key(), reason).Inc()
		},
		OnBackendReturn: func(_ context.Context, e *domain.BackendEvent) {
			c.BackendDuration.WithLabelValues(e.Stage.Key()).Observe(e.Duration.Seconds())
		},
		OnSessionFinish: func(_ context.Context, e *domain.SessionEvent) {
			c.Sessions.WithLabelValues(string(e.Outcome.Status)).Inc()
		},
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{Registry: c.Registry})
}
