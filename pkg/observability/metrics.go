package observability

import (
	"context"
	"errors"

	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "tickstory"

// Metrics holds the Prometheus collectors fed by the processor hooks.
type Metrics struct {
	turns        *prometheus.CounterVec
	turnErrors   *prometheus.CounterVec
	actions      *prometheus.CounterVec
	depth        *prometheus.GaugeVec
	chainLength  *prometheus.HistogramVec
	turnDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turns_total",
				Help:      "Total number of processed turns by outcome",
			},
			[]string{"story", "outcome"},
		),
		turnErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turn_errors_total",
				Help:      "Total number of failed turns by phase",
			},
			[]string{"story", "phase"},
		),
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_executed_total",
				Help:      "Total number of executed actions",
			},
			[]string{"story", "action", "mode"},
		),
		depth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "objectives_depth",
				Help:      "Objectives stack depth at the end of the last turn",
			},
			[]string{"story"},
		),
		chainLength: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "turn_steps",
				Help:      "Number of actions run per turn",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
			},
			[]string{"story"},
		),
		turnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "turn_duration_seconds",
				Help:      "Duration of turns",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"story"},
		),
	}

	for _, c := range []prometheus.Collector{m.turns, m.turnErrors, m.actions, m.depth, m.chainLength, m.turnDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns processor hooks that record into m.
func (m *Metrics) Hooks() domain.TickHooks {
	return domain.TickHooks{
		OnActionExecuted: func(_ context.Context, e *domain.ActionEvent) {
			m.actions.WithLabelValues(e.Story, e.Action, string(e.Mode)).Inc()
		},
		OnTurnEnd: func(_ context.Context, e *domain.TurnEvent) {
			outcome := "ok"
			if e.Final {
				outcome = "final"
			}
			m.turns.WithLabelValues(e.Story, outcome).Inc()
			m.depth.WithLabelValues(e.Story).Set(float64(e.Depth))
			m.chainLength.WithLabelValues(e.Story).Observe(float64(e.Steps))
			m.turnDuration.WithLabelValues(e.Story).Observe(e.Duration.Seconds())
		},
		OnTurnError: func(_ context.Context, e *domain.TurnEvent) {
			phase := "unknown"
			var te *domain.TurnError
			if errors.As(e.Err, &te) {
				phase = string(te.Phase)
			}
			m.turns.WithLabelValues(e.Story, "error").Inc()
			m.turnErrors.WithLabelValues(e.Story, phase).Inc()
			m.turnDuration.WithLabelValues(e.Story).Observe(e.Duration.Seconds())
		},
	}
}
