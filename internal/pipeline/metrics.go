// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/paper-explainer/pkg/types"
)

// outcomeOK labels successful runs.
const outcomeOK = "ok"

// Metrics records pipeline activity.
type Metrics struct {
	stages   *prometheus.CounterVec
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the pipeline collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		stages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paper_explainer_stage_total",
				Help: "Number of times a pipeline stage was entered.",
			},
			[]string{"stage"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "paper_explainer_runs_total",
				Help: "Completed pipeline runs by outcome (ok or error kind).",
			},
			[]string{"outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "paper_explainer_run_duration_seconds",
				Help:    "Wall-clock duration of pipeline runs.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"outcome"},
		),
	}
	for _, c := range []prometheus.Collector{m.stages, m.runs, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) stage(s types.Stage) {
	if m != nil {
		m.stages.WithLabelValues(string(s)).Inc()
	}
}

func (m *Metrics) finish(outcome string, seconds float64) {
	if m != nil {
		m.runs.WithLabelValues(outcome).Inc()
		m.duration.WithLabelValues(outcome).Observe(seconds)
	}
}
