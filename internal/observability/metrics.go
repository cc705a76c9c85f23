package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects counters for the keyframe model.
//
// A nil *Metrics is valid and records nothing, so components can take it as
// an optional dependency.
type Metrics struct {
	// KeyframeMutations counts store mutations.
	// Labels: op (add|remove|remove_all|remove_after|move|offset|update|update_type|reset), status (success|refused)
	KeyframeMutations *prometheus.CounterVec

	// UndoCommands counts undo stack activity.
	// Labels: action (push|undo|redo), status (success|error)
	UndoCommands *prometheus.CounterVec

	// Parses counts animation decoding attempts.
	// Labels: format (text|roto|double), status (success|error)
	Parses *prometheus.CounterVec

	// BakeDuration measures how long a bake over a frame range takes.
	BakeDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg creates unregistered collectors, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		KeyframeMutations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kfanim_keyframe_mutations_total",
				Help: "Keyframe store mutations by operation and status",
			},
			[]string{"op", "status"},
		),
		UndoCommands: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kfanim_undo_commands_total",
				Help: "Undo stack commands by action and status",
			},
			[]string{"action", "status"},
		),
		Parses: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kfanim_parse_total",
				Help: "Animation decoding attempts by format and status",
			},
			[]string{"format", "status"},
		),
		BakeDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kfanim_bake_duration_seconds",
				Help:    "Duration of keyframe bakes in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
	}
}

// Mutation records one store mutation.
func (m *Metrics) Mutation(op string, ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "refused"
	}
	m.KeyframeMutations.WithLabelValues(op, status).Inc()
}

// UndoCommand records one undo stack action.
func (m *Metrics) UndoCommand(action string, ok bool) {
	if m == nil {
		return
	}
	m.UndoCommands.WithLabelValues(action, status(ok)).Inc()
}

// Parse records one decode attempt.
func (m *Metrics) Parse(format string, ok bool) {
	if m == nil {
		return
	}
	m.Parses.WithLabelValues(format, status(ok)).Inc()
}

// ObserveBake records the duration of a bake started at start.
func (m *Metrics) ObserveBake(start time.Time) {
	if m == nil {
		return
	}
	m.BakeDuration.Observe(time.Since(start).Seconds())
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
