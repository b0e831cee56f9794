// Package metrics records Prometheus metrics for operation reducers.
package metrics

import (
	"time"

	"github.com/amp-labs/breeze/lifecycle"
	"github.com/amp-labs/breeze/plugin"
	"github.com/amp-labs/breeze/statepath"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors registered by New.
type Metrics struct {
	typeFn      lifecycle.TypeFunc
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// New registers the collectors with reg. Event types are derived with typeFn;
// nil means lifecycle.UpperSnake. Registering twice with the same registerer
// panics, like any promauto collector.
func New(reg prometheus.Registerer, typeFn lifecycle.TypeFunc) *Metrics {
	if typeFn == nil {
		typeFn = lifecycle.UpperSnake
	}

	factory := promauto.With(reg)

	return &Metrics{
		typeFn: typeFn,
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "breeze_transitions_total",
			Help: "Total number of lifecycle events handled by operation and phase (start, success or error)",
		}, []string{"operation", "phase"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "breeze_reduce_duration_seconds",
			Help:    "Duration of reducer calls for lifecycle events by operation",
			Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
		}, []string{"operation"}),
	}
}

// Instrument wraps reducer so that every event belonging to the operation's
// lifecycle is counted and timed. Other events pass through unrecorded.
func (m *Metrics) Instrument(name string, types lifecycle.Types, reducer plugin.Reducer) plugin.Reducer {
	return func(state statepath.Tree, event lifecycle.Event) statepath.Tree {
		phase, ok := types.PhaseOf(event.Type)
		if !ok {
			return reducer(state, event)
		}

		start := time.Now()
		out := reducer(state, event)

		m.duration.WithLabelValues(name).Observe(time.Since(start).Seconds())
		m.transitions.WithLabelValues(name, string(phase)).Inc()

		return out
	}
}

// Middleware instruments every reducer of a composed bundle.
//
//	bundle, err := registry.Compose(ctx, defs, plugin.WithMiddleware(m.Middleware()))
func (m *Metrics) Middleware() plugin.Middleware {
	return func(name string, reducer plugin.Reducer) plugin.Reducer {
		return m.Instrument(name, lifecycle.NewTypes(m.typeFn, name), reducer)
	}
}
