package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aretw0/entropia/pkg/domain"
)

const namespace = "entropia"

// Metrics holds the Prometheus collectors fed by lifecycle hooks.
type Metrics struct {
	Resolves        *prometheus.CounterVec
	ResolveDuration prometheus.Histogram
	Steps           *prometheus.CounterVec
	StepDuration    prometheus.Histogram
	Entropy         prometheus.Gauge
	Support         prometheus.Gauge
	PrunedMass      prometheus.Counter
	ExploreRounds   prometheus.Counter
	GraphNodes      prometheus.Gauge
	GraphEdges      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		// Labels: result (hit, miss, error)
		Resolves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "resolves_total",
			Help:      "Transition queries answered by the oracle",
		}, []string{"result"}),
		ResolveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "resolve_duration_seconds",
			Help:      "Time spent answering a transition query",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		// Labels: kind (initial, step, intervention)
		Steps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "frames_total",
			Help:      "Distributions appended to simulation histories",
		}, []string{"kind"}),
		StepDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "step_duration_seconds",
			Help:      "Time spent computing one distribution",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		Entropy: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "entropy_bits",
			Help:      "Shannon entropy of the latest distribution",
		}),
		Support: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "support_states",
			Help:      "States with nonzero mass in the latest distribution",
		}),
		PrunedMass: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "pruned_mass_total",
			Help:      "Probability mass dropped by pruning",
		}),
		ExploreRounds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "explorer",
			Name:      "rounds_total",
			Help:      "Exploration rounds merged into a graph",
		}),
		GraphNodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "explorer",
			Name:      "graph_nodes",
			Help:      "Nodes in the graph under construction",
		}),
		GraphEdges: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "explorer",
			Name:      "graph_edges",
			Help:      "Edges in the graph under construction",
		}),
	}
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnResolve: m.observeResolve,
		OnStep:    m.observeStep,
		OnExplore: m.observeExplore,
	}
}

func (m *Metrics) observeResolve(e *domain.ResolveEvent) {
	result := "miss"
	switch {
	case e.Err != nil:
		result = "error"
	case e.Hit:
		result = "hit"
	}
	m.Resolves.WithLabelValues(result).Inc()
	if !e.Hit {
		m.ResolveDuration.Observe(e.Duration.Seconds())
	}
}

func (m *Metrics) observeStep(e *domain.StepEvent) {
	m.Steps.WithLabelValues(e.Kind).Inc()
	m.StepDuration.Observe(e.Duration.Seconds())
	m.Entropy.Set(e.Entropy)
	m.Support.Set(float64(e.Support))
	if e.Pruned > 0 {
		m.PrunedMass.Add(e.Pruned)
	}
}

func (m *Metrics) observeExplore(e *domain.ExploreEvent) {
	m.ExploreRounds.Inc()
	m.GraphNodes.Set(float64(e.Nodes))
	m.GraphEdges.Set(float64(e.Edges))
}
