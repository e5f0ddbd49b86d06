package toggle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the binder's Prometheus counters.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "statetoggle").
	Namespace string

	Subsystem   string
	ConstLabels prometheus.Labels

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

type MetricsOption func(*MetricsConfig)

func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "statetoggle",
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics counts what the binder does. A nil *Metrics records nothing.
type Metrics struct {
	triggers          prometheus.Counter
	classesAdded      prometheus.Counter
	classesRemoved    prometheus.Counter
	targetsMatched    prometheus.Counter
	focusMisses       prometheus.Counter
	defaultsPrevented prometheus.Counter
}

// NewMetrics registers the counters. Registering twice against the same registry panics,
// as promauto does.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)
	counter := func(name, help string) prometheus.Counter {
		return factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		})
	}

	return &Metrics{
		triggers:          counter("triggers_total", "Clicks on elements carrying data-target"),
		classesAdded:      counter("classes_added_total", "Classes added to target elements"),
		classesRemoved:    counter("classes_removed_total", "Classes removed from target elements"),
		targetsMatched:    counter("targets_matched_total", "Elements matched by data-target selectors"),
		focusMisses:       counter("focus_misses_total", "data-focus selectors that focused nothing"),
		defaultsPrevented: counter("defaults_prevented_total", "Clicks whose default action was prevented"),
	}
}

func (m *Metrics) trigger() {
	if m != nil {
		m.triggers.Inc()
	}
}

func (m *Metrics) matched(n int) {
	if m != nil {
		m.targetsMatched.Add(float64(n))
	}
}

func (m *Metrics) added() {
	if m != nil {
		m.classesAdded.Inc()
	}
}

func (m *Metrics) removed() {
	if m != nil {
		m.classesRemoved.Inc()
	}
}

func (m *Metrics) focusMiss() {
	if m != nil {
		m.focusMisses.Inc()
	}
}

func (m *Metrics) prevented() {
	if m != nil {
		m.defaultsPrevented.Inc()
	}
}
