// Package metrics provides observability counters for the trait query layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks compile and aggregation activity plus surfaced
// configuration problems. All methods are safe on a nil receiver so that
// callers can treat instrumentation as optional.
type Metrics struct {
	EquationsCompiled  prometheus.Counter
	SummariesBuilt     prometheus.Counter
	ConfigErrors       prometheus.Counter
	DeprecatedCalls    prometheus.Counter
	PreprocessOverflow prometheus.Counter
}

// New registers all query-layer metrics against the given registerer. Tests
// pass a fresh prometheus.NewRegistry to keep registrations isolated.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EquationsCompiled: factory.NewCounter(prometheus.CounterOpts{
			Name: "evogrid_equations_compiled_total",
			Help: "Total number of trait equations compiled",
		}),
		SummariesBuilt: factory.NewCounter(prometheus.CounterOpts{
			Name: "evogrid_summaries_built_total",
			Help: "Total number of aggregation functions built",
		}),
		ConfigErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "evogrid_config_errors_total",
			Help: "Total number of recoverable configuration errors recorded",
		}),
		DeprecatedCalls: factory.NewCounter(prometheus.CounterOpts{
			Name: "evogrid_deprecated_calls_total",
			Help: "Total number of deprecated script entry points invoked",
		}),
		PreprocessOverflow: factory.NewCounter(prometheus.CounterOpts{
			Name: "evogrid_preprocess_depth_overflow_total",
			Help: "Total number of template expansions stopped by the recursion depth guard",
		}),
	}
}

// IncEquationsCompiled records one successful equation compilation.
func (m *Metrics) IncEquationsCompiled() {
	if m != nil {
		m.EquationsCompiled.Inc()
	}
}

// IncSummariesBuilt records one aggregation function build.
func (m *Metrics) IncSummariesBuilt() {
	if m != nil {
		m.SummariesBuilt.Inc()
	}
}

// IncConfigErrors records one recoverable configuration error.
func (m *Metrics) IncConfigErrors() {
	if m != nil {
		m.ConfigErrors.Inc()
	}
}

// IncDeprecatedCalls records one deprecated-name invocation.
func (m *Metrics) IncDeprecatedCalls() {
	if m != nil {
		m.DeprecatedCalls.Inc()
	}
}

// IncPreprocessOverflow records one depth-guard trip in the preprocessor.
func (m *Metrics) IncPreprocessOverflow() {
	if m != nil {
		m.PreprocessOverflow.Inc()
	}
}
