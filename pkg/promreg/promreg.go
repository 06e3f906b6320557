// Package promreg provides a callmetrics.Registry backed by Prometheus summaries.
package promreg

import (
	"errors"
	"net/http"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jkbrsn/callmetrics"
)

// Option is a functional option for the Registry.
type Option func(*Registry)

// WithObjectives configures the quantile objectives of every summary.
func WithObjectives(objectives map[float64]float64) Option {
	return func(r *Registry) { r.objectives = objectives }
}

// WithLogger configures the logger used for rejected metrics.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// Registry is a callmetrics.Registry that keeps one prometheus.SummaryVec per metric name.
// The label names of a metric are fixed by the first tag set it is requested with; requests
// with other label names get a no-op distribution.
type Registry struct {
	reg        *prometheus.Registry
	objectives map[float64]float64
	logger     zerolog.Logger

	mu     sync.Mutex
	vecs   map[string]*summaryVec
	series map[string]callmetrics.Distribution
}

type summaryVec struct {
	vec    *prometheus.SummaryVec
	labels []string
	broken bool
}

var _ callmetrics.Registry = (*Registry)(nil)

// New creates a Registry that registers its collectors on reg. A nil reg creates a fresh
// prometheus.Registry.
func New(reg *prometheus.Registry, opts ...Option) *Registry {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	r := &Registry{
		reg:    reg,
		logger: log.Logger,
		vecs:   make(map[string]*summaryVec),
		series: make(map[string]callmetrics.Distribution),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Gatherer returns the underlying Prometheus registry.
func (r *Registry) Gatherer() *prometheus.Registry {
	return r.reg
}

// Handler returns an HTTP handler exposing the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// GetOrCreateDistribution returns the summary child for name and tags.
func (r *Registry) GetOrCreateDistribution(name string, tags []callmetrics.Tag) callmetrics.Distribution {
	key := seriesKey(name, tags)

	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.series[key]; ok {
		return d
	}

	labels := make([]string, 0, len(tags))
	values := make(prometheus.Labels, len(tags))
	for _, t := range tags {
		labels = append(labels, t.Key)
		values[t.Key] = t.Value
	}
	sort.Strings(labels)

	sv, ok := r.vecs[name]
	if !ok {
		sv = r.newSummaryVec(name, labels)
		r.vecs[name] = sv
	}
	if sv.broken {
		return callmetrics.NopDistribution{}
	}
	if !slices.Equal(sv.labels, labels) {
		r.logger.Warn().
			Str("metric", name).
			Strs("labels", labels).
			Strs("registered_labels", sv.labels).
			Msg("Dropping metric with mismatched labels")
		return callmetrics.NopDistribution{}
	}

	obs, err := sv.vec.GetMetricWith(values)
	if err != nil {
		r.logger.Warn().Str("metric", name).Err(err).Msg("Dropping metric")
		return callmetrics.NopDistribution{}
	}
	d := distribution{obs: obs}
	r.series[key] = d
	return d
}

// newSummaryVec creates and registers a summary. Registration failures mark the metric broken
// so every later request is dropped.
func (r *Registry) newSummaryVec(name string, labels []string) *summaryVec {
	vec := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:       name,
		Help:       "Outbound call metric " + name + ".",
		Objectives: r.objectives,
	}, labels)

	if err := r.reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.SummaryVec); ok {
				return &summaryVec{vec: existing, labels: labels}
			}
		}
		r.logger.Warn().Str("metric", name).Err(err).Msg("Failed to register metric")
		return &summaryVec{labels: labels, broken: true}
	}
	return &summaryVec{vec: vec, labels: labels}
}

// distribution adapts a summary child to callmetrics.Distribution.
type distribution struct {
	obs prometheus.Observer
}

// Record observes value on the summary.
func (d distribution) Record(value float64) {
	d.obs.Observe(value)
}

// seriesKey identifies a series independently of tag order.
func seriesKey(name string, tags []callmetrics.Tag) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, t.Key+"="+t.Value)
	}
	sort.Strings(parts)
	return name + "{" + strings.Join(parts, ",") + "}"
}
