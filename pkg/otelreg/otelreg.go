// Package otelreg provides a callmetrics.Registry backed by OpenTelemetry histograms.
package otelreg

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jkbrsn/callmetrics"
)

const defaultInstrumentationName = "github.com/jkbrsn/callmetrics/pkg/otelreg"

type config struct {
	instrumentationName string
	meterProvider       metric.MeterProvider
	logger              zerolog.Logger
}

// Option is a functional option for the Registry.
type Option func(*config)

// WithInstrumentationName configures the name of the meter.
func WithInstrumentationName(name string) Option {
	return func(cfg *config) {
		if name != "" {
			cfg.instrumentationName = name
		}
	}
}

// WithMeterProvider configures the MeterProvider. The global provider is used by default.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *config) {
		if provider != nil {
			cfg.meterProvider = provider
		}
	}
}

// WithLogger configures the logger used for instrument creation failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(cfg *config) { cfg.logger = logger }
}

// Registry is a callmetrics.Registry that records into one metric.Float64Histogram per metric
// name, with tags as attributes.
type Registry struct {
	meter  metric.Meter
	logger zerolog.Logger

	mu         sync.Mutex
	histograms map[string]metric.Float64Histogram
	series     map[string]callmetrics.Distribution
}

var _ callmetrics.Registry = (*Registry)(nil)

// New creates a Registry.
func New(opts ...Option) *Registry {
	cfg := &config{
		instrumentationName: defaultInstrumentationName,
		meterProvider:       otel.GetMeterProvider(),
		logger:              log.Logger,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Registry{
		meter:      cfg.meterProvider.Meter(cfg.instrumentationName),
		logger:     cfg.logger,
		histograms: make(map[string]metric.Float64Histogram),
		series:     make(map[string]callmetrics.Distribution),
	}
}

// GetOrCreateDistribution returns a distribution recording into the histogram for name with
// tags as attributes.
func (r *Registry) GetOrCreateDistribution(name string, tags []callmetrics.Tag) callmetrics.Distribution {
	key := seriesKey(name, tags)

	r.mu.Lock()
	defer r.mu.Unlock()

	if d, ok := r.series[key]; ok {
		return d
	}

	hist, ok := r.histograms[name]
	if !ok {
		var err error
		hist, err = r.meter.Float64Histogram(name,
			metric.WithDescription("Outbound call metric "+name+"."),
			metric.WithUnit(unitFor(name)),
		)
		if err != nil {
			r.logger.Warn().Str("metric", name).Err(err).Msg("Failed to create histogram")
			return callmetrics.NopDistribution{}
		}
		r.histograms[name] = hist
	}

	attrs := make([]attribute.KeyValue, 0, len(tags))
	for _, t := range tags {
		attrs = append(attrs, attribute.String(t.Key, t.Value))
	}
	d := distribution{
		hist: hist,
		opt:  metric.WithAttributeSet(attribute.NewSet(attrs...)),
	}
	r.series[key] = d
	return d
}

// unitFor derives the UCUM unit from the metric name suffix.
func unitFor(name string) string {
	switch {
	case strings.HasSuffix(name, "_latency"):
		return "ms"
	case strings.HasSuffix(name, "_content_length"):
		return "By"
	default:
		return "1"
	}
}

type distribution struct {
	hist metric.Float64Histogram
	opt  metric.RecordOption
}

// Record records value on the histogram.
func (d distribution) Record(value float64) {
	d.hist.Record(context.Background(), value, d.opt)
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
