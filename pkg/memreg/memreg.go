// Package memreg provides an in-memory callmetrics.Registry that keeps every recorded value.
// It is meant for tests and for debugging an instrumented client.
package memreg

import (
	"sort"
	"strings"
	"sync"

	"github.com/bytedance/sonic"
	"go.uber.org/atomic"

	"github.com/jkbrsn/callmetrics"
)

// Series is one metric name and tag set together with its recorded values.
type Series struct {
	Name   string            `json:"name"`
	Tags   []callmetrics.Tag `json:"tags,omitempty"`
	Values []float64         `json:"values"`
}

// Registry is a concurrency-safe in-memory callmetrics.Registry.
type Registry struct {
	mu     sync.Mutex
	series map[string]*distribution
	order  []string

	calls atomic.Int64
}

var _ callmetrics.Registry = (*Registry)(nil)

// New creates an empty Registry.
func New() *Registry {
	return &Registry{series: make(map[string]*distribution)}
}

// GetOrCreateDistribution returns the distribution for name and tags, creating it on first use.
func (r *Registry) GetOrCreateDistribution(name string, tags []callmetrics.Tag) callmetrics.Distribution {
	r.calls.Inc()

	key := seriesKey(name, tags)
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.series[key]; ok {
		return d
	}
	d := &distribution{name: name, tags: append([]callmetrics.Tag(nil), tags...)}
	r.series[key] = d
	r.order = append(r.order, key)
	return d
}

// Calls returns how many times GetOrCreateDistribution was called.
func (r *Registry) Calls() int64 {
	return r.calls.Load()
}

// Names returns the distinct metric names in the order they were first requested.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(r.order))
	names := make([]string, 0, len(r.order))
	for _, key := range r.order {
		name := r.series[key].name
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// Samples returns the values recorded under name and exactly the given tags.
func (r *Registry) Samples(name string, tags ...callmetrics.Tag) []float64 {
	r.mu.Lock()
	d, ok := r.series[seriesKey(name, tags)]
	r.mu.Unlock()
	if !ok {
		return nil
	}
	return d.values()
}

// Snapshot returns a copy of every series in the order they were first requested.
func (r *Registry) Snapshot() []Series {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Series, 0, len(r.order))
	for _, key := range r.order {
		d := r.series[key]
		out = append(out, Series{
			Name:   d.name,
			Tags:   append([]callmetrics.Tag(nil), d.tags...),
			Values: d.values(),
		})
	}
	return out
}

// MarshalJSON encodes the snapshot of the registry.
func (r *Registry) MarshalJSON() ([]byte, error) {
	return sonic.Marshal(r.Snapshot())
}

// Reset drops every series and the call count.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.series = make(map[string]*distribution)
	r.order = nil
	r.calls.Store(0)
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

type distribution struct {
	name string
	tags []callmetrics.Tag

	mu   sync.Mutex
	vals []float64
}

func (d *distribution) Record(value float64) {
	d.mu.Lock()
	d.vals = append(d.vals, value)
	d.mu.Unlock()
}

func (d *distribution) values() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]float64(nil), d.vals...)
}
