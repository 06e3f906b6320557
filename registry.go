package callmetrics

// Tag keys attached to every value recorded by the tag strategy.
const (
	TagRegion = "region"
	TagStatus = "status"
)

// Tag is a key/value label attached to a recorded value. Tag values are raw strings and are
// never sanitized.
type Tag struct {
	Key   string
	Value string
}

// Registry is the metrics backend the Observer forwards values to. Implementations must be
// safe for concurrent use and are expected to memoize distributions by name and tags; the
// Observer requests a fresh handle for every value it records.
type Registry interface {
	GetOrCreateDistribution(name string, tags []Tag) Distribution
}

// Distribution records samples of a single metric series.
type Distribution interface {
	Record(value float64)
}

// NopDistribution discards every recorded value.
type NopDistribution struct{}

// Record does nothing.
func (NopDistribution) Record(float64) {}
