package callmetrics

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// ErrInvalidPrefix is returned by Config.Validate for metric prefixes that cannot form a
// metric name.
var ErrInvalidPrefix = errors.New("invalid metric prefix")

// Strategy selects how region and status are attached to recorded values.
type Strategy int

const (
	// StrategyTags builds one key per event and reports region and status as tags.
	StrategyTags Strategy = iota
	// StrategyLegacyKeys builds a global and/or per-region key prefix per event and embeds
	// status in the metric name. Kept for compatibility with older metric names.
	StrategyLegacyKeys
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyTags:
		return "tags"
	case StrategyLegacyKeys:
		return "legacy_keys"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Config is the construction-time configuration of an Observer.
type Config struct {
	// MetricPrefix is prepended to every metric name. Blank means no prefix.
	MetricPrefix string `koanf:"metric_prefix"`

	// PublishPerRegionMetrics and PublishGlobalMetrics select the legacy key strategy when
	// either is set. An unset flag counts as false; both false records nothing.
	PublishPerRegionMetrics *bool `koanf:"publish_per_region_metrics"`
	PublishGlobalMetrics    *bool `koanf:"publish_global_metrics"`
}

// Strategy returns the strategy the configuration selects.
func (c Config) Strategy() Strategy {
	if c.PublishPerRegionMetrics != nil || c.PublishGlobalMetrics != nil {
		return StrategyLegacyKeys
	}
	return StrategyTags
}

// Validate checks that the prefix, once sanitized, only holds letters, digits, '_' and ':'
// and does not start with a digit.
func (c Config) Validate() error {
	prefix := SanitizeKey(normalizePrefix(c.MetricPrefix))
	for i, r := range prefix {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == ':':
		case r >= '0' && r <= '9':
			if i == 0 {
				return fmt.Errorf("%w: %q starts with a digit", ErrInvalidPrefix, c.MetricPrefix)
			}
		default:
			return fmt.Errorf("%w: %q contains %q", ErrInvalidPrefix, c.MetricPrefix, r)
		}
	}
	return nil
}

// normalizePrefix trims the prefix; blank prefixes become empty, which MergeKey skips.
func normalizePrefix(prefix string) string {
	return strings.TrimSpace(prefix)
}

// Option is a functional option for the Observer.
type Option func(*Observer)

// WithConfig applies all fields of cfg.
func WithConfig(cfg Config) Option {
	return func(o *Observer) {
		o.prefix = normalizePrefix(cfg.MetricPrefix)
		o.strategy = cfg.Strategy()
		o.perRegion = cfg.PublishPerRegionMetrics != nil && *cfg.PublishPerRegionMetrics
		o.global = cfg.PublishGlobalMetrics != nil && *cfg.PublishGlobalMetrics
	}
}

// WithMetricPrefix configures the prefix prepended to every metric name.
func WithMetricPrefix(prefix string) Option {
	return func(o *Observer) { o.prefix = normalizePrefix(prefix) }
}

// WithLegacyKeyPrefixes switches the Observer to the legacy key strategy, publishing a
// per-region and/or a global key prefix for every event.
func WithLegacyKeyPrefixes(perRegion, global bool) Option {
	return func(o *Observer) {
		o.strategy = StrategyLegacyKeys
		o.perRegion = perRegion
		o.global = global
	}
}

// WithLogger configures the logger used for debug events about skipped data.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Observer) { o.logger = logger }
}
