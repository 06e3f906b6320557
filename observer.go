package callmetrics

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Metric name suffixes.
const (
	attemptSuffix       = "attempt"
	latencySuffix       = "latency"
	contentLengthSuffix = "content_length"
)

// Hooks is the set of lifecycle callbacks a host transport invokes around an outbound call.
// Implementations must not block and must not alter the outcome of the call.
type Hooks interface {
	// OnAttemptCompleted is invoked once per attempt, including attempts that are retried.
	OnAttemptCompleted(cc CallContext)

	// OnCallSucceeded is invoked once when the call completed with a response.
	OnCallSucceeded(cc CallContext)

	// OnCallFailed is invoked once when the call failed terminally.
	OnCallFailed(cc CallContext, err error)
}

// Observer derives latency, response size and outcome metrics from call lifecycle events and
// forwards them to a Registry. It holds only immutable configuration and is safe for
// concurrent use.
type Observer struct {
	registry Registry
	logger   zerolog.Logger

	prefix    string
	strategy  Strategy
	perRegion bool
	global    bool
}

var _ Hooks = (*Observer)(nil)

// New creates an Observer that records into registry. Without options the Observer uses the
// tag strategy and no metric prefix.
func New(registry Registry, opts ...Option) *Observer {
	o := &Observer{
		registry: registry,
		logger:   log.Logger,
		strategy: StrategyTags,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Config returns the normalized configuration of the Observer.
func (o *Observer) Config() Config {
	cfg := Config{MetricPrefix: o.prefix}
	if o.strategy == StrategyLegacyKeys {
		cfg.PublishPerRegionMetrics = ptr(o.perRegion)
		cfg.PublishGlobalMetrics = ptr(o.global)
	}
	return cfg
}

// Strategy returns the strategy the Observer records with.
func (o *Observer) Strategy() Strategy {
	return o.strategy
}

// OnAttemptCompleted records an attempt count when the attempt failed with a service error.
// Attempts without an error, or with an error that carries no remote status, record nothing.
func (o *Observer) OnAttemptCompleted(cc CallContext) {
	code, ok := ServiceStatusCode(cc.Err)
	if !ok {
		return
	}
	bucket := ResolveStatusBucket(code).String()

	if o.strategy == StrategyLegacyKeys {
		for _, kp := range o.legacyKeyPrefixes(cc) {
			o.record(MergeKey(o.prefix, kp, attemptSuffix, bucket), nil, 1)
		}
		return
	}
	o.record(MergeKey(o.prefix, o.keyPrefix(cc), attemptSuffix), o.tags(cc, bucket), 1)
}

// OnCallSucceeded records latency and content length of a completed call, when present.
func (o *Observer) OnCallSucceeded(cc CallContext) {
	status := ""
	bucket, hasStatus := cc.Status()
	if hasStatus {
		status = bucket.String()
	}

	if o.strategy == StrategyLegacyKeys {
		prefixes := o.legacyKeyPrefixes(cc)
		o.recordMeasurements(cc, prefixes, nil)
		if hasStatus {
			for _, kp := range prefixes {
				o.record(MergeKey(o.prefix, kp, status), nil, 1)
			}
		}
		return
	}
	o.recordMeasurements(cc, []string{o.keyPrefix(cc)}, o.tags(cc, status))
}

// OnCallFailed records an occurrence count, latency and content length when err is a service
// error. Failures that carry no remote status record nothing. err is never modified.
func (o *Observer) OnCallFailed(cc CallContext, err error) {
	code, ok := ServiceStatusCode(err)
	if !ok {
		return
	}
	bucket := ResolveStatusBucket(code).String()

	if o.strategy == StrategyLegacyKeys {
		prefixes := o.legacyKeyPrefixes(cc)
		for _, kp := range prefixes {
			o.record(MergeKey(o.prefix, kp, bucket), nil, 1)
		}
		o.recordMeasurements(cc, prefixes, nil)
		return
	}
	keyPrefix := o.keyPrefix(cc)
	tags := o.tags(cc, bucket)
	o.record(MergeKey(o.prefix, keyPrefix), tags, 1)
	o.recordMeasurements(cc, []string{keyPrefix}, tags)
}

// recordMeasurements records latency and content length under each key prefix.
func (o *Observer) recordMeasurements(cc CallContext, keyPrefixes []string, tags []Tag) {
	if len(keyPrefixes) == 0 {
		return
	}

	if latency, ok := cc.Latency(); ok {
		for _, kp := range keyPrefixes {
			o.record(MergeKey(o.prefix, kp, latencySuffix), tags, float64(latency))
		}
	} else if cc.Timing != nil && cc.Timing.Known() {
		o.logger.Debug().
			Str("service", cc.ServiceID).
			Str("operation", cc.OperationName).
			Int64("start_ms", *cc.Timing.StartMillis).
			Int64("end_ms", *cc.Timing.EndMillis).
			Msg("Skipping negative latency")
	}

	if length, ok := cc.ContentLength(); ok {
		for _, kp := range keyPrefixes {
			o.record(MergeKey(o.prefix, kp, contentLengthSuffix), tags, float64(length))
		}
	} else if raw := cc.Header.Get("Content-Length"); raw != "" {
		o.logger.Debug().
			Str("service", cc.ServiceID).
			Str("operation", cc.OperationName).
			Str("content_length", raw).
			Msg("Skipping malformed content length")
	}
}

// record forwards a single value to the registry. A panicking registry loses the value but
// never reaches the caller.
func (o *Observer) record(name string, tags []Tag, value float64) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error().Str("metric", name).Interface("panic", r).Msg("Registry panicked")
		}
	}()
	o.registry.GetOrCreateDistribution(name, tags).Record(value)
}

// keyPrefix is the identity of the remote operation, independent of the outcome.
func (o *Observer) keyPrefix(cc CallContext) string {
	return MergeKey(cc.ServiceID, cc.OperationName)
}

// legacyKeyPrefixes returns zero, one or two key prefixes depending on the legacy flags.
func (o *Observer) legacyKeyPrefixes(cc CallContext) []string {
	prefixes := make([]string, 0, 2)
	if o.global {
		prefixes = append(prefixes, MergeKey(cc.ServiceID, cc.OperationName))
	}
	if o.perRegion {
		prefixes = append(prefixes, MergeKey(cc.ServiceID, cc.OperationName, cc.RegionValue()))
	}
	return prefixes
}

// tags returns the region and status tags. Both are always present, empty when unknown.
func (o *Observer) tags(cc CallContext, status string) []Tag {
	return []Tag{
		{Key: TagRegion, Value: cc.RegionValue()},
		{Key: TagStatus, Value: status},
	}
}
