package callmetrics

import (
	"net/http"
	"strconv"
)

// CallContext is the metadata the host transport supplies with every lifecycle event. Fields
// that were never captured are nil; the Observer treats absence as missing data and skips the
// dependent metric.
type CallContext struct {
	// ServiceID identifies the remote service, e.g. "DynamoDB".
	ServiceID string
	// OperationName identifies the remote operation, e.g. "GetItem".
	OperationName string
	// Region is the region the call was signed for or routed to.
	Region *string

	// StatusCode is the status of the response, nil when no response was received.
	StatusCode *int
	// Header holds the response headers, nil when no response was received.
	Header http.Header
	// Timing is nil when the transport recorded no timing information.
	Timing *Timing

	// Err is the error of the attempt or call, if any.
	Err error
}

// RegionValue returns the region, or an empty string when absent.
func (c CallContext) RegionValue() string {
	if c.Region == nil {
		return ""
	}
	return *c.Region
}

// Latency returns end minus start in milliseconds. It reports false when either timestamp is
// missing or when the span is negative.
func (c CallContext) Latency() (int64, bool) {
	if c.Timing == nil {
		return 0, false
	}
	return c.Timing.Millis()
}

// ContentLength parses the first Content-Length header value. It reports false when the header
// is absent or does not hold a non-negative integer.
func (c CallContext) ContentLength() (int64, bool) {
	if c.Header == nil {
		return 0, false
	}
	values := c.Header.Values("Content-Length")
	if len(values) == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Status returns the bucket of the response status code, if a status was received.
func (c CallContext) Status() (StatusBucket, bool) {
	if c.StatusCode == nil {
		return "", false
	}
	return ResolveStatusBucket(*c.StatusCode), true
}

// ptr returns a pointer to the given value.
func ptr[T any](v T) *T { return &v }

// String returns a pointer to s, for filling optional CallContext fields.
func String(s string) *string { return ptr(s) }

// Int returns a pointer to n, for filling optional CallContext fields.
func Int(n int) *int { return ptr(n) }

// Int64 returns a pointer to n, for filling optional CallContext fields.
func Int64(n int64) *int64 { return ptr(n) }
