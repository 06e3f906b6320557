package callmetrics

// StatusBucket is the coarse class of an HTTP status code, used both as the status tag value
// and as a metric name suffix.
type StatusBucket string

// Status buckets, one per HTTP status code class.
const (
	StatusInformational StatusBucket = "informational"
	StatusSuccess       StatusBucket = "success"
	StatusRedirection   StatusBucket = "redirection"
	StatusClientError   StatusBucket = "client_error"
	StatusServerError   StatusBucket = "server_error"
	StatusUnknown       StatusBucket = "unknown"
)

// ResolveStatusBucket maps a status code to its bucket. Codes outside 100-599 resolve to
// StatusUnknown.
func ResolveStatusBucket(code int) StatusBucket {
	switch {
	case code >= 100 && code < 200:
		return StatusInformational
	case code >= 200 && code < 300:
		return StatusSuccess
	case code >= 300 && code < 400:
		return StatusRedirection
	case code >= 400 && code < 500:
		return StatusClientError
	case code >= 500 && code < 600:
		return StatusServerError
	default:
		return StatusUnknown
	}
}

// String returns the bucket name.
func (b StatusBucket) String() string {
	return string(b)
}
