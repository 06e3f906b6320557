package callmetrics

import (
	"net/http"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.uber.org/atomic"
)

// ErrorClassifier decides whether a response is a failure reported by the remote service. It
// returns nil for responses that count as a completed call.
type ErrorClassifier func(resp *http.Response) error

// TransportOption is a functional option for the Transport.
type TransportOption func(*Transport)

// Transport is an http.RoundTripper that reports the lifecycle of every request it carries to
// a set of Hooks. Each round trip is one attempt and one call: the attempt hook fires first,
// then either the success or the failure hook. The response and error of the base transport
// are returned untouched.
type Transport struct {
	base     http.RoundTripper
	hooks    Hooks
	resolver OperationResolver
	classify ErrorClassifier
	logger   zerolog.Logger
	now      func() time.Time

	inFlight atomic.Int64
}

var _ http.RoundTripper = (*Transport)(nil)

// NewTransport creates a Transport reporting to hooks.
func NewTransport(hooks Hooks, opts ...TransportOption) *Transport {
	t := &Transport{
		base:     http.DefaultTransport,
		hooks:    hooks,
		resolver: DefaultOperationResolver,
		classify: DefaultErrorClassifier,
		logger:   log.Logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// WithBase configures the RoundTripper that performs the requests.
func WithBase(base http.RoundTripper) TransportOption {
	return func(t *Transport) {
		if base != nil {
			t.base = base
		}
	}
}

// WithOperationResolver configures how requests without an Operation in their context are
// attributed.
func WithOperationResolver(resolver OperationResolver) TransportOption {
	return func(t *Transport) {
		if resolver != nil {
			t.resolver = resolver
		}
	}
}

// WithErrorClassifier configures which responses count as service errors.
func WithErrorClassifier(classify ErrorClassifier) TransportOption {
	return func(t *Transport) {
		if classify != nil {
			t.classify = classify
		}
	}
}

// WithTransportLogger configures the logger of the Transport.
func WithTransportLogger(logger zerolog.Logger) TransportOption {
	return func(t *Transport) { t.logger = logger }
}

// DefaultErrorClassifier treats every status of 400 and above as a service error.
func DefaultErrorClassifier(resp *http.Response) error {
	if resp == nil || resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	requestID := resp.Header.Get("X-Amzn-Requestid")
	if requestID == "" {
		requestID = resp.Header.Get("X-Request-Id")
	}
	return &ServiceError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		RequestID:  requestID,
	}
}

// InFlight returns the number of round trips currently in progress.
func (t *Transport) InFlight() int64 {
	return t.inFlight.Load()
}

// RoundTrip executes the request on the base transport and reports its lifecycle.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	op, ok := OperationFromContext(req.Context())
	if !ok {
		op = t.resolver(req)
	}
	callID := xid.New()

	t.inFlight.Inc()
	start := t.now()
	resp, err := t.base.RoundTrip(req)
	end := t.now()
	t.inFlight.Dec()

	cc := op.callContext()
	cc.Timing = TimingFromTimes(start, end)

	if err != nil {
		cc.Err = err
		t.logger.Debug().
			Str("call_id", callID.String()).
			Str("service", op.ServiceID).
			Str("operation", op.Name).
			Err(err).
			Msg("Call failed in transport")
		t.notify(callID, func() { t.hooks.OnAttemptCompleted(cc) })
		t.notify(callID, func() { t.hooks.OnCallFailed(cc, err) })
		return resp, err
	}

	cc.StatusCode = ptr(resp.StatusCode)
	cc.Header = resp.Header

	serviceErr := t.classify(resp)
	t.logger.Debug().
		Str("call_id", callID.String()).
		Str("service", op.ServiceID).
		Str("operation", op.Name).
		Int("status", resp.StatusCode).
		Dur("latency", end.Sub(start)).
		Msg("Call completed")

	if serviceErr != nil {
		cc.Err = serviceErr
		t.notify(callID, func() { t.hooks.OnAttemptCompleted(cc) })
		t.notify(callID, func() { t.hooks.OnCallFailed(cc, serviceErr) })
		return resp, nil
	}
	t.notify(callID, func() { t.hooks.OnAttemptCompleted(cc) })
	t.notify(callID, func() { t.hooks.OnCallSucceeded(cc) })
	return resp, nil
}

// notify runs a hook, containing any panic so the call outcome is unaffected.
func (t *Transport) notify(callID xid.ID, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error().
				Str("call_id", callID.String()).
				Interface("panic", r).
				Msg("Lifecycle hook panicked")
		}
	}()
	fn()
}
