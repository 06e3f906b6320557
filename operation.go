package callmetrics

import (
	"context"
	"net/http"
)

// Operation identifies the remote operation a request calls.
type Operation struct {
	ServiceID string
	Name      string
	Region    string
}

// OperationResolver derives the Operation of an outbound request.
type OperationResolver func(req *http.Request) Operation

type operationKey struct{}

// WithOperation returns a context that makes Transport attribute requests to op.
func WithOperation(ctx context.Context, op Operation) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

// OperationFromContext returns the Operation stored by WithOperation.
func OperationFromContext(ctx context.Context) (Operation, bool) {
	op, ok := ctx.Value(operationKey{}).(Operation)
	return op, ok
}

// DefaultOperationResolver names the service after the request host and the operation after
// the request method.
func DefaultOperationResolver(req *http.Request) Operation {
	var host string
	if req.URL != nil {
		host = req.URL.Hostname()
	}
	if host == "" {
		host = req.Host
	}
	return Operation{ServiceID: host, Name: req.Method}
}

// callContext builds the CallContext skeleton for the operation.
func (op Operation) callContext() CallContext {
	cc := CallContext{
		ServiceID:     op.ServiceID,
		OperationName: op.Name,
	}
	if op.Region != "" {
		cc.Region = ptr(op.Region)
	}
	return cc
}
