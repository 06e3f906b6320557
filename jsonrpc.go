package callmetrics

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
)

// jsonRPCBatchOperation names operations that carry a batch of JSON-RPC requests.
const jsonRPCBatchOperation = "batch"

// ErrNotJSONRPC is returned by ParseJSONRPCMethod for payloads without a JSON-RPC method.
var ErrNotJSONRPC = errors.New("payload is not a JSON-RPC request")

// jsonRPCRequest holds the fields needed to name a JSON-RPC call.
type jsonRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
}

// ParseJSONRPCMethod returns the method of a JSON-RPC request, or "batch" for a batch.
func ParseJSONRPCMethod(data []byte) (string, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return "", ErrNotJSONRPC
	}

	if trimmed[0] == '[' {
		var batch []jsonRPCRequest
		if err := sonic.Unmarshal(trimmed, &batch); err != nil {
			return "", err
		}
		if len(batch) == 0 {
			return "", ErrNotJSONRPC
		}
		return jsonRPCBatchOperation, nil
	}

	var req jsonRPCRequest
	if err := sonic.Unmarshal(trimmed, &req); err != nil {
		return "", err
	}
	if req.Method == "" {
		return "", ErrNotJSONRPC
	}
	return req.Method, nil
}

// JSONRPCOperationResolver attributes requests to serviceID and names the operation after the
// JSON-RPC method in the request body. The body is read from a copy obtained through
// Request.GetBody, so the payload sent on the wire is untouched. Requests whose body cannot be
// read or parsed are named after their HTTP method.
func JSONRPCOperationResolver(serviceID, region string) OperationResolver {
	return func(req *http.Request) Operation {
		op := Operation{ServiceID: serviceID, Name: req.Method, Region: region}
		if req.GetBody == nil {
			return op
		}
		body, err := req.GetBody()
		if err != nil {
			return op
		}
		defer func() { _ = body.Close() }()

		data, err := io.ReadAll(body)
		if err != nil {
			return op
		}
		if method, err := ParseJSONRPCMethod(data); err == nil {
			op.Name = method
		}
		return op
	}
}
