package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jkbrsn/callmetrics"
	"github.com/jkbrsn/callmetrics/pkg/memreg"
)

func main() {
	// Record into memory so the result can be printed at the end
	registry := memreg.New()
	observer := callmetrics.New(registry, callmetrics.WithMetricPrefix("example"))

	client := &http.Client{
		Transport: callmetrics.NewTransport(
			observer,
			callmetrics.WithOperationResolver(callmetrics.JSONRPCOperationResolver("ethereum", "")),
		),
	}

	// Requests attributed explicitly through the context
	ctx := callmetrics.WithOperation(context.Background(), callmetrics.Operation{
		ServiceID: "httpbin",
		Name:      "Status",
		Region:    "us-east-1",
	})
	for _, url := range []string{"https://httpbin.org/status/200", "https://httpbin.org/status/503"} {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			fmt.Printf("Error creating request: %v\n", err)
			return
		}
		do(client, req)
	}

	// A JSON-RPC request, named after its method by the resolver
	payload := `{"jsonrpc":"2.0","id":1,"method":"eth_blockNumber","params":[]}`
	req, err := http.NewRequest(http.MethodPost, "https://ethereum-rpc.publicnode.com", strings.NewReader(payload))
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	do(client, req)

	data, err := registry.MarshalJSON()
	if err != nil {
		fmt.Printf("Error encoding metrics: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func do(client *http.Client, req *http.Request) {
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Request to %s failed: %v\n", req.URL, err)
		return
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)
	fmt.Printf("%s %s: %d\n", req.Method, req.URL, resp.StatusCode)
}
