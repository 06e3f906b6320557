package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkbrsn/callmetrics"
)

func TestProbeTaskRecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Length", "2")
		if string(body) == "fail" {
			w.WriteHeader(http.StatusInternalServerError)
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	cfg := probeConfig{
		Listen:   defaultListenAddr,
		Timeouts: httpTimeouts{Total: time.Second},
		Observer: callmetrics.Config{MetricPrefix: "probe"},
		Targets: []targetConfig{
			{URL: server.URL, Method: http.MethodGet, Service: "local", Operation: "Health", Region: "lab", Cadence: time.Second},
			{URL: server.URL, Method: http.MethodPost, Service: "local", Operation: "Fail", Body: "fail", Cadence: time.Second},
		},
	}
	p := newProber(cfg)

	jobs := p.jobs()
	require.Len(t, jobs, 2)
	for _, job := range jobs {
		require.Len(t, job.Tasks, 1)
		assert.NoError(t, job.Tasks[0].Execute())
	}

	gatherer := p.registry.Gatherer()
	count, err := testutil.GatherAndCount(gatherer,
		"probe_local_Health_latency",
		"probe_local_Health_content_length",
		"probe_local_Fail_attempt",
		"probe_local_Fail",
	)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	expected := `
# HELP probe_local_Health_content_length Outbound call metric probe_local_Health_content_length.
# TYPE probe_local_Health_content_length summary
probe_local_Health_content_length_sum{region="lab",status="success"} 2
probe_local_Health_content_length_count{region="lab",status="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(gatherer, strings.NewReader(expected), "probe_local_Health_content_length"))
}

func TestProbeTaskTransportFailure(t *testing.T) {
	p := newProber(probeConfig{
		Timeouts: httpTimeouts{Total: time.Second},
		Targets:  []targetConfig{{URL: "http://127.0.0.1:1", Method: http.MethodGet, Service: "down", Operation: "Ping"}},
	})

	err := p.jobs()[0].Tasks[0].Execute()
	assert.Error(t, err)

	count, err := testutil.GatherAndCount(p.registry.Gatherer())
	require.NoError(t, err)
	assert.Zero(t, count)
}
