package memreg

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkbrsn/callmetrics"
)

func TestRegistryMemoizesByNameAndTags(t *testing.T) {
	r := New()
	tags := []callmetrics.Tag{{Key: "region", Value: "eu"}, {Key: "status", Value: "success"}}
	reversed := []callmetrics.Tag{tags[1], tags[0]}

	d1 := r.GetOrCreateDistribution("svc_op_latency", tags)
	d2 := r.GetOrCreateDistribution("svc_op_latency", reversed)
	assert.Same(t, d1, d2)

	d1.Record(3)
	d2.Record(5)
	assert.Equal(t, []float64{3, 5}, r.Samples("svc_op_latency", tags...))
	assert.Equal(t, int64(2), r.Calls())
	assert.Equal(t, []string{"svc_op_latency"}, r.Names())
}

func TestRegistryUnknownSeries(t *testing.T) {
	r := New()
	assert.Nil(t, r.Samples("missing"))
	assert.Zero(t, r.Calls())
	assert.Empty(t, r.Snapshot())
}

func TestRegistrySnapshotAndJSON(t *testing.T) {
	r := New()
	r.GetOrCreateDistribution("a", nil).Record(1)
	r.GetOrCreateDistribution("b", []callmetrics.Tag{{Key: "status", Value: "server_error"}}).Record(2)

	snap := r.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "a", snap[0].Name)
	assert.Equal(t, []float64{2}, snap[1].Values)

	data, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"name":"a","values":[1]},
		{"name":"b","tags":[{"Key":"status","Value":"server_error"}],"values":[2]}
	]`, string(data))

	r.Reset()
	assert.Empty(t, r.Snapshot())
	assert.Zero(t, r.Calls())
}

func TestRegistryConcurrentRecording(t *testing.T) {
	r := New()
	const workers, perWorker = 8, 100

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				r.GetOrCreateDistribution("count", nil).Record(1)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, r.Samples("count"), workers*perWorker)
	assert.Equal(t, int64(workers*perWorker), r.Calls())
}
