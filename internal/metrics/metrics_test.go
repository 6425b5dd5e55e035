package metrics

import (
	"sync"
	"testing"
	"time"

	"github.com/ChuLiYu/zipsweep/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector(t *testing.T) {
	// Reset Prometheus registry to avoid duplicate registration
	prometheus.DefaultRegisterer = prometheus.NewRegistry()

	collector := NewCollector()

	require.NotNil(t, collector, "NewCollector should return a non-nil collector")
	assert.NotNil(t, collector.attempts, "attempts counter should be initialized")
	assert.NotNil(t, collector.generated, "generated counter should be initialized")
	assert.NotNil(t, collector.oracleErrors, "oracleErrors counter should be initialized")
	assert.NotNil(t, collector.workerInitFailures, "workerInitFailures counter should be initialized")
	assert.NotNil(t, collector.searches, "searches counter vec should be initialized")
	assert.NotNil(t, collector.searchDuration, "searchDuration histogram should be initialized")
	assert.NotNil(t, collector.throughput, "throughput gauge should be initialized")
	assert.NotNil(t, collector.queueDepth, "queueDepth gauge should be initialized")
	assert.NotNil(t, collector.activeWorkers, "activeWorkers gauge should be initialized")
}

func TestRecordAttempt(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	for i := 0; i < 5; i++ {
		collector.RecordAttempt()
	}
	assert.Equal(t, 5.0, testutil.ToFloat64(collector.attempts))
}

func TestRecordOracleErrorAndInitFailure(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	collector.RecordOracleError()
	collector.RecordOracleError()
	collector.RecordWorkerInitFailure()

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.oracleErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.workerInitFailures))
}

func TestActiveWorkers(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	collector.WorkerStarted()
	collector.WorkerStarted()
	collector.WorkerStarted()
	collector.WorkerStopped()

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.activeWorkers))
}

func TestGauges(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	testCases := []struct {
		name       string
		throughput float64
		depth      int
	}{
		{"zero values", 0, 0},
		{"normal values", 1250.5, 300},
		{"full queue", 90000, 50000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			collector.SetThroughput(tc.throughput)
			collector.SetQueueDepth(tc.depth)
			assert.Equal(t, tc.throughput, testutil.ToFloat64(collector.throughput))
			assert.Equal(t, float64(tc.depth), testutil.ToFloat64(collector.queueDepth))
		})
	}
}

func TestRecordSearch(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	collector.RecordSearch(types.Report{Outcome: types.OutcomeFound, Generated: 40, Elapsed: time.Second})
	collector.RecordSearch(types.Report{Outcome: types.OutcomeExhausted, Generated: 100, Elapsed: 2 * time.Second})
	collector.RecordSearch(types.Report{Outcome: types.OutcomeFound, Generated: 2})

	assert.Equal(t, 2.0, testutil.ToFloat64(collector.searches.WithLabelValues(string(types.OutcomeFound))))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.searches.WithLabelValues(string(types.OutcomeExhausted))))
	assert.Equal(t, 142.0, testutil.ToFloat64(collector.generated))
}

func TestNilCollector(t *testing.T) {
	var collector *Collector

	assert.NotPanics(t, func() {
		collector.RecordAttempt()
		collector.RecordOracleError()
		collector.RecordWorkerInitFailure()
		collector.WorkerStarted()
		collector.WorkerStopped()
		collector.SetThroughput(1)
		collector.SetQueueDepth(1)
		collector.RecordSearch(types.Report{Outcome: types.OutcomeFailed})
	}, "a nil collector should discard every update")
}

func TestConcurrentMetricUpdates(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()
	collector := NewCollector()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.WorkerStarted()
			collector.RecordAttempt()
			collector.SetQueueDepth(10)
			collector.WorkerStopped()
		}()
	}
	wg.Wait()

	assert.Equal(t, 100.0, testutil.ToFloat64(collector.attempts))
	assert.Zero(t, testutil.ToFloat64(collector.activeWorkers))
}

func TestCollectorIsolation(t *testing.T) {
	prometheus.DefaultRegisterer = prometheus.NewRegistry()

	collector1 := NewCollector()
	require.NotNil(t, collector1)

	// Second collector will panic due to duplicate registration
	// This is expected: a process should have only one collector
	assert.Panics(t, func() {
		NewCollector()
	}, "Creating a second collector should panic due to duplicate registration")
}
