// ============================================================================
// zipsweep Metrics - Prometheus 監控指標
// ============================================================================
//
// Package: internal/metrics
// 文件: metrics.go
// 功能: 收集和暴露搜尋過程的運行指標，支持 Prometheus 監控
//
// 指標分類:
//
//   1. 計數器 (Counter) - 累計值，只增不減：
//      - zipsweep_attempts_total: oracle 呼叫總數
//      - zipsweep_candidates_generated_total: 來源產生並放入佇列的候選字串數
//      - zipsweep_oracle_errors_total: 單一候選字串驗證失敗（視為否定結果）
//      - zipsweep_worker_init_failures_total: 無法開啟 oracle handle 的 worker 數
//      - zipsweep_searches_total{outcome}: 依結果分類的搜尋次數
//
//   2. 性能指標 (Histogram)：
//      - zipsweep_search_duration_seconds: 單次搜尋耗時
//
//   3. 狀態指標 (Gauge) - 瞬時值：
//      - zipsweep_throughput_attempts_per_second: 最近一次進度回報的吞吐量
//      - zipsweep_queue_depth: 最近一次取樣的佇列長度
//      - zipsweep_active_workers: 執行中的 worker 數
//
// Prometheus 查詢示例:
//
//   # 每秒嘗試次數
//   rate(zipsweep_attempts_total[1m])
//
//   # 驗證錯誤比例
//   rate(zipsweep_oracle_errors_total[5m]) / rate(zipsweep_attempts_total[5m])
//
// HTTP 端點:
//   通過 /metrics 端點暴露，默認端口 9090
//
// 所有 Record/Set 方法接受 nil receiver，未啟用監控時可直接傳 nil。
//
// ============================================================================

package metrics

import (
	"fmt"
	"net/http"

	"github.com/ChuLiYu/zipsweep/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector Prometheus 指標收集器
type Collector struct {
	// 計數器
	attempts           prometheus.Counter
	generated          prometheus.Counter
	oracleErrors       prometheus.Counter
	workerInitFailures prometheus.Counter
	searches           *prometheus.CounterVec

	// 效能指標
	searchDuration prometheus.Histogram

	// 狀態指標
	throughput    prometheus.Gauge
	queueDepth    prometheus.Gauge
	activeWorkers prometheus.Gauge
}

// NewCollector 創建新的指標收集器並註冊到預設 registry
func NewCollector() *Collector {
	c := &Collector{
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zipsweep_attempts_total",
			Help: "Total number of oracle invocations",
		}),
		generated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zipsweep_candidates_generated_total",
			Help: "Total number of candidates published to the queue",
		}),
		oracleErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zipsweep_oracle_errors_total",
			Help: "Total number of candidates whose verification failed and was treated as negative",
		}),
		workerInitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zipsweep_worker_init_failures_total",
			Help: "Total number of workers that could not open an oracle handle",
		}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zipsweep_searches_total",
			Help: "Total number of searches by outcome",
		}, []string{"outcome"}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "zipsweep_search_duration_seconds",
			Help:    "Wall time of a search in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		throughput: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zipsweep_throughput_attempts_per_second",
			Help: "Attempts per second at the last progress report",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zipsweep_queue_depth",
			Help: "Candidates waiting in the queue at the last sample",
		}),
		activeWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zipsweep_active_workers",
			Help: "Number of workers currently draining the queue",
		}),
	}

	// 註冊所有指標
	prometheus.MustRegister(c.attempts)
	prometheus.MustRegister(c.generated)
	prometheus.MustRegister(c.oracleErrors)
	prometheus.MustRegister(c.workerInitFailures)
	prometheus.MustRegister(c.searches)
	prometheus.MustRegister(c.searchDuration)
	prometheus.MustRegister(c.throughput)
	prometheus.MustRegister(c.queueDepth)
	prometheus.MustRegister(c.activeWorkers)

	return c
}

// RecordAttempt 記錄一次 oracle 呼叫
func (c *Collector) RecordAttempt() {
	if c == nil {
		return
	}
	c.attempts.Inc()
}

// RecordOracleError 記錄一次驗證錯誤
func (c *Collector) RecordOracleError() {
	if c == nil {
		return
	}
	c.oracleErrors.Inc()
}

// RecordWorkerInitFailure 記錄 worker 初始化失敗
func (c *Collector) RecordWorkerInitFailure() {
	if c == nil {
		return
	}
	c.workerInitFailures.Inc()
}

// WorkerStarted / WorkerStopped 追蹤執行中的 worker 數
func (c *Collector) WorkerStarted() {
	if c == nil {
		return
	}
	c.activeWorkers.Inc()
}

func (c *Collector) WorkerStopped() {
	if c == nil {
		return
	}
	c.activeWorkers.Dec()
}

// SetThroughput 設置最近一次的吞吐量
func (c *Collector) SetThroughput(perSecond float64) {
	if c == nil {
		return
	}
	c.throughput.Set(perSecond)
}

// SetQueueDepth 設置佇列長度
func (c *Collector) SetQueueDepth(depth int) {
	if c == nil {
		return
	}
	c.queueDepth.Set(float64(depth))
}

// RecordSearch 記錄一次搜尋的最終結果
func (c *Collector) RecordSearch(report types.Report) {
	if c == nil {
		return
	}
	c.searches.WithLabelValues(string(report.Outcome)).Inc()
	c.generated.Add(float64(report.Generated))
	c.searchDuration.Observe(report.Elapsed.Seconds())
}

// Handler 回傳 /metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartServer 啟動 Prometheus metrics HTTP 伺服器
//
// 參數：
//   - port: HTTP 伺服器端口
//
// 返回值：
//   - error: 啟動失敗的錯誤
func StartServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	addr := fmt.Sprintf(":%d", port)
	return http.ListenAndServe(addr, mux)
}
