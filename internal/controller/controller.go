// ============================================================================
// zipsweep 控制器 - 搜尋協調器
// ============================================================================
//
// Package: internal/controller
// 文件: controller.go
// 功能: 建立共享狀態與佇列，依序啟動來源與 Worker，等待全部結束後決定結果
//
// 架構設計:
//   這是整個搜尋的"大腦"，負責協調以下組件：
//   - Source: 候選字串來源（字典 / 樣板）
//   - Queue: 有界阻塞佇列，來源唯一的寫入端
//   - WorkerPool: 每個 Worker 持有自己的 oracle handle
//   - search.State: 結果槽位與計數器，所有任務共用
//
// 狀態機:
//
//   idle ──► running ──► found
//     │                ├─► exhausted
//     │                └─► failed   (來源讀取失敗)
//     └──────────────────► failed   (來源無法準備 / 沒有 Worker 初始化成功)
//
// 啟動順序:
//   1. Prepare() 來源：開檔或計算樣板大小，失敗即 failed，不啟動任何任務
//   2. Pool.Start(n)：同步開啟所有 handle，全部失敗即 failed
//   3. 進入 running，來源與 Worker 在同一個 errgroup 中執行
//   4. 等待來源與所有 Worker 結束（沒有任務會被遺棄）
//
// 結束判定:
//   - 有勝出者 → found
//   - 來源回傳錯誤且無勝出者 → failed
//   - 否則 CAS pending → exhausted
//
// 取消:
//   沒有外部取消。終止只由勝出（Worker 關閉佇列）或來源自然結束觸發，
//   關閉佇列會喚醒所有阻塞中的 Push / Pop。
//
// ============================================================================

package controller

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"

	"github.com/ChuLiYu/zipsweep/internal/metrics"
	"github.com/ChuLiYu/zipsweep/internal/oracle"
	"github.com/ChuLiYu/zipsweep/internal/progress"
	"github.com/ChuLiYu/zipsweep/internal/queue"
	"github.com/ChuLiYu/zipsweep/internal/search"
	"github.com/ChuLiYu/zipsweep/internal/source"
	"github.com/ChuLiYu/zipsweep/internal/worker"
	"github.com/ChuLiYu/zipsweep/pkg/types"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxWorkers 並發 Worker 數量上限
	MaxWorkers = 64
	// DefaultQueueCapacity 預設佇列容量
	DefaultQueueCapacity = 50000
)

// ErrAlreadyRun 表示此 Controller 已經執行過一次搜尋
var ErrAlreadyRun = errors.New("controller already ran a search")

// ============================================================================
// 資料結構定義
// ============================================================================

// Phase Controller 狀態
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseRunning   Phase = "running"
	PhaseFound     Phase = "found"
	PhaseExhausted Phase = "exhausted"
	PhaseFailed    Phase = "failed"
)

// Observer 每次狀態轉換時被呼叫
type Observer func(Phase)

// Config Controller 配置
type Config struct {
	Target        string             // 目標資源
	Source        source.Source      // 候選字串來源
	Oracle        oracle.Oracle      // 驗證 oracle
	Workers       int                // Worker 數量，<= 0 表示 CPU 數
	QueueCapacity int                // 佇列容量，<= 0 表示 DefaultQueueCapacity
	ProgressEvery int                // 每個 Worker 回報進度的嘗試間隔，<= 0 表示不回報
	Progress      progress.Sink      // 進度輸出，可為 nil
	Metrics       *metrics.Collector // 可為 nil
}

// Controller 搜尋協調器，每個實例只執行一次搜尋
type Controller struct {
	mu        sync.Mutex
	config    Config
	phase     Phase
	ran       bool
	observers []Observer
}

// ============================================================================
// 核心方法實作
// ============================================================================

// NewController 建立新的 Controller 實例
func NewController(config Config) *Controller {
	return &Controller{
		config: config,
		phase:  PhaseIdle,
	}
}

// Subscribe 註冊狀態觀察者，需在 Run 之前呼叫
func (c *Controller) Subscribe(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Phase 返回目前狀態
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Run 執行一次完整搜尋，直到找到、耗盡或失敗
//
// 返回值：
//   - types.Report: 最終結果（失敗時也會填入已知欄位）
//   - error: 僅在 failed 時非 nil
func (c *Controller) Run() (types.Report, error) {
	c.mu.Lock()
	if c.ran {
		c.mu.Unlock()
		return types.Report{}, ErrAlreadyRun
	}
	c.ran = true
	c.mu.Unlock()

	cfg := c.config
	workers := clampWorkers(cfg.Workers)
	capacity := cfg.QueueCapacity
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}

	st := search.NewState()
	report := types.Report{
		Target:    cfg.Target,
		StartedAt: st.StartedAt(),
	}
	if cfg.Source == nil {
		return c.fail(report, st, fmt.Errorf("%w: no candidate source", source.ErrInputUnavailable))
	}
	report.Source = cfg.Source.Kind()

	// 1. 驗證並準備來源
	q, err := queue.NewBounded[string](capacity)
	if err != nil {
		return c.fail(report, st, err)
	}
	if err := cfg.Source.Prepare(); err != nil {
		return c.fail(report, st, err)
	}

	// 2. 開啟每個 Worker 的 handle
	reporter := progress.NewReporter(st, func(s progress.Snapshot) {
		cfg.Metrics.SetThroughput(s.Rate)
		if cfg.Progress != nil {
			cfg.Progress(s)
		}
	})
	pool := worker.NewPool(worker.Config{
		Queue:         q,
		State:         st,
		Oracle:        cfg.Oracle,
		Target:        cfg.Target,
		Reporter:      reporter,
		Metrics:       cfg.Metrics,
		ProgressEvery: cfg.ProgressEvery,
	})
	ready, err := pool.Start(workers)
	if err != nil {
		closeSource(cfg.Source)
		return c.fail(report, st, err)
	}
	report.Workers = ready

	// 3. running
	c.notify(PhaseRunning)
	slog.Info("Search started",
		"target", cfg.Target,
		"source", report.Source,
		"workers", ready,
		"queue_capacity", capacity)

	var g errgroup.Group
	g.Go(func() error {
		return cfg.Source.Generate(q, st)
	})
	g.Go(func() error {
		pool.Wait()
		return nil
	})
	srcErr := g.Wait()

	// 4. 決定結果
	if winner, ok := st.Winner(); ok {
		report.Winner = winner
		return c.finish(report, st, PhaseFound), nil
	}
	if srcErr != nil {
		return c.fail(report, st, srcErr)
	}
	if !st.MarkExhausted() {
		// 只有勝出者能搶先轉換，而上面已檢查過
		slog.Error("Unexpected state after join", "outcome", st.Outcome())
	}
	return c.finish(report, st, PhaseExhausted), nil
}

// fail 轉換到 failed 並填入錯誤
func (c *Controller) fail(report types.Report, st *search.State, err error) (types.Report, error) {
	report.Error = err.Error()
	slog.Error("Search failed", "target", report.Target, "error", err)
	return c.finish(report, st, PhaseFailed), err
}

// finish 填入計數器、記錄指標並通知觀察者
func (c *Controller) finish(report types.Report, st *search.State, phase Phase) types.Report {
	report.Outcome = outcomeOf(phase)
	report.Attempted = st.Attempted()
	report.Total, report.TotalKnown = st.Total()
	report.Generated = st.Generated()
	report.Elapsed = st.Elapsed()

	c.config.Metrics.RecordSearch(report)
	c.notify(phase)

	if phase != PhaseFailed {
		slog.Info("Search finished",
			"outcome", report.Outcome,
			"attempted", report.Attempted,
			"elapsed", report.Elapsed)
	}
	return report
}

// notify 更新狀態並在鎖外呼叫觀察者
func (c *Controller) notify(phase Phase) {
	c.mu.Lock()
	c.phase = phase
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	for _, o := range observers {
		o(phase)
	}
}

// clampWorkers 將 Worker 數量限制在 [1, MaxWorkers]，<= 0 時使用 CPU 數
func clampWorkers(n int) int {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if n > MaxWorkers {
		n = MaxWorkers
	}
	if n < 1 {
		n = 1
	}
	return n
}

// closeSource 釋放已準備但未執行的來源
func closeSource(src source.Source) {
	if cl, ok := src.(io.Closer); ok {
		if err := cl.Close(); err != nil {
			slog.Warn("Failed to close candidate source", "error", err)
		}
	}
}

func outcomeOf(phase Phase) types.Outcome {
	switch phase {
	case PhaseFound:
		return types.OutcomeFound
	case PhaseExhausted:
		return types.OutcomeExhausted
	case PhaseFailed:
		return types.OutcomeFailed
	default:
		return types.OutcomePending
	}
}
