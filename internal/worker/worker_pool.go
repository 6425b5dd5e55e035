// ============================================================================
// zipsweep Worker Pool - 並發候選字串驗證器
// ============================================================================
//
// Package: internal/worker
// 文件: worker_pool.go
// 功能: 管理多個 Worker goroutine 的生命週期
//
// 設計模式:
//   採用 Worker Pool 模式（工作池模式）：
//   1. 固定數量的 Worker goroutine 共用同一個有界佇列
//   2. 每個 Worker 自行 Pop，快的 Worker 自然拿到更多候選字串（動態負載平衡）
//   3. 每個 Worker 持有自己的 oracle handle，不共用
//
// 架構組件:
//   ┌─────────────┐
//   │   Source    │ --Push()--> queue
//   └─────────────┘
//   ┌─────────────┐
//   │   Pool      │
//   │  ┌────────┐ │
//   │  │Worker 1│←── Pop()
//   │  │Worker 2│←── Pop()   ──→ search.State (attempted / winner)
//   │  │Worker 3│←── Pop()
//   │  └────────┘ │
//   └─────────────┘
//
// 生命週期:
//   1. NewPool(cfg) - 創建 Pool
//   2. Start(n) - 為 n 個 Worker 各自開啟 handle，成功者啟動 goroutine
//   3. Wait() - 等待所有 Worker 退出
//
// 初始化失敗:
//   - 單一 Worker 無法開啟 handle：記錄、計數、略過，其餘 Worker 照常運行
//   - 所有 Worker 都失敗：回傳 ErrNoWorkers，不啟動任何 goroutine
//   - 所有失敗原因以 go-multierror 聚合，可由 InitErrors() 取得
//
// 關閉:
//   Pool 不主動關閉佇列。佇列由來源（自然結束）或勝出的 Worker 關閉，
//   關閉會喚醒所有阻塞中的 Pop，Worker 隨之退出。
//
// ============================================================================

package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// ============================================================================
// 錯誤定義
// ============================================================================

var (
	// ErrNoWorkers 表示沒有任何 Worker 成功初始化
	ErrNoWorkers = errors.New("no worker could open the target")
	// ErrPoolStarted 表示 Pool 已啟動，不可重複啟動
	ErrPoolStarted = errors.New("pool already started")
)

// ============================================================================
// 資料結構定義
// ============================================================================

// Pool 代表 Worker 池，管理多個並發的 Worker
type Pool struct {
	cfg      Config
	workers  []*Worker         // 成功初始化的 Worker
	initErrs *multierror.Error // 初始化失敗的聚合錯誤
	wg       sync.WaitGroup    // 等待所有 Worker 完成
	started  bool
	mu       sync.Mutex // 保護 started / workers / initErrs
}

// ============================================================================
// 核心方法實作
// ============================================================================

// NewPool 建立新的 Worker Pool
func NewPool(cfg Config) *Pool {
	return &Pool{
		cfg:     cfg,
		workers: make([]*Worker, 0),
	}
}

// Start 為每個 Worker 開啟 oracle handle，並啟動成功初始化的 Worker
//
// 參數：
//   - workerCount: 要嘗試啟動的 Worker 數量
//
// 返回值：
//   - int: 實際啟動的 Worker 數量
//   - error: 已啟動、或沒有任何 Worker 初始化成功時返回錯誤
func (p *Pool) Start(workerCount int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return 0, ErrPoolStarted
	}
	p.started = true

	// 先同步開啟所有 handle，任何 goroutine 尚未啟動
	for i := 0; i < workerCount; i++ {
		handle, err := p.cfg.Oracle.Open(p.cfg.Target)
		if err != nil {
			slog.Warn("Worker failed to open target", "worker", i, "error", err)
			p.cfg.Metrics.RecordWorkerInitFailure()
			p.initErrs = multierror.Append(p.initErrs, fmt.Errorf("worker %d: %w", i, err))
			continue
		}
		p.workers = append(p.workers, newWorker(i, handle, &p.cfg))
	}

	if len(p.workers) == 0 {
		if err := p.initErrs.ErrorOrNil(); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrNoWorkers, err)
		}
		return 0, ErrNoWorkers
	}
	if p.initErrs != nil {
		slog.Warn("Continuing with fewer workers",
			"ready", len(p.workers),
			"requested", workerCount,
			"failed", p.initErrs.Len())
	}

	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Run()
		}(w)
	}

	return len(p.workers), nil
}

// Wait 阻塞直到所有 Worker 退出
func (p *Pool) Wait() {
	p.wg.Wait()
}

// InitErrors 返回初始化失敗的聚合錯誤，全部成功時為 nil
func (p *Pool) InitErrors() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initErrs.ErrorOrNil()
}

// Stats 返回每個 Worker 的統計，應在 Wait() 之後呼叫
func (p *Pool) Stats() []Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := make([]Stats, 0, len(p.workers))
	for _, w := range p.workers {
		stats = append(stats, w.stats)
	}
	return stats
}

// GetWorkerCount 返回成功啟動的 Worker 數量
func (p *Pool) GetWorkerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// IsStarted 檢查 Pool 是否已啟動
func (p *Pool) IsStarted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.started
}
