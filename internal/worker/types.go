package worker

import (
	"github.com/ChuLiYu/zipsweep/internal/metrics"
	"github.com/ChuLiYu/zipsweep/internal/oracle"
	"github.com/ChuLiYu/zipsweep/internal/progress"
	"github.com/ChuLiYu/zipsweep/internal/queue"
	"github.com/ChuLiYu/zipsweep/internal/search"
)

// Config 描述一組 Worker 共用的協作者
type Config struct {
	Queue    *queue.Bounded[string] // 候選字串佇列（唯讀端）
	State    *search.State          // 共享的搜尋狀態
	Oracle   oracle.Oracle          // 每個 Worker 各自開啟 handle
	Target   string                 // 目標資源（例如 ZIP 路徑）
	Reporter *progress.Reporter     // 可為 nil
	Metrics  *metrics.Collector     // 可為 nil

	// ProgressEvery 每個 Worker 本地嘗試次數達到此倍數時觸發進度回報，<= 0 表示不回報
	ProgressEvery int
}

// Stats 單一 Worker 的統計
type Stats struct {
	ID       int    // Worker 編號
	Attempts uint64 // 本地嘗試次數
	Errors   uint64 // oracle 錯誤次數（視為否定結果）
	Won      bool   // 是否為勝出者
}
