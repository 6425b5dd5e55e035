// Package types 定義了 zipsweep 系統中共用的領域模型
package types

import (
	"time"
)

// Outcome 搜尋結果狀態
type Outcome string

// 定義搜尋結果常數
const (
	OutcomePending   Outcome = "pending"   // 搜尋中：尚未找到也尚未耗盡
	OutcomeFound     Outcome = "found"     // 已找到：某個 worker 宣告勝利
	OutcomeExhausted Outcome = "exhausted" // 已耗盡：所有候選字串皆已嘗試
	OutcomeFailed    Outcome = "failed"    // 失敗：輸入無法使用或沒有可用的 worker
)

// IsTerminal 回報此狀態是否為終止狀態
func (o Outcome) IsTerminal() bool {
	return o == OutcomeFound || o == OutcomeExhausted || o == OutcomeFailed
}

// SourceKind 候選字串來源種類
type SourceKind string

const (
	SourceDictionary SourceKind = "dictionary" // 字典檔逐行串流
	SourcePattern    SourceKind = "pattern"    // 樣板（mask）展開
)

// Report 一次搜尋的最終結果，供 CLI 輸出與持久化使用
type Report struct {
	SchemaVer int        `json:"schema_ver"`
	Target    string     `json:"target"`
	Source    SourceKind `json:"source"`
	Outcome   Outcome    `json:"outcome"`
	Winner    string     `json:"winner,omitempty"`

	// 計數器
	Attempted  uint64 `json:"attempted"`
	Total      uint64 `json:"total"`       // pattern：精確總數；dictionary：目前已讀取的行數
	TotalKnown bool   `json:"total_known"` // 只有 pattern 來源的總數是事先已知
	Generated  uint64 `json:"generated"`

	Workers   int           `json:"workers"`
	Elapsed   time.Duration `json:"elapsed"`
	StartedAt time.Time     `json:"started_at"`
	Error     string        `json:"error,omitempty"`
}

// Rate 回傳平均每秒嘗試次數
func (r Report) Rate() float64 {
	sec := r.Elapsed.Seconds()
	if sec <= 0 {
		return 0
	}
	return float64(r.Attempted) / sec
}

// ArchiveInfo 目標壓縮檔的檢查結果
type ArchiveInfo struct {
	Path       string `json:"path"`
	Format     string `json:"format"`
	Entries    int    `json:"entries"`
	Encrypted  bool   `json:"encrypted"`
	Encryption string `json:"encryption,omitempty"`
	Entry      string `json:"entry,omitempty"` // 用來驗證密碼的檔案項目
}
