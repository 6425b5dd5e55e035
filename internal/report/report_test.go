package report

// ============================================================================
// Report Manager 測試檔案
// 職責：驗證報告的原子性寫入、載入、版本驗證與錯誤處理
// ============================================================================

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ChuLiYu/zipsweep/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() types.Report {
	return types.Report{
		Target:     "backup.zip",
		Source:     types.SourcePattern,
		Outcome:    types.OutcomeFound,
		Winner:     "a7",
		Attempted:  11,
		Total:      260,
		TotalKnown: true,
		Generated:  40,
		Workers:    4,
		Elapsed:    1500 * time.Millisecond,
		StartedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// ============================================================================
// 基礎功能測試
// ============================================================================

// TestNewManager 測試建立管理器
func TestNewManager(t *testing.T) {
	manager := NewManager("last_run.json")
	assert.NotNil(t, manager)
	assert.Equal(t, "last_run.json", manager.GetPath())
}

// TestWriteAndLoad 測試寫入與載入報告
func TestWriteAndLoad(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "report.json"))

	original := sampleReport()
	require.NoError(t, manager.Write(original))

	loaded, err := manager.Load()
	require.NoError(t, err)

	original.SchemaVer = SchemaVersion
	assert.Equal(t, original.Outcome, loaded.Outcome)
	assert.Equal(t, original.Winner, loaded.Winner)
	assert.Equal(t, original.Attempted, loaded.Attempted)
	assert.Equal(t, original.Elapsed, loaded.Elapsed)
	assert.True(t, original.StartedAt.Equal(loaded.StartedAt))
	assert.Equal(t, SchemaVersion, loaded.SchemaVer)
}

// TestWritePermissions 測試報告只給擁有者讀取
func TestWritePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, NewManager(path).Write(sampleReport()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "Temp file should not exist after write")
}

// TestExists 測試檔案存在性檢查
func TestExists(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "report.json"))
	assert.False(t, manager.Exists())

	require.NoError(t, manager.Write(sampleReport()))
	assert.True(t, manager.Exists())
}

// ============================================================================
// 錯誤處理測試
// ============================================================================

// TestNotFound 測試檔案不存在
func TestNotFound(t *testing.T) {
	_, err := NewManager(filepath.Join(t.TempDir(), "missing.json")).Load()
	assert.ErrorIs(t, err, ErrReportNotFound)
}

// TestVersionMismatch 測試版本不相容
func TestVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")

	r := sampleReport()
	r.SchemaVer = 2 // 不相容的版本
	raw, err := json.Marshal(r)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0600))

	_, err = NewManager(path).Load()
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}

// TestCorrupted 測試損壞的報告
func TestCorrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"outcome": "found", "winner": `), 0600))

	_, err := NewManager(path).Load()
	assert.ErrorIs(t, err, ErrCorruptedReport)
}

// TestWriteFailure 測試寫入失敗（目錄不存在）
func TestWriteFailure(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "no", "such", "dir", "report.json"))
	assert.Error(t, manager.Write(sampleReport()))
}

// ============================================================================
// 並發測試
// ============================================================================

// TestConcurrentWrites 測試並發寫入後檔案仍然有效
func TestConcurrentWrites(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "report.json"))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			r := sampleReport()
			r.Winner = fmt.Sprintf("pw-%d", index)
			assert.NoError(t, manager.Write(r))
		}(i)
	}
	wg.Wait()

	loaded, err := manager.Load()
	require.NoError(t, err)
	assert.Contains(t, loaded.Winner, "pw-")
}

func BenchmarkWrite(b *testing.B) {
	manager := NewManager(filepath.Join(b.TempDir(), "report.json"))
	r := sampleReport()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := manager.Write(r); err != nil {
			b.Fatal(err)
		}
	}
}
