package progress

import (
	"fmt"
	"math/big"
	"time"

	"github.com/dustin/go-humanize"
)

// FormatNumber renders n with thousands separators: 1234567 -> "1,234,567".
func FormatNumber(n uint64) string {
	return humanize.BigComma(new(big.Int).SetUint64(n))
}

// FormatDuration renders d coarsely: "42s", "3m 7s", "2h 15m".
func FormatDuration(d time.Duration) string {
	sec := int64(d / time.Second)
	switch {
	case sec < 60:
		return fmt.Sprintf("%ds", sec)
	case sec < 3600:
		return fmt.Sprintf("%dm %ds", sec/60, sec%60)
	default:
		return fmt.Sprintf("%dh %dm", sec/3600, (sec%3600)/60)
	}
}

// Line renders a single progress line for a snapshot.
func Line(s Snapshot) string {
	if s.TotalKnown && s.Total > 0 {
		return fmt.Sprintf("[-] %.1f%% | %s/%s | %.0f pwd/s | ETA: %s",
			s.Percent,
			FormatNumber(s.Attempted),
			FormatNumber(s.Total),
			s.Rate,
			FormatDuration(s.ETA))
	}
	return fmt.Sprintf("[-] Attempts: %s | %.0f pwd/s",
		FormatNumber(s.Attempted),
		s.Rate)
}
