package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ChuLiYu/zipsweep/internal/oracle"
	"github.com/ChuLiYu/zipsweep/internal/progress"
	"github.com/ChuLiYu/zipsweep/pkg/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

const rule = "====================================================="

// printer writes styled lines; styles degrade to plain text off a terminal
type printer struct {
	w   io.Writer
	tty bool

	ok    lipgloss.Style
	fail  lipgloss.Style
	warn  lipgloss.Style
	info  lipgloss.Style
	title lipgloss.Style
	box   lipgloss.Style
}

func newPrinter(w io.Writer) *printer {
	r := lipgloss.NewRenderer(w)
	return &printer{
		w:     w,
		tty:   isTerminal(w),
		ok:    r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		fail:  r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		warn:  r.NewStyle().Foreground(lipgloss.Color("11")),
		info:  r.NewStyle().Foreground(lipgloss.Color("14")),
		title: r.NewStyle().Bold(true),
		box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("10")).
			Padding(0, 2),
	}
}

// isTerminal reports whether w is a terminal
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *printer) line(style lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(p.w, style.Render(fmt.Sprintf(format, args...)))
}

func (p *printer) plain(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) banner() {
	p.plain(rule)
	p.line(p.title, "  zipsweep: dynamic load-balanced ZIP password search")
	p.plain("  Supports: PKWARE, AES-128, AES-192, AES-256")
	p.plain(rule)
	p.line(p.warn, "[!] Use only on archives you own or are authorized to test.")
	p.plain("")
}

func (p *printer) archive(info types.ArchiveInfo) {
	p.line(p.ok, "[+] Valid %s detected: %s", info.Format, info.Path)
	p.plain("[*] Entries     : %d", info.Entries)
	if !info.Encrypted {
		p.line(p.warn, "[!] WARNING: archive is NOT password protected")
		return
	}
	p.line(p.ok, "[+] Password protection confirmed (%s)", info.Entry)
	p.line(p.info, "[+] Encryption: %s", info.Encryption)
	if oracle.IsAES(info.Encryption) {
		p.line(p.warn, "[!] Note: AES is slower to search than PKWARE")
	}
}

// estimate prints the size of a mask and whether it can run
func (p *printer) estimate(size, limit uint64) {
	p.plain("[*] Estimated passwords: %s", progress.FormatNumber(size))
	switch {
	case limit > 0 && size > limit:
		p.line(p.fail, "[!] ERROR: mask too large (max %s)", progress.FormatNumber(limit))
		p.line(p.warn, "[!] TIP: reduce complexity or use shorter patterns")
	case size > LargeSpaceWarning:
		p.line(p.warn, "[!] WARNING: large mask, candidates are streamed so memory stays bounded")
	}
}

// progressSink returns the sink for live progress. Terminals get a single
// rewritten line; anything else gets structured log records.
func (p *printer) progressSink() progress.Sink {
	if !p.tty {
		return func(s progress.Snapshot) {
			attrs := []any{
				"attempted", s.Attempted,
				"rate", fmt.Sprintf("%.0f/s", s.Rate),
			}
			if s.TotalKnown {
				attrs = append(attrs,
					"total", s.Total,
					"percent", fmt.Sprintf("%.1f", s.Percent),
					"eta", progress.FormatDuration(s.ETA))
			}
			slog.Info("Progress", attrs...)
		}
	}
	return func(s progress.Snapshot) {
		fmt.Fprintf(p.w, "\r\033[2K%s", progress.Line(s))
	}
}

func (p *printer) summary(r types.Report, encryption string) {
	if p.tty {
		fmt.Fprint(p.w, "\r\033[2K")
	}
	p.plain("")
	p.plain(rule)
	switch r.Outcome {
	case types.OutcomeFound:
		fmt.Fprintln(p.w, p.box.Render(p.ok.Render("PASSWORD FOUND: "+r.Winner)))
	case types.OutcomeExhausted:
		p.line(p.fail, "[-] Password not found in %s", r.Source)
	default:
		p.line(p.fail, "[!] Search failed: %s", r.Error)
	}
	p.plain(strings.Repeat("-", len(rule)))
	if encryption != "" {
		p.plain("[*] Encryption  : %s", encryption)
	}
	if r.TotalKnown {
		p.plain("[*] Attempts    : %s / %s", progress.FormatNumber(r.Attempted), progress.FormatNumber(r.Total))
	} else {
		p.plain("[*] Attempts    : %s", progress.FormatNumber(r.Attempted))
	}
	p.plain("[*] Workers     : %d", r.Workers)
	p.plain("[*] Time        : %s", progress.FormatDuration(r.Elapsed))
	if rate := r.Rate(); rate > 0 {
		p.plain("[*] Avg speed   : %s pwd/s", progress.FormatNumber(uint64(rate)))
	}
	p.plain(rule)
}
