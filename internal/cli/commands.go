package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ChuLiYu/zipsweep/internal/controller"
	"github.com/ChuLiYu/zipsweep/internal/metrics"
	"github.com/ChuLiYu/zipsweep/internal/oracle"
	"github.com/ChuLiYu/zipsweep/internal/report"
	"github.com/ChuLiYu/zipsweep/internal/server"
	"github.com/ChuLiYu/zipsweep/internal/source"
	"github.com/spf13/cobra"
)

var (
	// ErrWrongPassword is returned by the test command for a rejected password
	ErrWrongPassword = errors.New("password is incorrect")
	// ErrNoReportPath means neither an argument nor report.path names a report
	ErrNoReportPath = errors.New("no report path given and report.path is not configured")
)

// ============================================================================
// crack
// ============================================================================

type crackOptions struct {
	dictionary    string
	mask          string
	workers       int
	queueCapacity int
	maxSpace      uint64
	reportPath    string
}

func buildCrackCommand() *cobra.Command {
	var opts crackOptions

	cmd := &cobra.Command{
		Use:   "crack <archive>",
		Short: "Search for the password of an encrypted archive",
		Long: `Stream candidates from a word list (--dictionary) or a mask (--mask) to a
pool of workers until one of them opens the archive.

Mask tokens: ?d digit, ?l lower, ?u upper, ?s special, ?a alphanumeric.
Any other character, including ? followed by an unknown letter, is literal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := prepare(cmd)
			if err != nil {
				return err
			}
			opts.override(cmd, cfg)
			return runCrack(cmd.OutOrStdout(), cfg, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.dictionary, "dictionary", "d", "", "word list, one candidate per line")
	cmd.Flags().StringVarP(&opts.mask, "mask", "m", "", "mask template, e.g. ?u?l?l?d?d")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 0, "worker count (overrides search.workers)")
	cmd.Flags().IntVar(&opts.queueCapacity, "queue-capacity", 0, "candidate queue capacity (overrides search.queue_capacity)")
	cmd.Flags().Uint64Var(&opts.maxSpace, "max-space", 0, "largest mask space allowed (overrides search.max_pattern_space)")
	cmd.Flags().StringVar(&opts.reportPath, "report", "", "write the final report to this file (overrides report.path)")
	cmd.MarkFlagsMutuallyExclusive("dictionary", "mask")
	cmd.MarkFlagsOneRequired("dictionary", "mask")

	return cmd
}

// override applies explicitly set flags on top of the config file
func (o crackOptions) override(cmd *cobra.Command, cfg *Config) {
	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Search.Workers = o.workers
	}
	if flags.Changed("queue-capacity") {
		cfg.Search.QueueCapacity = o.queueCapacity
	}
	if flags.Changed("max-space") {
		cfg.Search.MaxPatternSpace = o.maxSpace
	}
	if flags.Changed("report") {
		cfg.Report.Path = o.reportPath
	}
}

func runCrack(out io.Writer, cfg *Config, target string, opts crackOptions) error {
	p := newPrinter(out)
	p.banner()

	p.plain("[*] Analyzing %s...", target)
	info, err := oracle.Inspect(target)
	if err != nil {
		p.line(p.fail, "[!] ERROR: %v", err)
		return err
	}
	p.archive(info)
	if !info.Encrypted {
		return nil
	}

	src, err := buildSource(p, cfg, opts)
	if err != nil {
		return err
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
		go func() {
			slog.Info("Starting metrics server", "port", cfg.Metrics.Port)
			if err := metrics.StartServer(cfg.Metrics.Port); err != nil {
				slog.Error("Metrics server error", "error", err)
			}
		}()
	}

	ctrl := controller.NewController(controller.Config{
		Target:        target,
		Source:        src,
		Oracle:        oracle.NewZipOracle(),
		Workers:       cfg.Search.Workers,
		QueueCapacity: cfg.Search.QueueCapacity,
		ProgressEvery: cfg.Search.ProgressEvery,
		Progress:      p.progressSink(),
		Metrics:       collector,
	})

	if cfg.Status.GRPCPort > 0 {
		srv := server.NewServer()
		if err := srv.Listen(fmt.Sprintf(":%d", cfg.Status.GRPCPort)); err != nil {
			return err
		}
		defer srv.Stop()
		ctrl.Subscribe(srv.Observe)
	}

	p.line(p.info, "[*] Starting search with dynamic balancing...")
	p.plain("")

	rep, runErr := ctrl.Run()
	p.summary(rep, info.Encryption)

	if cfg.Report.Path != "" {
		if err := report.NewManager(cfg.Report.Path).Write(rep); err != nil {
			slog.Warn("Failed to save report", "path", cfg.Report.Path, "error", err)
		} else {
			slog.Info("Report saved", "path", cfg.Report.Path)
		}
	}

	return runErr
}

// buildSource turns the flags into a candidate source. Masks are sized and
// checked against the configured maximum before anything starts.
func buildSource(p *printer, cfg *Config, opts crackOptions) (source.Source, error) {
	if opts.dictionary != "" {
		p.plain("[*] Word list: %s", opts.dictionary)
		return source.NewDictionary(opts.dictionary), nil
	}

	size, err := source.Size(opts.mask)
	if err != nil {
		p.line(p.fail, "[!] ERROR: mask size overflow, pattern too large")
		return nil, err
	}
	p.estimate(size, cfg.Search.MaxPatternSpace)
	if limit := cfg.Search.MaxPatternSpace; limit > 0 && size > limit {
		return nil, fmt.Errorf("%w: %d candidates, max %d", source.ErrSpaceTooLarge, size, limit)
	}
	return source.NewPattern(opts.mask, cfg.Search.MaxPatternSpace), nil
}

// ============================================================================
// test
// ============================================================================

func buildTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test <archive> <password>",
		Short: "Test a single password against an archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := prepare(cmd); err != nil {
				return err
			}
			return runTest(cmd.OutOrStdout(), args[0], args[1])
		},
	}
}

func runTest(out io.Writer, target, password string) error {
	p := newPrinter(out)
	p.plain("[*] Testing password...")

	ok, err := oracle.CheckPassword(target, password)
	if err != nil {
		p.line(p.fail, "[!] ERROR: %v", err)
		return err
	}
	if !ok {
		p.line(p.fail, "[-] FAILED! Password is incorrect.")
		return ErrWrongPassword
	}
	p.line(p.ok, "[+] SUCCESS! Password is correct!")
	return nil
}

// ============================================================================
// inspect
// ============================================================================

func buildInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <archive>",
		Short: "Show the format and encryption of an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := prepare(cmd); err != nil {
				return err
			}
			return runInspect(cmd.OutOrStdout(), args[0])
		},
	}
}

func runInspect(out io.Writer, target string) error {
	p := newPrinter(out)
	info, err := oracle.Inspect(target)
	if err != nil {
		p.line(p.fail, "[!] ERROR: %v", err)
		return err
	}
	p.archive(info)
	return nil
}

// ============================================================================
// estimate
// ============================================================================

func buildEstimateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "estimate <mask>",
		Short: "Count the candidates a mask expands to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := prepare(cmd)
			if err != nil {
				return err
			}
			return runEstimate(cmd.OutOrStdout(), cfg, args[0])
		},
	}
}

func runEstimate(out io.Writer, cfg *Config, mask string) error {
	p := newPrinter(out)
	size, err := source.Size(mask)
	if err != nil {
		p.line(p.fail, "[!] ERROR: mask size overflow, pattern too large")
		return err
	}
	p.estimate(size, cfg.Search.MaxPatternSpace)
	return nil
}

// ============================================================================
// report
// ============================================================================

func buildReportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "report [path]",
		Short: "Print a saved run report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := prepare(cmd)
			if err != nil {
				return err
			}
			path := cfg.Report.Path
			if len(args) == 1 {
				path = args[0]
			}
			return runReport(cmd.OutOrStdout(), path)
		},
	}
}

func runReport(out io.Writer, path string) error {
	if path == "" {
		return ErrNoReportPath
	}

	rep, err := report.NewManager(path).Load()
	if err != nil {
		return err
	}

	p := newPrinter(out)
	p.plain("[*] Target      : %s", rep.Target)
	p.plain("[*] Started     : %s", rep.StartedAt.Format("2006-01-02 15:04:05"))
	p.summary(rep, "")
	return nil
}
