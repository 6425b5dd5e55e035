// ============================================================================
// zipsweep CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Provides the command line interface based on the Cobra framework
//
// Command Structure:
//   zipsweep                       # Root command
//   ├── crack <archive>            # Search for the archive password
//   │   ├── --dictionary, -d       # Word list, one candidate per line
//   │   ├── --mask, -m             # Template (?d ?l ?u ?s ?a)
//   │   └── --workers, -w          # Override search.workers
//   ├── test <archive> <password>  # Check a single password
//   ├── inspect <archive>          # Show format and encryption
//   ├── estimate <mask>            # Count the candidates of a mask
//   ├── report [path]              # Print a saved run report
//   ├── --config, -c               # Config file (default: configs/default.yaml)
//   └── --version
//
// Configuration Management:
//   Uses YAML format config file (default: configs/default.yaml)
//   Configuration items include:
//   - search: worker count, queue capacity, pattern space limit, progress interval
//   - metrics: Prometheus monitoring configuration
//   - status: gRPC health endpoint
//   - report: where the final run report is written
//   - log: slog level
//
//   A missing default config file means built-in defaults; a missing file
//   passed explicitly with --config is an error.
//
// Examples:
//   ./zipsweep crack backup.zip -d rockyou.txt
//   ./zipsweep crack backup.zip -m "?u?l?l?l?d?d" -w 8
//   ./zipsweep estimate "?a?a?a?a"
//
// ============================================================================

package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "configs/default.yaml"

	// LargeSpaceWarning masks above this size get a warning before the search starts
	LargeSpaceWarning = 1_000_000
)

// Config represents the complete configuration structure
// Maps config file fields through YAML tags
type Config struct {
	Search struct {
		Workers         int    `yaml:"workers"`
		QueueCapacity   int    `yaml:"queue_capacity"`
		MaxPatternSpace uint64 `yaml:"max_pattern_space"`
		ProgressEvery   int    `yaml:"progress_every"`
	} `yaml:"search"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`

	Status struct {
		GRPCPort int `yaml:"grpc_port"` // 0 disables the health endpoint
	} `yaml:"status"`

	Report struct {
		Path string `yaml:"path"` // empty disables the report file
	} `yaml:"report"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

var configFile string

// BuildCLI builds the root command and every subcommand
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "zipsweep",
		Short: "zipsweep: concurrent password search for encrypted ZIP archives",
		Long: `zipsweep recovers the password of an encrypted ZIP archive you own by
streaming candidates from a word list or a mask to a pool of workers:
- Bounded memory regardless of the size of the search space
- Dynamic load balancing across workers
- Exactly one declared winner
- Traditional PKWARE and AES archives`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigPath, "config file path")

	rootCmd.AddCommand(buildCrackCommand())
	rootCmd.AddCommand(buildTestCommand())
	rootCmd.AddCommand(buildInspectCommand())
	rootCmd.AddCommand(buildEstimateCommand())
	rootCmd.AddCommand(buildReportCommand())

	return rootCmd
}

// defaultConfig returns the built-in configuration
func defaultConfig() *Config {
	var cfg Config
	cfg.Search.Workers = 0 // number of CPUs
	cfg.Search.QueueCapacity = 50000
	cfg.Search.MaxPatternSpace = 15_000_000
	cfg.Search.ProgressEvery = 500
	cfg.Metrics.Enabled = false
	cfg.Metrics.Port = 9090
	cfg.Status.GRPCPort = 0
	cfg.Report.Path = ""
	cfg.Log.Level = "info"
	return &cfg
}

// loadConfig reads path over the defaults. A missing file is only tolerated
// for the default path.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == defaultConfigPath {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return cfg, nil
}

// setupLogging installs a text slog handler at the configured level
func setupLogging(w io.Writer, level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// prepare loads the config and configures logging for a subcommand
func prepare(cmd *cobra.Command) (*Config, error) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := setupLogging(cmd.ErrOrStderr(), cfg.Log.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}
