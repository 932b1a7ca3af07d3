// Package cli implements the listingctl command tree.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"listing-insights-go/internal/config"
	"listing-insights-go/internal/insurance"
	"listing-insights-go/internal/logger"
)

// Version is injected via ldflags.
var Version = "dev"

// RootOptions holds global flags.
type RootOptions struct {
	LogLevel    string
	RiskTables  string
	MockRating  bool
	Concurrency int
}

// app carries the initialized dependencies to subcommands.
type app struct {
	cfg config.Config
	log *logger.Logger
}

// NewRootCommand builds listingctl with every subcommand attached.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	a := &app{}

	cmd := &cobra.Command{
		Use:     "listingctl",
		Short:   "Normalize vehicle listing batches, derive facets and estimate insurance",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")
	pf.StringVar(&opts.RiskTables, "risk-tables", "", "YAML risk table overrides; overrides RISK_TABLES_PATH")
	pf.BoolVar(&opts.MockRating, "mock-rating", false, "use fixed mock ratings instead of the rating service")
	pf.IntVar(&opts.Concurrency, "concurrency", 0, "max concurrent rating calls; overrides RATING_CONCURRENCY")

	cmd.AddCommand(newNormalizeCmd(a))
	cmd.AddCommand(newEstimateCmd(a))
	cmd.AddCommand(newFacetsCmd(a))
	return cmd
}

// Execute runs the root command and reports the error on stderr.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

// init merges environment configuration with the global flags. Logs go to
// stderr so stdout stays machine-readable.
func (a *app) init(cmd *cobra.Command, opts *RootOptions) error {
	a.cfg = config.Load()
	if opts.RiskTables != "" {
		a.cfg.RiskTablesPath = opts.RiskTables
	}
	if opts.MockRating {
		a.cfg.UseMockRating = true
	}
	if opts.Concurrency > 0 {
		a.cfg.RatingConcurrency = opts.Concurrency
	}

	a.log = logger.NewWithOutput(cmd.ErrOrStderr()).Component("cli")
	if opts.LogLevel != "" {
		a.log.Logger.SetLevel(logger.ParseLevel(opts.LogLevel))
	}
	return nil
}

func (a *app) estimator() (*insurance.Estimator, error) {
	tables, err := a.cfg.RiskTables()
	if err != nil {
		return nil, err
	}
	return insurance.NewEstimator(tables), nil
}

// writeJSON pretty-prints v to path, or to w when path is empty.
func writeJSON(w io.Writer, path string, v any) error {
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
