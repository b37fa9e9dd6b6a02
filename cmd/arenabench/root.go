package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/internal/logger"
)

var (
	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
	logJSON bool
	logOn   bool

	// stdout is swapped by tests.
	stdout io.Writer = os.Stdout
)

var rootCmd = &cobra.Command{
	Use:   "arenabench",
	Short: "Benchmark the arena allocator",
	Long: `arenabench replays deterministic allocation workloads (churn, mixed,
scoped, fill) against the arena allocator and reports throughput, latency
and arena occupancy. With --compare the same workload also runs against
plain Go allocation.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logOn {
			logger.Init(logger.Options{
				Enabled: true,
				Output:  os.Stderr,
				Level:   slog.LevelDebug,
				JSON:    logJSON,
			})
		}
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&logOn, "log", false, "Log allocator events to stderr")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON (with --log)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprint(stdout, printer.Sprintf(format, args...))
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprint(stdout, printer.Sprintf(format, args...))
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
