package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"adquery/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	logFile    string
	quiet      bool
)

// rootCmd looks up every account listed in the input file
var rootCmd = &cobra.Command{
	Use:   "adquery <input_file> [output_file]",
	Short: "Look up domain accounts in bulk and export them to Excel",
	Long: `adquery reads account names from a text file, one per line, and looks each
one up with 'net user <name> /domain'. The details of every account that was
found are appended to an Excel workbook.

Accounts are processed in batches of 500 with 5 lookups in flight. Progress is
saved to a checkpoint file as lookups finish, so an interrupted run resumes
where it stopped. Lookups that fail are listed in the error log.`,
	Example: `  # Write results to user_details.xlsx
  adquery users.txt

  # Choose the output workbook (.xlsx is added when missing)
  adquery users.txt march_audit

  # Start over instead of resuming
  adquery users.txt --fresh

  # Slow down for a busy domain controller
  adquery users.txt --workers 2 --rate-limit 60`,
	Args:    cobra.RangeArgs(1, 2),
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetOutput(io.Discard)
		}
		if cmd == cmd.Root() && !quiet {
			ui.PrintBanner()
		}
	},
	RunE: runLookupCmd,
}

// Execute runs the root command and returns the process exit code
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "interrupted:", err)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .adquery.yaml or $HOME/.config/adquery/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "also write logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress console output except errors")

	rootCmd.SetVersionTemplate(`adquery {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.SilenceErrors = true
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
