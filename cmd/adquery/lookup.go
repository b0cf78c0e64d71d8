package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"adquery/internal/dispatcher"
	"adquery/pkg/accounts"
	"adquery/pkg/checkpoint"
	"adquery/pkg/config"
	"adquery/pkg/coordinator"
	"adquery/pkg/directory"
	"adquery/pkg/logger"
	"adquery/pkg/ratelimit"
	"adquery/pkg/sink"
	"adquery/pkg/ui"
)

var (
	batchSize        int
	workers          int
	queryTimeout     time.Duration
	interBatchDelay  time.Duration
	checkpointFile   string
	errorLogFile     string
	rateLimit        int
	fresh            bool
	strictCheckpoint bool
	notify           bool
)

func init() {
	flags := rootCmd.Flags()
	flags.IntVar(&batchSize, "batch-size", 500, "accounts per batch")
	flags.IntVar(&workers, "workers", 5, "concurrent lookups per batch")
	flags.DurationVar(&queryTimeout, "timeout", 10*time.Second, "timeout for a single lookup")
	flags.DurationVar(&interBatchDelay, "delay", 2*time.Second, "pause between batches")
	flags.StringVar(&checkpointFile, "checkpoint-file", "resume_point.txt", "file holding the resume position")
	flags.StringVar(&errorLogFile, "error-log", "error_log.txt", "file listing failed lookups")
	flags.IntVar(&rateLimit, "rate-limit", 0, "maximum lookups per minute (0 = unlimited)")
	flags.BoolVar(&fresh, "fresh", false, "ignore and remove an existing checkpoint")
	flags.BoolVar(&strictCheckpoint, "strict-checkpoint", true, "save only the contiguous completed prefix as the resume position")
	flags.BoolVar(&notify, "notify", false, "send a desktop notification when the run ends")
}

// runOptions carries what the command line adds on top of the config
type runOptions struct {
	inputPath  string
	outputPath string
	fresh      bool
	notify     bool
	runner     directory.CommandRunner
}

func runLookupCmd(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := config.Load(configFile, changedFlags(cmd))
	if err != nil {
		return err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	opts := runOptions{
		inputPath: args[0],
		fresh:     fresh,
		notify:    notify,
	}
	if len(args) > 1 {
		opts.outputPath = args[1]
	}

	_, err = runLookup(cmd.Context(), cfg, opts, logger.GetLogger())
	return err
}

// changedFlags collects the flags given on the command line for
// config.MergeCommandLineFlags
func changedFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	set := func(name string, value interface{}) {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			flags[name] = value
		}
	}
	set("batch-size", batchSize)
	set("workers", workers)
	set("timeout", queryTimeout)
	set("delay", interBatchDelay)
	set("checkpoint-file", checkpointFile)
	set("error-log", errorLogFile)
	set("rate-limit", rateLimit)
	set("strict-checkpoint", strictCheckpoint)
	set("log-level", logLevel)
	set("log-file", logFile)
	return flags
}

// outputPath resolves the workbook path, adding .xlsx when missing
func outputPath(arg, fallback string) string {
	path := strings.TrimSpace(arg)
	if path == "" {
		path = fallback
	}
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		path += ".xlsx"
	}
	return path
}

func runLookup(ctx context.Context, cfg *config.Config, opts runOptions, log logger.Logger) (*coordinator.Summary, error) {
	output := outputPath(opts.outputPath, cfg.Files.DefaultOutput)

	list, err := accounts.Load(opts.inputPath)
	if err != nil {
		if errors.Is(err, accounts.ErrInputNotFound) {
			ui.PrintError("Input file not found", opts.inputPath)
		}
		return nil, err
	}

	ui.PrintInfo("Input", fmt.Sprintf("%s (%d accounts)", opts.inputPath, len(list)))
	ui.PrintInfo("Output", output)

	tracker := checkpoint.NewTracker(cfg.Files.CheckpointFile, log)
	if opts.fresh {
		if err := tracker.Clear(); err != nil {
			return nil, err
		}
	}
	// surface a malformed checkpoint before any work starts
	resumeAt, err := tracker.Load()
	if err != nil {
		return nil, err
	}
	if resumeAt > 0 {
		ui.PrintWarning("Resuming from checkpoint", fmt.Sprintf("account %d of %d", min(resumeAt, len(list)), len(list)))
	}

	failures := directory.NewFailureLog(cfg.Files.ErrorLog)
	defer failures.Close()

	sourceOpts := []directory.Option{directory.WithLogger(log)}
	if opts.runner != nil {
		sourceOpts = append(sourceOpts, directory.WithRunner(opts.runner))
	}
	source := directory.NewCommandSource(cfg.Source, failures, sourceOpts...)

	display := ui.NewProgressDisplay(ui.Output(), len(list), min(resumeAt, len(list)))
	coordOpts := []coordinator.Option{
		coordinator.WithBatchHook(display.StartBatch),
		coordinator.WithObserver(func(e dispatcher.Event) {
			display.QueryFinished(e.Account.Name, e.Success)
		}),
	}
	if limiter := ratelimit.PerMinute(cfg.RateLimit.QueriesPerMinute); limiter != nil {
		coordOpts = append(coordOpts, coordinator.WithLimiter(limiter))
	}

	workbook := sink.NewWorkbook(output, log)
	c := coordinator.New(cfg.Run, source, workbook, tracker, log, coordOpts...)

	notifier := ui.NewNotifier(opts.notify)
	summary, err := c.Run(ctx, list)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			display.Interrupted(tracker.Path())
		}
		notifier.Failure("adquery", err.Error())
		return summary, err
	}

	display.Complete(summary.RowsWritten, output)
	if failures.Count() > 0 {
		ui.PrintWarning("Failed lookups listed in", failures.Path())
	}
	notifier.Success("adquery", fmt.Sprintf("%d accounts looked up, %d rows written", summary.Attempted, summary.RowsWritten))
	return summary, nil
}
