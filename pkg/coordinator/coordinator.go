package coordinator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"adquery/internal/dispatcher"
	"adquery/pkg/accounts"
	"adquery/pkg/checkpoint"
	"adquery/pkg/config"
	"adquery/pkg/directory"
	"adquery/pkg/logger"
	"adquery/pkg/models"
	"adquery/pkg/ratelimit"
)

// Sink persists the successful records of one batch
type Sink interface {
	Append(records []*models.Record) error
}

// Tracker stores the resume position between runs
type Tracker interface {
	Load() (int, error)
	Save(position int) error
	Clear() error
}

// Summary reports the outcome of a Run
type Summary struct {
	RunID       string
	Total       int
	StartOffset int
	Batches     int
	Attempted   int
	Succeeded   int
	Failed      int
	Interrupted int
	RowsWritten int
	Completed   bool
	Elapsed     time.Duration
}

// Coordinator walks the account list in fixed-size batches, dispatching each
// batch to a worker pool and persisting its results before moving on.
type Coordinator struct {
	cfg         config.RunConfig
	source      directory.Source
	sink        Sink
	tracker     Tracker
	logger      logger.Logger
	rateLimiter ratelimit.Limiter
	observer    dispatcher.Observer
	onBatch     func(batch, batches int)
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLimiter paces queries across all workers
func WithLimiter(l ratelimit.Limiter) Option {
	return func(c *Coordinator) { c.rateLimiter = l }
}

// WithObserver receives every finished query
func WithObserver(o dispatcher.Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

// WithBatchHook is called before each batch is dispatched
func WithBatchHook(fn func(batch, batches int)) Option {
	return func(c *Coordinator) { c.onBatch = fn }
}

// New creates a coordinator
func New(cfg config.RunConfig, source directory.Source, sink Sink, tracker Tracker, log logger.Logger, opts ...Option) *Coordinator {
	if log == nil {
		log = logger.GetLogger()
	}
	c := &Coordinator{
		cfg:     cfg,
		source:  source,
		sink:    sink,
		tracker: tracker,
		logger:  log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes list from the saved checkpoint onward. The checkpoint is
// removed once every batch has been persisted. A sink failure or a
// cancelled ctx stops the run and leaves the checkpoint in place.
func (c *Coordinator) Run(ctx context.Context, list []accounts.Account) (*Summary, error) {
	started := time.Now()
	runID := uuid.NewString()
	log := c.logger.WithField("run_id", runID)

	summary := &Summary{RunID: runID, Total: len(list)}
	defer func() { summary.Elapsed = time.Since(started) }()

	start, err := c.tracker.Load()
	if err != nil {
		return summary, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if start > len(list) {
		log.WarnWithFields("Checkpoint is beyond the end of the input, nothing left to do", map[string]interface{}{
			"checkpoint": start,
			"accounts":   len(list),
		})
		start = len(list)
	}
	summary.StartOffset = start

	remaining := list[start:]
	ranges := Partition(len(remaining), c.cfg.BatchSize)

	logger.LogComponentStart(log, "coordinator", map[string]interface{}{
		"accounts":        len(list),
		"start":           start,
		"batches":         len(ranges),
		"batch_size":      c.cfg.BatchSize,
		"workers":         c.cfg.MaxWorkers,
		"checkpoint_mode": c.cfg.CheckpointMode,
	})

	recorder := checkpoint.NewRecorder(newPolicy(c.cfg.CheckpointMode, start), c.tracker)
	pool := c.newPool(recorder, log)

	for i, r := range ranges {
		if err := ctx.Err(); err != nil {
			summary.Interrupted += len(remaining) - r[0]
			return summary, fmt.Errorf("run interrupted before batch %d: %w", i+1, err)
		}

		batch := remaining[r[0]:r[1]]
		batchStart := time.Now()
		logger.LogBatchStart(log, i+1, len(ranges), batch[0].Position, len(batch))
		if c.onBatch != nil {
			c.onBatch(i+1, len(ranges))
		}

		records, stats := pool.Dispatch(ctx, batch)
		summary.Batches++
		summary.Attempted += stats.Attempted
		summary.Succeeded += stats.Succeeded
		summary.Failed += stats.Failed
		summary.Interrupted += stats.Interrupted

		if len(records) > 0 {
			if err := c.sink.Append(records); err != nil {
				return summary, fmt.Errorf("batch %d failed: %w", i+1, err)
			}
			summary.RowsWritten += len(records)
		}

		logger.LogBatchComplete(log, i+1, stats.Succeeded, stats.Failed, time.Since(batchStart))
		logger.LogRunProgress(log, batch[len(batch)-1].Position+1, len(list))

		if err := ctx.Err(); err != nil {
			summary.Interrupted += len(remaining) - r[1]
			return summary, fmt.Errorf("run interrupted during batch %d: %w", i+1, err)
		}

		if i < len(ranges)-1 {
			if err := pause(ctx, c.cfg.InterBatchDelay); err != nil {
				summary.Interrupted += len(remaining) - r[1]
				return summary, fmt.Errorf("run interrupted after batch %d: %w", i+1, err)
			}
		}
	}

	if err := c.tracker.Clear(); err != nil {
		return summary, err
	}
	summary.Completed = true

	log.InfoWithFields("Run complete", map[string]interface{}{
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"rows":      summary.RowsWritten,
	})
	return summary, nil
}

func (c *Coordinator) newPool(progress dispatcher.ProgressSaver, log logger.Logger) *dispatcher.Pool {
	opts := []dispatcher.Option{
		dispatcher.WithTimeout(c.cfg.QueryTimeout),
		dispatcher.WithLogger(log),
	}
	if c.rateLimiter != nil {
		opts = append(opts, dispatcher.WithLimiter(c.rateLimiter))
	}
	if c.observer != nil {
		opts = append(opts, dispatcher.WithObserver(c.observer))
	}
	return dispatcher.New(c.cfg.MaxWorkers, c.source, progress, opts...)
}

func newPolicy(mode string, start int) checkpoint.Policy {
	if mode == config.CheckpointModeCompletion {
		return checkpoint.CompletionOrder{}
	}
	return checkpoint.NewWatermark(start)
}

// Partition splits n items into contiguous [start, end) ranges of at most
// size items each
func Partition(n, size int) [][2]int {
	if n <= 0 {
		return nil
	}
	if size < 1 {
		size = 1
	}
	ranges := make([][2]int, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		ranges = append(ranges, [2]int{start, min(start+size, n)})
	}
	return ranges
}

// pause sleeps for d unless ctx is done first
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
