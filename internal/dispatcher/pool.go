package dispatcher

import (
	"context"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"adquery/pkg/accounts"
	"adquery/pkg/directory"
	"adquery/pkg/logger"
	"adquery/pkg/models"
	"adquery/pkg/ratelimit"
)

// DefaultQueryTimeout bounds a single lookup when no timeout is configured
const DefaultQueryTimeout = 10 * time.Second

// ProgressSaver receives the position of every finished query
type ProgressSaver interface {
	Record(position int) error
}

// Event describes one finished query
type Event struct {
	Account  accounts.Account
	Success  bool
	Duration time.Duration
}

// Observer is notified of every finished query from a single goroutine
type Observer func(Event)

// Stats summarizes one Dispatch call
type Stats struct {
	Attempted   int
	Succeeded   int
	Failed      int
	Interrupted int
	Elapsed     time.Duration
}

// Pool runs account lookups on a fixed number of workers
type Pool struct {
	numWorkers  int
	source      directory.Source
	progress    ProgressSaver
	timeout     time.Duration
	rateLimiter ratelimit.Limiter
	observer    Observer
	logger      logger.Logger
}

// Option configures a Pool
type Option func(*Pool)

// WithTimeout sets the per-query timeout
func WithTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLimiter paces queries across all workers
func WithLimiter(l ratelimit.Limiter) Option {
	return func(p *Pool) { p.rateLimiter = l }
}

// WithObserver registers a completion observer
func WithObserver(o Observer) Option {
	return func(p *Pool) { p.observer = o }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a pool of numWorkers workers querying source. progress may be
// nil when positions do not need to be persisted.
func New(numWorkers int, source directory.Source, progress ProgressSaver, opts ...Option) *Pool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	p := &Pool{
		numWorkers: numWorkers,
		source:     source,
		progress:   progress,
		timeout:    DefaultQueryTimeout,
		logger:     logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Workers returns the fixed pool size
func (p *Pool) Workers() int {
	return p.numWorkers
}

type outcome struct {
	account     accounts.Account
	record      *models.Record
	duration    time.Duration
	interrupted bool
}

// Dispatch looks up every account in batch and blocks until all workers have
// finished. Only successful records are returned, ordered by position.
// Cancelling ctx stops feeding new accounts; accounts that were not looked
// up are counted as interrupted and their positions are not reported.
func (p *Pool) Dispatch(ctx context.Context, batch []accounts.Account) ([]*models.Record, Stats) {
	start := time.Now()
	stats := Stats{}
	if len(batch) == 0 {
		return nil, stats
	}

	jobs := make(chan accounts.Account)
	results := make(chan outcome, p.numWorkers)

	var wg sync.WaitGroup
	for i := 0; i < p.numWorkers; i++ {
		wg.Add(1)
		go p.worker(ctx, i, jobs, results, &wg)
	}

	var g errgroup.Group
	g.Go(func() error {
		defer close(jobs)
		for _, account := range batch {
			select {
			case jobs <- account:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	var found []outcome
	g.Go(func() error {
		for out := range results {
			if out.interrupted {
				continue
			}
			if out.record != nil {
				stats.Succeeded++
				found = append(found, out)
			} else {
				stats.Failed++
			}
			if p.observer != nil {
				p.observer(Event{Account: out.account, Success: out.record != nil, Duration: out.duration})
			}
		}
		return nil
	})

	wg.Wait()
	close(results)

	if err := g.Wait(); err != nil {
		p.logger.WarnWithFields("Dispatch interrupted", map[string]interface{}{
			"error":    err.Error(),
			"finished": stats.Succeeded + stats.Failed,
			"batch":    len(batch),
		})
	}
	stats.Attempted = stats.Succeeded + stats.Failed
	stats.Interrupted = len(batch) - stats.Attempted
	stats.Elapsed = time.Since(start)

	slices.SortFunc(found, func(a, b outcome) int { return a.account.Position - b.account.Position })
	records := make([]*models.Record, len(found))
	for i, out := range found {
		records[i] = out.record
	}
	return records, stats
}

func (p *Pool) worker(ctx context.Context, id int, jobs <-chan accounts.Account, results chan<- outcome, wg *sync.WaitGroup) {
	defer wg.Done()

	for account := range jobs {
		if p.rateLimiter != nil {
			if err := p.rateLimiter.Wait(ctx); err != nil {
				results <- outcome{account: account, interrupted: true}
				continue
			}
		}

		start := time.Now()
		record := p.source.Query(ctx, account.Name, p.timeout)
		out := outcome{account: account, record: record, duration: time.Since(start)}

		// a lookup cut short by cancellation is left for the next run
		if record == nil && ctx.Err() != nil {
			out.interrupted = true
			results <- out
			continue
		}

		p.logger.DebugWithFields("Query finished", map[string]interface{}{
			"worker_id": id,
			"account":   account.Name,
			"position":  account.Position,
			"success":   record != nil,
			"duration":  out.duration,
		})

		if p.progress != nil {
			if err := p.progress.Record(account.Position); err != nil {
				p.logger.WithError(err).Warn("Failed to save checkpoint")
			}
		}
		results <- out
	}
}
