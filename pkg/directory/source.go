package directory

import (
	"context"
	"errors"
	"strings"
	"time"

	"adquery/pkg/config"
	errs "adquery/pkg/errors"
	"adquery/pkg/logger"
	"adquery/pkg/models"
)

// Source answers one account lookup. A nil record means the account could
// not be looked up; the reason has already been logged by the Source.
type Source interface {
	Query(ctx context.Context, name string, timeout time.Duration) *models.Record
}

// CommandSource looks accounts up by running an external command such as
// `net user <name> /domain` and parsing its output.
type CommandSource struct {
	command       string
	args          []string
	successMarker string
	runner        CommandRunner
	failures      *FailureLog
	logger        logger.Logger
}

// Option configures a CommandSource
type Option func(*CommandSource)

// WithRunner replaces the command runner
func WithRunner(r CommandRunner) Option {
	return func(s *CommandSource) { s.runner = r }
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(s *CommandSource) { s.logger = l }
}

// NewCommandSource builds a source from the source section of the config.
// failures may be nil, in which case failed lookups only reach the logger.
func NewCommandSource(cfg config.SourceConfig, failures *FailureLog, opts ...Option) *CommandSource {
	s := &CommandSource{
		command:       cfg.Command,
		args:          cfg.Args,
		successMarker: cfg.SuccessMarker,
		runner:        ExecRunner{},
		failures:      failures,
		logger:        logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Query implements Source
func (s *CommandSource) Query(ctx context.Context, name string, timeout time.Duration) *models.Record {
	record, err := s.lookup(ctx, name, timeout)
	if err != nil {
		s.fail(err)
		return nil
	}
	return record
}

func (s *CommandSource) lookup(ctx context.Context, name string, timeout time.Duration) (*models.Record, *errs.Error) {
	queryCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	stdout, stderr, runErr := s.runner.Run(queryCtx, s.command, s.expandArgs(name)...)

	if errors.Is(queryCtx.Err(), context.DeadlineExceeded) {
		return nil, errs.New(errs.ErrorTypeTimeout, name, "lookup timed out after "+timeout.String(), queryCtx.Err())
	}

	output := string(stdout)
	if s.successMarker != "" && !strings.Contains(output, s.successMarker) {
		t := errs.ErrorTypeCommand
		if strings.Contains(strings.ToLower(string(stderr)), "could not be found") {
			t = errs.ErrorTypeNotFound
		}
		return nil, errs.New(t, name, describe(runErr, stderr), runErr)
	}
	if s.successMarker == "" && runErr != nil {
		return nil, errs.New(errs.ErrorTypeCommand, name, describe(runErr, stderr), runErr)
	}

	record, err := Parse(name, output)
	if err != nil {
		var lookupErr *errs.Error
		if errors.As(err, &lookupErr) {
			return nil, lookupErr
		}
		return nil, errs.New(errs.ErrorTypeParsing, name, err.Error(), err)
	}

	s.logger.DebugWithFields("Account looked up", map[string]interface{}{
		"account":  name,
		"duration": time.Since(start),
	})
	return record, nil
}

func (s *CommandSource) fail(err *errs.Error) {
	s.logger.DebugWithFields("Account lookup failed", map[string]interface{}{
		"account": err.Account,
		"type":    string(err.Type),
		"detail":  err.Message,
	})
	if s.failures == nil {
		return
	}
	if logErr := s.failures.Record(err); logErr != nil {
		s.logger.WithError(logErr).Warn("Failed to write error log")
	}
}

// expandArgs substitutes the account name for every {name} placeholder
func (s *CommandSource) expandArgs(name string) []string {
	args := make([]string, len(s.args))
	for i, a := range s.args {
		args[i] = strings.ReplaceAll(a, "{name}", name)
	}
	return args
}
