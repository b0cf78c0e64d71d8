package logger

import (
	"fmt"
	"time"
)

// LogBatchStart logs the start of a batch
func LogBatchStart(l Logger, batch, totalBatches, first, size int) {
	l.InfoWithFields("Batch started", map[string]interface{}{
		"batch":          batch,
		"total_batches":  totalBatches,
		"first_position": first,
		"size":           size,
	})
}

// LogBatchComplete logs the outcome of a batch
func LogBatchComplete(l Logger, batch, succeeded, failed int, elapsed time.Duration) {
	l.InfoWithFields("Batch processed", map[string]interface{}{
		"batch":     batch,
		"succeeded": succeeded,
		"failed":    failed,
		"duration":  elapsed,
	})
}

// LogRunProgress logs overall progress through the account list
func LogRunProgress(l Logger, done, total int) {
	percentage := 0.0
	if total > 0 {
		percentage = float64(done) / float64(total) * 100
	}

	l.WithFields(map[string]interface{}{
		"done":       done,
		"total":      total,
		"percentage": fmt.Sprintf("%.1f%%", percentage),
	}).Info("Run progress")
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, settings map[string]interface{}) {
	l = l.WithField("component", component)
	if len(settings) > 0 {
		l = l.WithFields(settings)
	}
	l.Info("Component started")
}

// NewNopLogger creates a no-operation logger for testing
func NewNopLogger() Logger {
	return nopLogger{}
}

type nopLogger struct{}

func (n nopLogger) Debug(string)                                      {}
func (n nopLogger) Info(string)                                       {}
func (n nopLogger) Warn(string)                                       {}
func (n nopLogger) Error(string)                                      {}
func (n nopLogger) WithField(string, interface{}) Logger              { return n }
func (n nopLogger) WithFields(map[string]interface{}) Logger          { return n }
func (n nopLogger) WithError(error) Logger                            { return n }
func (n nopLogger) DebugWithFields(string, map[string]interface{})    {}
func (n nopLogger) InfoWithFields(string, map[string]interface{})     {}
func (n nopLogger) WarnWithFields(string, map[string]interface{})     {}
func (n nopLogger) ErrorWithFields(string, map[string]interface{})    {}
