// Package logger provides structured logging for adquery.
//
// It wraps zerolog behind a small Logger interface so that components can be
// handed a logger at construction time and tests can swap in NewNopLogger or
// NewTestLogger.
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	log := logger.GetLogger().WithField("run_id", runID)
//	log.InfoWithFields("Batch processed", map[string]interface{}{
//	    "batch":     3,
//	    "succeeded": 498,
//	})
//
// Console output goes to stderr with colored levels. When Logging.File is set,
// entries are also appended to that file.
package logger
