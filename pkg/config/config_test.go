package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 500, cfg.Run.BatchSize)
	assert.Equal(t, 5, cfg.Run.MaxWorkers)
	assert.Equal(t, 10*time.Second, cfg.Run.QueryTimeout)
	assert.Equal(t, 2*time.Second, cfg.Run.InterBatchDelay)
	assert.Equal(t, CheckpointModeWatermark, cfg.Run.CheckpointMode)

	assert.Equal(t, "net", cfg.Source.Command)
	assert.Equal(t, []string{"user", "{name}", "/domain"}, cfg.Source.Args)
	assert.Equal(t, "The command completed successfully", cfg.Source.SuccessMarker)

	assert.Equal(t, "user_details.xlsx", cfg.Files.DefaultOutput)
	assert.Equal(t, "resume_point.txt", cfg.Files.CheckpointFile)
	assert.Equal(t, "error_log.txt", cfg.Files.ErrorLog)

	assert.Equal(t, 0, cfg.RateLimit.QueriesPerMinute)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ADQUERY_BATCH_SIZE", "50")
	t.Setenv("ADQUERY_MAX_WORKERS", "3")
	t.Setenv("ADQUERY_QUERY_TIMEOUT", "4s")
	t.Setenv("ADQUERY_INTER_BATCH_DELAY", "250ms")
	t.Setenv("ADQUERY_CHECKPOINT_MODE", "COMPLETION")
	t.Setenv("ADQUERY_COMMAND", "dsquery")
	t.Setenv("ADQUERY_CHECKPOINT_FILE", "cp.txt")
	t.Setenv("ADQUERY_ERROR_LOG", "errors.txt")
	t.Setenv("ADQUERY_QUERIES_PER_MINUTE", "120")
	t.Setenv("ADQUERY_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 50, cfg.Run.BatchSize)
	assert.Equal(t, 3, cfg.Run.MaxWorkers)
	assert.Equal(t, 4*time.Second, cfg.Run.QueryTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Run.InterBatchDelay)
	assert.Equal(t, CheckpointModeCompletion, cfg.Run.CheckpointMode)
	assert.Equal(t, "dsquery", cfg.Source.Command)
	assert.Equal(t, "cp.txt", cfg.Files.CheckpointFile)
	assert.Equal(t, "errors.txt", cfg.Files.ErrorLog)
	assert.Equal(t, 120, cfg.RateLimit.QueriesPerMinute)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("ADQUERY_BATCH_SIZE", "many")
	t.Setenv("ADQUERY_QUERY_TIMEOUT", "soon")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADQUERY_BATCH_SIZE")
	assert.Contains(t, err.Error(), "ADQUERY_QUERY_TIMEOUT")

	// Bad values leave defaults untouched
	assert.Equal(t, 500, cfg.Run.BatchSize)
	assert.Equal(t, 10*time.Second, cfg.Run.QueryTimeout)
}

func TestLoadFromFile(t *testing.T) {
	t.Run("valid yaml file", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "adquery.yaml")
		content := `
run:
  batch_size: 100
  max_workers: 2
  query_timeout: 30s
  inter_batch_delay: 1s
  checkpoint_mode: completion
source:
  command: /usr/bin/fake-net
  args: ["user", "{name}"]
files:
  checkpoint_file: /tmp/cp.txt
logging:
  level: warn
`
		require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

		cfg := DefaultConfig()
		require.NoError(t, cfg.LoadFromFile(configPath))

		assert.Equal(t, 100, cfg.Run.BatchSize)
		assert.Equal(t, 2, cfg.Run.MaxWorkers)
		assert.Equal(t, 30*time.Second, cfg.Run.QueryTimeout)
		assert.Equal(t, time.Second, cfg.Run.InterBatchDelay)
		assert.Equal(t, CheckpointModeCompletion, cfg.Run.CheckpointMode)
		assert.Equal(t, "/usr/bin/fake-net", cfg.Source.Command)
		assert.Equal(t, []string{"user", "{name}"}, cfg.Source.Args)
		assert.Equal(t, "/tmp/cp.txt", cfg.Files.CheckpointFile)
		assert.Equal(t, "warn", cfg.Logging.Level)

		// Untouched sections keep defaults
		assert.Equal(t, "error_log.txt", cfg.Files.ErrorLog)
		assert.Equal(t, "The command completed successfully", cfg.Source.SuccessMarker)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg := DefaultConfig()
		err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("run: [unclosed"), 0644))

		cfg := DefaultConfig()
		err := cfg.LoadFromFile(configPath)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse config file")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"zero batch size", func(c *Config) { c.Run.BatchSize = 0 }, "batch size must be positive"},
		{"zero workers", func(c *Config) { c.Run.MaxWorkers = 0 }, "max workers must be positive"},
		{"too many workers", func(c *Config) { c.Run.MaxWorkers = 100 }, "should not exceed"},
		{"zero timeout", func(c *Config) { c.Run.QueryTimeout = 0 }, "query timeout must be positive"},
		{"negative delay", func(c *Config) { c.Run.InterBatchDelay = -time.Second }, "cannot be negative"},
		{"bad checkpoint mode", func(c *Config) { c.Run.CheckpointMode = "eventually" }, "invalid checkpoint mode"},
		{"no command", func(c *Config) { c.Source.Command = "" }, "source command is required"},
		{"no checkpoint file", func(c *Config) { c.Files.CheckpointFile = "" }, "checkpoint file is required"},
		{"negative rate", func(c *Config) { c.RateLimit.QueriesPerMinute = -1 }, "queries per minute"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"batch-size":        25,
		"workers":           2,
		"timeout":           3 * time.Second,
		"delay":             time.Duration(0),
		"strict-checkpoint": false,
		"checkpoint-file":   "state.txt",
		"error-log":         "fail.txt",
		"rate-limit":        30,
		"log-level":         "error",
	})

	assert.Equal(t, 25, cfg.Run.BatchSize)
	assert.Equal(t, 2, cfg.Run.MaxWorkers)
	assert.Equal(t, 3*time.Second, cfg.Run.QueryTimeout)
	assert.Equal(t, time.Duration(0), cfg.Run.InterBatchDelay)
	assert.Equal(t, CheckpointModeCompletion, cfg.Run.CheckpointMode)
	assert.Equal(t, "state.txt", cfg.Files.CheckpointFile)
	assert.Equal(t, "fail.txt", cfg.Files.ErrorLog)
	assert.Equal(t, 30, cfg.RateLimit.QueriesPerMinute)
	assert.Equal(t, "error", cfg.Logging.Level)

	t.Run("empty flags keep values", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MergeCommandLineFlags(map[string]interface{}{})
		assert.Equal(t, DefaultConfig(), cfg)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Run.BatchSize = 42
	cfg.Run.QueryTimeout = 7 * time.Second
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var loaded Config
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, 42, loaded.Run.BatchSize)
	assert.Equal(t, 7*time.Second, loaded.Run.QueryTimeout)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "adquery.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("run:\n  batch_size: 100\n  max_workers: 2\n"), 0644))

	t.Setenv("ADQUERY_MAX_WORKERS", "4")

	cfg, err := Load(configPath, map[string]interface{}{"batch-size": 10})
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Run.BatchSize, "flag beats file")
	assert.Equal(t, 4, cfg.Run.MaxWorkers, "env beats file")

	t.Run("invalid result", func(t *testing.T) {
		_, err := Load(configPath, map[string]interface{}{"log-level": "chatty"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "configuration validation failed")
	})
}
