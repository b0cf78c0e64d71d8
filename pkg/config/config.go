package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Checkpoint modes
const (
	CheckpointModeWatermark  = "watermark"
	CheckpointModeCompletion = "completion"
)

// Config holds all configuration options for adquery
type Config struct {
	// Batch orchestration
	Run RunConfig `yaml:"run" json:"run"`

	// External directory command
	Source SourceConfig `yaml:"source" json:"source"`

	// Files written during a run
	Files FilesConfig `yaml:"files" json:"files"`

	// Optional pacing of queries
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// RunConfig controls how the account list is partitioned and dispatched.
type RunConfig struct {
	BatchSize       int           `yaml:"batch_size" json:"batch_size"`
	MaxWorkers      int           `yaml:"max_workers" json:"max_workers"`
	QueryTimeout    time.Duration `yaml:"query_timeout" json:"query_timeout"`
	InterBatchDelay time.Duration `yaml:"inter_batch_delay" json:"inter_batch_delay"`
	CheckpointMode  string        `yaml:"checkpoint_mode" json:"checkpoint_mode"`
}

// SourceConfig describes the external command used to look up an account.
// The literal {name} in Args is replaced by the account name.
type SourceConfig struct {
	Command       string   `yaml:"command" json:"command"`
	Args          []string `yaml:"args" json:"args"`
	SuccessMarker string   `yaml:"success_marker" json:"success_marker"`
}

// FilesConfig holds the paths of the files adquery reads and writes
type FilesConfig struct {
	DefaultOutput  string `yaml:"default_output" json:"default_output"`
	CheckpointFile string `yaml:"checkpoint_file" json:"checkpoint_file"`
	ErrorLog       string `yaml:"error_log" json:"error_log"`
}

// RateLimitConfig holds rate limiting configuration. Zero disables pacing.
type RateLimitConfig struct {
	QueriesPerMinute int `yaml:"queries_per_minute" json:"queries_per_minute"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Run: RunConfig{
			BatchSize:       500,
			MaxWorkers:      5,
			QueryTimeout:    10 * time.Second,
			InterBatchDelay: 2 * time.Second,
			CheckpointMode:  CheckpointModeWatermark,
		},
		Source: SourceConfig{
			Command:       "net",
			Args:          []string{"user", "{name}", "/domain"},
			SuccessMarker: "The command completed successfully",
		},
		Files: FilesConfig{
			DefaultOutput:  "user_details.xlsx",
			CheckpointFile: "resume_point.txt",
			ErrorLog:       "error_log.txt",
		},
		RateLimit: RateLimitConfig{
			QueriesPerMinute: 0,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv("ADQUERY_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ADQUERY_BATCH_SIZE: %w", err))
		} else {
			c.Run.BatchSize = n
		}
	}
	if v := os.Getenv("ADQUERY_MAX_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ADQUERY_MAX_WORKERS: %w", err))
		} else {
			c.Run.MaxWorkers = n
		}
	}
	if v := os.Getenv("ADQUERY_QUERY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ADQUERY_QUERY_TIMEOUT: %w", err))
		} else {
			c.Run.QueryTimeout = d
		}
	}
	if v := os.Getenv("ADQUERY_INTER_BATCH_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ADQUERY_INTER_BATCH_DELAY: %w", err))
		} else {
			c.Run.InterBatchDelay = d
		}
	}
	if v := os.Getenv("ADQUERY_CHECKPOINT_MODE"); v != "" {
		c.Run.CheckpointMode = strings.ToLower(v)
	}

	if v := os.Getenv("ADQUERY_COMMAND"); v != "" {
		c.Source.Command = v
	}

	if v := os.Getenv("ADQUERY_CHECKPOINT_FILE"); v != "" {
		c.Files.CheckpointFile = v
	}
	if v := os.Getenv("ADQUERY_ERROR_LOG"); v != "" {
		c.Files.ErrorLog = v
	}

	if v := os.Getenv("ADQUERY_QUERIES_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("ADQUERY_QUERIES_PER_MINUTE: %w", err))
		} else {
			c.RateLimit.QueriesPerMinute = n
		}
	}

	if v := os.Getenv("ADQUERY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ADQUERY_LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		".adquery.yaml",
		".adquery.yml",
	}
	if home != "" {
		locations = append(locations,
			filepath.Join(home, ".config", "adquery", "config.yaml"),
			filepath.Join(home, ".config", "adquery", "config.yml"),
			filepath.Join(home, ".adquery.yaml"),
		)
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Run.BatchSize <= 0 {
		errs = append(errs, errors.New("batch size must be positive"))
	}
	if c.Run.MaxWorkers <= 0 {
		errs = append(errs, errors.New("max workers must be positive"))
	}
	if c.Run.MaxWorkers > 64 {
		errs = append(errs, errors.New("max workers should not exceed 64"))
	}
	if c.Run.QueryTimeout <= 0 {
		errs = append(errs, errors.New("query timeout must be positive"))
	}
	if c.Run.InterBatchDelay < 0 {
		errs = append(errs, errors.New("inter-batch delay cannot be negative"))
	}
	switch c.Run.CheckpointMode {
	case CheckpointModeWatermark, CheckpointModeCompletion:
	default:
		errs = append(errs, fmt.Errorf("invalid checkpoint mode %q", c.Run.CheckpointMode))
	}

	if c.Source.Command == "" {
		errs = append(errs, errors.New("source command is required"))
	}

	if c.Files.DefaultOutput == "" {
		errs = append(errs, errors.New("default output file is required"))
	}
	if c.Files.CheckpointFile == "" {
		errs = append(errs, errors.New("checkpoint file is required"))
	}
	if c.Files.ErrorLog == "" {
		errs = append(errs, errors.New("error log file is required"))
	}

	if c.RateLimit.QueriesPerMinute < 0 {
		errs = append(errs, errors.New("queries per minute cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["batch-size"].(int); ok && v > 0 {
		c.Run.BatchSize = v
	}
	if v, ok := flags["workers"].(int); ok && v > 0 {
		c.Run.MaxWorkers = v
	}
	if v, ok := flags["timeout"].(time.Duration); ok && v > 0 {
		c.Run.QueryTimeout = v
	}
	if v, ok := flags["delay"].(time.Duration); ok && v >= 0 {
		c.Run.InterBatchDelay = v
	}
	if v, ok := flags["strict-checkpoint"].(bool); ok {
		if v {
			c.Run.CheckpointMode = CheckpointModeWatermark
		} else {
			c.Run.CheckpointMode = CheckpointModeCompletion
		}
	}
	if v, ok := flags["checkpoint-file"].(string); ok && v != "" {
		c.Files.CheckpointFile = v
	}
	if v, ok := flags["error-log"].(string); ok && v != "" {
		c.Files.ErrorLog = v
	}
	if v, ok := flags["rate-limit"].(int); ok && v >= 0 {
		c.RateLimit.QueriesPerMinute = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := flags["log-file"].(string); ok && v != "" {
		c.Logging.File = v
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Missing .env files are fine
	_ = godotenv.Load(".env")
	if home, err := os.UserHomeDir(); err == nil {
		_ = godotenv.Load(filepath.Join(home, ".adquery.env"))
	}

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
