package checkpoint

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"adquery/pkg/logger"
)

// ErrMalformed is returned when the checkpoint file does not hold a
// non-negative integer
var ErrMalformed = errors.New("malformed checkpoint")

// Tracker persists a single resume position as a plain-text integer
type Tracker struct {
	path   string
	logger logger.Logger
}

// NewTracker creates a tracker backed by the file at path
func NewTracker(path string, log logger.Logger) *Tracker {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Tracker{
		path:   path,
		logger: log,
	}
}

// Path returns the checkpoint file location
func (t *Tracker) Path() string {
	return t.path
}

// Load returns the saved position, or 0 when no checkpoint exists
func (t *Tracker) Load() (int, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	text := strings.TrimSpace(string(data))
	position, err := strconv.Atoi(text)
	if err != nil || position < 0 {
		return 0, fmt.Errorf("%w in %s: %q", ErrMalformed, t.path, text)
	}

	t.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"path":     t.path,
		"position": position,
	})

	return position, nil
}

// Save overwrites the checkpoint with position. The write goes through a
// temporary file and a rename so a crash never leaves a torn value.
func (t *Tracker) Save(position int) error {
	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	tempPath := t.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	if _, err := file.WriteString(strconv.Itoa(position)); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, t.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	t.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"position": position,
	})

	return nil
}

// Clear removes the checkpoint file. A missing file is not an error.
func (t *Tracker) Clear() error {
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	t.logger.Info("Checkpoint cleared")
	return nil
}

// Exists checks if a checkpoint file exists
func (t *Tracker) Exists() bool {
	_, err := os.Stat(t.path)
	return err == nil
}
