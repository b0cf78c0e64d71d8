package directory

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	errs "adquery/pkg/errors"
)

// FailureLog appends one line per failed lookup to a plain-text file.
// The file is opened on the first failure.
type FailureLog struct {
	path string
	mu   sync.Mutex
	file *os.File
	n    int
}

// NewFailureLog creates a failure log writing to path
func NewFailureLog(path string) *FailureLog {
	return &FailureLog{path: path}
}

// Path returns the log file location
func (f *FailureLog) Path() string {
	return f.path
}

// Record writes err as a single line
func (f *FailureLog) Record(err *errs.Error) error {
	var line string
	if err.Type == errs.ErrorTypeTimeout {
		line = fmt.Sprintf("Timeout fetching data for %s\n", err.Account)
	} else {
		line = fmt.Sprintf("Error fetching data for %s: %s\n", err.Account, err.Message)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		if dir := filepath.Dir(f.path); dir != "." {
			if mkErr := os.MkdirAll(dir, 0755); mkErr != nil {
				return fmt.Errorf("failed to create error log directory: %w", mkErr)
			}
		}
		file, openErr := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if openErr != nil {
			return fmt.Errorf("failed to open error log: %w", openErr)
		}
		f.file = file
	}

	if _, writeErr := f.file.WriteString(line); writeErr != nil {
		return fmt.Errorf("failed to write error log: %w", writeErr)
	}
	f.n++
	return nil
}

// Count returns how many lines were written by this process
func (f *FailureLog) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

// Close releases the underlying file
func (f *FailureLog) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
