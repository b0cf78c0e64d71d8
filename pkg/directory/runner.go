package directory

import (
	"bytes"
	"context"
	"os/exec"
	"time"
)

// CommandRunner executes an external command and returns its stdout, stderr, and error.
// Tests substitute a fake so no real directory is contacted.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout []byte, stderr []byte, err error)
}

// ExecRunner runs commands with exec.CommandContext. The process is killed
// when ctx is done.
type ExecRunner struct {
	// WaitDelay bounds how long Run waits for output pipes after the
	// process has been killed.
	WaitDelay time.Duration
}

// Run implements CommandRunner
func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = 2 * time.Second
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
