package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Output()
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(prev) })
	return &buf
}

func TestColorDisabledForNonTerminal(t *testing.T) {
	captureOutput(t)
	assert.Equal(t, "plain", Red("plain"))
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestPrintHelpers(t *testing.T) {
	buf := captureOutput(t)

	PrintInfo("Input", "users.txt")
	PrintWarning("Checkpoint found", 700)
	PrintError("Failed")
	PrintSuccess("Done")

	assert.Equal(t, "Input: users.txt\nCheckpoint found: 700\nFailed\nDone\n", buf.String())
}

func TestProgressDisplayNonInteractive(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, 5, 2)
	p.reportEvery = 2
	p.StartBatch(1, 1)

	p.QueryFinished("carol", true)
	assert.Empty(t, buf.String())
	p.QueryFinished("dave", false)
	p.QueryFinished("erin", true)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "4/5")
	assert.Contains(t, lines[0], "batch 1/1")
	assert.Contains(t, lines[0], "1 failed")
	assert.Contains(t, lines[1], "5/5")
	assert.NotContains(t, buf.String(), "\r")
}

func TestProgressDisplayComplete(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, 2, 0)
	p.QueryFinished("alice", true)
	p.QueryFinished("bob", false)
	buf.Reset()

	p.Complete(1, "out.xlsx")

	assert.Contains(t, buf.String(), "Looked up 2 accounts, 1 rows written to out.xlsx")
	assert.Contains(t, buf.String(), "1 lookups failed")
}

func TestProgressDisplayInterrupted(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressDisplay(&buf, 10, 0)
	p.Interrupted("resume_point.txt")
	assert.Contains(t, buf.String(), "rerun to resume from resume_point.txt")
}

func TestNotifier(t *testing.T) {
	buf := captureOutput(t)
	var sent []string
	n := NewNotifierWithSender(func(title, message string) error {
		sent = append(sent, title+"|"+message)
		return nil
	})

	n.Success("adquery", "2 rows written")
	n.Failure("adquery", "batch 2 failed")

	assert.Equal(t, []string{"adquery|2 rows written", "adquery|batch 2 failed"}, sent)
	assert.Contains(t, buf.String(), "adquery: 2 rows written")

	// without a sender only the console line is written
	NewNotifier(false).Success("adquery", "quiet")
	assert.Contains(t, buf.String(), "quiet")
}

func TestQuotePS(t *testing.T) {
	assert.Equal(t, "it''s", quotePS("it's"))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5s", formatDuration(5e9))
	assert.Equal(t, "2m5s", formatDuration(125e9))
	assert.Equal(t, "1h1m", formatDuration(3660e9))
}
