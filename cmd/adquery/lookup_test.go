package main

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"adquery/pkg/accounts"
	"adquery/pkg/config"
	"adquery/pkg/logger"
	"adquery/pkg/ui"
)

const found = "Full Name                    %s\r\n" +
	"Account active               Yes\r\n" +
	"Password last set            1/2/2024 9:15:00 AM\r\n" +
	"The command completed successfully.\r\n"

type stubRunner map[string]string

func (s stubRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	full, ok := s[args[1]]
	if !ok {
		return nil, []byte("The user name could not be found."), errors.New("exit status 2")
	}
	return []byte(strings.Replace(found, "%s", full, 1)), nil, nil
}

func testConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Run.InterBatchDelay = 0
	cfg.Files.CheckpointFile = filepath.Join(dir, "resume_point.txt")
	cfg.Files.ErrorLog = filepath.Join(dir, "error_log.txt")
	cfg.Files.DefaultOutput = filepath.Join(dir, "user_details.xlsx")
	return cfg
}

func writeInput(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "users.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func quietUI(t *testing.T) {
	t.Helper()
	prev := ui.Output()
	ui.SetOutput(io.Discard)
	t.Cleanup(func() { ui.SetOutput(prev) })
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		arg, want string
	}{
		{"", "user_details.xlsx"},
		{"report", "report.xlsx"},
		{"report.xlsx", "report.xlsx"},
		{"Report.XLSX", "Report.XLSX"},
		{"dir/report.csv", "dir/report.csv.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			assert.Equal(t, tt.want, outputPath(tt.arg, "user_details.xlsx"))
		})
	}
}

func TestRunLookup(t *testing.T) {
	quietUI(t)
	dir := t.TempDir()
	cfg := testConfig(dir)
	input := writeInput(t, dir, "alice\nbob\n\ncarol\n")

	summary, err := runLookup(context.Background(), cfg, runOptions{
		inputPath: input,
		runner:    stubRunner{"alice": "Alice A", "carol": "Carol C"},
	}, logger.NewNopLogger())
	require.NoError(t, err)
	assert.True(t, summary.Completed)
	assert.Equal(t, 2, summary.RowsWritten)

	f, err := excelize.OpenFile(cfg.Files.DefaultOutput)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(f.GetActiveSheetIndex()))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Alice A", rows[1][1])
	assert.Equal(t, "9:15:00 AM", rows[2][4])

	data, err := os.ReadFile(cfg.Files.ErrorLog)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Error fetching data for bob: ")

	_, err = os.Stat(cfg.Files.CheckpointFile)
	assert.True(t, os.IsNotExist(err))
}

func TestRunLookupMissingInput(t *testing.T) {
	quietUI(t)
	dir := t.TempDir()

	_, err := runLookup(context.Background(), testConfig(dir), runOptions{
		inputPath: filepath.Join(dir, "missing.txt"),
		runner:    stubRunner{},
	}, logger.NewNopLogger())
	require.ErrorIs(t, err, accounts.ErrInputNotFound)
}

func TestRunLookupMalformedCheckpoint(t *testing.T) {
	quietUI(t)
	dir := t.TempDir()
	cfg := testConfig(dir)
	require.NoError(t, os.WriteFile(cfg.Files.CheckpointFile, []byte("abc"), 0644))

	_, err := runLookup(context.Background(), cfg, runOptions{
		inputPath: writeInput(t, dir, "alice\n"),
		runner:    stubRunner{"alice": "Alice A"},
	}, logger.NewNopLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed checkpoint")
}

func TestRunLookupResumesAndFresh(t *testing.T) {
	quietUI(t)
	dir := t.TempDir()
	cfg := testConfig(dir)
	input := writeInput(t, dir, "alice\ncarol\n")
	require.NoError(t, os.WriteFile(cfg.Files.CheckpointFile, []byte("1"), 0644))

	summary, err := runLookup(context.Background(), cfg, runOptions{
		inputPath: input,
		runner:    stubRunner{"alice": "Alice A", "carol": "Carol C"},
	}, logger.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.StartOffset)
	assert.Equal(t, 1, summary.RowsWritten)

	require.NoError(t, os.WriteFile(cfg.Files.CheckpointFile, []byte("1"), 0644))
	summary, err = runLookup(context.Background(), cfg, runOptions{
		inputPath: input,
		fresh:     true,
		runner:    stubRunner{"alice": "Alice A", "carol": "Carol C"},
	}, logger.NewNopLogger())
	require.NoError(t, err)
	assert.Zero(t, summary.StartOffset)
	assert.Equal(t, 2, summary.RowsWritten)
}
