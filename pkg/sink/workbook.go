package sink

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"adquery/pkg/logger"
	"adquery/pkg/models"
)

const defaultSheet = "Sheet1"

// Workbook appends records to an xlsx file. The file is created with the
// header row on first use; later calls append below the last used row of
// the active sheet.
type Workbook struct {
	path   string
	logger logger.Logger
	rows   int
}

// NewWorkbook creates a sink writing to path
func NewWorkbook(path string, log logger.Logger) *Workbook {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Workbook{path: path, logger: log}
}

// Path returns the workbook location
func (w *Workbook) Path() string {
	return w.path
}

// RowsWritten returns how many data rows this sink has appended
func (w *Workbook) RowsWritten() int {
	return w.rows
}

// Append writes records as new rows and saves the workbook
func (w *Workbook) Append(records []*models.Record) error {
	if len(records) == 0 {
		return nil
	}

	f, sheet, next, err := w.open()
	if err != nil {
		return err
	}
	defer f.Close()

	for i, record := range records {
		if err := setRow(f, sheet, next+i, record.Row()); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", record.Username, err)
		}
	}

	if err := w.save(f); err != nil {
		return err
	}
	w.rows += len(records)

	w.logger.DebugWithFields("Rows appended", map[string]interface{}{
		"file":      w.path,
		"rows":      len(records),
		"first_row": next,
	})
	return nil
}

// open returns the workbook, the sheet to write to and the next free row
func (w *Workbook) open() (*excelize.File, string, int, error) {
	f, err := excelize.OpenFile(w.path)
	if errors.Is(err, os.ErrNotExist) {
		f = excelize.NewFile()
		if err := setRow(f, defaultSheet, 1, models.Header); err != nil {
			f.Close()
			return nil, "", 0, fmt.Errorf("failed to write header: %w", err)
		}
		return f, defaultSheet, 2, nil
	}
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to open workbook: %w", err)
	}

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		f.Close()
		return nil, "", 0, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		if err := setRow(f, sheet, 1, models.Header); err != nil {
			f.Close()
			return nil, "", 0, fmt.Errorf("failed to write header: %w", err)
		}
		return f, sheet, 2, nil
	}
	return f, sheet, len(rows) + 1, nil
}

// save writes to a temporary file next to the target and renames it over
// the target so an interrupted write never truncates existing rows
func (w *Workbook) save(f *excelize.File) error {
	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".adquery-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create temp workbook: %w", err)
	}
	tmpPath := tmp.Name()

	if err := f.Write(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync workbook: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close workbook: %w", err)
	}
	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
