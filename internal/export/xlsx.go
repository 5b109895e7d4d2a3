package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// XLSXWriter implements Writer by saving an .xlsx workbook to a local path.
// The file is rewritten on every call.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates a writer saving to path.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

// Path returns the workbook location.
func (w *XLSXWriter) Path() string { return w.path }

// Write saves the SUMMARY, BALANCES and HISTORY sheets to the workbook.
func (w *XLSXWriter) Write(ctx context.Context, r Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	history := r.History
	if len(history) == 0 {
		history = append(history, r.Summary)
	}
	tables := []struct {
		name string
		rows [][]any
	}{
		{"SUMMARY", buildSummary(r)},
		{"BALANCES", buildBalances(r)},
		{"HISTORY", buildHistory(history)},
	}

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.name); err != nil {
				return fmt.Errorf("renaming default sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", t.name, err)
		}
		if err := writeRows(f, t.name, t.rows); err != nil {
			return err
		}
		if err := f.SetRowStyle(t.name, 1, 1, bold); err != nil {
			return fmt.Errorf("styling %s header: %w", t.name, err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving %s: %w", w.path, err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
