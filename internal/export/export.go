package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/dashboard"
	"github.com/mtlprog/wealth/internal/snapshot"
	"github.com/mtlprog/wealth/internal/store"
)

// Report is everything a writer puts into a workbook.
type Report struct {
	GeneratedAt time.Time
	Summary     snapshot.Summary
	Series      []dashboard.Series
	// History holds archived summaries, newest first. It may be empty.
	History []snapshot.Summary
}

// Writer writes a report to a spreadsheet destination.
type Writer interface {
	Write(ctx context.Context, report Report) error
}

// OverviewSource produces the current overview.
type OverviewSource interface {
	Overview() dashboard.Overview
}

// Service builds reports and hands them to every configured writer.
type Service struct {
	board   OverviewSource
	writers []Writer
}

// NewService creates a new export Service.
func NewService(board OverviewSource, writers ...Writer) *Service {
	return &Service{board: board, writers: writers}
}

// Export writes the current overview together with summary.
// Implements worker.AfterSnapshotHook.
func (s *Service) Export(ctx context.Context, summary snapshot.Summary) error {
	return s.Write(ctx, s.BuildReport(summary, nil))
}

// BuildReport combines summary, the current chart series and history.
func (s *Service) BuildReport(summary snapshot.Summary, history []snapshot.Summary) Report {
	return Report{
		GeneratedAt: time.Now().UTC(),
		Summary:     summary,
		Series:      s.board.Overview().Series,
		History:     history,
	}
}

// Write hands report to every writer. All writers run; their errors are joined.
func (s *Service) Write(ctx context.Context, report Report) error {
	var errs []error
	for _, w := range s.writers {
		if err := w.Write(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", w, err))
		}
	}
	return errors.Join(errs...)
}

// buildSummary builds the SUMMARY sheet.
// Columns: Kind | Amount EUR | Share %
func buildSummary(r Report) [][]any {
	data := [][]any{{"Kind", "Amount EUR", "Share %"}}
	for _, c := range r.Summary.Composition {
		data = append(data, []any{c.Kind.Label(), toFloat(c.AmountInEuro), toFloat(c.Share)})
	}
	data = append(data, []any{"Total", toFloat(r.Summary.Total), float64(100)})
	return data
}

// buildBalances builds the BALANCES sheet from the aligned overview series.
// Columns: Date | <one per kind> | Total
func buildBalances(r Report) [][]any {
	header := []any{"Date"}
	for _, s := range r.Series {
		header = append(header, s.Kind.Label())
	}
	header = append(header, "Total")
	data := [][]any{header}

	if len(r.Series) == 0 {
		return data
	}
	for i, p := range r.Series[0].Points {
		row := []any{p.Date}
		total := decimal.Zero
		for _, s := range r.Series {
			v := decimal.Zero
			if i < len(s.Points) {
				v = s.Points[i].AmountInEuro
			}
			total = total.Add(v)
			row = append(row, toFloat(v))
		}
		row = append(row, toFloat(total))
		data = append(data, row)
	}
	return data
}

// historyHeader lists the HISTORY sheet columns.
func historyHeader() []any {
	header := []any{"Date", "Total"}
	for _, k := range store.Kinds {
		header = append(header, k.Label())
	}
	return header
}

// historyRow renders one summary as a HISTORY row.
func historyRow(s snapshot.Summary) []any {
	byKind := lo.KeyBy(s.Composition, func(c dashboard.Slice) store.Kind { return c.Kind })
	row := []any{s.Date, toFloat(s.Total)}
	for _, k := range store.Kinds {
		row = append(row, toFloat(byKind[k].AmountInEuro))
	}
	return row
}

// buildHistory builds the HISTORY sheet, oldest first.
func buildHistory(history []snapshot.Summary) [][]any {
	data := [][]any{historyHeader()}
	for i := len(history) - 1; i >= 0; i-- {
		data = append(data, historyRow(history[i]))
	}
	return data
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
