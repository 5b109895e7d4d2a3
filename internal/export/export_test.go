package export

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/wealth/internal/dashboard"
	"github.com/mtlprog/wealth/internal/domain"
	"github.com/mtlprog/wealth/internal/snapshot"
	"github.com/mtlprog/wealth/internal/store"
)

func point(date string, euro int64) domain.BalancePoint {
	return domain.BalancePoint{Date: date, Amount: decimal.NewFromInt(euro), AmountInEuro: decimal.NewFromInt(euro)}
}

func testSummary() snapshot.Summary {
	return snapshot.Summary{
		Date:       "2024-06-15",
		Total:      decimal.NewFromInt(300),
		TotalLabel: "€300.00",
		Composition: []dashboard.Slice{
			{Kind: store.KindBanks, AmountInEuro: decimal.NewFromInt(100), Share: decimal.RequireFromString("33.33")},
			{Kind: store.KindStocks, AmountInEuro: decimal.NewFromInt(200), Share: decimal.RequireFromString("66.67")},
			{Kind: store.KindAssets, AmountInEuro: decimal.Zero, Share: decimal.Zero},
		},
	}
}

func testReport() Report {
	return Report{
		Summary: testSummary(),
		Series: []dashboard.Series{
			{Kind: store.KindBanks, Points: []domain.BalancePoint{point("2024-06-14", 90), point("2024-06-15", 100)}},
			{Kind: store.KindStocks, Points: []domain.BalancePoint{point("2024-06-14", 0), point("2024-06-15", 200)}},
		},
	}
}

type mockBoard struct{ ov dashboard.Overview }

func (m *mockBoard) Overview() dashboard.Overview { return m.ov }

type mockWriter struct {
	err     error
	reports []Report
}

func (m *mockWriter) Write(_ context.Context, r Report) error {
	m.reports = append(m.reports, r)
	return m.err
}

func TestBuildSummary(t *testing.T) {
	rows := buildSummary(testReport())

	if len(rows) != 5 {
		t.Fatalf("rows = %d, want header + 3 kinds + total", len(rows))
	}
	if rows[1][0] != store.KindBanks.Label() || rows[1][1] != float64(100) || rows[1][2] != 33.33 {
		t.Errorf("banks row = %v", rows[1])
	}
	if rows[4][0] != "Total" || rows[4][1] != float64(300) {
		t.Errorf("total row = %v", rows[4])
	}
}

func TestBuildBalances(t *testing.T) {
	rows := buildBalances(testReport())

	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2 days", len(rows))
	}
	if len(rows[0]) != 4 || rows[0][3] != "Total" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[2][0] != "2024-06-15" || rows[2][3] != float64(300) {
		t.Errorf("last row = %v, want 2024-06-15 total 300", rows[2])
	}
}

func TestBuildBalancesNoSeries(t *testing.T) {
	rows := buildBalances(Report{})
	if len(rows) != 1 || len(rows[0]) != 2 {
		t.Errorf("rows = %v, want only Date/Total header", rows)
	}
}

func TestBuildHistoryOldestFirst(t *testing.T) {
	older := testSummary()
	older.Date = "2024-06-14"
	rows := buildHistory([]snapshot.Summary{testSummary(), older})

	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[1][0] != "2024-06-14" || rows[2][0] != "2024-06-15" {
		t.Errorf("dates = %v, %v, want oldest first", rows[1][0], rows[2][0])
	}
	if rows[2][3] != float64(200) {
		t.Errorf("stocks column = %v, want 200", rows[2][3])
	}
}

func TestServiceWriteJoinsErrors(t *testing.T) {
	ok := &mockWriter{}
	failing := &mockWriter{err: errors.New("quota exceeded")}
	svc := NewService(&mockBoard{}, failing, ok)

	err := svc.Export(context.Background(), testSummary())

	if err == nil {
		t.Fatal("expected error from failing writer")
	}
	if len(ok.reports) != 1 {
		t.Error("a failing writer must not stop the others")
	}
}

func TestServiceBuildReportUsesBoardSeries(t *testing.T) {
	board := &mockBoard{ov: dashboard.Overview{Series: testReport().Series}}
	svc := NewService(board)

	r := svc.BuildReport(testSummary(), nil)

	if len(r.Series) != 2 {
		t.Errorf("series = %d, want 2", len(r.Series))
	}
	if r.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}

func TestXLSXWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "wealth.xlsx")
	w := NewXLSXWriter(path)

	if err := w.Write(context.Background(), testReport()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	tests := []struct {
		sheet, cell, want string
	}{
		{"SUMMARY", "A1", "Kind"},
		{"SUMMARY", "A5", "Total"},
		{"SUMMARY", "B5", "300"},
		{"BALANCES", "A3", "2024-06-15"},
		{"HISTORY", "A2", "2024-06-15"},
		{"HISTORY", "B2", "300"},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue(tt.sheet, tt.cell)
		if err != nil {
			t.Fatalf("GetCellValue(%s!%s): %v", tt.sheet, tt.cell, err)
		}
		if got != tt.want {
			t.Errorf("%s!%s = %q, want %q", tt.sheet, tt.cell, got, tt.want)
		}
	}
}

func TestXLSXWriterCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := NewXLSXWriter(filepath.Join(t.TempDir(), "x.xlsx"))
	if err := w.Write(ctx, testReport()); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
