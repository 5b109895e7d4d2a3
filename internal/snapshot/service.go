package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/dashboard"
	"github.com/mtlprog/wealth/internal/domain"
)

// OverviewBuilder produces the current overview from cached balances.
type OverviewBuilder interface {
	Overview() dashboard.Overview
}

// Summary is the archived part of an overview: the totals without the
// chart series.
type Summary struct {
	Date        string            `json:"date"`
	Total       decimal.Decimal   `json:"total"`
	TotalLabel  string            `json:"total_label"`
	Composition []dashboard.Slice `json:"composition"`
}

// Summarize extracts the archived part of ov for date.
func Summarize(ov dashboard.Overview, date time.Time) Summary {
	return Summary{
		Date:        domain.FormatDay(date),
		Total:       ov.Total,
		TotalLabel:  ov.TotalLabel,
		Composition: ov.Composition,
	}
}

// Service manages snapshot generation and retrieval.
type Service struct {
	board OverviewBuilder
	repo  Repository
}

func NewService(board OverviewBuilder, repo Repository) *Service {
	return &Service{board: board, repo: repo}
}

// Generate archives the current overview of owner under date.
func (s *Service) Generate(ctx context.Context, owner string, date time.Time) (Summary, error) {
	summary := Summarize(s.board.Overview(), date)

	data, err := json.Marshal(summary)
	if err != nil {
		return Summary{}, fmt.Errorf("marshaling summary: %w", err)
	}
	day, _ := domain.ParseDay(summary.Date)
	if err := s.repo.Save(ctx, owner, day, data); err != nil {
		return Summary{}, fmt.Errorf("saving snapshot: %w", err)
	}
	return summary, nil
}

// GetLatest retrieves the most recent snapshot of owner.
func (s *Service) GetLatest(ctx context.Context, owner string) (*Snapshot, error) {
	return s.repo.GetLatest(ctx, owner)
}

// GetByDate retrieves the snapshot of owner for a specific date.
func (s *Service) GetByDate(ctx context.Context, owner string, date time.Time) (*Snapshot, error) {
	return s.repo.GetByDate(ctx, owner, date)
}

// List retrieves recent snapshots of owner, newest first.
func (s *Service) List(ctx context.Context, owner string, limit int) ([]Snapshot, error) {
	return s.repo.List(ctx, owner, limit)
}

// Summaries decodes the archived summaries of owner, newest first.
func (s *Service) Summaries(ctx context.Context, owner string, limit int) ([]Summary, error) {
	snapshots, err := s.repo.List(ctx, owner, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(snapshots))
	for _, snap := range snapshots {
		var sum Summary
		if err := json.Unmarshal(snap.Data, &sum); err != nil {
			return nil, fmt.Errorf("decoding snapshot %s: %w", domain.FormatDay(snap.SnapshotDate), err)
		}
		out = append(out, sum)
	}
	return out, nil
}
