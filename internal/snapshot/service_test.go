package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/dashboard"
	"github.com/mtlprog/wealth/internal/store"
)

type mockBoard struct {
	overview dashboard.Overview
}

func (m *mockBoard) Overview() dashboard.Overview { return m.overview }

type mockRepo struct {
	saveErr    error
	savedOwner string
	savedData  json.RawMessage
	savedDate  time.Time
	latest     *Snapshot
	latestErr  error
	list       []Snapshot
	listErr    error
}

func (m *mockRepo) Save(_ context.Context, owner string, date time.Time, data json.RawMessage) error {
	m.savedOwner = owner
	m.savedData = data
	m.savedDate = date
	return m.saveErr
}

func (m *mockRepo) GetLatest(_ context.Context, _ string) (*Snapshot, error) {
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	return m.latest, nil
}

func (m *mockRepo) GetByDate(_ context.Context, _ string, _ time.Time) (*Snapshot, error) {
	return nil, ErrNotFound
}

func (m *mockRepo) List(_ context.Context, _ string, _ int) ([]Snapshot, error) {
	return m.list, m.listErr
}

func testOverview() dashboard.Overview {
	return dashboard.Overview{
		Total:      decimal.NewFromInt(1500),
		TotalLabel: "€1,500",
		Composition: []dashboard.Slice{
			{Kind: store.KindBanks, AmountInEuro: decimal.NewFromInt(500)},
			{Kind: store.KindStocks, AmountInEuro: decimal.NewFromInt(1000)},
		},
		Series: []dashboard.Series{{Kind: store.KindBanks}},
	}
}

func TestGenerateSuccess(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(&mockBoard{overview: testOverview()}, repo)

	at := time.Date(2024, 6, 15, 18, 30, 0, 0, time.UTC)
	summary, err := svc.Generate(context.Background(), "ann@example.com", at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Date != "2024-06-15" || !summary.Total.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("summary = %+v", summary)
	}
	if repo.savedOwner != "ann@example.com" {
		t.Errorf("owner = %q", repo.savedOwner)
	}
	if !repo.savedDate.Equal(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("saved date = %v, want midnight", repo.savedDate)
	}

	var stored map[string]any
	if err := json.Unmarshal(repo.savedData, &stored); err != nil {
		t.Fatal(err)
	}
	if _, ok := stored["series"]; ok {
		t.Error("chart series should not be archived")
	}
	if stored["total"] != float64(1500) {
		t.Errorf("total = %#v, want number 1500", stored["total"])
	}
}

func TestGenerateRepoSaveError(t *testing.T) {
	repo := &mockRepo{saveErr: errors.New("save failed")}
	svc := NewService(&mockBoard{}, repo)

	_, err := svc.Generate(context.Background(), "ann@example.com", time.Now())
	if err == nil {
		t.Fatal("expected error from repo save")
	}
}

func TestSummaries(t *testing.T) {
	repo := &mockRepo{list: []Snapshot{
		{SnapshotDate: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC), Data: json.RawMessage(`{"date":"2024-06-02","total":20}`)},
		{SnapshotDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Data: json.RawMessage(`{"date":"2024-06-01","total":10}`)},
	}}
	svc := NewService(&mockBoard{}, repo)

	out, err := svc.Summaries(context.Background(), "ann@example.com", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 || out[0].Date != "2024-06-02" || !out[1].Total.Equal(decimal.NewFromInt(10)) {
		t.Errorf("summaries = %+v", out)
	}
}

func TestSummariesCorruptData(t *testing.T) {
	repo := &mockRepo{list: []Snapshot{{Data: json.RawMessage(`{`)}}}
	if _, err := NewService(&mockBoard{}, repo).Summaries(context.Background(), "x", 1); err == nil {
		t.Error("expected decode error")
	}
}

func TestGetLatestNotFound(t *testing.T) {
	svc := NewService(&mockBoard{}, &mockRepo{latestErr: ErrNotFound})
	if _, err := svc.GetLatest(context.Background(), "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
