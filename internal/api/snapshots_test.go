package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/mtlprog/wealth/internal/session"
	"github.com/mtlprog/wealth/internal/snapshot"
)

type mockSnapshots struct {
	snapshots     []snapshot.Snapshot
	lastOwner     string
	lastListLimit int
}

func (m *mockSnapshots) GetLatest(_ context.Context, owner string) (*snapshot.Snapshot, error) {
	m.lastOwner = owner
	if len(m.snapshots) == 0 {
		return nil, snapshot.ErrNotFound
	}
	return &m.snapshots[0], nil
}

func (m *mockSnapshots) GetByDate(_ context.Context, owner string, date time.Time) (*snapshot.Snapshot, error) {
	m.lastOwner = owner
	for _, s := range m.snapshots {
		if s.SnapshotDate.Equal(date) {
			return &s, nil
		}
	}
	return nil, snapshot.ErrNotFound
}

func (m *mockSnapshots) List(_ context.Context, owner string, limit int) ([]snapshot.Snapshot, error) {
	m.lastOwner = owner
	m.lastListLimit = limit
	if limit > len(m.snapshots) {
		limit = len(m.snapshots)
	}
	return m.snapshots[:limit], nil
}

type mockOwner struct {
	owner string
	err   error
}

func (m mockOwner) Owner(_ context.Context) (string, error) { return m.owner, m.err }

func snapshotRouter(t *testing.T, repo *mockSnapshots, owner OwnerResolver) http.Handler {
	t.Helper()
	router, _ := newTestRouter(t, &mockPortfolio{}, Options{Snapshots: NewSnapshotHandler(repo, owner)})
	return router
}

func TestGetLatestSnapshotSuccess(t *testing.T) {
	data, _ := json.Marshal(map[string]string{"total": "95"})
	repo := &mockSnapshots{
		snapshots: []snapshot.Snapshot{
			{ID: 1, Owner: "ann@example.com", SnapshotDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), Data: data},
		},
	}
	router := snapshotRouter(t, repo, mockOwner{owner: "ann@example.com"})

	w := serve(router, http.MethodGet, "/api/v1/snapshots/latest")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var result snapshot.Snapshot
	json.NewDecoder(w.Body).Decode(&result)
	if result.ID != 1 {
		t.Errorf("snapshot ID = %d, want 1", result.ID)
	}
	if repo.lastOwner != "ann@example.com" {
		t.Errorf("owner = %q, want the resolved user", repo.lastOwner)
	}
}

func TestGetLatestSnapshotNotFound(t *testing.T) {
	router := snapshotRouter(t, &mockSnapshots{}, mockOwner{owner: "x"})

	if w := serve(router, http.MethodGet, "/api/v1/snapshots/latest"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetSnapshotByDate(t *testing.T) {
	date := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	repo := &mockSnapshots{snapshots: []snapshot.Snapshot{{ID: 1, SnapshotDate: date, Data: json.RawMessage(`{}`)}}}
	router := snapshotRouter(t, repo, mockOwner{owner: "x"})

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/snapshots/2024-01-15", http.StatusOK},
		{"/api/v1/snapshots/2024-01-16", http.StatusNotFound},
		{"/api/v1/snapshots/not-a-date", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := serve(router, http.MethodGet, tt.path); w.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.path, w.Code, tt.want)
		}
	}
}

func TestListSnapshotsLimit(t *testing.T) {
	data := json.RawMessage(`{}`)
	tests := []struct {
		query     string
		wantLimit int
	}{
		{"?limit=9999", 365},
		{"?limit=-5", 30},
		{"?limit=10", 10},
		{"", 30},
	}
	for _, tt := range tests {
		repo := &mockSnapshots{snapshots: []snapshot.Snapshot{{ID: 1, Data: data}, {ID: 2, Data: data}}}
		router := snapshotRouter(t, repo, mockOwner{owner: "x"})

		w := serve(router, http.MethodGet, "/api/v1/snapshots"+tt.query)

		if w.Code != http.StatusOK {
			t.Errorf("%q: status = %d, want 200", tt.query, w.Code)
		}
		if repo.lastListLimit != tt.wantLimit {
			t.Errorf("%q: limit = %d, want %d", tt.query, repo.lastListLimit, tt.wantLimit)
		}
		var result []snapshot.Snapshot
		json.NewDecoder(w.Body).Decode(&result)
		if len(result) != 2 {
			t.Errorf("%q: count = %d, want 2", tt.query, len(result))
		}
	}
}

func TestSnapshotsWithoutSession(t *testing.T) {
	owner := mockOwner{err: errors.Join(errors.New("resolving owner"), session.ErrNotLoggedIn)}
	router := snapshotRouter(t, &mockSnapshots{}, owner)

	if w := serve(router, http.MethodGet, "/api/v1/snapshots"); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
