package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mtlprog/wealth/internal/snapshot"
)

// Snapshots reads the overview archive.
type Snapshots interface {
	GetLatest(ctx context.Context, owner string) (*snapshot.Snapshot, error)
	GetByDate(ctx context.Context, owner string, date time.Time) (*snapshot.Snapshot, error)
	List(ctx context.Context, owner string, limit int) ([]snapshot.Snapshot, error)
}

// OwnerResolver names the user whose archive is served.
type OwnerResolver interface {
	Owner(ctx context.Context) (string, error)
}

// SnapshotHandler provides the archive endpoints.
type SnapshotHandler struct {
	snapshots Snapshots
	owner     OwnerResolver
}

// NewSnapshotHandler creates a new archive handler.
func NewSnapshotHandler(snapshots Snapshots, owner OwnerResolver) *SnapshotHandler {
	return &SnapshotHandler{snapshots: snapshots, owner: owner}
}

func (h *SnapshotHandler) resolveOwner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner, err := h.owner.Owner(r.Context())
	if err != nil {
		slog.Warn("failed to resolve snapshot owner", "error", err)
		writeFailure(w, err)
		return "", false
	}
	return owner, true
}

// GetLatestSnapshot handles GET /api/v1/snapshots/latest.
func (h *SnapshotHandler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.resolveOwner(w, r)
	if !ok {
		return
	}
	s, err := h.snapshots.GetLatest(r.Context(), owner)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no snapshots found")
			return
		}
		slog.Error("failed to get latest snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetSnapshotByDate handles GET /api/v1/snapshots/{date}.
func (h *SnapshotHandler) GetSnapshotByDate(w http.ResponseWriter, r *http.Request) {
	dateStr := chi.URLParam(r, "date")
	date, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	owner, ok := h.resolveOwner(w, r)
	if !ok {
		return
	}
	s, err := h.snapshots.GetByDate(r.Context(), owner, date)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "snapshot not found for date")
			return
		}
		slog.Error("failed to get snapshot by date", "date", dateStr, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ListSnapshots handles GET /api/v1/snapshots.
func (h *SnapshotHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	const maxLimit = 365
	limit := 30
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}

	owner, ok := h.resolveOwner(w, r)
	if !ok {
		return
	}
	snapshots, err := h.snapshots.List(r.Context(), owner, limit)
	if err != nil {
		slog.Error("failed to list snapshots", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, snapshots)
}
