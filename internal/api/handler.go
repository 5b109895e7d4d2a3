package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mtlprog/wealth/internal/backend"
	"github.com/mtlprog/wealth/internal/dashboard"
	"github.com/mtlprog/wealth/internal/domain"
	"github.com/mtlprog/wealth/internal/portfolio"
	"github.com/mtlprog/wealth/internal/series"
	"github.com/mtlprog/wealth/internal/session"
	"github.com/mtlprog/wealth/internal/store"
)

// Portfolio is the part of portfolio.Service the API drives.
type Portfolio interface {
	Sync(ctx context.Context) error
	CompleteBankLink(ctx context.Context, cb domain.BankLinkCallback) ([]domain.Account, error)
}

// Dashboard renders the chart views.
type Dashboard interface {
	OverviewWithPoints(maxPoints int) dashboard.Overview
	Graph(kind store.Kind, months int, ids ...string) dashboard.Graph
}

// Handler provides HTTP endpoints for the dashboard API.
type Handler struct {
	portfolio Portfolio
	board     Dashboard
	reg       *store.Registry
	maxPoints int
}

// NewHandler creates a new API handler. Entity listings are served from reg.
func NewHandler(p Portfolio, board Dashboard, reg *store.Registry, maxPoints int) *Handler {
	if maxPoints <= 0 {
		maxPoints = dashboard.DefaultMaxPoints
	}
	return &Handler{portfolio: p, board: board, reg: reg, maxPoints: maxPoints}
}

// GetOverview handles GET /api/v1/overview.
func (h *Handler) GetOverview(w http.ResponseWriter, r *http.Request) {
	points := h.maxPoints
	if p := r.URL.Query().Get("points"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "points must be a positive integer")
			return
		}
		points = n
	}
	writeJSON(w, http.StatusOK, h.board.OverviewWithPoints(points))
}

// ListAccounts handles GET /api/v1/accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.reg.Accounts.All())
}

// ListPositions handles GET /api/v1/positions.
func (h *Handler) ListPositions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.reg.Positions.All())
}

// ListAssets handles GET /api/v1/assets.
func (h *Handler) ListAssets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.reg.Assets.All())
}

// GetGraph handles GET /api/v1/graphs/{kind}?months=&ids=.
func (h *Handler) GetGraph(w http.ResponseWriter, r *http.Request) {
	kind, err := store.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	months := series.AllTime
	if m := r.URL.Query().Get("months"); m != "" {
		n, err := strconv.Atoi(m)
		if err != nil || !series.ValidMonths(n) {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("months must be one of %v", series.MonthOptions))
			return
		}
		months = n
	}

	var ids []string
	if raw := r.URL.Query().Get("ids"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}

	writeJSON(w, http.StatusOK, h.board.Graph(kind, months, ids...))
}

// Sync handles POST /api/v1/sync.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	if err := h.portfolio.Sync(r.Context()); err != nil {
		slog.Error("sync failed", "error", err)
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"accounts":  h.reg.Accounts.Len(),
		"positions": h.reg.Positions.Len(),
		"assets":    h.reg.Assets.Len(),
	})
}

// BankLinkCallback handles GET /callback, the redirect target of the bank
// link flow.
func (h *Handler) BankLinkCallback(w http.ResponseWriter, r *http.Request) {
	cb := domain.BankLinkCallback{
		Code:          r.URL.Query().Get("code"),
		CredentialsID: r.URL.Query().Get("credentialsId"),
	}
	accounts, err := h.portfolio.CompleteBankLink(r.Context(), cb)
	if err != nil {
		slog.Error("bank link completion failed", "error", err)
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// writeFailure maps a portfolio error to a status and a user-facing message.
func writeFailure(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	var verr domain.ValidationErrors
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrSessionExpired), errors.Is(err, session.ErrNotLoggedIn):
		status = http.StatusUnauthorized
	case errors.Is(err, context.Canceled):
		status = http.StatusServiceUnavailable
	case backend.StatusCode(err) == http.StatusNotFound:
		status = http.StatusNotFound
	}
	writeError(w, status, portfolio.UserMessage(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
