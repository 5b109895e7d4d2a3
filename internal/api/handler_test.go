package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/wealth/internal/backend"
	"github.com/mtlprog/wealth/internal/dashboard"
	"github.com/mtlprog/wealth/internal/domain"
	"github.com/mtlprog/wealth/internal/session"
	"github.com/mtlprog/wealth/internal/store"
)

type mockPortfolio struct {
	syncErr   error
	syncCalls int
	linkErr   error
	callback  domain.BankLinkCallback
}

func (m *mockPortfolio) Sync(_ context.Context) error {
	m.syncCalls++
	return m.syncErr
}

func (m *mockPortfolio) CompleteBankLink(_ context.Context, cb domain.BankLinkCallback) ([]domain.Account, error) {
	m.callback = cb
	if m.linkErr != nil {
		return nil, m.linkErr
	}
	return []domain.Account{{AccountID: "acc-1"}}, nil
}

func balance(date string, euro int64) domain.BalancePoint {
	return domain.BalancePoint{Date: date, Amount: decimal.NewFromInt(euro), AmountInEuro: decimal.NewFromInt(euro)}
}

func newTestRouter(t *testing.T, p *mockPortfolio, opts Options) (http.Handler, *store.Registry) {
	t.Helper()
	reg := store.NewRegistry()
	reg.Accounts.Upsert(domain.Account{AccountID: "b", Balances: []domain.BalancePoint{balance("2024-01-01", 10), balance("2024-01-02", 20)}})
	reg.Accounts.Upsert(domain.Account{AccountID: "a", Balances: []domain.BalancePoint{balance("2024-01-02", 5)}})
	reg.Positions.Upsert(domain.StockPosition{PositionID: "p1", Ticker: "AAPL", Balances: []domain.BalancePoint{balance("2024-01-02", 70)}})
	board := dashboard.NewBoard(reg, 200)
	return NewRouter(NewHandler(p, board, reg, 200), opts), reg
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGetOverview(t *testing.T) {
	router, _ := newTestRouter(t, &mockPortfolio{}, Options{})

	w := serve(router, http.MethodGet, "/api/v1/overview")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var ov dashboard.Overview
	if err := json.NewDecoder(w.Body).Decode(&ov); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !ov.Total.Equal(decimal.NewFromInt(95)) {
		t.Errorf("total = %s, want 95", ov.Total)
	}
	if len(ov.Series) != len(store.Kinds) {
		t.Errorf("series = %d, want one per kind", len(ov.Series))
	}
}

func TestGetOverviewPoints(t *testing.T) {
	router, _ := newTestRouter(t, &mockPortfolio{}, Options{})

	tests := []struct {
		query string
		want  int
	}{
		{"?points=1", http.StatusOK},
		{"?points=0", http.StatusBadRequest},
		{"?points=abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		w := serve(router, http.MethodGet, "/api/v1/overview"+tt.query)
		if w.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.query, w.Code, tt.want)
		}
	}

	w := serve(router, http.MethodGet, "/api/v1/overview?points=1")
	var ov dashboard.Overview
	json.NewDecoder(w.Body).Decode(&ov)
	for _, s := range ov.Series {
		if len(s.Points) != 1 {
			t.Errorf("%s points = %d, want 1", s.Kind, len(s.Points))
		}
	}
}

func TestListAccountsSortedByID(t *testing.T) {
	router, _ := newTestRouter(t, &mockPortfolio{}, Options{})

	w := serve(router, http.MethodGet, "/api/v1/accounts")

	var accounts []domain.Account
	json.NewDecoder(w.Body).Decode(&accounts)
	if len(accounts) != 2 || accounts[0].AccountID != "a" {
		t.Errorf("accounts = %+v, want a then b", accounts)
	}
}

func TestListEmptyAssets(t *testing.T) {
	router, _ := newTestRouter(t, &mockPortfolio{}, Options{})

	w := serve(router, http.MethodGet, "/api/v1/assets")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var assets []domain.CustomAsset
	json.NewDecoder(w.Body).Decode(&assets)
	if len(assets) != 0 {
		t.Errorf("assets = %v, want none", assets)
	}
}

func TestGetGraph(t *testing.T) {
	router, _ := newTestRouter(t, &mockPortfolio{}, Options{})

	w := serve(router, http.MethodGet, "/api/v1/graphs/banks?ids=b")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var g dashboard.Graph
	json.NewDecoder(w.Body).Decode(&g)
	if g.Kind != store.KindBanks || len(g.Points) != 2 {
		t.Errorf("graph = %+v, want 2 bank points", g)
	}
	if !g.Latest.Equal(decimal.NewFromInt(20)) {
		t.Errorf("latest = %s, want 20 (account a excluded)", g.Latest)
	}
}

func TestGetGraphInvalidInput(t *testing.T) {
	router, _ := newTestRouter(t, &mockPortfolio{}, Options{})

	if w := serve(router, http.MethodGet, "/api/v1/graphs/crypto"); w.Code != http.StatusNotFound {
		t.Errorf("unknown kind status = %d, want 404", w.Code)
	}
	if w := serve(router, http.MethodGet, "/api/v1/graphs/stocks?months=x"); w.Code != http.StatusBadRequest {
		t.Errorf("bad months status = %d, want 400", w.Code)
	}
	if w := serve(router, http.MethodGet, "/api/v1/graphs/stocks?months=7"); w.Code != http.StatusBadRequest {
		t.Errorf("unlisted months status = %d, want 400", w.Code)
	}
}

func TestSync(t *testing.T) {
	p := &mockPortfolio{}
	router, _ := newTestRouter(t, p, Options{})

	w := serve(router, http.MethodPost, "/api/v1/sync")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if p.syncCalls != 1 {
		t.Errorf("sync calls = %d, want 1", p.syncCalls)
	}
	var counts map[string]int
	json.NewDecoder(w.Body).Decode(&counts)
	if counts["accounts"] != 2 || counts["positions"] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestSyncErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"session expired", errors.Join(errors.New("x"), session.ErrSessionExpired), http.StatusUnauthorized},
		{"not logged in", session.ErrNotLoggedIn, http.StatusUnauthorized},
		{"backend 404", &backend.Error{StatusCode: http.StatusNotFound}, http.StatusNotFound},
		{"backend 500", &backend.Error{StatusCode: http.StatusInternalServerError}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _ := newTestRouter(t, &mockPortfolio{syncErr: tt.err}, Options{})
			w := serve(router, http.MethodPost, "/api/v1/sync")
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestSyncRequiresAdminKey(t *testing.T) {
	p := &mockPortfolio{}
	router, _ := newTestRouter(t, p, Options{AdminAPIKey: "secret"})

	if w := serve(router, http.MethodPost, "/api/v1/sync"); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if p.syncCalls != 1 {
		t.Errorf("sync calls = %d, want 1", p.syncCalls)
	}
}

func TestAdminKeyProtectsReadRoutes(t *testing.T) {
	router, _ := newTestRouter(t, &mockPortfolio{}, Options{AdminAPIKey: "secret"})

	for _, path := range []string{"/api/v1/overview", "/api/v1/accounts", "/api/v1/graphs/banks"} {
		if w := serve(router, http.MethodGet, path); w.Code != http.StatusUnauthorized {
			t.Errorf("%s without key: status = %d, want 401", path, w.Code)
		}
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer secret")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s with key: status = %d, want 200", path, w.Code)
		}
	}

	if w := serve(router, http.MethodGet, "/callback?code=abc&credentialsId=c"); w.Code != http.StatusOK {
		t.Errorf("callback status = %d, want 200 without key", w.Code)
	}
}

func TestNewServerAddr(t *testing.T) {
	h := NewHandler(&mockPortfolio{}, dashboard.NewBoard(store.NewRegistry(), 0), store.NewRegistry(), 0)
	tests := []struct {
		host, port, want string
	}{
		{"127.0.0.1", "8080", "127.0.0.1:8080"},
		{"", "9000", ":9000"},
		{"::1", "8080", "[::1]:8080"},
	}
	for _, tt := range tests {
		if got := NewServer(tt.host, tt.port, h, Options{}).Addr; got != tt.want {
			t.Errorf("NewServer(%q, %q).Addr = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestBankLinkCallback(t *testing.T) {
	p := &mockPortfolio{}
	router, _ := newTestRouter(t, p, Options{})

	w := serve(router, http.MethodGet, "/callback?code=abc&credentialsId=cred-1")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if p.callback.Code != "abc" || p.callback.CredentialsID != "cred-1" {
		t.Errorf("callback = %+v", p.callback)
	}
}

func TestBankLinkCallbackValidation(t *testing.T) {
	p := &mockPortfolio{linkErr: domain.ValidationErrors{"code": "is required"}}
	router, _ := newTestRouter(t, p, Options{})

	w := serve(router, http.MethodGet, "/callback")

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["error"] == "" {
		t.Error("expected an error message")
	}
}

func TestSnapshotRoutesDisabledWithoutArchive(t *testing.T) {
	router, _ := newTestRouter(t, &mockPortfolio{}, Options{})

	if w := serve(router, http.MethodGet, "/api/v1/snapshots"); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
