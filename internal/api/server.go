package api

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Options configures the router.
type Options struct {
	// AdminAPIKey protects every /api/v1 route when non-empty. The bank
	// link callback stays open since the provider redirects the browser
	// there.
	AdminAPIKey string
	// Snapshots enables the archive routes when non-nil.
	Snapshots *SnapshotHandler
}

// NewRouter builds the dashboard API routes.
func NewRouter(h *Handler, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/callback", h.BankLinkCallback)

	r.Route("/api/v1", func(r chi.Router) {
		if opts.AdminAPIKey != "" {
			r.Use(func(next http.Handler) http.Handler {
				return requireAuth(opts.AdminAPIKey, next)
			})
		}

		r.Get("/overview", h.GetOverview)
		r.Get("/accounts", h.ListAccounts)
		r.Get("/positions", h.ListPositions)
		r.Get("/assets", h.ListAssets)
		r.Get("/graphs/{kind}", h.GetGraph)

		r.Post("/sync", h.Sync)

		if s := opts.Snapshots; s != nil {
			r.Get("/snapshots", s.ListSnapshots)
			r.Get("/snapshots/latest", s.GetLatestSnapshot)
			r.Get("/snapshots/{date}", s.GetSnapshotByDate)
		}
	})

	return r
}

// NewServer creates an HTTP server with all routes configured, listening on
// host:port.
func NewServer(host, port string, h *Handler, opts Options) *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort(host, port),
		Handler:      NewRouter(h, opts),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
