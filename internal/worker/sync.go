package worker

import (
	"context"
	"log/slog"
	"time"
)

// Syncer refreshes the cached entities and balances from the backend.
type Syncer interface {
	Sync(ctx context.Context) error
}

// LoginState reports whether a user session is available.
type LoginState interface {
	IsLoggedIn() bool
}

// SyncWorker periodically refreshes the caches while a user is logged in.
type SyncWorker struct {
	syncer   Syncer
	login    LoginState
	interval time.Duration
}

// NewSyncWorker creates a new SyncWorker. login may be nil.
func NewSyncWorker(syncer Syncer, login LoginState, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		syncer:   syncer,
		login:    login,
		interval: interval,
	}
}

func (w *SyncWorker) syncOnce(ctx context.Context, phase string) {
	if w.login != nil && !w.login.IsLoggedIn() {
		slog.Debug("SyncWorker: not logged in, skipping", "phase", phase)
		return
	}
	start := time.Now()
	if err := w.syncer.Sync(ctx); err != nil {
		slog.Error("SyncWorker: sync failed", "phase", phase, "error", err)
		return
	}
	slog.Info("SyncWorker: sync completed", "phase", phase, "duration", time.Since(start))
}

// Run starts the sync loop. It blocks until the context is cancelled.
func (w *SyncWorker) Run(ctx context.Context) {
	slog.Info("SyncWorker: starting", "interval", w.interval)

	w.syncOnce(ctx, "initial")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("SyncWorker: shutting down")
			return
		case <-ticker.C:
			w.syncOnce(ctx, "tick")
		}
	}
}
