package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/mtlprog/wealth/internal/domain"
	"github.com/mtlprog/wealth/internal/snapshot"
)

// SnapshotGenerator archives the overview of owner for a date.
type SnapshotGenerator interface {
	Generate(ctx context.Context, owner string, date time.Time) (snapshot.Summary, error)
}

// OwnerResolver names the user whose overview is archived.
type OwnerResolver interface {
	Owner(ctx context.Context) (string, error)
}

// AfterSnapshotHook is called after each successful snapshot generation.
type AfterSnapshotHook interface {
	Export(ctx context.Context, summary snapshot.Summary) error
}

// ReportWorker periodically archives the overview.
type ReportWorker struct {
	generator SnapshotGenerator
	owner     OwnerResolver
	interval  time.Duration
	hook      AfterSnapshotHook // optional
}

// NewReportWorker creates a new ReportWorker with an optional post-generation hook.
func NewReportWorker(generator SnapshotGenerator, owner OwnerResolver, interval time.Duration, hook AfterSnapshotHook) *ReportWorker {
	return &ReportWorker{
		generator: generator,
		owner:     owner,
		interval:  interval,
		hook:      hook,
	}
}

func (w *ReportWorker) runHook(ctx context.Context, summary snapshot.Summary) {
	if w.hook == nil {
		return
	}
	if err := w.hook.Export(ctx, summary); err != nil {
		slog.Error("ReportWorker: export hook failed", "error", err)
	} else {
		slog.Info("ReportWorker: export hook completed")
	}
}

func (w *ReportWorker) generate(ctx context.Context, phase string) {
	owner, err := w.owner.Owner(ctx)
	if err != nil {
		slog.Warn("ReportWorker: no owner, skipping", "phase", phase, "error", err)
		return
	}
	summary, err := w.generator.Generate(ctx, owner, domain.Today())
	if err != nil {
		slog.Error("ReportWorker: generation failed", "phase", phase, "error", err)
		return
	}
	slog.Info("ReportWorker: generation completed", "phase", phase, "total", summary.TotalLabel)
	w.runHook(ctx, summary)
}

// Run starts the report worker loop. It blocks until the context is cancelled.
func (w *ReportWorker) Run(ctx context.Context) {
	slog.Info("ReportWorker: starting")

	w.generate(ctx, "initial")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("ReportWorker: shutting down")
			return
		case <-ticker.C:
			w.generate(ctx, "tick")
		}
	}
}
