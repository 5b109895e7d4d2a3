package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/wealth/internal/api"
	"github.com/mtlprog/wealth/internal/database"
	"github.com/mtlprog/wealth/internal/domain"
	"github.com/mtlprog/wealth/internal/export"
	"github.com/mtlprog/wealth/internal/snapshot"
	"github.com/mtlprog/wealth/internal/worker"
)

// openArchive connects to the snapshot database when DATABASE_URL is set.
// A nil pool means the archive is disabled.
func openArchive(ctx context.Context, d *deps) (*pgxpool.Pool, error) {
	if d.cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, snapshot archive disabled")
		return nil, nil
	}
	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	return database.Open(ctx, d.cfg.DatabaseURL, migrations)
}

// exportService builds the configured spreadsheet writers. It returns nil
// when no destination is configured.
func exportService(ctx context.Context, d *deps, file string) (*export.Service, error) {
	var writers []export.Writer
	if file != "" {
		writers = append(writers, export.NewXLSXWriter(file))
	}
	if d.cfg.SheetsSpreadsheet != "" && d.cfg.SheetsCredentials != "" {
		sw, err := export.NewSheetsWriter(ctx, d.cfg.SheetsSpreadsheet, d.cfg.SheetsCredentials)
		if err != nil {
			return nil, err
		}
		writers = append(writers, sw)
	}
	if len(writers) == 0 {
		return nil, nil
	}
	return export.NewService(d.board, writers...), nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the dashboard API with background sync and daily snapshots",
		Action: withDeps(func(c *cli.Context, d *deps) error {
			ctx := c.Context

			pool, err := openArchive(ctx, d)
			if err != nil {
				return err
			}
			if pool != nil {
				defer pool.Close()
			}

			exporter, err := exportService(ctx, d, d.cfg.ExportFile)
			if err != nil {
				return err
			}

			if d.session.IsLoggedIn() {
				if err := d.portfolio.Sync(ctx); err != nil {
					slog.Warn("initial sync failed", "error", err)
				}
			} else {
				slog.Warn("not logged in, run `wealth login` to populate the dashboard")
			}
			go worker.NewSyncWorker(d.portfolio, d.session, d.cfg.SyncInterval).Run(ctx)

			opts := api.Options{AdminAPIKey: d.cfg.AdminAPIKey}
			if pool != nil {
				snapshots := snapshot.NewService(d.board, snapshot.NewPgRepository(pool))
				opts.Snapshots = api.NewSnapshotHandler(snapshots, d.session)

				var hook worker.AfterSnapshotHook
				if exporter != nil {
					hook = exporter
				}
				go worker.NewReportWorker(snapshots, d.session, d.cfg.ReportInterval, hook).Run(ctx)
			}

			if d.cfg.AdminAPIKey == "" {
				slog.Warn("ADMIN_API_KEY not set, API is unprotected", "host", d.cfg.HTTPHost)
			}

			handler := api.NewHandler(d.portfolio, d.board, d.registry, d.cfg.ChartMaxPoints)
			srv := api.NewServer(d.cfg.HTTPHost, d.cfg.HTTPPort, handler, opts)

			errCh := make(chan error, 1)
			go func() {
				slog.Info("HTTP server listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				return fmt.Errorf("HTTP server: %w", err)
			}
			slog.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server shutdown error", "error", err)
			}
			slog.Info("shutdown complete")
			return nil
		}),
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "write the overview to an .xlsx file and, when configured, Google Sheets",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Value: "wealth.xlsx", Usage: "workbook path"},
			&cli.IntFlag{Name: "history", Value: 365, Usage: "archived days to include"},
		},
		Action: withDeps(func(c *cli.Context, d *deps) error {
			ctx := c.Context
			file := c.String("out")
			if !c.IsSet("out") && d.cfg.ExportFile != "" {
				file = d.cfg.ExportFile
			}
			exporter, err := exportService(ctx, d, file)
			if err != nil {
				return err
			}

			if err := d.portfolio.Sync(ctx); err != nil {
				return err
			}
			summary := snapshot.Summarize(d.board.Overview(), domain.Today())

			var history []snapshot.Summary
			pool, err := openArchive(ctx, d)
			if err != nil {
				return err
			}
			if pool != nil {
				defer pool.Close()
				owner, err := d.session.Owner(ctx)
				if err != nil {
					return err
				}
				snapshots := snapshot.NewService(d.board, snapshot.NewPgRepository(pool))
				if history, err = snapshots.Summaries(ctx, owner, c.Int("history")); err != nil {
					return err
				}
			}

			if err := exporter.Write(ctx, exporter.BuildReport(summary, history)); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Exported %s to %s\n", summary.TotalLabel, file)
			return nil
		}),
	}
}
