package main

import (
	"context"
	"embed"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/wealth/internal/backend"
	"github.com/mtlprog/wealth/internal/config"
	"github.com/mtlprog/wealth/internal/dashboard"
	"github.com/mtlprog/wealth/internal/logging"
	"github.com/mtlprog/wealth/internal/portfolio"
	"github.com/mtlprog/wealth/internal/session"
	"github.com/mtlprog/wealth/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// deps is the object graph shared by all commands.
type deps struct {
	cfg       config.Config
	session   *session.Session
	client    *backend.Client
	registry  *store.Registry
	portfolio *portfolio.Service
	board     *dashboard.Board
	logCloser io.Closer
}

func newDeps(cfg config.Config) (*deps, error) {
	closer, err := logging.Setup(os.Stderr, cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	rule := session.AuthErrorRule{Statuses: cfg.AuthErrorStatuses, Details: cfg.AuthErrorDetails}
	sess, err := session.New(cfg.APIURL, session.NewFileStore(cfg.TokenFile), rule, nil, cfg.APITimeout)
	if err != nil {
		closer.Close()
		return nil, err
	}

	client := backend.NewClient(cfg.APIURL, sess.Transport(nil), cfg.APITimeout, cfg.APIRetryMax, cfg.APIRetryBaseDelay)
	reg := store.NewRegistry()
	sess.OnLogout(reg.ClearAll)

	return &deps{
		cfg:       cfg,
		session:   sess,
		client:    client,
		registry:  reg,
		portfolio: portfolio.NewService(client, reg, sess, cfg.FetchConcurrency),
		board:     dashboard.NewBoard(reg, cfg.ChartMaxPoints),
		logCloser: closer,
	}, nil
}

func (d *deps) Close() error { return d.logCloser.Close() }

// withDeps adapts an action that needs the object graph.
func withDeps(action func(c *cli.Context, d *deps) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		d, err := newDeps(config.Load())
		if err != nil {
			return err
		}
		defer d.Close()
		return runAction(c, d, action)
	}
}

// runAction logs the full error chain and exits with the short message a
// user can act on.
func runAction(c *cli.Context, d *deps, action func(c *cli.Context, d *deps) error) error {
	if err := action(c, d); err != nil {
		slog.Error("command failed", "command", c.Command.Name, "error", err)
		return cli.Exit(portfolio.UserMessage(err), 1)
	}
	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "wealth",
		Usage: "track bank accounts, stock positions and custom assets",
		Commands: []*cli.Command{
			loginCommand(),
			registerCommand(),
			logoutCommand(),
			whoamiCommand(),
			syncCommand(),
			accountsCommand(),
			positionsCommand(),
			assetsCommand(),
			overviewCommand(),
			graphCommand(),
			searchCommand(),
			linkBankCommand(),
			serveCommand(),
			exportCommand(),
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		slog.Error("command failed", "error", err)
		log.Fatal(err)
	}
}
