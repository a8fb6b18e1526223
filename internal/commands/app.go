package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spendiq/spendiq/internal/accounts"
	"github.com/spendiq/spendiq/internal/activity"
	"github.com/spendiq/spendiq/internal/analytic"
	"github.com/spendiq/spendiq/internal/api"
	"github.com/spendiq/spendiq/internal/budget"
	"github.com/spendiq/spendiq/internal/config"
	"github.com/spendiq/spendiq/internal/invoice"
	"github.com/spendiq/spendiq/internal/journal"
	"github.com/spendiq/spendiq/internal/store"
)

const (
	logsDir    = "logs"
	dotenvFile = ".env"
)

// app is an opened project: config, database and the services over it.
type app struct {
	dir   string
	cfg   *config.Config
	log   *slog.Logger
	store *store.Store
	svc   api.Services
}

// openApp loads <dir>/spendiq.yaml, applies .env and SPENDIQ_* overrides and
// opens the database. actor is written into the activity log.
func openApp(dir, actor string, logOut io.Writer) (*app, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	cfg, err := config.Load(filepath.Join(absDir, config.FileName))
	if err != nil {
		return nil, fmt.Errorf("%w (run 'spendiq init' first)", err)
	}
	if err := config.ApplyEnv(cfg, filepath.Join(absDir, dotenvFile)); err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Log, logOut)
	if err != nil {
		return nil, err
	}

	dbPath := cfg.Database.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(absDir, dbPath)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("database opened", "db_path", dbPath)

	rec := activity.NewLog(filepath.Join(absDir, logsDir), actor)
	j := journal.NewService(st, logger, rec)

	return &app{
		dir:   absDir,
		cfg:   cfg,
		log:   logger,
		store: st,
		svc: api.Services{
			Accounts: accounts.NewService(st, logger),
			Analytic: analytic.NewService(st, logger, rec),
			Journal:  j,
			Invoices: invoice.NewService(st, j, accounts.SystemAccountsFrom(cfg.SystemAccounts), logger, rec),
			Budgets:  budget.NewService(st, logger, rec),
		},
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// withApp opens the project for the duration of fn. Logs go to stderr so
// command output on stdout stays clean.
func withApp(dir string, fn func(a *app) error) error {
	a, err := openApp(dir, "cli", os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(cfg.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}
