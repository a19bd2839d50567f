// Package server wires the sync API: storage, services and the HTTP server.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/dmitrijs2005/notesync/internal/server/config"
	"github.com/dmitrijs2005/notesync/internal/server/httpapi"
	"github.com/dmitrijs2005/notesync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/notesync/internal/server/services"
	"github.com/sethvargo/go-retry"
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	logCloser io.Closer
	db        *sql.DB
	server    *httpapi.Server
}

// NewApp connects to the database, applies migrations and builds the
// HTTP server. The connection is retried while postgres is starting up.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, closer := logging.New(logging.Options{Level: cfg.LogLevel, JSON: true})

	db, err := openDB(ctx, cfg.DatabaseDSN)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := newApp(ctx, cfg, logger, db, repomanager.NewPostgresRepositoryManager())
	if err != nil {
		db.Close()
		closer.Close()
		return nil, err
	}
	app.logCloser = closer
	return app, nil
}

func newApp(ctx context.Context, cfg *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) (*App, error) {
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	us := services.NewUserService(db, rm, cfg)
	rs := services.NewRecordService(db, rm)

	srv := httpapi.NewServer(cfg.EndpointAddr, logger, us, rs, httpapi.Options{
		SecretKey:       cfg.SecretKey,
		RateLimitRPS:    cfg.RateLimitRPS,
		RateLimitBurst:  cfg.RateLimitBurst,
		ShutdownTimeout: cfg.ShutdownTimeout,
	})

	return &App{config: cfg, logger: logger, db: db, server: srv}, nil
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	b := retry.WithMaxRetries(4, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Run serves until ctx is cancelled, then releases the database.
func (app *App) Run(ctx context.Context) error {
	app.logger.Info(ctx, "Starting app...")
	defer app.close(ctx)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server stopped", "error", err)
		return err
	}

	app.logger.Info(ctx, "App stopped")
	return nil
}

func (app *App) close(ctx context.Context) {
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing db", "error", err)
	}
	if app.logCloser != nil {
		app.logCloser.Close()
	}
}
