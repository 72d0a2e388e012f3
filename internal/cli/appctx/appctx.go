// Package appctx provides a shared bootstrap helper for CLI commands.
// It centralizes config loading, logger setup, and database opening to
// reduce boilerplate across commands.
package appctx

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lherron/tosum/internal/config"
	"github.com/lherron/tosum/internal/db"
	"github.com/lherron/tosum/internal/logging"
	"github.com/lherron/tosum/internal/store"
	"github.com/lherron/tosum/internal/tosum"
	"github.com/lherron/tosum/internal/webhooks"
)

// App holds the shared application context for commands.
type App struct {
	// Config is the loaded configuration, with flag overrides applied
	Config *config.Config

	// Logger writes structured logs to stderr
	Logger *zap.Logger

	// DB is the opened database connection (nil if NeedsDB is false)
	DB *db.DB

	// Store and Service are built over DB (nil if NeedsDB is false)
	Store   *store.Store
	Service *tosum.Service
}

// Close releases resources held by the App.
// Safe to call multiple times.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
		a.DB = nil
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
}

// Options configures the bootstrap behavior.
type Options struct {
	// NeedsDB indicates whether to open the database.
	NeedsDB bool

	// AllowPending skips the pending-migration check, for commands that
	// create or migrate the schema themselves.
	AllowPending bool
}

// DefaultOptions returns default options (DB required, schema up to date).
func DefaultOptions() Options {
	return Options{NeedsDB: true}
}

// RunFunc is the signature for command run functions.
type RunFunc func(app *App, cmd *cobra.Command, args []string) error

// WithApp wraps a command's run function with shared bootstrap logic.
// The database is closed automatically when the wrapped function returns.
func WithApp(opts Options, fn RunFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := Bootstrap(cmd, opts)
		if err != nil {
			return err
		}
		defer app.Close()

		return fn(app, cmd, args)
	}
}

// Bootstrap initializes the App according to the given options.
// Callers are responsible for calling App.Close() when done.
func Bootstrap(cmd *cobra.Command, opts Options) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, cfg)

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger}

	if !opts.NeedsDB {
		return app, nil
	}

	database, err := db.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	app.DB = database

	if !opts.AllowPending {
		if err := database.RequiresMigrationError(); err != nil {
			app.Close()
			return nil, err
		}
	}

	app.Store = store.New(database,
		store.WithLogger(logger),
		store.WithStrictOrphans(cfg.StrictOrphans))
	var serviceOpts []tosum.Option
	if len(cfg.WebhookURLs) > 0 {
		serviceOpts = append(serviceOpts, tosum.WithWebhooks(webhooks.NewDispatcher(cfg.WebhookURLs, logger)))
	}
	app.Service = tosum.New(app.Store, logger, serviceOpts...)

	logger.Debug("bootstrap complete",
		zap.String("driver", database.Driver()),
		zap.Bool("strict_orphans", cfg.StrictOrphans))
	return app, nil
}

// applyFlags overrides config values with persistent flags when set.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	set := func(name string, dst *string) {
		if f := cmd.Flag(name); f != nil && f.Value.String() != "" {
			*dst = f.Value.String()
		}
	}
	set("db", &cfg.DSN)
	set("driver", &cfg.Driver)
	set("log-level", &cfg.LogLevel)
	set("format", &cfg.Output)
	if f := cmd.Flag("strict-orphans"); f != nil && f.Changed {
		cfg.StrictOrphans = f.Value.String() == "true"
	}
}
