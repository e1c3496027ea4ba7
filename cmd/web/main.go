package main

import (
	"context"
	"encoding/gob"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/myrjola/casemate/internal/ai"
	"github.com/myrjola/casemate/internal/backend"
	"github.com/myrjola/casemate/internal/config"
	"github.com/myrjola/casemate/internal/errors"
	"github.com/myrjola/casemate/internal/investigation"
	"github.com/myrjola/casemate/internal/logging"
	"github.com/myrjola/casemate/internal/models"
	"github.com/myrjola/casemate/internal/pprofserver"
)

type application struct {
	logger         *slog.Logger
	aggregator     *investigation.Aggregator
	forwarder      *investigation.Forwarder
	images         backend.ImageSource
	assistant      *ai.Client
	sessionManager *scs.SessionManager
}

func run(ctx context.Context, logger *slog.Logger, lookupEnv func(string) (string, bool)) error {
	cfg, err := config.Load(lookupEnv)
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	if cfg.PprofAddr != "" {
		pprofserver.Launch(ctx, cfg.PprofAddr, logger)
	}

	// The database always holds the sessions, and for the tables backend the cases too.
	db, err := cfg.OpenDatabase(ctx, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			closeErr = errors.Wrap(closeErr, "close database")
			logger.LogAttrs(ctx, slog.LevelError, "failed to close database", errors.SlogError(closeErr))
		}
	}()
	logger.LogAttrs(ctx, slog.LevelInfo, "connected to db", slog.String("backend", cfg.Backend))

	store, err := cfg.OpenBackend(db, logger)
	if err != nil {
		return errors.Wrap(err, "open backend")
	}

	gob.Register(models.Case{})
	sessionManager := scs.New()
	sessionStore := sqlite3store.NewWithCleanupInterval(db.ReadWrite, 24*time.Hour) //nolint:mnd // daily cleanup
	defer sessionStore.StopCleanup()
	sessionManager.Store = sessionStore
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Cookie.Name = "casemate_session"

	app := application{
		logger:         logger,
		aggregator:     investigation.NewAggregator(store, logger),
		forwarder:      investigation.NewForwarder(store, logger),
		assistant:      cfg.AIClient(logger),
		sessionManager: sessionManager,
	}
	if images, ok := store.(backend.ImageSource); ok {
		app.images = images
	}
	if !app.assistant.Configured() {
		logger.LogAttrs(ctx, slog.LevelWarn, "CASEMATE_AI_API_KEY is not set, the assistant answers with canned replies")
	}

	return app.configureAndStartServer(ctx, cfg.Addr)
}

func main() {
	ctx := context.Background()
	logger := logging.NewLogger(os.Stdout, slog.LevelDebug, true)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		err = errors.Wrap(err, "load .env")
		logger.LogAttrs(ctx, slog.LevelError, "failure loading environment", errors.SlogError(err))
		os.Exit(1)
	}

	if err := run(ctx, logger, os.LookupEnv); err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "failure starting application", errors.SlogError(err))
		os.Exit(1)
	}
}
