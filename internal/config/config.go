// Package config reads the Casemate environment and builds the components it selects.
package config

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/myrjola/casemate/internal/ai"
	"github.com/myrjola/casemate/internal/backend"
	"github.com/myrjola/casemate/internal/backend/restapi"
	"github.com/myrjola/casemate/internal/backend/static"
	"github.com/myrjola/casemate/internal/backend/tables"
	"github.com/myrjola/casemate/internal/envstruct"
	"github.com/myrjola/casemate/internal/errors"
	"github.com/myrjola/casemate/internal/sqlite"
)

// Backend kinds selectable with CASEMATE_BACKEND.
const (
	BackendTables = "tables"
	BackendREST   = "rest"
	BackendStatic = "static"
)

// ErrUnknownBackend is returned for CASEMATE_BACKEND values other than the Backend* constants.
var ErrUnknownBackend = errors.NewSentinel("unknown backend")

type Config struct {
	// Addr is the address the web service listens on.
	Addr string `env:"CASEMATE_ADDR" envDefault:"localhost:4000"`
	// Backend is one of tables, rest, or static.
	Backend    string `env:"CASEMATE_BACKEND" envDefault:"tables"`
	SqliteURL  string `env:"CASEMATE_SQLITE_URL" envDefault:"./casemate.sqlite"`
	Seed       bool   `env:"CASEMATE_SEED" envDefault:"true"`
	RestURL    string `env:"CASEMATE_REST_URL" envDefault:"http://localhost:8000"`
	StaticPath string `env:"CASEMATE_STATIC_PATH" envDefault:"./case.json"`
	AIBaseURL  string `env:"CASEMATE_AI_BASE_URL" envDefault:"https://ai.hackclub.com/proxy/v1"`
	AIAPIKey   string `env:"CASEMATE_AI_API_KEY" envDefault:""`
	AIModel    string `env:"CASEMATE_AI_MODEL" envDefault:"gpt-4o"`
	// PprofAddr enables the profiling server on the loopback interface when set, e.g. ":6060".
	PprofAddr       string        `env:"CASEMATE_PPROF_ADDR" envDefault:""`
	SessionLifetime time.Duration `env:"CASEMATE_SESSION_LIFETIME" envDefault:"12h"`
	// RequestTimeout bounds REST backend calls. Zero leaves them unbounded.
	RequestTimeout  time.Duration `env:"CASEMATE_REQUEST_TIMEOUT" envDefault:"0s"`
}

// Load reads the configuration with lookupEnv, which has the signature of [os.LookupEnv].
func Load(lookupEnv func(string) (string, bool)) (Config, error) {
	var cfg Config
	if err := envstruct.Populate(&cfg, lookupEnv); err != nil {
		return Config{}, errors.Wrap(err, "populate config")
	}
	switch cfg.Backend {
	case BackendTables, BackendREST, BackendStatic:
	default:
		return Config{}, errors.Wrap(ErrUnknownBackend, "validate config", slog.String("backend", cfg.Backend))
	}
	return cfg, nil
}

// NeedsDatabase reports whether the selected backend keeps its data in SQLite.
func (c Config) NeedsDatabase() bool {
	return c.Backend == BackendTables
}

// OpenDatabase connects to the SQLite database. The demo case is only seeded when the tables backend reads it.
func (c Config) OpenDatabase(ctx context.Context, logger *slog.Logger) (*sqlite.Database, error) {
	db, err := sqlite.NewDatabase(ctx, c.SqliteURL, c.Seed && c.NeedsDatabase(), logger)
	if err != nil {
		return nil, errors.Wrap(err, "open database", slog.String("url", c.SqliteURL))
	}
	return db, nil
}

// OpenBackend builds the selected backend. db is only used by the tables backend and may be nil otherwise.
func (c Config) OpenBackend(db *sqlite.Database, logger *slog.Logger) (backend.Store, error) {
	switch c.Backend {
	case BackendTables:
		if db == nil {
			return nil, errors.New("tables backend needs a database")
		}
		return tables.New(db, logger), nil
	case BackendREST:
		httpClient := &http.Client{Timeout: c.RequestTimeout}
		return restapi.NewClient(c.RestURL, httpClient, logger), nil
	case BackendStatic:
		dir, name := filepath.Split(c.StaticPath)
		if dir == "" {
			dir = "."
		}
		return static.NewStore(os.DirFS(dir), name), nil
	default:
		return nil, errors.Wrap(ErrUnknownBackend, "open backend", slog.String("backend", c.Backend))
	}
}

// AIClient builds the assistant client.
func (c Config) AIClient(logger *slog.Logger) *ai.Client {
	return ai.NewClient(ai.Config{BaseURL: c.AIBaseURL, APIKey: c.AIAPIKey, Model: c.AIModel}, logger)
}
