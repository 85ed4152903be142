package ingest

import (
	"context"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/funnel-cli/internal/db"
	"github.com/sells-group/funnel-cli/internal/model"
)

// Source drivers.
const (
	DriverFile       = "file"
	DriverSQLite     = "sqlite"
	DriverPostgres   = "postgres"
	DriverClickHouse = "clickhouse"
)

// SourceConfig selects and parameterises an event source.
type SourceConfig struct {
	Driver      string `mapstructure:"driver"`
	Path        string `mapstructure:"path"`
	DatabaseURL string `mapstructure:"database_url"`
	Table       string `mapstructure:"table"`
	Limit       int    `mapstructure:"limit"`
}

// Open builds the Loader for cfg. The returned closer releases any
// connection the loader holds and must be called after Load.
func Open(ctx context.Context, cfg SourceConfig, dimensions []string) (Loader, io.Closer, error) {
	switch cfg.Driver {
	case "", DriverFile:
		return &FileLoader{Path: cfg.Path, Dimensions: dimensions}, nopCloser{}, nil

	case DriverSQLite:
		path := cfg.Path
		if path == "" {
			path = cfg.DatabaseURL
		}
		if path == "" {
			return nil, nil, model.NewConfigError("source.path", "sqlite source needs a database path")
		}
		sqlDB, err := OpenSQLite(path)
		if err != nil {
			return nil, nil, err
		}
		return &SQLiteLoader{DB: sqlDB, Table: cfg.Table, Limit: cfg.Limit, Dimensions: dimensions}, sqlDB, nil

	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, nil, model.NewConfigError("source.database_url", "postgres source needs a database url")
		}
		pool, err := db.Open(ctx, cfg.DatabaseURL, db.PoolConfig{MaxConns: 4})
		if err != nil {
			return nil, nil, eris.Wrap(err, "ingest: connect postgres")
		}
		return &PostgresLoader{Pool: pool, Table: cfg.Table, Limit: cfg.Limit, Dimensions: dimensions}, closeFunc(func() error { pool.Close(); return nil }), nil

	case DriverClickHouse:
		if cfg.DatabaseURL == "" {
			return nil, nil, model.NewConfigError("source.database_url", "clickhouse source needs a database url")
		}
		conn, err := OpenClickHouse(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return &ClickHouseLoader{Conn: conn, Table: cfg.Table, Limit: cfg.Limit, Dimensions: dimensions}, conn, nil

	default:
		return nil, nil, model.NewConfigError("source.driver", "unknown driver "+cfg.Driver)
	}
}

// Load opens cfg, loads one batch and closes the source.
func Load(ctx context.Context, cfg SourceConfig, dimensions []string) (*Batch, error) {
	loader, closer, err := Open(ctx, cfg, dimensions)
	if err != nil {
		return nil, err
	}
	defer closer.Close() //nolint:errcheck
	return loader.Load(ctx)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type closeFunc func() error

func (f closeFunc) Close() error { return f() }
