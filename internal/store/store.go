// Package store persists analysis runs so that results can be listed and
// re-read after the command that produced them has exited.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/funnel-cli/internal/model"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrRunNotFound is returned by GetRun for an unknown id.
var ErrRunNotFound = eris.New("run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Kind   model.RunKind `json:"kind,omitempty"`
	Source string        `json:"source,omitempty"`
	Limit  int           `json:"limit,omitempty"`
	Offset int           `json:"offset,omitempty"`
}

// Store defines the persistence interface for analysis runs.
type Store interface {
	// CreateRun assigns run.ID and run.CreatedAt when empty and inserts it.
	CreateRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	Migrate(ctx context.Context) error
	Close() error
}

// StepWriter is implemented by stores that keep a flat table of funnel
// step rows for BI tools.
type StepWriter interface {
	SaveFunnelSteps(ctx context.Context, runID string, funnels []model.ConversionFunnel) (int64, error)
}

// Config selects the store backend.
type Config struct {
	Driver      string `mapstructure:"driver"`
	DatabaseURL string `mapstructure:"database_url"`
}

// Open creates and migrates the configured store.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case "", DriverSQLite:
		s, err = NewSQLite(cfg.DatabaseURL)
	case DriverPostgres:
		s, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, model.NewConfigError("store.driver", "unknown driver "+cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func prepareRun(run *model.Run) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
}

func listLimit(filter RunFilter) int {
	if filter.Limit <= 0 {
		return 100
	}
	return filter.Limit
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var (
		r      model.Run
		kind   string
		params sql.NullString
		result sql.NullString
	)
	if err := row.Scan(&r.ID, &kind, &r.Source, &params, &result, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Kind = model.RunKind(kind)
	if params.Valid && params.String != "" {
		r.Params = []byte(params.String)
	}
	if result.Valid && result.String != "" {
		r.Result = []byte(result.String)
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func seconds(d *time.Duration) any {
	if d == nil {
		return nil
	}
	return d.Seconds()
}
