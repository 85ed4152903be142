package store

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/funnel-cli/internal/db"
	"github.com/sells-group/funnel-cli/internal/model"
)

// PostgresStore implements Store and StepWriter using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

var (
	_ Store      = (*PostgresStore)(nil)
	_ StepWriter = (*PostgresStore)(nil)
)

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *db.PoolConfig) (*PostgresStore, error) {
	if connString == "" {
		return nil, model.NewConfigError("store.database_url", "must not be empty")
	}
	cfg := db.PoolConfig{MinConns: 2}
	if poolCfg != nil {
		cfg = *poolCfg
	}
	pool, err := db.Open(ctx, connString, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	kind       TEXT NOT NULL,
	source     TEXT NOT NULL DEFAULT '',
	params     JSONB,
	result     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_kind ON runs(kind);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);

CREATE TABLE IF NOT EXISTS funnel_steps (
	run_id                 TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	funnel_name            TEXT NOT NULL,
	step_order             INTEGER NOT NULL,
	step_name              TEXT NOT NULL,
	total_users            INTEGER NOT NULL,
	conversion_rate        DOUBLE PRECISION NOT NULL,
	drop_off_rate          DOUBLE PRECISION NOT NULL,
	avg_seconds_to_next    DOUBLE PRECISION,
	median_seconds_to_next DOUBLE PRECISION,
	PRIMARY KEY (run_id, funnel_name, step_order)
);
`

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

// Migrate implements Store.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

// Close implements Store.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// CreateRun implements Store.
func (s *PostgresStore) CreateRun(ctx context.Context, run *model.Run) error {
	prepareRun(run)

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, kind, source, params, result, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, string(run.Kind), run.Source, nullJSON(run.Params), nullJSON(run.Result), run.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert run")
}

// GetRun implements Store.
func (s *PostgresStore) GetRun(ctx context.Context, id string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, kind, source, params::text, result::text, created_at FROM runs WHERE id = $1`,
		id,
	)
	r, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrRunNotFound, "postgres: get run %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get run")
	}
	return r, nil
}

// ListRuns implements Store. Runs are returned newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, kind, source, params::text, result::text, created_at FROM runs WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Kind != "" {
		query += ` AND kind = ` + arg(string(filter.Kind))
	}
	if filter.Source != "" {
		query += ` AND source = ` + arg(filter.Source)
	}
	query += ` ORDER BY created_at DESC LIMIT ` + arg(listLimit(filter))
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

var funnelStepColumns = []string{
	"run_id", "funnel_name", "step_order", "step_name", "total_users",
	"conversion_rate", "drop_off_rate", "avg_seconds_to_next", "median_seconds_to_next",
}

// SaveFunnelSteps implements StepWriter with the COPY protocol.
func (s *PostgresStore) SaveFunnelSteps(ctx context.Context, runID string, funnels []model.ConversionFunnel) (int64, error) {
	var rows [][]any
	for _, f := range funnels {
		for _, st := range f.Steps {
			rows = append(rows, []any{
				runID, f.FunnelName, st.StepOrder, st.StepName, st.TotalUsers,
				st.ConversionRate, st.DropOffRate,
				seconds(st.AvgTimeToNextStep), seconds(st.MedianTimeToNextStep),
			})
		}
	}

	n, err := db.CopyFrom(ctx, s.pool, "funnel_steps", funnelStepColumns, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: save funnel steps for run %s", runID)
	}
	zap.L().Debug("postgres: copied funnel steps", zap.String("run_id", runID), zap.Int64("rows", n))
	return n, nil
}
