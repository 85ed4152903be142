package ingest

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteLoader reads events from a table of a SQLite database.
type SQLiteLoader struct {
	DB         *sql.DB
	Table      string
	Limit      int
	Dimensions []string
}

var _ Loader = (*SQLiteLoader)(nil)

// OpenSQLite opens the database file at path.
func OpenSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "ingest: open sqlite")
	}
	return db, nil
}

// Load implements Loader.
func (l *SQLiteLoader) Load(ctx context.Context) (*Batch, error) {
	q, err := selectQuery(l.Table, l.Limit)
	if err != nil {
		return nil, err
	}

	rows, err := l.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: query %s", l.Table)
	}
	defer rows.Close() //nolint:errcheck

	header, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read columns")
	}
	dec, err := NewDecoder(header, l.Dimensions)
	if err != nil {
		return nil, err
	}

	vals := make([]any, len(header))
	ptrs := make([]any, len(header))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	err = drain(ctx, rows, dec, func() ([]any, error) {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrap(err, "ingest: scan row")
		}
		return vals, nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", l.Table)
	}

	b := dec.Batch()
	zap.L().Info("ingest: loaded sqlite table",
		zap.String("table", l.Table),
		zap.Int("events", b.Stats.Events),
		zap.Int("dropped", b.Stats.DroppedRows),
	)
	return b, nil
}
