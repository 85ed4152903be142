package ingest

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/funnel-cli/internal/db"
)

// PostgresLoader reads events from a PostgreSQL table.
type PostgresLoader struct {
	Pool       db.Pool
	Table      string
	Limit      int
	Dimensions []string
}

var _ Loader = (*PostgresLoader)(nil)

// Load implements Loader.
func (l *PostgresLoader) Load(ctx context.Context) (*Batch, error) {
	q, err := selectQuery(l.Table, l.Limit)
	if err != nil {
		return nil, err
	}

	rows, err := l.Pool.Query(ctx, q)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: query %s", l.Table)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	header := make([]string, len(fields))
	for i, fd := range fields {
		header[i] = fd.Name
	}
	dec, err := NewDecoder(header, l.Dimensions)
	if err != nil {
		return nil, err
	}

	err = drain(ctx, rows, dec, func() ([]any, error) {
		vals, err := rows.Values()
		if err != nil {
			return nil, eris.Wrap(err, "ingest: decode row")
		}
		return vals, nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", l.Table)
	}

	b := dec.Batch()
	zap.L().Info("ingest: loaded postgres table",
		zap.String("table", l.Table),
		zap.Int("events", b.Stats.Events),
		zap.Int("dropped", b.Stats.DroppedRows),
	)
	return b, nil
}
