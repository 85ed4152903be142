package ingest

import (
	"context"
	"regexp"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/funnel-cli/internal/model"
)

// Loader produces a batch of events from a source.
type Loader interface {
	Load(ctx context.Context) (*Batch, error)
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// selectQuery builds the table scan used by the SQL loaders.
func selectQuery(table string, limit int) (string, error) {
	if !identRe.MatchString(table) {
		return "", model.NewConfigError("source.table", "invalid table identifier "+table)
	}
	if limit < 0 {
		return "", model.NewConfigError("source.limit", "must not be negative")
	}
	q := "SELECT * FROM " + table
	if limit > 0 {
		q += " LIMIT " + strconv.Itoa(limit)
	}
	return q, nil
}

// rowSource is the common shape of database/sql, pgx and ClickHouse rows
// once column names are known.
type rowSource interface {
	Next() bool
	Err() error
}

// drain feeds every row of src through dec. values returns the current
// row's cells.
func drain(ctx context.Context, src rowSource, dec *Decoder, values func() ([]any, error)) error {
	for src.Next() {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "ingest: context cancelled")
		}
		row, err := values()
		if err != nil {
			return err
		}
		dec.Add(row)
	}
	return src.Err()
}
