package fetcher

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures StreamCSV.
type CSVOptions struct {
	Delimiter  rune // default ','
	Comment    rune // 0 = none
	LazyQuotes bool
}

// StreamCSV reads the header row synchronously, then streams the remaining
// rows. Fields are trimmed of surrounding whitespace. Both channels are
// closed when the reader is exhausted; at most one error is sent.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) ([]string, <-chan []string, <-chan error, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.Comment = opts.Comment
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil, eris.New("csv: empty input, expected a header row")
	}
	if err != nil {
		return nil, nil, nil, eris.Wrap(err, "csv: read header")
	}
	trimFields(header)
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)
	go func() {
		defer close(rowCh)
		defer close(errCh)

		for {
			record, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}
			trimFields(record)

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return header, rowCh, errCh, nil
}

func trimFields(record []string) {
	for i, f := range record {
		record[i] = strings.TrimSpace(f)
	}
}
