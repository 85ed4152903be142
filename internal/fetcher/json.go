package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/rotisserie/eris"
)

// DecodeJSONArray streams the elements of a top-level JSON array. Numbers
// decoded into interface values are json.Number so that microsecond
// timestamps keep their precision. Both channels are closed when decoding
// completes; at most one error is sent.
func DecodeJSONArray[T any](ctx context.Context, r io.Reader) (<-chan T, <-chan error) {
	outCh := make(chan T, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		dec := json.NewDecoder(r)
		dec.UseNumber()

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			errCh <- eris.Wrap(err, "json: read opening token")
			return
		}
		if delim, ok := tok.(json.Delim); !ok || delim != '[' {
			errCh <- eris.Errorf("json: expected '[', got %v", tok)
			return
		}

		for dec.More() {
			var item T
			if err := dec.Decode(&item); err != nil {
				errCh <- eris.Wrap(err, "json: decode element")
				return
			}
			select {
			case outCh <- item:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "json: context cancelled")
				return
			}
		}

		if tok, err := dec.Token(); err != nil {
			errCh <- eris.Wrap(err, "json: read closing token")
		} else if tok != json.Delim(']') {
			errCh <- eris.Errorf("json: expected ']', got %v", tok)
		}
	}()

	return outCh, errCh
}

// DecodeJSONObject decodes a single JSON value, keeping numbers as
// json.Number inside interface values.
func DecodeJSONObject[T any](r io.Reader) (*T, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var obj T
	if err := dec.Decode(&obj); err != nil {
		return nil, eris.Wrap(err, "json: decode object")
	}
	return &obj, nil
}
