package ingest

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/funnel-cli/internal/fetcher"
	"github.com/sells-group/funnel-cli/internal/model"
)

// FileLoader reads a CSV, JSON (array of objects) or XLSX export. Paths
// starting with http:// or https:// are downloaded to a temporary file
// first.
type FileLoader struct {
	Path       string
	Dimensions []string
	Fetcher    fetcher.Fetcher
	CSV        fetcher.CSVOptions
	Sheet      fetcher.XLSXOptions
}

var _ Loader = (*FileLoader)(nil)

// Load implements Loader.
func (l *FileLoader) Load(ctx context.Context) (*Batch, error) {
	if l.Path == "" {
		return nil, model.NewConfigError("source.path", "must not be empty")
	}

	path := l.Path
	if isRemote(path) {
		local, cleanup, err := l.download(ctx, path)
		if err != nil {
			return nil, err
		}
		defer cleanup()
		path = local
	}

	var (
		b   *Batch
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv":
		opts := l.CSV
		if ext == ".tsv" && opts.Delimiter == 0 {
			opts.Delimiter = '\t'
		}
		b, err = loadCSV(ctx, path, opts, l.Dimensions)
	case ".json":
		b, err = loadJSON(ctx, path, l.Dimensions)
	case ".xlsx":
		b, err = loadXLSX(path, l.Sheet, l.Dimensions)
	default:
		return nil, model.NewConfigError("source.path", "unsupported file type "+ext)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("ingest: loaded file",
		zap.String("path", l.Path),
		zap.Int("rows", b.Stats.Rows),
		zap.Int("events", b.Stats.Events),
		zap.Int("dropped", b.Stats.DroppedRows),
	)
	return b, nil
}

func isRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

func (l *FileLoader) download(ctx context.Context, rawURL string) (string, func(), error) {
	f := l.Fetcher
	if f == nil {
		f = fetcher.NewHTTPFetcher(fetcher.HTTPOptions{})
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", nil, model.NewConfigError("source.path", "invalid url: "+err.Error())
	}

	dir, err := os.MkdirTemp("", "funnel-ingest-*")
	if err != nil {
		return "", nil, eris.Wrap(err, "ingest: create temp dir")
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	name := filepath.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		name = "events.csv"
	}
	local := filepath.Join(dir, name)

	n, err := f.DownloadToFile(ctx, rawURL, local)
	if err != nil {
		cleanup()
		return "", nil, eris.Wrapf(err, "ingest: download %s", rawURL)
	}
	zap.L().Debug("ingest: downloaded export", zap.String("url", rawURL), zap.Int64("bytes", n))
	return local, cleanup, nil
}

func loadCSV(ctx context.Context, path string, opts fetcher.CSVOptions, dims []string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	header, rows, errs, err := fetcher.StreamCSV(ctx, f, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	dec, err := NewDecoder(header, dims)
	if err != nil {
		return nil, err
	}

	for row := range rows {
		dec.AddStrings(row)
	}
	if err := <-errs; err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	return dec.Batch(), nil
}

func loadJSON(ctx context.Context, path string, dims []string) (*Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	items, errs := fetcher.DecodeJSONArray[map[string]any](ctx, f)
	var records []map[string]any
	for rec := range items {
		records = append(records, rec)
	}
	if err := <-errs; err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	return FromRecords(records, dims)
}

func loadXLSX(path string, opts fetcher.XLSXOptions, dims []string) (*Batch, error) {
	header, rows, err := fetcher.ReadXLSX(path, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", path)
	}
	dec, err := NewDecoder(header, dims)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		dec.AddStrings(row)
	}
	return dec.Batch(), nil
}
