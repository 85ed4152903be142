// Package fetcher reads tabular event exports: streaming CSV and JSON
// readers, an XLSX sheet reader and a rate-limited HTTP downloader for
// exports published at a URL.
package fetcher

import (
	"context"
	"io"
)

// Fetcher downloads remote exports.
type Fetcher interface {
	// Download returns the body of url. The caller closes it.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile writes the body of url to path and returns the bytes written.
	DownloadToFile(ctx context.Context, url, path string) (int64, error)
}
