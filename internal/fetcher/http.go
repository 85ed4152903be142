package fetcher

import (
	"context"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/funnel-cli/internal/resilience"
)

// HTTPOptions configures HTTPFetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond caps outgoing requests; 0 means 5.
	RequestsPerSecond float64
	Retry             resilience.RetryConfig
}

// HTTPFetcher implements Fetcher over net/http with a token-bucket limiter
// and retries on transient failures.
type HTTPFetcher struct {
	client  *http.Client
	opts    HTTPOptions
	limiter *rate.Limiter
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates an HTTPFetcher.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "funnel-cli/1.0"
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("fetcher", "http download")
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1),
	}
}

// Download fetches url, retrying 408/429/5xx responses and network errors.
func (f *HTTPFetcher) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	body, err := resilience.DoVal(ctx, f.opts.Retry, func(ctx context.Context) (io.ReadCloser, error) {
		return f.get(ctx, url)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: download %s", url)
	}
	return body, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "http get")
	}
	if resp.StatusCode == http.StatusOK {
		return resp.Body, nil
	}

	_ = resp.Body.Close()
	statusErr := eris.Errorf("unexpected status %d", resp.StatusCode)
	if resilience.IsTransientHTTPStatus(resp.StatusCode) {
		return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
	}
	return nil, statusErr
}

// DownloadToFile fetches url into path.
func (f *HTTPFetcher) DownloadToFile(ctx context.Context, url, path string) (int64, error) {
	body, err := f.Download(ctx, url)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	file, err := os.Create(path)
	if err != nil {
		return 0, eris.Wrap(err, "fetcher: create file")
	}
	defer file.Close() //nolint:errcheck

	n, err := io.Copy(file, body)
	if err != nil {
		return n, eris.Wrap(err, "fetcher: write file")
	}
	return n, nil
}
