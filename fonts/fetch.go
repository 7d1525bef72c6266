package fonts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wudi/scan2doc/observability"
)

const (
	defaultRetries = 3
	defaultBackoff = 500 * time.Millisecond
	maxFontBytes   = 64 << 20
)

// Fetcher downloads a font over HTTP with bounded retries. Attempt n waits
// n times the backoff before retrying, so delays grow linearly.
type Fetcher struct {
	url     string
	client  *http.Client
	retries int
	backoff time.Duration
	logger  observability.Logger
}

// FetchOption configures a Fetcher.
type FetchOption func(*Fetcher)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) FetchOption {
	return func(f *Fetcher) { f.client = c }
}

// WithRetries sets the number of attempts after the first.
func WithRetries(n int) FetchOption {
	return func(f *Fetcher) { f.retries = n }
}

// WithBackoff sets the base delay between attempts.
func WithBackoff(d time.Duration) FetchOption {
	return func(f *Fetcher) { f.backoff = d }
}

// WithFetchLogger sets the logger.
func WithFetchLogger(l observability.Logger) FetchOption {
	return func(f *Fetcher) { f.logger = l }
}

// NewFetcher creates a Fetcher for the given URL.
func NewFetcher(url string, opts ...FetchOption) *Fetcher {
	f := &Fetcher{
		url:     url,
		client:  http.DefaultClient,
		retries: defaultRetries,
		backoff: defaultBackoff,
		logger:  observability.NopLogger{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch downloads and parses the font, retrying transient failures. The last
// error is returned when all attempts fail; callers are expected to fall
// back to Helvetica rather than abort.
func (f *Fetcher) Fetch(ctx context.Context) (*Font, error) {
	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			f.logger.Warn("font fetch retrying",
				observability.Int("attempt", attempt),
				observability.Error("error", lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * f.backoff):
			}
		}
		font, err := f.fetchOnce(ctx)
		if err == nil {
			return font, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("fonts: fetch %s: %w", f.url, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context) (*Font, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFontBytes))
	if err != nil {
		return nil, err
	}
	return Parse(data)
}
