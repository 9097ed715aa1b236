// Package source retrieves the daily article-count CSV and parses it into
// observations.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"presscount/internal/util"
)

// ErrFetch marks failures to retrieve the source document.
var ErrFetch = errors.New("fetch failed")

// maxBody caps the size of a downloaded CSV. Larger bodies are rejected.
var maxBody int64 = 64 << 20

// Fetcher downloads the source CSV over HTTP.
type Fetcher struct {
	client    *http.Client
	userAgent string
	attempts  int
	backoff   time.Duration
	log       *slog.Logger
}

// FetcherOptions configures a Fetcher. Zero values pick sensible defaults.
type FetcherOptions struct {
	Timeout   time.Duration
	Attempts  int
	Backoff   time.Duration
	UserAgent string
	Client    *http.Client
	Logger    *slog.Logger
}

// NewFetcher creates a Fetcher from opts.
func NewFetcher(opts FetcherOptions) *Fetcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = "presscount/1.0"
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		client:    client,
		userAgent: ua,
		attempts:  opts.Attempts,
		backoff:   opts.Backoff,
		log:       log,
	}
}

// Fetch downloads url and returns the response body. Any transport error or
// non-2xx status is reported wrapped in ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := util.Retry(ctx, "fetch "+url, f.attempts, f.backoff, func() error {
		var err error
		body, err = f.fetchOnce(ctx, url)
		return err
	})
	if err != nil {
		return nil, err
	}
	f.log.Info("fetched source", "url", url, "bytes", len(body))
	return body, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", ErrFetch, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/csv, text/plain, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s returned %s", ErrFetch, url, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrFetch, err)
	}
	if int64(len(body)) > maxBody {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrFetch, maxBody)
	}
	return body, nil
}

// ReadFile loads the CSV from a local path instead of the network.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	return data, nil
}
