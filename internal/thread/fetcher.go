package thread

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"xmarks/internal/browser"
	"xmarks/internal/types"
)

// DefaultBaseURL is the site the detail-page fetch targets.
const DefaultBaseURL = "https://x.com"

// Doer issues HTTP requests; *http.Client satisfies it. Tests substitute a
// stub.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Config bounds the detail-page fetch.
type Config struct {
	// RequestDelay spaces retries and is also the batch pacing interval.
	RequestDelay time.Duration
	// MaxRetries is the retry budget after the initial attempt.
	MaxRetries int
	// RequestTimeout bounds each individual attempt.
	RequestTimeout time.Duration
	// MaxThreadLength caps reconstructed threads against runaway matches.
	MaxThreadLength int
}

// DefaultConfig mirrors the rate-limit courtesy the upstream site expects.
func DefaultConfig() Config {
	return Config{
		RequestDelay:    1500 * time.Millisecond,
		MaxRetries:      2,
		RequestTimeout:  10 * time.Second,
		MaxThreadLength: 50,
	}
}

// Fetcher reconstructs threads by fetching a post's canonical detail page
// over plain HTTP with the stored session credentials.
type Fetcher struct {
	cfg          Config
	client       Doer
	baseURL      string
	cookieHeader func() string
	log          *slog.Logger
}

// NewFetcher creates a thread fetcher. client may be nil for a default
// HTTP client; cookieHeader, when non-nil, supplies the Cookie header for
// credentialed requests.
func NewFetcher(cfg Config, client Doer, cookieHeader func() string, log *slog.Logger) *Fetcher {
	if client == nil {
		client = &http.Client{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		cfg:          cfg,
		client:       client,
		baseURL:      DefaultBaseURL,
		cookieHeader: cookieHeader,
		log:          log,
	}
}

// WithBaseURL points the fetcher at a different host. Used by tests.
func (f *Fetcher) WithBaseURL(baseURL string) *Fetcher {
	f.baseURL = baseURL
	return f
}

// Delay returns the pacing interval batches should wait between candidates.
func (f *Fetcher) Delay() time.Duration {
	return f.cfg.RequestDelay
}

// FetchThread fetches and reconstructs the thread starting at the given
// post. Failures are reported in the result's Error field, never as a Go
// error: one bad candidate must not abort a batch.
func (f *Fetcher) FetchThread(ctx context.Context, authorHandle, postID string) types.ThreadFetchResult {
	url := fmt.Sprintf("%s/%s/status/%s", f.baseURL, authorHandle, postID)

	pageHTML, err := f.fetchWithRetry(ctx, url)
	if err != nil {
		f.log.Warn("thread: fetch failed", "post_id", postID, "error", err)
		return types.ThreadFetchResult{OriginalPostID: postID, Error: err.Error()}
	}

	posts := ParseThread(pageHTML, authorHandle, f.cfg.MaxThreadLength)
	f.log.Debug("thread: reconstructed", "post_id", postID, "posts", len(posts))
	return types.ThreadFetchResult{OriginalPostID: postID, Posts: posts}
}

// fetchWithRetry attempts the page fetch up to 1+MaxRetries times with a
// constant delay between attempts. Timeouts count as failures like any
// other transport error.
func (f *Fetcher) fetchWithRetry(ctx context.Context, url string) (string, error) {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(f.cfg.RequestDelay), uint64(f.cfg.MaxRetries)),
		ctx,
	)
	return backoff.RetryWithData(func() (string, error) {
		return f.fetchOnce(ctx, url)
	}, policy)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return "", backoff.Permanent(err)
	}
	req.Header.Set("User-Agent", browser.DefaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	if f.cookieHeader != nil {
		if cookie := f.cookieHeader(); cookie != "" {
			req.Header.Set("Cookie", cookie)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("http %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
