package parser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/ciamek94/scraper/internal/config"
)

const baseBackoff = 2 * time.Second

// Fetcher performs polite HTTP GETs with randomized exponential backoff.
// The crawl target penalizes bursty access, so all requests go through one
// Fetcher and are strictly sequential.
type Fetcher struct {
	log     *slog.Logger
	client  *http.Client
	retries int
	backoff time.Duration
}

// NewFetcher creates a Fetcher with a per-request timeout and an attempt cap.
func NewFetcher(log *slog.Logger, timeout time.Duration, retries int) *Fetcher {
	if retries < 1 {
		retries = 1
	}
	return &Fetcher{
		log:     log,
		client:  &http.Client{Timeout: timeout},
		retries: retries,
		backoff: baseBackoff,
	}
}

// Get fetches a URL, retrying up to the attempt cap. A non-200 status counts
// as a failed attempt. The returned error means the item should be skipped
// for this run, not that the run must fail.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error

	for attempt := range f.retries {
		if attempt > 0 {
			if err := sleepCtx(ctx, f.backoffDelay(attempt)); err != nil {
				return nil, err
			}
		}

		body, err := f.getOnce(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		f.log.DebugContext(ctx, "fetch attempt failed", "url", rawURL, "attempt", attempt+1, "error", err)
	}

	return nil, fmt.Errorf("all %d attempts failed for %s: %w", f.retries, rawURL, lastErr)
}

func (f *Fetcher) getOnce(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; olx-scraper/1.0)")
	req.Header.Set("Accept-Language", "pl-PL,pl;q=0.9")

	res, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to request %s: %w", rawURL, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status code error: [%d] %s", res.StatusCode, res.Status)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// Pause sleeps for a random duration inside the politeness range, returning
// early if the context is cancelled.
func (f *Fetcher) Pause(ctx context.Context, r config.DelayRange) error {
	d := r.Min
	if r.Max > r.Min {
		d += time.Duration(rand.Int63n(int64(r.Max - r.Min)))
	}
	return sleepCtx(ctx, d)
}

// backoffDelay grows exponentially per attempt with up to 100% jitter.
func (f *Fetcher) backoffDelay(attempt int) time.Duration {
	d := f.backoff << (attempt - 1)
	return d + time.Duration(rand.Int63n(int64(d)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
