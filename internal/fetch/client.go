package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"pinkgavel/internal/ratelimit"
)

// ErrRateLimitExceeded is returned once every 429 retry has been exhausted.
var ErrRateLimitExceeded = errors.New("rate limit exceeded after retries")

const (
	// maxRateLimitRetries is the number of additional attempts after a 429
	// response (5 total attempts).
	maxRateLimitRetries = 4

	// maxNetworkRetries is the number of additional attempts after a
	// network-level failure (3 total attempts).
	maxNetworkRetries = 2
)

// defaultBackoff is the retry delay schedule, indexed by retry count and
// clamped to its last entry.
var defaultBackoff = []time.Duration{
	time.Second,
	2 * time.Second,
	4 * time.Second,
	8 * time.Second,
}

// Doer executes a single HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Fetcher is the governed-call contract shared by Client, CachedClient, and
// instrumentation wrappers.
type Fetcher interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// Client performs rate-limited HTTP calls with bounded retries.
//
// Retry policy:
//   - 429 responses are retried up to 4 more times with the backoff schedule;
//     exhaustion yields ErrRateLimitExceeded.
//   - Network-level errors are retried up to 2 more times with the same
//     schedule; exhaustion propagates the error unchanged so diagnostics
//     keep the original failure.
//   - Any other non-2xx response is returned as-is for the caller to inspect.
type Client struct {
	http    Doer
	limiter ratelimit.Limiter
	backoff []time.Duration
	log     *slog.Logger

	// sleep is swappable so retry tests do not run the real schedule.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a governed HTTP client.
func NewClient(d Doer, limiter ratelimit.Limiter, log *slog.Logger) *Client {
	return &Client{
		http:    d,
		limiter: limiter,
		backoff: defaultBackoff,
		log:     log,
		sleep:   sleepCtx,
	}
}

// Do executes the request under the rate limiter. Every attempt waits for
// limiter permission and records itself before going out on the wire.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	rateRetries := 0
	netRetries := 0

	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		c.limiter.RecordAttempt()

		resp, err := c.once(ctx, req)
		if err != nil {
			if netRetries >= maxNetworkRetries {
				return nil, err
			}
			delay := c.backoffFor(netRetries)
			netRetries++
			c.log.Warn("network error, retrying",
				"url", req.URL, "attempt", netRetries, "delay", delay, "error", err)
			if serr := c.sleep(ctx, delay); serr != nil {
				return nil, serr
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if rateRetries >= maxRateLimitRetries {
				return nil, ErrRateLimitExceeded
			}
			delay := c.backoffFor(rateRetries)
			rateRetries++
			c.log.Warn("rate limited by server, backing off",
				"url", req.URL, "attempt", rateRetries, "delay", delay)
			if serr := c.sleep(ctx, delay); serr != nil {
				return nil, serr
			}
			continue
		}

		return resp, nil
	}
}

// once performs a single HTTP round trip and reads the body fully.
func (c *Client) once(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	hreq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	for k, vs := range req.Header {
		hreq.Header[k] = vs
	}

	hresp, err := c.http.Do(hreq)
	if err != nil {
		return nil, err
	}
	defer hresp.Body.Close()

	data, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: hresp.StatusCode,
		Header:     hresp.Header,
		Body:       data,
	}, nil
}

// backoffFor returns the delay for the given retry index, clamped to the
// last schedule entry.
func (c *Client) backoffFor(retry int) time.Duration {
	if retry >= len(c.backoff) {
		return c.backoff[len(c.backoff)-1]
	}
	return c.backoff[retry]
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
