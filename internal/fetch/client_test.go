package fetch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinkgavel/internal/ratelimit"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testLimiter() ratelimit.Limiter {
	return ratelimit.NewSlidingWindow(10000, time.Microsecond, time.Second)
}

// newTestClient builds a client with instant backoff sleeps.
func newTestClient(d Doer) *Client {
	c := NewClient(d, testLimiter(), testLogger())
	c.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	return c
}

// scriptedDoer replays canned outcomes and counts attempts.
type scriptedDoer struct {
	attempts int
	status   int
	err      error
}

func (d *scriptedDoer) Do(*http.Request) (*http.Response, error) {
	d.attempts++
	if d.err != nil {
		return nil, d.err
	}
	return &http.Response{
		StatusCode: d.status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader("{}")),
	}, nil
}

func TestClient_SuccessReturnedUnmodified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.Client())
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":[]}`, string(resp.Body))
}

func TestClient_RateLimitRetryBound(t *testing.T) {
	// A fetch that always returns 429 makes exactly 5 attempts, then fails.
	d := &scriptedDoer{status: http.StatusTooManyRequests}
	c := newTestClient(d)

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: "http://api.test/x"})
	assert.ErrorIs(t, err, ErrRateLimitExceeded)
	assert.Equal(t, 5, d.attempts)
}

func TestClient_NetworkRetryBound(t *testing.T) {
	// A fetch that always fails at the network level makes exactly 3
	// attempts, then propagates the original error unchanged.
	netErr := errors.New("connection refused")
	d := &scriptedDoer{err: netErr}
	c := newTestClient(d)

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: "http://api.test/x"})
	assert.ErrorIs(t, err, netErr)
	assert.Equal(t, 3, d.attempts)
}

func TestClient_OtherStatusNotRetried(t *testing.T) {
	d := &scriptedDoer{status: http.StatusNotFound}
	c := newTestClient(d)

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: "http://api.test/x"})
	require.NoError(t, err, "non-429 statuses are returned for the caller to inspect")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 1, d.attempts)
}

func TestClient_RecoversWithinRetryBudget(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.Client())
	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, 3, attempts)
}

func TestClient_BackoffSchedule(t *testing.T) {
	var delays []time.Duration
	d := &scriptedDoer{status: http.StatusTooManyRequests}
	c := NewClient(d, testLimiter(), testLogger())
	c.sleep = func(_ context.Context, delay time.Duration) error {
		delays = append(delays, delay)
		return nil
	}

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: "http://api.test/x"})
	require.ErrorIs(t, err, ErrRateLimitExceeded)
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second,
	}, delays)
}

func TestClient_BackoffClampsToLastEntry(t *testing.T) {
	c := newTestClient(nil)
	assert.Equal(t, time.Second, c.backoffFor(0))
	assert.Equal(t, 8*time.Second, c.backoffFor(3))
	assert.Equal(t, 8*time.Second, c.backoffFor(10))
}

func TestClient_AttemptsAreRecordedAgainstLimiter(t *testing.T) {
	limiter := ratelimit.NewSlidingWindow(10000, time.Microsecond, time.Second)
	d := &scriptedDoer{status: http.StatusOK}
	c := NewClient(d, limiter, testLogger())
	c.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }

	_, err := c.Do(context.Background(), Request{Method: http.MethodGet, URL: "http://api.test/x"})
	require.NoError(t, err)
	assert.Equal(t, 1, limiter.Recorded())
}

func TestClient_ContextCancelledDuringBackoff(t *testing.T) {
	d := &scriptedDoer{status: http.StatusTooManyRequests}
	c := NewClient(d, testLimiter(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Do(ctx, Request{Method: http.MethodGet, URL: "http://api.test/x"})
	assert.ErrorIs(t, err, context.Canceled)
}
