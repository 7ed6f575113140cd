package auction

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinkgavel/internal/fetch"
	"pinkgavel/internal/models"
	"pinkgavel/internal/ratelimit"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubCreds is a CredentialSource with a fixed token.
type stubCreds struct {
	token string
}

func (s stubCreds) IsAuthenticated() bool { return s.token != "" }

func (s stubCreds) AuthHeader() (string, bool) {
	if s.token == "" {
		return "", false
	}
	return "Bearer " + s.token, true
}

func (s stubCreds) CurrentUser() (*models.Profile, bool) { return nil, false }

func newTestClient(t *testing.T, handler http.HandlerFunc, creds CredentialSource) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	limiter := ratelimit.NewSlidingWindow(10000, time.Microsecond, time.Second)
	fetcher := fetch.NewClient(srv.Client(), limiter, testLogger())
	return NewClient(srv.URL, "test-api-key", fetcher, creds, testLogger())
}

func TestClient_ListingsQueryAndHeaders(t *testing.T) {
	var got *http.Request
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		json.NewEncoder(w).Encode(models.ListingsEnvelope{
			Data: []models.Listing{{ID: "1", Title: "Vintage Lamp"}},
		})
	}, Anonymous{})

	listings, err := c.Listings(context.Background(), ListingsOptions{Limit: 50})
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Vintage Lamp", listings[0].Title)

	assert.Equal(t, "/auction/listings", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "true", q.Get("_seller"))
	assert.Equal(t, "true", q.Get("_bids"))
	assert.Equal(t, "created", q.Get("sort"))
	assert.Equal(t, "desc", q.Get("sortOrder"))
	assert.Equal(t, "50", q.Get("limit"))

	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "test-api-key", got.Header.Get(apiKeyHeader))
	assert.Empty(t, got.Header.Get("Authorization"), "browsing is unauthenticated")
}

func TestClient_ListingByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auction/listings/abc", r.URL.Path)
		json.NewEncoder(w).Encode(models.ListingEnvelope{
			Data: models.Listing{ID: "abc", Title: "Oak Desk"},
		})
	}, Anonymous{})

	l, err := c.Listing(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "Oak Desk", l.Title)
}

func TestClient_PlaceBidSendsBearerAndBody(t *testing.T) {
	var got *http.Request
	var body models.BidRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(r.Context())
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(models.ListingEnvelope{Data: models.Listing{ID: "abc"}})
	}, stubCreds{token: "tok123"})

	_, err := c.PlaceBid(context.Background(), "abc", 150)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/auction/listings/abc/bids", got.URL.Path)
	assert.Equal(t, "Bearer tok123", got.Header.Get("Authorization"))
	assert.Equal(t, 150.0, body.Amount)
}

func TestClient_PlaceBidWithoutSession(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request should be sent without credentials")
	}, Anonymous{})

	_, err := c.PlaceBid(context.Background(), "abc", 150)
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestClient_ProfileRoundTrip(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auction/profiles/alice", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("_listings"))
		assert.Equal(t, "true", r.URL.Query().Get("_wins"))
		json.NewEncoder(w).Encode(models.ProfileEnvelope{
			Data: models.Profile{Name: "alice", Credits: 1000},
		})
	}, stubCreds{token: "tok"})

	p, err := c.Profile(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, 1000.0, p.Credits)
}

func TestClient_UpdateProfile(t *testing.T) {
	bio := "collector of odd lamps"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var upd models.ProfileUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&upd))
		require.NotNil(t, upd.Bio)
		assert.Equal(t, bio, *upd.Bio)
		json.NewEncoder(w).Encode(models.ProfileEnvelope{Data: models.Profile{Name: "alice", Bio: bio}})
	}, stubCreds{token: "tok"})

	p, err := c.UpdateProfile(context.Background(), "alice", models.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, bio, p.Bio)
}

func TestClient_APIErrorFromBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(models.ErrorBody{
			Errors: []models.ErrorMessage{{Message: "bid must be higher than current bid"}},
		})
	}, Anonymous{})

	_, err := c.Listing(context.Background(), "abc")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "bid must be higher than current bid", apiErr.Message)
}

func TestClient_APIErrorFallbackMessages(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, "bad request"},
		{http.StatusUnauthorized, "authentication required"},
		{http.StatusForbidden, "forbidden"},
		{http.StatusNotFound, "not found"},
		{http.StatusInternalServerError, "server error"},
		{http.StatusBadGateway, "service unavailable"},
		{http.StatusServiceUnavailable, "service unavailable"},
		{418, "unexpected status 418"},
	}

	for _, tt := range tests {
		resp := &fetch.Response{StatusCode: tt.status, Body: []byte("not json")}
		apiErr := errorFromResponse(resp)
		assert.Equal(t, tt.want, apiErr.Message, "status %d", tt.status)
	}
}

func TestClient_NetworkErrorPropagated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	limiter := ratelimit.NewSlidingWindow(10000, time.Microsecond, time.Second)
	fetcher := fetch.NewClient(http.DefaultClient, limiter, testLogger())
	c := NewClient(srv.URL, "key", fetcher, Anonymous{}, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := c.Listings(ctx, ListingsOptions{})
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr), "transport failures are not APIErrors")
}
