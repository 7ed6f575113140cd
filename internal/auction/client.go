// Package auction is the typed client for the remote auction API: listing
// browsing, bidding, and profile management. Network calls go through the
// governed fetch layer, so rate limiting, retries, and response caching are
// inherited rather than reimplemented here.
package auction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"pinkgavel/internal/fetch"
	"pinkgavel/internal/models"
)

const apiKeyHeader = "X-Noroff-API-Key"

// ListingsOptions tunes a listing collection fetch. Sellers and bid
// histories are always embedded; ordering is creation time descending,
// matching what the browse and search pipelines expect.
type ListingsOptions struct {
	// Limit bounds the number of listings returned. Zero means the API default.
	Limit int

	// ActiveOnly asks the API for listings that have not yet ended.
	ActiveOnly bool
}

// Client calls the auction API. Construct one per composition root and pass
// it to whichever component needs listings; there is no package-level
// instance.
type Client struct {
	baseURL string
	apiKey  string
	fetcher fetch.Fetcher
	creds   CredentialSource
	log     *slog.Logger
}

// NewClient creates an auction API client. The fetcher carries the request
// governor; creds supplies the bearer token for authenticated calls.
func NewClient(baseURL, apiKey string, fetcher fetch.Fetcher, creds CredentialSource, log *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		fetcher: fetcher,
		creds:   creds,
		log:     log,
	}
}

// Listings fetches a listing collection with sellers and bids embedded,
// newest first.
func (c *Client) Listings(ctx context.Context, opts ListingsOptions) ([]models.Listing, error) {
	q := url.Values{}
	q.Set("_seller", "true")
	q.Set("_bids", "true")
	q.Set("sort", "created")
	q.Set("sortOrder", "desc")
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.ActiveOnly {
		q.Set("_active", "true")
	}

	resp, err := c.get(ctx, "/auction/listings?"+q.Encode(), false)
	if err != nil {
		return nil, err
	}

	var env models.ListingsEnvelope
	if err := resp.JSON(&env); err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	return env.Data, nil
}

// Listing fetches one listing by id with its seller and bids embedded.
func (c *Client) Listing(ctx context.Context, id string) (*models.Listing, error) {
	path := fmt.Sprintf("/auction/listings/%s?_seller=true&_bids=true", url.PathEscape(id))
	resp, err := c.get(ctx, path, false)
	if err != nil {
		return nil, err
	}

	var env models.ListingEnvelope
	if err := resp.JSON(&env); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}
	return &env.Data, nil
}

// PlaceBid bids amount on the listing and returns the updated listing.
// Requires an authenticated session.
func (c *Client) PlaceBid(ctx context.Context, id string, amount float64) (*models.Listing, error) {
	body, err := json.Marshal(models.BidRequest{Amount: amount})
	if err != nil {
		return nil, fmt.Errorf("failed to encode bid: %w", err)
	}

	path := fmt.Sprintf("/auction/listings/%s/bids", url.PathEscape(id))
	resp, err := c.do(ctx, http.MethodPost, path, body, true)
	if err != nil {
		return nil, err
	}

	var env models.ListingEnvelope
	if err := resp.JSON(&env); err != nil {
		return nil, fmt.Errorf("failed to decode bid response: %w", err)
	}
	c.log.Info("bid placed", "listing", id, "amount", amount)
	return &env.Data, nil
}

// Profile fetches a profile with its listings and wins embedded. Requires an
// authenticated session.
func (c *Client) Profile(ctx context.Context, name string) (*models.Profile, error) {
	path := fmt.Sprintf("/auction/profiles/%s?_listings=true&_wins=true", url.PathEscape(name))
	resp, err := c.get(ctx, path, true)
	if err != nil {
		return nil, err
	}

	var env models.ProfileEnvelope
	if err := resp.JSON(&env); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &env.Data, nil
}

// UpdateProfile applies the given update and returns the new profile state.
// Requires an authenticated session.
func (c *Client) UpdateProfile(ctx context.Context, name string, upd models.ProfileUpdate) (*models.Profile, error) {
	body, err := json.Marshal(upd)
	if err != nil {
		return nil, fmt.Errorf("failed to encode profile update: %w", err)
	}

	path := fmt.Sprintf("/auction/profiles/%s", url.PathEscape(name))
	resp, err := c.do(ctx, http.MethodPut, path, body, true)
	if err != nil {
		return nil, err
	}

	var env models.ProfileEnvelope
	if err := resp.JSON(&env); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &env.Data, nil
}

func (c *Client) get(ctx context.Context, path string, authed bool) (*fetch.Response, error) {
	return c.do(ctx, http.MethodGet, path, nil, authed)
}

// do builds the request headers, executes it through the governed fetcher,
// and converts non-2xx responses into APIErrors.
func (c *Client) do(ctx context.Context, method, path string, body []byte, authed bool) (*fetch.Response, error) {
	header := http.Header{}
	header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		header.Set(apiKeyHeader, c.apiKey)
	}
	if authed {
		auth, ok := c.creds.AuthHeader()
		if !ok {
			return nil, ErrAuthRequired
		}
		header.Set("Authorization", auth)
	}

	resp, err := c.fetcher.Do(ctx, fetch.Request{
		Method: method,
		URL:    c.baseURL + path,
		Header: header,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		apiErr := errorFromResponse(resp)
		c.log.Debug("api call failed", "method", method, "path", path,
			"status", apiErr.StatusCode, "message", apiErr.Message)
		return nil, apiErr
	}
	return resp, nil
}
