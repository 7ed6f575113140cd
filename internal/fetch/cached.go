package fetch

import (
	"context"

	"pinkgavel/internal/cache"
)

// CachedClient wraps a Fetcher with a TTL response cache. A fresh cache hit
// returns the stored response value itself; on a miss the network result is
// returned to the caller and, when successful, a clone is cached so the two
// copies are independently consumable. Non-2xx responses are never cached.
type CachedClient struct {
	inner Fetcher
	cache *cache.Cache[*Response]
}

// NewCachedClient wraps inner with the given response cache. The cache is
// owned by this client; callers wanting independent caching behavior build
// their own instance.
func NewCachedClient(inner Fetcher, c *cache.Cache[*Response]) *CachedClient {
	return &CachedClient{inner: inner, cache: c}
}

// Do returns a cached response for the request if one is fresh, otherwise
// delegates to the wrapped fetcher.
func (c *CachedClient) Do(ctx context.Context, req Request) (*Response, error) {
	key := req.CacheKey()
	if resp, ok := c.cache.Get(key); ok {
		return resp, nil
	}

	resp, err := c.inner.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.OK() {
		c.cache.Set(key, resp.Clone())
	}
	return resp, nil
}

// Invalidate drops all cached responses. Called after mutations (bids,
// profile updates) so subsequent reads observe fresh data.
func (c *CachedClient) Invalidate() {
	c.cache.Clear()
}
