// Package searchctrl runs the search pipeline: a debounced query feeds the
// governed listing fetch, the result set is filtered and sorted, pagination
// resets, and one event per completed search goes out to subscribers.
//
// Subscribers register explicitly and receive typed payloads; there is no
// global event bus. Responses carry a monotonically increasing sequence
// number, and any response that is not the latest issued is discarded, so an
// older in-flight search can never overwrite a newer one.
package searchctrl

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"pinkgavel/internal/auction"
	"pinkgavel/internal/cache"
	"pinkgavel/internal/debounce"
	"pinkgavel/internal/models"
	"pinkgavel/internal/pagination"
	"pinkgavel/internal/search"
)

// Event is published once per completed (debounced) search. On failure
// Results is empty and Err carries the cause; the page degrades to an
// empty-results-with-message state instead of crashing.
type Event struct {
	Query     string
	Results   []models.Listing
	Err       error
	SortBy    search.Strategy
	Timestamp time.Time
}

// ListingSource supplies the raw listing collection. The auction client
// implements it.
type ListingSource interface {
	Listings(ctx context.Context, opts auction.ListingsOptions) ([]models.Listing, error)
}

// Controller owns one search pipeline: its caches, its pagination cursor,
// and its subscribers. Construct one per page; instances share nothing.
type Controller struct {
	src ListingSource
	log *slog.Logger
	now func() time.Time

	debouncer *debounce.Debouncer[string]
	// queries caches filtered (pre-sort) result sets by normalized query.
	queries *cache.Cache[[]models.Listing]
	// suggestions is the independent short-lived cache for instant search.
	suggestions  *cache.Cache[[]models.Listing]
	page         *pagination.State
	fetchLimit   int
	suggestLimit int

	// seq is the latest issued search sequence number; stale responses are
	// dropped by comparing against it.
	seq atomic.Uint64

	mu      sync.Mutex
	sortBy  search.Strategy
	query   string
	results []models.Listing
	subs    map[int]func(Event)
	nextSub int
}

// New creates a controller over src configured by cfg.
func New(src ListingSource, cfg models.SearchConfig, ttl time.Duration, log *slog.Logger) *Controller {
	c := &Controller{
		src:          src,
		log:          log,
		now:          time.Now,
		queries:      cache.New[[]models.Listing](ttl),
		suggestions:  cache.New[[]models.Listing](ttl),
		page:         pagination.New(cfg.PageSize),
		fetchLimit:   cfg.FetchLimit,
		suggestLimit: cfg.SuggestLimit,
		sortBy:       search.Relevance,
		subs:         make(map[int]func(Event)),
	}
	c.debouncer = debounce.New(cfg.Debounce, func(q string) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		c.SearchNow(ctx, q)
	})
	return c
}

// Subscribe registers fn for search events and returns an unsubscribe
// function.
func (c *Controller) Subscribe(fn func(Event)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Search schedules a debounced search. Rapid successive calls collapse so
// only the final query within the quiet window executes.
func (c *Controller) Search(query string) {
	c.debouncer.Call(query)
}

// SearchNow executes a search immediately, bypassing the debouncer. The
// debounced path and tests both land here.
func (c *Controller) SearchNow(ctx context.Context, query string) {
	seq := c.seq.Add(1)

	results, err := c.lookup(ctx, query)

	// A newer search was issued while this one was in flight: discard.
	if c.seq.Load() != seq {
		c.log.Debug("discarding stale search response", "query", query)
		return
	}

	c.mu.Lock()
	sortBy := c.sortBy
	if err == nil {
		results = search.Sort(results, sortBy, c.now())
		c.query = query
		c.results = results
		c.page.Reset(len(results))
	} else {
		c.query = query
		c.results = nil
		c.page.Reset(0)
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Warn("search failed", "query", query, "error", err)
	}
	c.publish(Event{
		Query:     query,
		Results:   results,
		Err:       err,
		SortBy:    sortBy,
		Timestamp: c.now(),
	})
}

// lookup returns the filtered result set for query, from cache when fresh.
func (c *Controller) lookup(ctx context.Context, query string) ([]models.Listing, error) {
	key := normalize(query)
	if cached, ok := c.queries.Get(key); ok {
		return cached, nil
	}

	listings, err := c.src.Listings(ctx, auction.ListingsOptions{Limit: c.fetchLimit})
	if err != nil {
		return nil, err
	}

	filtered := search.Filter(listings, query)
	c.queries.Set(key, filtered)
	return filtered, nil
}

// Suggest is the instant-search variant used by dropdowns: it returns at
// most suggestLimit matches and swallows failures, returning an empty slice.
// Errors surface through the full search path, not here.
func (c *Controller) Suggest(ctx context.Context, query string) []models.Listing {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	key := normalize(query)
	matches, ok := c.suggestions.Get(key)
	if !ok {
		listings, err := c.src.Listings(ctx, auction.ListingsOptions{Limit: c.fetchLimit})
		if err != nil {
			c.log.Debug("suggestion lookup failed", "query", query, "error", err)
			return nil
		}
		matches = search.Filter(listings, query)
		c.suggestions.Set(key, matches)
	}

	if len(matches) > c.suggestLimit {
		matches = matches[:c.suggestLimit]
	}
	return matches
}

// SetSort changes the ordering and re-sorts the current result set,
// publishing a fresh event.
func (c *Controller) SetSort(s search.Strategy) {
	c.mu.Lock()
	c.sortBy = s
	c.results = search.Sort(c.results, s, c.now())
	query := c.query
	results := c.results
	c.page.Reset(len(results))
	c.mu.Unlock()

	c.publish(Event{
		Query:     query,
		Results:   results,
		SortBy:    s,
		Timestamp: c.now(),
	})
}

// Clear empties the query state, invalidating nothing but the current view:
// caches keep their TTL-bounded entries.
func (c *Controller) Clear() {
	c.seq.Add(1) // any in-flight search becomes stale
	c.debouncer.Stop()

	c.mu.Lock()
	c.query = ""
	c.results = nil
	c.page.Reset(0)
	c.mu.Unlock()
}

// Visible returns the slice of current results the pagination cursor allows.
func (c *Controller) Visible() []models.Listing {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := min(c.page.Displayed(), len(c.results))
	return c.results[:n]
}

// LoadMore reveals up to one more page and returns the new visible slice.
func (c *Controller) LoadMore() []models.Listing {
	c.mu.Lock()
	c.page.LoadMore(len(c.results))
	c.mu.Unlock()
	return c.Visible()
}

// ViewLess collapses to one page and returns the new visible slice.
func (c *Controller) ViewLess() []models.Listing {
	c.mu.Lock()
	c.page.ViewLess(len(c.results))
	c.mu.Unlock()
	return c.Visible()
}

// Buttons returns the pagination control visibility for the current results.
func (c *Controller) Buttons() pagination.Buttons {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page.Buttons(len(c.results))
}

// Stop cancels any pending debounced search.
func (c *Controller) Stop() {
	c.debouncer.Stop()
}

// RemoveExpired evicts expired entries from both internal caches so a
// background sweeper can keep long-running sessions from accumulating
// stale result sets.
func (c *Controller) RemoveExpired() int {
	return c.queries.RemoveExpired() + c.suggestions.RemoveExpired()
}

func (c *Controller) publish(ev Event) {
	c.mu.Lock()
	fns := make([]func(Event), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// normalize produces the cache key for a query: trimmed and lower-cased.
// Invalid input is normalized rather than rejected; search is a best-effort
// filter, not a strict command.
func normalize(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}
