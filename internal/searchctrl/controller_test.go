package searchctrl

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pinkgavel/internal/auction"
	"pinkgavel/internal/models"
	"pinkgavel/internal/search"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() models.SearchConfig {
	return models.SearchConfig{
		Debounce:        30 * time.Millisecond,
		PageSize:        12,
		ProfilePageSize: 4,
		FetchLimit:      100,
		SuggestLimit:    5,
	}
}

// fakeSource serves a fixed listing set and counts calls. An optional gate
// channel blocks each call until released, for in-flight race tests.
type fakeSource struct {
	mu       sync.Mutex
	calls    int
	listings []models.Listing
	err      error
	gate     chan struct{}
}

func (f *fakeSource) Listings(ctx context.Context, _ auction.ListingsOptions) ([]models.Listing, error) {
	f.mu.Lock()
	f.calls++
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.listings, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// eventRecorder collects published search events.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func inventory() []models.Listing {
	now := time.Now()
	mk := func(id, title string) models.Listing {
		return models.Listing{
			ID: id, Title: title,
			Created: now.Add(-time.Hour),
			EndsAt:  now.Add(time.Hour),
		}
	}
	out := []models.Listing{
		mk("1", "Vintage Lamp"),
		mk("2", "Vintage Brass Lamp"),
		mk("3", "Art Deco Lamp Vintage"),
		mk("4", "Oak Desk"),
		mk("5", "Brass Telescope"),
	}
	for i := 6; i <= 15; i++ {
		out = append(out, mk(string(rune('a'+i)), "Filler Item"))
	}
	return out
}

func TestController_DebouncedRapidFireCollapses(t *testing.T) {
	src := &fakeSource{listings: inventory()}
	c := New(src, testConfig(), 5*time.Minute, testLogger())
	rec := &eventRecorder{}
	c.Subscribe(rec.record)

	// Three keystrokes inside the quiet window: only the last fires.
	c.Search("v")
	time.Sleep(5 * time.Millisecond)
	c.Search("vi")
	time.Sleep(5 * time.Millisecond)
	c.Search("vintage")

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 1
	}, time.Second, 5*time.Millisecond)

	time.Sleep(80 * time.Millisecond)
	events := rec.snapshot()
	require.Len(t, events, 1, "exactly one downstream call for the burst")
	assert.Equal(t, "vintage", events[0].Query)
	assert.Equal(t, 1, src.callCount())
}

func TestController_EndToEndScenario(t *testing.T) {
	// 15 listings fetched, user types "vintage lamp", three match, default
	// relevance keeps filter order, both pagination controls stay hidden.
	src := &fakeSource{listings: inventory()}
	c := New(src, testConfig(), 5*time.Minute, testLogger())
	rec := &eventRecorder{}
	c.Subscribe(rec.record)

	c.SearchNow(context.Background(), "vintage lamp")

	events := rec.snapshot()
	require.Len(t, events, 1)
	ev := events[0]
	require.NoError(t, ev.Err)
	assert.Equal(t, "vintage lamp", ev.Query)
	assert.Equal(t, search.Relevance, ev.SortBy)
	require.Len(t, ev.Results, 3)
	assert.Equal(t, []string{"1", "2", "3"}, []string{ev.Results[0].ID, ev.Results[1].ID, ev.Results[2].ID},
		"relevance preserves filter order")
	assert.False(t, ev.Timestamp.IsZero())

	buttons := c.Buttons()
	assert.False(t, buttons.LoadMore, "3 results fit in one page of 12")
	assert.False(t, buttons.ViewLess)
	assert.Len(t, c.Visible(), 3)
}

func TestController_StaleResponseDiscarded(t *testing.T) {
	// Query A's fetch is still in flight when query B completes; A's
	// response must be dropped, not published.
	gate := make(chan struct{})
	src := &fakeSource{listings: inventory(), gate: gate}
	c := New(src, testConfig(), 5*time.Minute, testLogger())
	rec := &eventRecorder{}
	c.Subscribe(rec.record)

	doneA := make(chan struct{})
	go func() {
		defer close(doneA)
		c.SearchNow(context.Background(), "oak")
	}()

	// Wait until A is blocked inside the source, then issue B.
	require.Eventually(t, func() bool { return src.callCount() == 1 }, time.Second, time.Millisecond)

	doneB := make(chan struct{})
	go func() {
		defer close(doneB)
		c.SearchNow(context.Background(), "brass")
	}()
	require.Eventually(t, func() bool { return src.callCount() == 2 }, time.Second, time.Millisecond)

	close(gate)
	<-doneA
	<-doneB

	events := rec.snapshot()
	require.Len(t, events, 1, "the superseded search publishes nothing")
	assert.Equal(t, "brass", events[0].Query)

	c.mu.Lock()
	current := c.query
	c.mu.Unlock()
	assert.Equal(t, "brass", current)
}

func TestController_QueryCacheAvoidsRefetch(t *testing.T) {
	src := &fakeSource{listings: inventory()}
	c := New(src, testConfig(), 5*time.Minute, testLogger())

	c.SearchNow(context.Background(), "vintage")
	c.SearchNow(context.Background(), "Vintage ")
	c.SearchNow(context.Background(), "VINTAGE")

	assert.Equal(t, 1, src.callCount(), "queries normalize to the same cache key")
}

func TestController_FailureBecomesEventError(t *testing.T) {
	boom := errors.New("service unavailable")
	src := &fakeSource{err: boom}
	c := New(src, testConfig(), 5*time.Minute, testLogger())
	rec := &eventRecorder{}
	c.Subscribe(rec.record)

	c.SearchNow(context.Background(), "anything")

	events := rec.snapshot()
	require.Len(t, events, 1)
	assert.ErrorIs(t, events[0].Err, boom)
	assert.Empty(t, events[0].Results, "a failed search degrades to empty results plus an error")
}

func TestController_SuggestSwallowsFailures(t *testing.T) {
	src := &fakeSource{err: errors.New("down")}
	c := New(src, testConfig(), 5*time.Minute, testLogger())

	got := c.Suggest(context.Background(), "vintage")
	assert.Empty(t, got, "instant search is best-effort; failures return no matches")
}

func TestController_SuggestCapsResults(t *testing.T) {
	src := &fakeSource{listings: inventory()}
	c := New(src, testConfig(), 5*time.Minute, testLogger())

	got := c.Suggest(context.Background(), "item")
	assert.Len(t, got, 5, "suggestions are capped at the configured limit")

	got = c.Suggest(context.Background(), "")
	assert.Empty(t, got)
}

func TestController_SortChangeRepublishes(t *testing.T) {
	now := time.Now()
	src := &fakeSource{listings: []models.Listing{
		{ID: "old", Title: "lamp", Created: now.Add(-3 * time.Hour), EndsAt: now.Add(time.Hour)},
		{ID: "new", Title: "lamp", Created: now.Add(-1 * time.Hour), EndsAt: now.Add(time.Hour)},
	}}
	c := New(src, testConfig(), 5*time.Minute, testLogger())
	rec := &eventRecorder{}
	c.Subscribe(rec.record)

	c.SearchNow(context.Background(), "lamp")
	c.SetSort(search.Newest)

	events := rec.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, search.Newest, events[1].SortBy)
	require.Len(t, events[1].Results, 2)
	assert.Equal(t, "new", events[1].Results[0].ID)
}

func TestController_ClearEmptiesState(t *testing.T) {
	src := &fakeSource{listings: inventory()}
	c := New(src, testConfig(), 5*time.Minute, testLogger())

	c.SearchNow(context.Background(), "vintage")
	require.NotEmpty(t, c.Visible())

	c.Clear()
	assert.Empty(t, c.Visible())
	assert.False(t, c.Buttons().LoadMore)
}

func TestController_PaginationOverManyResults(t *testing.T) {
	src := &fakeSource{listings: inventory()}
	c := New(src, testConfig(), 5*time.Minute, testLogger())

	c.SearchNow(context.Background(), "") // empty query keeps all 15

	assert.Len(t, c.Visible(), 12, "first page")
	assert.True(t, c.Buttons().LoadMore)

	visible := c.LoadMore()
	assert.Len(t, visible, 15)
	assert.False(t, c.Buttons().LoadMore)
	assert.True(t, c.Buttons().ViewLess)

	visible = c.ViewLess()
	assert.Len(t, visible, 12)
}

func TestController_UnsubscribeStopsEvents(t *testing.T) {
	src := &fakeSource{listings: inventory()}
	c := New(src, testConfig(), 5*time.Minute, testLogger())
	rec := &eventRecorder{}
	unsubscribe := c.Subscribe(rec.record)

	c.SearchNow(context.Background(), "vintage")
	unsubscribe()
	c.SearchNow(context.Background(), "oak")

	assert.Len(t, rec.snapshot(), 1)
}
