// Package pagination tracks how many items of a larger collection are
// currently displayed. Transitions are pure state changes; the caller
// re-derives the visible slice after each one.
package pagination

// Page sizes used across the client.
const (
	// GridPageSize is the listings grid page size.
	GridPageSize = 12

	// ProfilePageSize is the page size for profile sub-sections
	// (my listings, my wins).
	ProfilePageSize = 4
)

// State is a pagination cursor over a collection of some total size.
// displayed starts at zero; Reset establishes the first page.
type State struct {
	pageSize  int
	displayed int
}

// New creates a cursor with the given constant page size.
func New(pageSize int) *State {
	return &State{pageSize: pageSize}
}

// PageSize returns the constant page size.
func (s *State) PageSize() int { return s.pageSize }

// Displayed returns how many items are currently shown.
func (s *State) Displayed() int { return s.displayed }

// Increment adds n to the displayed count.
func (s *State) Increment(n int) {
	if n > 0 {
		s.displayed += n
	}
}

// Reset returns the cursor to exactly one page of a collection with the
// given total: min(pageSize, total). Called whenever the underlying
// collection changes, e.g. after a new search.
func (s *State) Reset(total int) {
	s.displayed = min(s.pageSize, total)
}

// LoadMore reveals min(pageSize, total-displayed) additional items and
// returns how many were added.
func (s *State) LoadMore(total int) int {
	remaining := total - s.displayed
	if remaining <= 0 {
		return 0
	}
	n := min(s.pageSize, remaining)
	s.displayed += n
	return n
}

// ViewLess collapses back to exactly one page, never to zero.
func (s *State) ViewLess(total int) {
	s.Reset(total)
}

// IsShowingAll reports whether every item of the collection is displayed.
func (s *State) IsShowingAll(total int) bool {
	return s.displayed >= total
}

// Buttons is the pagination control visibility derived from the cursor.
type Buttons struct {
	LoadMore bool
	ViewLess bool
}

// Buttons derives control visibility for a collection of the given total.
// While part of the collection is hidden, load-more is shown and view-less
// appears once more than one page is displayed. Once everything is shown,
// load-more disappears and view-less appears only if the collection exceeds
// one page.
func (s *State) Buttons(total int) Buttons {
	if s.displayed < total {
		return Buttons{
			LoadMore: true,
			ViewLess: s.displayed > s.pageSize,
		}
	}
	return Buttons{
		LoadMore: false,
		ViewLess: total > s.pageSize,
	}
}
