// Package search filters and orders listing collections. All functions are
// pure: they never mutate their input and filtering preserves input order.
package search

import (
	"sort"
	"strings"
	"time"

	"pinkgavel/internal/models"
)

// Strategy names a listing ordering.
type Strategy string

const (
	// Relevance is the identity ordering: filtered results keep their
	// existing order. It is the default when no explicit sort is chosen.
	Relevance Strategy = "relevance"

	// Newest surfaces active auctions before ended ones, each group by
	// creation time descending. Users browsing "newest" expect live
	// auctions first even when an older-but-active listing exists.
	Newest Strategy = "newest"

	// Oldest orders the whole collection by creation time ascending.
	Oldest Strategy = "oldest"

	// WonAuctions keeps only ended listings that received bids, most
	// recently ended first.
	WonAuctions Strategy = "won-auctions"
)

// ParseStrategy maps a user-facing sort name to a Strategy, falling back to
// Relevance for anything unrecognized.
func ParseStrategy(s string) Strategy {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case Newest:
		return Newest
	case Oldest:
		return Oldest
	case WonAuctions:
		return WonAuctions
	default:
		return Relevance
	}
}

// Filter keeps the listings matching query. An empty or whitespace query
// returns the input unchanged. Otherwise the query is tokenized on
// whitespace and a listing matches iff every token appears, case-
// insensitively, somewhere in its searchable text (title, description,
// seller name, tags). Tokens AND together; there is no OR. Matches keep
// their input order.
func Filter(listings []models.Listing, query string) []models.Listing {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return listings
	}

	matched := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		haystack := strings.ToLower(l.SearchText())
		if containsAll(haystack, tokens) {
			matched = append(matched, l)
		}
	}
	return matched
}

func containsAll(haystack string, tokens []string) bool {
	for _, tok := range tokens {
		if !strings.Contains(haystack, tok) {
			return false
		}
	}
	return true
}

// Sort orders listings by the given strategy relative to now. It always
// works on a shallow copy and never mutates the input slice.
func Sort(listings []models.Listing, strategy Strategy, now time.Time) []models.Listing {
	out := make([]models.Listing, len(listings))
	copy(out, listings)

	switch strategy {
	case Newest:
		return sortNewest(out, now)
	case Oldest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Created.Before(out[j].Created)
		})
		return out
	case WonAuctions:
		return sortWon(out, now)
	default:
		// Relevance and anything unknown: identity.
		return out
	}
}

// sortNewest partitions into active and ended, sorts each by created
// descending, and concatenates active first.
func sortNewest(listings []models.Listing, now time.Time) []models.Listing {
	active := make([]models.Listing, 0, len(listings))
	ended := make([]models.Listing, 0)
	for _, l := range listings {
		if l.Active(now) {
			active = append(active, l)
		} else {
			ended = append(ended, l)
		}
	}

	byCreatedDesc := func(s []models.Listing) {
		sort.SliceStable(s, func(i, j int) bool {
			return s[i].Created.After(s[j].Created)
		})
	}
	byCreatedDesc(active)
	byCreatedDesc(ended)

	return append(active, ended...)
}

// sortWon keeps ended listings with at least one bid, most recently ended
// first.
func sortWon(listings []models.Listing, now time.Time) []models.Listing {
	won := make([]models.Listing, 0, len(listings))
	for _, l := range listings {
		if !l.Active(now) && l.BidCount() > 0 {
			won = append(won, l)
		}
	}
	sort.SliceStable(won, func(i, j int) bool {
		return won[i].EndsAt.After(won[j].EndsAt)
	})
	return won
}
