// Package models defines the domain types shared across the pinkgavel client:
// auction listings, bids, profiles, and the service configuration. All auction
// data is owned by the remote API; these types hold transient client-side copies.
package models

import (
	"strings"
	"time"
)

// Media is an image reference with alternative text.
type Media struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// Seller identifies the profile that created a listing.
type Seller struct {
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar Media  `json:"avatar,omitempty"`
}

// Bid is a single bid on a listing. Immutable once fetched.
type Bid struct {
	ID      string    `json:"id,omitempty"`
	Amount  float64   `json:"amount"`
	Created time.Time `json:"created"`
	Bidder  Seller    `json:"bidder,omitempty"`
}

// Listing is an auction item with its bidding deadline and bid history.
type Listing struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Media       []Media   `json:"media,omitempty"`
	Created     time.Time `json:"created"`
	Updated     time.Time `json:"updated,omitempty"`
	EndsAt      time.Time `json:"endsAt"`
	Seller      Seller    `json:"seller,omitempty"`
	Bids        []Bid     `json:"bids,omitempty"`
}

// Active reports whether the auction is still open at the given instant.
// This is derived from EndsAt, never stored. A zero EndsAt (missing or
// unparseable deadline) counts as active so malformed listings are not
// silently hidden from active views.
func (l *Listing) Active(now time.Time) bool {
	if l.EndsAt.IsZero() {
		return true
	}
	return l.EndsAt.After(now)
}

// HighestBid returns the largest bid amount, or 0 when there are no bids.
func (l *Listing) HighestBid() float64 {
	var max float64
	for _, b := range l.Bids {
		if b.Amount > max {
			max = b.Amount
		}
	}
	return max
}

// BidCount returns the number of bids placed on the listing.
func (l *Listing) BidCount() int {
	return len(l.Bids)
}

// SearchText concatenates the fields a text search matches against:
// title, description, seller name, and tags.
func (l *Listing) SearchText() string {
	parts := []string{l.Title, l.Description, l.Seller.Name, strings.Join(l.Tags, " ")}
	return strings.Join(parts, " ")
}
