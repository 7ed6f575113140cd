// Package models - wire types for the remote auction API.
// Successful responses wrap their payload in a data envelope; failures carry
// a list of error messages. Both shapes are owned by the API and decoded as-is.
package models

// ListingsEnvelope wraps a listing collection response.
type ListingsEnvelope struct {
	Data []Listing `json:"data"`
	Meta Meta      `json:"meta,omitempty"`
}

// ListingEnvelope wraps a single listing response.
type ListingEnvelope struct {
	Data Listing `json:"data"`
}

// ProfileEnvelope wraps a profile response.
type ProfileEnvelope struct {
	Data Profile `json:"data"`
}

// Meta carries the API's pagination metadata. The client paginates locally,
// so Meta is informational only.
type Meta struct {
	CurrentPage int  `json:"currentPage,omitempty"`
	PageCount   int  `json:"pageCount,omitempty"`
	TotalCount  int  `json:"totalCount,omitempty"`
	IsFirstPage bool `json:"isFirstPage,omitempty"`
	IsLastPage  bool `json:"isLastPage,omitempty"`
}

// ErrorBody is the API's error envelope for non-2xx responses.
type ErrorBody struct {
	Errors     []ErrorMessage `json:"errors"`
	Status     string         `json:"status,omitempty"`
	StatusCode int            `json:"statusCode,omitempty"`
}

// ErrorMessage is a single human-readable API error.
type ErrorMessage struct {
	Message string `json:"message"`
}

// BidRequest is the body of a place-bid call.
type BidRequest struct {
	Amount float64 `json:"amount"`
}
