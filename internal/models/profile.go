package models

// Profile is an auction account: identity, credit balance, and the listings
// the account created or won. Listings and Wins are populated only when the
// profile is fetched with its relations embedded.
type Profile struct {
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	Bio      string    `json:"bio,omitempty"`
	Avatar   Media     `json:"avatar,omitempty"`
	Banner   Media     `json:"banner,omitempty"`
	Credits  float64   `json:"credits,omitempty"`
	Listings []Listing `json:"listings,omitempty"`
	Wins     []Listing `json:"wins,omitempty"`
}

// ProfileUpdate carries the mutable profile fields for a profile update call.
// Nil fields are left unchanged by the API.
type ProfileUpdate struct {
	Bio    *string `json:"bio,omitempty"`
	Avatar *Media  `json:"avatar,omitempty"`
	Banner *Media  `json:"banner,omitempty"`
}
