package auction

import "pinkgavel/internal/models"

// CredentialSource provides the stored session credentials. The session
// store implements it; tests use a stub. The client never manages tokens
// itself.
type CredentialSource interface {
	// IsAuthenticated reports whether a session token is available.
	IsAuthenticated() bool

	// AuthHeader returns the Authorization header value ("Bearer <token>")
	// and whether one is available.
	AuthHeader() (string, bool)

	// CurrentUser returns the locally stored profile for the session, if any.
	CurrentUser() (*models.Profile, bool)
}

// Anonymous is a CredentialSource with no session. Used for unauthenticated
// browsing and in tests.
type Anonymous struct{}

func (Anonymous) IsAuthenticated() bool                   { return false }
func (Anonymous) AuthHeader() (string, bool)              { return "", false }
func (Anonymous) CurrentUser() (*models.Profile, bool)    { return nil, false }
