package domain

import "time"

// TokenIssuer issues bearer tokens for a user. Only used for local tooling;
// real tokens come from the authentication service.
type TokenIssuer interface {
	Issue(userID string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}
