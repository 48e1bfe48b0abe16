package auth

import "time"

// Identity represents an authenticated principal. It is created per
// request by the verifier and never persisted.
type Identity struct {
	// Subject is the token's sub claim.
	Subject string

	// ClientID is the requesting client, from azp, then client_id,
	// then the "unknown_client" sentinel.
	ClientID string

	// Scopes are the permission grants carried by the token.
	Scopes []string

	// ExpiresAt is the token expiry instant (exp claim).
	ExpiresAt time.Time

	// Resource is the resource URL the token was accepted for.
	Resource string

	// Claims contains the raw claims from the token.
	Claims map[string]any
}

// HasScope checks if the identity carries a specific scope.
func (id *Identity) HasScope(scope string) bool {
	for _, s := range id.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// IsExpired checks if the identity has expired.
func (id *Identity) IsExpired() bool {
	if id.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().After(id.ExpiresAt)
}
