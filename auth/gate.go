package auth

import (
	"context"
	"strings"
)

const bearerPrefix = "Bearer "

// TokenVerifier validates a bearer token and produces an identity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: a failed verification returns a *Failure.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Gate is the request-authentication gate. It extracts the bearer
// token from an Authorization header value and delegates to a
// TokenVerifier. It has no side effects beyond key-cache population.
type Gate struct {
	verifier TokenVerifier
}

// NewGate creates a request gate over the given verifier.
func NewGate(verifier TokenVerifier) *Gate {
	return &Gate{verifier: verifier}
}

// Authenticate validates the Authorization header value and verifies
// the bearer token it carries. The prefix check is case-insensitive.
// The returned error is always a *Failure.
func (g *Gate) Authenticate(ctx context.Context, header string) (*Identity, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, newFailure(KindMissingToken, nil)
	}
	if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		return nil, newFailure(KindMalformedHeader, nil)
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return nil, newFailure(KindMissingToken, nil)
	}
	return g.verifier.Verify(ctx, token)
}
