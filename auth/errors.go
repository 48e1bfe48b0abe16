package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrKeyNotFound is returned by a KeySource when a key id is absent
// even after a completed refresh.
var ErrKeyNotFound = errors.New("auth: signing key not found")

// FailureKind tags an authentication failure.
type FailureKind int

const (
	KindMissingToken FailureKind = iota
	KindMalformedHeader
	KindInvalidSignature
	KindUnknownIssuer
	KindAudienceMismatch
	KindExpired
	KindInsufficientScope
)

func (k FailureKind) String() string {
	switch k {
	case KindMissingToken:
		return "missing_token"
	case KindMalformedHeader:
		return "malformed_header"
	case KindInvalidSignature:
		return "invalid_signature"
	case KindUnknownIssuer:
		return "unknown_issuer"
	case KindAudienceMismatch:
		return "audience_mismatch"
	case KindExpired:
		return "expired"
	case KindInsufficientScope:
		return "insufficient_scope"
	default:
		return "unknown"
	}
}

// Failure is a typed authentication or authorization failure. It is
// terminal for the request: none of the kinds are retried.
type Failure struct {
	// Kind tags the failure variant.
	Kind FailureKind

	// MissingScopes names the required scopes absent from the token.
	// Set only for KindInsufficientScope.
	MissingScopes []string

	cause error
}

// Error returns the failure message, including the missing scopes for
// an insufficient-scope failure.
func (f *Failure) Error() string {
	if f.Kind == KindInsufficientScope {
		return fmt.Sprintf("auth: insufficient scope: missing %s", strings.Join(f.MissingScopes, ", "))
	}
	if f.cause != nil {
		return fmt.Sprintf("auth: %s: %v", f.Kind, f.cause)
	}
	return "auth: " + f.Kind.String()
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (f *Failure) Unwrap() error {
	return f.cause
}

// StatusCode maps the failure to an HTTP status class. An
// insufficient-scope failure is authenticated-but-forbidden; every
// other kind is unauthenticated.
func (f *Failure) StatusCode() int {
	if f.Kind == KindInsufficientScope {
		return http.StatusForbidden
	}
	return http.StatusUnauthorized
}

func newFailure(kind FailureKind, cause error) *Failure {
	return &Failure{Kind: kind, cause: cause}
}

func insufficientScope(missing []string) *Failure {
	return &Failure{Kind: KindInsufficientScope, MissingScopes: missing}
}

// AsFailure extracts a *Failure from an error chain.
func AsFailure(err error) (*Failure, bool) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}
