// Package auth gates tool requests behind OAuth 2.1 bearer tokens.
//
// It validates token signatures against an issuer's rotating JWKS key
// set and enforces issuer, audience, expiry, and scope policy. The
// package is transport-agnostic: Gate consumes a raw Authorization
// header value and produces either an Identity or a typed *Failure
// that the transport maps to a 401- or 403-class response.
package auth
