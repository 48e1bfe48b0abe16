package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/golang-jwt/jwt/v5"
)

// unknownClient is the client id reported when the token carries
// neither an azp nor a client_id claim.
const unknownClient = "unknown_client"

// VerifierConfig configures token verification policy.
type VerifierConfig struct {
	// Issuer is the expected token issuer. The iss claim must equal
	// it exactly.
	Issuer string

	// Audiences are the accepted audience values. The token's aud
	// claim (string or array) must contain at least one of them; a
	// resource claim is consulted when aud is absent. Empty disables
	// the audience check.
	Audiences []string

	// RequiredScopes must all be present in the token's scope or scp
	// claim.
	RequiredScopes []string

	// ResourceURL is the fallback resource when the token carries no
	// usable aud or resource claim.
	ResourceURL string
}

// Verifier validates bearer tokens against a KeySource and the
// configured issuer, audience, and scope policy.
type Verifier struct {
	config VerifierConfig
	keys   KeySource
}

// NewVerifier creates a token verifier.
func NewVerifier(config VerifierConfig, keys KeySource) *Verifier {
	return &Verifier{config: config, keys: keys}
}

// Verify validates the token and produces an identity. The returned
// error is always a *Failure.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, newFailure(KindMissingToken, nil)
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		key, err := v.keys.Key(ctx, kid)
		if err != nil {
			return nil, err
		}
		return key.Key, nil
	}, jwt.WithValidMethods([]string{"RS256"}), jwt.WithExpirationRequired())
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, newFailure(KindExpired, err)
		case errors.Is(err, ErrKeyNotFound), errors.Is(err, jwt.ErrTokenUnverifiable):
			// Key resolution failed: the kid is unknown after a
			// refresh, or the key set could not be fetched at all.
			// Either way the token cannot be attributed to the
			// issuer, which is not the same as a bad signature.
			return nil, newFailure(KindUnknownIssuer, err)
		default:
			return nil, newFailure(KindInvalidSignature, err)
		}
	}

	if iss, _ := claims["iss"].(string); iss != v.config.Issuer {
		return nil, newFailure(KindUnknownIssuer, fmt.Errorf("issuer %q not accepted", iss))
	}

	matched, ok := v.matchAudience(claims)
	if !ok {
		return nil, newFailure(KindAudienceMismatch, nil)
	}

	scopes := extractScopes(claims)
	if missing := v.missingScopes(scopes); len(missing) > 0 {
		return nil, insufficientScope(missing)
	}

	return v.buildIdentity(claims, scopes, matched), nil
}

// matchAudience checks the aud claim (string or array) against the
// configured audiences, falling back to the resource claim when aud is
// absent. It returns the claim value that matched.
func (v *Verifier) matchAudience(claims jwt.MapClaims) (string, bool) {
	if len(v.config.Audiences) == 0 {
		return "", true
	}

	audiences := claimStrings(claims["aud"])
	if len(audiences) == 0 {
		if resource, _ := claims["resource"].(string); resource != "" {
			audiences = []string{resource}
		}
	}
	for _, aud := range audiences {
		for _, want := range v.config.Audiences {
			if aud == want {
				return aud, true
			}
		}
	}
	return "", false
}

func (v *Verifier) missingScopes(granted []string) []string {
	var missing []string
	for _, required := range v.config.RequiredScopes {
		found := false
		for _, scope := range granted {
			if scope == required {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, required)
		}
	}
	return missing
}

func (v *Verifier) buildIdentity(claims jwt.MapClaims, scopes []string, matched string) *Identity {
	identity := &Identity{
		ClientID: unknownClient,
		Scopes:   scopes,
		Resource: v.resolveResource(claims, matched),
		Claims:   make(map[string]any, len(claims)),
	}

	for k, val := range claims {
		identity.Claims[k] = val
	}

	if sub, ok := claims["sub"].(string); ok {
		identity.Subject = sub
	}
	if azp, ok := claims["azp"].(string); ok && azp != "" {
		identity.ClientID = azp
	} else if clientID, ok := claims["client_id"].(string); ok && clientID != "" {
		identity.ClientID = clientID
	}
	if exp, ok := claims["exp"].(float64); ok {
		identity.ExpiresAt = time.Unix(int64(exp), 0)
	}

	return identity
}

// resolveResource picks the resource URL the token was accepted for:
// the matched audience, then the first aud value, then the resource
// claim, then the configured default.
func (v *Verifier) resolveResource(claims jwt.MapClaims, matched string) string {
	if matched != "" {
		return matched
	}
	if audiences := claimStrings(claims["aud"]); len(audiences) > 0 {
		return audiences[0]
	}
	if resource, _ := claims["resource"].(string); resource != "" {
		return resource
	}
	return v.config.ResourceURL
}

// claimStrings flattens a claim that may be a single string or an
// array of strings.
func claimStrings(value any) []string {
	switch v := value.(type) {
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	case []string:
		result := make([]string, 0, len(v))
		for _, s := range v {
			if s != "" {
				result = append(result, s)
			}
		}
		return result
	case []any:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				result = append(result, s)
			}
		}
		return result
	default:
		return nil
	}
}

// extractScopes reads the scope claim (whitespace- or comma-delimited
// string) or the scp claim (array of strings). A blank scope string
// counts as absent so a populated scp array still applies.
func extractScopes(claims jwt.MapClaims) []string {
	if scope, ok := claims["scope"].(string); ok && strings.TrimSpace(scope) != "" {
		return splitScopes(scope)
	}
	return claimStrings(claims["scp"])
}

func splitScopes(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}
