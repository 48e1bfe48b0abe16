package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// SigningKey is one public key from the issuer's key set. Immutable
// once fetched; a refresh replaces entries wholesale.
type SigningKey struct {
	KeyID     string
	Algorithm string
	Key       *rsa.PublicKey
}

// KeySource resolves signing keys by key id.
type KeySource interface {
	// Key returns the key for the given key id, refreshing the
	// backing key set on a miss. Fails with ErrKeyNotFound if the id
	// is still absent after the refresh.
	Key(ctx context.Context, keyID string) (*SigningKey, error)
}

// JWKSConfig configures the JWKS key source.
type JWKSConfig struct {
	// URL is the JWKS endpoint URL, normally
	// <issuer>/.well-known/jwks.json.
	URL string

	// HTTPClient is the HTTP client to use for requests.
	// If nil, a default client with a 10s timeout is used.
	HTTPClient *http.Client
}

// JWKSKeySource retrieves signing keys from a JWKS endpoint and caches
// them by key id. The cache refreshes only on a miss, never
// speculatively, and concurrent misses on the same key id share one
// in-flight fetch. Misses on different key ids proceed independently.
type JWKSKeySource struct {
	config JWKSConfig

	mu   sync.RWMutex
	keys map[string]*SigningKey

	group singleflight.Group
}

// NewJWKSKeySource creates a new JWKS key source.
func NewJWKSKeySource(config JWKSConfig) *JWKSKeySource {
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}

	return &JWKSKeySource{
		config: config,
		keys:   make(map[string]*SigningKey),
	}
}

// Key returns the key for the given key id.
// If keyID is empty and there's exactly one key, that key is returned.
func (s *JWKSKeySource) Key(ctx context.Context, keyID string) (*SigningKey, error) {
	s.mu.RLock()
	key := s.lookupLocked(keyID)
	s.mu.RUnlock()
	if key != nil {
		return key, nil
	}

	// Miss: one shared fetch per key id.
	v, err, _ := s.group.Do(keyID, func() (any, error) {
		// A concurrent flight may have populated the cache already.
		s.mu.RLock()
		key := s.lookupLocked(keyID)
		s.mu.RUnlock()
		if key != nil {
			return key, nil
		}

		if err := s.refresh(ctx); err != nil {
			return nil, err
		}

		s.mu.RLock()
		key = s.lookupLocked(keyID)
		s.mu.RUnlock()
		if key == nil {
			return nil, ErrKeyNotFound
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*SigningKey), nil
}

// lookupLocked finds a key by id. Caller must hold at least RLock.
func (s *JWKSKeySource) lookupLocked(keyID string) *SigningKey {
	if keyID == "" {
		if len(s.keys) == 1 {
			for _, key := range s.keys {
				return key
			}
		}
		return nil
	}
	return s.keys[keyID]
}

// refresh fetches the key set, retrying exactly once on a
// timeout-class failure. Previously cached keys survive a failed
// refresh so known key ids keep verifying during issuer outages.
func (s *JWKSKeySource) refresh(ctx context.Context) error {
	err := s.fetch(ctx)
	if err != nil && isTimeout(err) {
		err = s.fetch(ctx)
	}
	return err
}

func (s *JWKSKeySource) fetch(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.URL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := s.config.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch JWKS: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch JWKS: unexpected status %d", resp.StatusCode)
	}

	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("decode JWKS: %w", err)
	}

	keys := make(map[string]*SigningKey, len(doc.Keys))
	for _, jwk := range doc.Keys {
		if jwk.Kty != "RSA" {
			continue
		}
		pubKey, err := parseRSAPublicKey(jwk)
		if err != nil {
			continue // skip invalid entries
		}
		alg := jwk.Alg
		if alg == "" {
			alg = "RS256"
		}
		keys[jwk.Kid] = &SigningKey{KeyID: jwk.Kid, Algorithm: alg, Key: pubKey}
	}

	s.mu.Lock()
	s.keys = keys
	s.mu.Unlock()

	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// jwksDocument is the JWKS endpoint response format.
type jwksDocument struct {
	Keys []jwkEntry `json:"keys"`
}

// jwkEntry represents a single JWK.
type jwkEntry struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// parseRSAPublicKey converts a JWK to an RSA public key.
func parseRSAPublicKey(jwk jwkEntry) (*rsa.PublicKey, error) {
	if jwk.N == "" {
		return nil, fmt.Errorf("missing n parameter")
	}
	if jwk.E == "" {
		return nil, fmt.Errorf("missing e parameter")
	}

	nBytes, err := base64.RawURLEncoding.DecodeString(jwk.N)
	if err != nil {
		return nil, fmt.Errorf("decode n: %w", err)
	}
	n := new(big.Int).SetBytes(nBytes)

	eBytes, err := base64.RawURLEncoding.DecodeString(jwk.E)
	if err != nil {
		return nil, fmt.Errorf("decode e: %w", err)
	}
	e := new(big.Int).SetBytes(eBytes)

	return &rsa.PublicKey{
		N: n,
		E: int(e.Int64()),
	}, nil
}

// StaticKeySource serves a fixed key set. Intended for tests and local
// development.
type StaticKeySource struct {
	keys map[string]*SigningKey
}

// NewStaticKeySource creates a key source over a fixed set of keys.
func NewStaticKeySource(keys ...*SigningKey) *StaticKeySource {
	m := make(map[string]*SigningKey, len(keys))
	for _, key := range keys {
		m[key.KeyID] = key
	}
	return &StaticKeySource{keys: m}
}

// Key returns the key for the given key id, or ErrKeyNotFound.
func (s *StaticKeySource) Key(_ context.Context, keyID string) (*SigningKey, error) {
	if keyID == "" && len(s.keys) == 1 {
		for _, key := range s.keys {
			return key, nil
		}
	}
	key, ok := s.keys[keyID]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return key, nil
}

// Ensure implementations satisfy KeySource.
var (
	_ KeySource = (*JWKSKeySource)(nil)
	_ KeySource = (*StaticKeySource)(nil)
)
