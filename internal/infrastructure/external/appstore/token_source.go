package appstore

import (
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mobiverify/iap-verify/internal/infrastructure/config"
)

const (
	appStoreAudience = "appstoreconnect-v1"

	// Apple rejects tokens valid for more than 20 minutes; the cache drops
	// them earlier so a cached token is never handed out near expiry.
	tokenValidity = 20 * time.Minute
	tokenCacheTTL = 15 * time.Minute
)

// TokenSource signs short-lived App Store Connect bearer tokens and caches
// them per bundle id. The cache is a sync.Map: concurrent misses may sign
// redundantly, which wastes a signature but stays correct, since every
// write is an idempotent replacement.
type TokenSource struct {
	issuerID string
	keyID    string
	key      *ecdsa.PrivateKey
	now      func() time.Time

	cache sync.Map // bundle id -> cachedToken
}

type cachedToken struct {
	jwt       string
	expiresAt time.Time
}

// NewTokenSource parses the signing key and builds a token source. A nil
// clock uses time.Now. The signing key has no fallback, so a malformed key
// must abort startup rather than surface per-request.
func NewTokenSource(cfg config.AppleStoreConfig, now func() time.Time) (*TokenSource, error) {
	if now == nil {
		now = time.Now
	}

	key, err := parsePrivateKey(cfg.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("invalid app store signing key: %w", err)
	}

	return &TokenSource{
		issuerID: cfg.IssuerID,
		keyID:    cfg.KeyID,
		key:      key,
		now:      now,
	}, nil
}

// Bearer returns a signed token for the bundle id, reusing the cached one
// while it is fresh.
func (s *TokenSource) Bearer(bundleID string) (string, error) {
	if v, ok := s.cache.Load(bundleID); ok {
		cached := v.(cachedToken)
		if s.now().Before(cached.expiresAt) {
			return cached.jwt, nil
		}
	}

	signed, err := s.sign(bundleID)
	if err != nil {
		return "", err
	}

	s.cache.Store(bundleID, cachedToken{
		jwt:       signed,
		expiresAt: s.now().Add(tokenCacheTTL),
	})

	return signed, nil
}

func (s *TokenSource) sign(bundleID string) (string, error) {
	// Backdate iat slightly so clock skew cannot make the token premature.
	issuedAt := s.now().Add(-5 * time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"iss": s.issuerID,
		"iat": issuedAt.Unix(),
		"exp": issuedAt.Add(tokenValidity).Unix(),
		"aud": appStoreAudience,
		"bid": bundleID,
	})
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign app store token: %w", err)
	}
	return signed, nil
}

// parsePrivateKey accepts the PKCS#8 key either as PEM or as bare base64
// DER (a PEM body with its armor lines stripped).
func parsePrivateKey(data []byte) (*ecdsa.PrivateKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no key material")
	}

	der := data
	if block, _ := pem.Decode(data); block != nil {
		der = block.Bytes
	} else {
		decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("key is neither PEM nor base64 DER: %w", err)
		}
		der = decoded
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse PKCS#8 key: %w", err)
	}

	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key is %T, want an ECDSA private key", parsed)
	}
	return key, nil
}
