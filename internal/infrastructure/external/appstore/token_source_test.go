package appstore_test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobiverify/iap-verify/internal/infrastructure/config"
	"github.com/mobiverify/iap-verify/internal/infrastructure/external/appstore"
)

func newSigningKey(t *testing.T) (*ecdsa.PrivateKey, []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	return key, pemBytes
}

func TestTokenSource(t *testing.T) {
	key, pemBytes := newSigningKey(t)
	cfg := config.AppleStoreConfig{
		IssuerID:      "issuer-123",
		KeyID:         "KEY123",
		PrivateKeyPEM: pemBytes,
	}

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("signs a verifiable token with App Store Connect claims", func(t *testing.T) {
		source, err := appstore.NewTokenSource(cfg, func() time.Time { return now })
		require.NoError(t, err)

		bearer, err := source.Bearer("com.example.app")
		require.NoError(t, err)

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(bearer, claims, func(tok *jwt.Token) (interface{}, error) {
			return &key.PublicKey, nil
		}, jwt.WithValidMethods([]string{"ES256"}), jwt.WithTimeFunc(func() time.Time { return now }))
		require.NoError(t, err)
		require.True(t, token.Valid)

		assert.Equal(t, "KEY123", token.Header["kid"])
		assert.Equal(t, "issuer-123", claims["iss"])
		assert.Equal(t, "appstoreconnect-v1", claims["aud"])
		assert.Equal(t, "com.example.app", claims["bid"])

		iat := int64(claims["iat"].(float64))
		exp := int64(claims["exp"].(float64))
		assert.Equal(t, now.Add(-5*time.Second).Unix(), iat, "iat is backdated against clock skew")
		assert.Equal(t, 20*time.Minute, time.Duration(exp-iat)*time.Second)
	})

	t.Run("caches per bundle id while fresh", func(t *testing.T) {
		clock := now
		source, err := appstore.NewTokenSource(cfg, func() time.Time { return clock })
		require.NoError(t, err)

		first, err := source.Bearer("com.example.app")
		require.NoError(t, err)

		clock = clock.Add(10 * time.Minute)
		second, err := source.Bearer("com.example.app")
		require.NoError(t, err)
		assert.Equal(t, first, second)

		clock = clock.Add(10 * time.Minute)
		third, err := source.Bearer("com.example.app")
		require.NoError(t, err)
		assert.NotEqual(t, first, third, "an aged-out token is re-signed")
	})

	t.Run("bundle ids do not share tokens", func(t *testing.T) {
		source, err := appstore.NewTokenSource(cfg, func() time.Time { return now })
		require.NoError(t, err)

		a, err := source.Bearer("com.example.one")
		require.NoError(t, err)
		b, err := source.Bearer("com.example.two")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)
	})

	t.Run("rejects a malformed key at construction", func(t *testing.T) {
		bad := cfg
		bad.PrivateKeyPEM = []byte("not a key")

		_, err := appstore.NewTokenSource(bad, nil)
		assert.Error(t, err)
	})

	t.Run("rejects an empty key at construction", func(t *testing.T) {
		bad := cfg
		bad.PrivateKeyPEM = nil

		_, err := appstore.NewTokenSource(bad, nil)
		assert.Error(t, err)
	})
}
