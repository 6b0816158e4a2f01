package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppleSecretResolve(t *testing.T) {
	t.Run("per-bundle secret wins over the master", func(t *testing.T) {
		cfg := AppleSecretConfig{
			Master:      "master-secret",
			AppSpecific: "com.example.one:secret-one,com.example.two:secret-two",
		}
		cfg.parsePairs()

		secret, ok := cfg.Resolve("com.example.one")
		assert.True(t, ok)
		assert.Equal(t, "secret-one", secret)

		secret, ok = cfg.Resolve("com.example.two")
		assert.True(t, ok)
		assert.Equal(t, "secret-two", secret)
	})

	t.Run("unknown bundle falls back to the master", func(t *testing.T) {
		cfg := AppleSecretConfig{
			Master:      "master-secret",
			AppSpecific: "com.example.one:secret-one",
		}
		cfg.parsePairs()

		secret, ok := cfg.Resolve("com.example.other")
		assert.True(t, ok)
		assert.Equal(t, "master-secret", secret)
	})

	t.Run("no secret at all reports false", func(t *testing.T) {
		cfg := AppleSecretConfig{}
		cfg.parsePairs()

		_, ok := cfg.Resolve("com.example.app")
		assert.False(t, ok)
	})

	t.Run("malformed pairs are skipped", func(t *testing.T) {
		cfg := AppleSecretConfig{
			AppSpecific: "no-colon,:empty-bundle,empty-secret:,com.example.one:secret-one",
		}
		cfg.parsePairs()

		secret, ok := cfg.Resolve("com.example.one")
		assert.True(t, ok)
		assert.Equal(t, "secret-one", secret)

		_, ok = cfg.Resolve("no-colon")
		assert.False(t, ok)
	})
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Database: DatabaseConfig{URL: "postgres://localhost/iap"},
		}
	}

	t.Run("database URL is required", func(t *testing.T) {
		cfg := base()
		cfg.Database.URL = ""
		assert.Error(t, validate(cfg))
	})

	t.Run("negative grace days are rejected", func(t *testing.T) {
		cfg := base()
		cfg.IAP.GraceDays = -1
		assert.Error(t, validate(cfg))
	})

	t.Run("half-configured app store key fails fast", func(t *testing.T) {
		cfg := base()
		cfg.AppleStore = AppleStoreConfig{IssuerID: "issuer-123"}
		assert.Error(t, validate(cfg))
	})

	t.Run("fully configured app store key passes", func(t *testing.T) {
		cfg := base()
		cfg.AppleStore = AppleStoreConfig{
			IssuerID:         "issuer-123",
			KeyID:            "KEY123",
			PrivateKeyBase64: "ignored-here",
			PrivateKeyPEM:    []byte("key material"),
		}
		assert.NoError(t, validate(cfg))
	})

	t.Run("absent app store key is fine", func(t *testing.T) {
		assert.NoError(t, validate(base()))
	})
}
