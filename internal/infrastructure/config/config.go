package config

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration, bound once at startup.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	IAP         IAPConfig
	AppleSecret AppleSecretConfig
	AppleStore  AppleStoreConfig
	Google      GoogleConfig
	Sentry      SentryConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds the audit log database configuration
type DatabaseConfig struct {
	URL            string
	MaxConnections int
	MinConnections int
	MaxLifetime    time.Duration
	MaxIdleTime    time.Duration
	HealthCheck    time.Duration
}

// RedisConfig holds optional Redis configuration. Rate limiting on the
// verify routes is enabled only when a URL is set.
type RedisConfig struct {
	URL string
}

// IAPConfig holds store-independent verification settings.
type IAPConfig struct {
	// GraceDays extends a subscription's nominal expiry before it is
	// reported expired. Zeroed per-outcome for cancelled purchases.
	GraceDays int
}

// AppleSecretConfig holds the verifyReceipt shared secrets. AppSpecific is
// a comma-separated list of bundle:secret pairs that wins over the master
// secret for its bundle ids.
type AppleSecretConfig struct {
	Master      string
	AppSpecific string

	secrets map[string]string
}

// Resolve returns the shared secret for a bundle id: the per-bundle secret
// when one is configured, the master secret otherwise. The second return is
// false when neither exists.
func (c *AppleSecretConfig) Resolve(bundleID string) (string, bool) {
	if s, ok := c.secrets[bundleID]; ok && s != "" {
		return s, true
	}
	if c.Master != "" {
		return c.Master, true
	}
	return "", false
}

func (c *AppleSecretConfig) parsePairs() {
	c.secrets = make(map[string]string)
	for _, pair := range strings.Split(c.AppSpecific, ",") {
		kv := strings.SplitN(pair, ":", 2)
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			continue
		}
		c.secrets[kv[0]] = kv[1]
	}
}

// AppleStoreConfig holds the App Store Connect API key used to sign
// StoreKit v2 bearer tokens. The private key arrives base64-encoded PEM.
type AppleStoreConfig struct {
	IssuerID         string
	KeyID            string
	PrivateKeyBase64 string

	PrivateKeyPEM []byte
}

// Configured reports whether the StoreKit v2 path can be wired at all.
func (c *AppleStoreConfig) Configured() bool {
	return c.IssuerID != "" || c.KeyID != "" || c.PrivateKeyBase64 != ""
}

// GoogleConfig holds the Play service-account credential.
type GoogleConfig struct {
	KeyJSON string
}

// SentryConfig holds Sentry configuration
type SentryConfig struct {
	DSN         string
	Environment string
	Release     string
}

// Load loads configuration from the optional .env file and the environment.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// .env file is optional; env vars alone are fine in production
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.AppleSecret.parsePairs()

	if cfg.AppleStore.PrivateKeyBase64 != "" {
		pem, err := base64.StdEncoding.DecodeString(cfg.AppleStore.PrivateKeyBase64)
		if err != nil {
			return nil, fmt.Errorf("apple store private key is not valid base64: %w", err)
		}
		cfg.AppleStore.PrivateKeyPEM = pem
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.readtimeout", 10*time.Second)
	viper.SetDefault("server.writetimeout", 10*time.Second)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)

	viper.SetDefault("iap.gracedays", 0)

	viper.SetDefault("database.maxconnections", 25)
	viper.SetDefault("database.minconnections", 5)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)
	viper.SetDefault("database.maxidletime", 30*time.Minute)
	viper.SetDefault("database.healthcheck", 30*time.Second)
}

func validate(cfg *Config) error {
	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.IAP.GraceDays < 0 {
		return fmt.Errorf("IAP_GRACEDAYS must not be negative")
	}
	if cfg.AppleStore.Configured() {
		// The StoreKit path has no fallback for a broken signing key, so
		// a half-configured key is a startup failure, not a request one.
		if cfg.AppleStore.IssuerID == "" || cfg.AppleStore.KeyID == "" || len(cfg.AppleStore.PrivateKeyPEM) == 0 {
			return fmt.Errorf("APPLESTORE issuer id, key id and private key must all be set")
		}
	}
	return nil
}
