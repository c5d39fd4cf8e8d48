package config

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/authcore-io/authcore/internal/crypto"
)

// ServerConfig holds all configuration for the server.
// Tags use mapstructure for Viper unmarshalling and env variable binding.
type ServerConfig struct {
	HTTPPort    string `mapstructure:"HTTP_PORT"`
	MongoURI    string `mapstructure:"MONGO_URI"`
	MongoDBName string `mapstructure:"MONGO_DB_NAME"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`
	RedisDB     int    `mapstructure:"REDIS_DB"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	LogPretty   bool   `mapstructure:"LOG_PRETTY"`

	OtelServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// TokenSigningSecret signs access and refresh tokens (HMAC-SHA256).
	TokenSigningSecret string `mapstructure:"TOKEN_SIGNING_SECRET"`
	TokenIssuer        string `mapstructure:"TOKEN_ISSUER"`
	// TransportEncryptionKey is hex-encoded and must decode to exactly the
	// cipher's key size. Anything else fails at load.
	TransportEncryptionKey string `mapstructure:"TRANSPORT_ENCRYPTION_KEY"`

	// TTLs are human duration strings: "15m", "24h", "7d".
	AccessTokenTTL  string `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL string `mapstructure:"REFRESH_TOKEN_TTL"`
	SessionTTL      string `mapstructure:"SESSION_TTL"`
	StoreTimeout    string `mapstructure:"STORE_TIMEOUT"`

	CookieSecure bool `mapstructure:"COOKIE_SECURE"`
}

// ParseTTL parses a human duration string. On top of time.ParseDuration it
// accepts a "d" suffix for whole days, so "7d" and "168h" are equivalent.
func ParseTTL(s string) (time.Duration, error) {
	if trimmed, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(trimmed)
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q: %w", s, err)
		}
		if days < 0 {
			return 0, fmt.Errorf("negative day duration %q", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

// TransportKey decodes and length-checks the transport encryption key.
// A mismatched length is a fatal configuration error, caught at startup.
func (c *ServerConfig) TransportKey() ([]byte, error) {
	key, err := hex.DecodeString(c.TransportEncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("transport encryption key is not valid hex: %w", err)
	}
	if len(key) != crypto.KeySize {
		return nil, fmt.Errorf("transport encryption key must be %d bytes, got %d", crypto.KeySize, len(key))
	}
	return key, nil
}

// Validate checks every field the core depends on, so misconfiguration
// surfaces at startup rather than on the first request.
func (c *ServerConfig) Validate() error {
	if c.TokenSigningSecret == "" {
		return fmt.Errorf("TOKEN_SIGNING_SECRET must be set")
	}
	if _, err := c.TransportKey(); err != nil {
		return err
	}
	for name, value := range map[string]string{
		"ACCESS_TOKEN_TTL":  c.AccessTokenTTL,
		"REFRESH_TOKEN_TTL": c.RefreshTokenTTL,
		"SESSION_TTL":       c.SessionTTL,
		"STORE_TIMEOUT":     c.StoreTimeout,
	} {
		if _, err := ParseTTL(value); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// LoadConfig reads configuration from file, environment variables, and defaults.
func LoadConfig() (*ServerConfig, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/authcore/")
	v.AddConfigPath("$HOME/.authcore")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017/authcore_dev")
	v.SetDefault("MONGO_DB_NAME", "authcore_dev")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_PRETTY", true)
	v.SetDefault("OTEL_SERVICE_NAME", "authcore")
	v.SetDefault("TOKEN_ISSUER", "authcore")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "7d")
	v.SetDefault("SESSION_TTL", "30d")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("COOKIE_SECURE", false)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is acceptable; defaults and env vars apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg ServerConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
