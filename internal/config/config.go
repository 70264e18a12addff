package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Port string

	AirtableAPIKey    string
	AirtableBaseID    string
	AirtableTableName string

	StripeSecretKey      string
	StripePublishableKey string

	SessionKey   []byte
	CSRFKey      []byte
	CookieDomain string
	CookieSecure bool

	LogLevel slog.Level
}

// Load reads configuration from a .env file (if present) overlaid with
// process environment variables. Required keys missing is an error;
// missing secrets fall back to generated development keys with a warning.
func Load() (*Config, error) {
	k := koanf.New(".")

	// Optional .env file, the way the original deployment shipped its
	// settings. Real environment variables win.
	if _, err := os.Stat(".env"); err == nil {
		if err := k.Load(file.Provider(".env"), dotenv.Parser()); err != nil {
			return nil, fmt.Errorf("load .env: %w", err)
		}
	}
	if err := k.Load(env.Provider(".", env.Opt{}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{
		Port:                 getString(k, "PORT", "3000"),
		AirtableAPIKey:       k.String("AIRTABLE_API_KEY"),
		AirtableBaseID:       k.String("AIRTABLE_BASE_ID"),
		AirtableTableName:    getString(k, "AIRTABLE_TABLE_NAME", "Users"),
		StripeSecretKey:      k.String("STRIPE_SECRET_KEY"),
		StripePublishableKey: k.String("STRIPE_PUBLISHABLE_KEY"),
		CookieDomain:         k.String("COOKIE_DOMAIN"),
		CookieSecure:         k.String("APP_ENV") == "production",
		LogLevel:             parseLogLevel(k.String("LOG_LEVEL")),
	}

	var missing []string
	if cfg.AirtableAPIKey == "" {
		missing = append(missing, "AIRTABLE_API_KEY")
	}
	if cfg.AirtableBaseID == "" {
		missing = append(missing, "AIRTABLE_BASE_ID")
	}
	if cfg.StripeSecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	cfg.SessionKey = loadKey(k, "SESSION_SECRET")
	cfg.CSRFKey = loadKey(k, "CSRF_KEY")

	// Make sure port is valid
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		slog.Error("Invalid PORT environment variable. Falling back to default.", "PORT", cfg.Port)
		cfg.Port = "3000"
	}

	return cfg, nil
}

func getString(k *koanf.Koanf, key, defaultValue string) string {
	if v := k.String(key); v != "" {
		return v
	}
	return defaultValue
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadKey decodes a base64 key of at least 32 bytes. Anything else gets a
// generated development key and a loud warning, like the session handling
// this app inherited: sessions signed with a generated key die on restart.
func loadKey(k *koanf.Koanf, name string) []byte {
	raw := k.String(name)
	if raw == "" {
		slog.Warn(name + " environment variable not set. Generating a random key for development. PLEASE SET " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(decoded) < 32 {
		// Accept a raw (non-base64) secret if it is long enough; the
		// original passed the plain string straight to express-session.
		if len(raw) >= 32 {
			return []byte(raw)
		}
		slog.Warn(name + " is invalid or too short (min 32 bytes). Generating a random key for development. PLEASE SET A SECURE " + name + " IN PRODUCTION!")
		return generateRandomBytes(32)
	}
	return decoded
}

// generateRandomBytes generates a random byte slice of specified length
// using crypto/rand.
func generateRandomBytes(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the platform is broken; give up.
		panic(fmt.Sprintf("crypto/rand unavailable: %v", err))
	}
	return b
}
