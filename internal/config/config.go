package config // package config loads application configuration from environment variables

import (
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Required variables are enforced by must()
// and missing values cause the process to exit: in particular JWT_SECRET
// and CRED_KEY are required so that token verification and credential
// encryption can never be silently disabled.
type Config struct {
	Env            string        // application environment (dev/test/prod)
	Port           string        // HTTP port to listen on
	DatabaseURL    string        // Postgres URL of the application store
	JWTSecret      string        // secret used to sign session tokens
	AccessTokenTTL time.Duration // session token lifetime
	BcryptCost     int           // bcrypt cost for password hashing
	CredKey        []byte        // 32-byte master key for credential encryption
	ProbeTimeout   time.Duration // bound on external connectivity probes
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           envStr("APP_PORT", "8080"),
		DatabaseURL:    must("DATABASE_URL"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTokenTTL: envDur("ACCESS_TOKEN_TTL", 7*24*time.Hour),
		BcryptCost:     envInt("BCRYPT_COST", 10),
		CredKey:        mustKey("CRED_KEY"),
		ProbeTimeout:   envDur("PROBE_TIMEOUT", 10*time.Second),
	}
}

// IsProd reports whether the service runs in production mode, which
// hardens cookies and strips stack traces from error payloads.
func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// must retrieves a required environment variable or exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustKey decodes a required 32-byte hex-encoded key.
func mustKey(key string) []byte {
	raw, err := hex.DecodeString(must(key))
	if err != nil || len(raw) != 32 {
		log.Fatalf("%s must be 64 hex characters (32 bytes)", key)
	}
	return raw
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}
