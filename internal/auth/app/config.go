package app

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/authserver/pkg/cryptox"
	"github.com/aussiebroadwan/authserver/pkg/httpx"
)

// Key sources.
const (
	KeySourceStatic   = "static"
	KeySourcePEM      = "pem"
	KeySourceGenerate = "generate"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// DefaultIssuer is used when AUTH_ISSUER is unset.
const DefaultIssuer = "http://localhost:8080"

type Config struct {
	Issuer string // issuer claim and discovery issuer, without trailing slash

	KeySource string // static, pem or generate (default: static)
	KeyFile   string // PEM private key, required for the pem source
	RSABits   int    // key size for the generate source (default: 2048)

	ClientsFile  string // optional YAML client registry; the demo registry is used without it
	Store        string // memory or sqlite (default: memory)
	DatabaseFile string // SQLite database file (default: ./auth.db)
	PepperFile   string // optional pepper for client secret hashing

	MaxTokenTTL          time.Duration // caps every client's validity (default: 24h)
	MaxConcurrentSigning int           // concurrent RSA operations (default: GOMAXPROCS*2)
	IntrospectScopes     []string      // scopes needed to call introspection; empty means any client

	Env                 string        // dev, staging, prod (default: dev)
	LogLevel            string        // debug, info, warn, error (default: info)
	LogFormat           string        // json, text (default: json)
	Port                int           // HTTP port (default: 8080)
	ShutdownGracePeriod time.Duration // graceful shutdown timeout (default: 10s)

	RateLimits httpx.Limits
}

// LoadConfig reads the environment. Unparseable values fall back to their
// defaults; combinations that cannot work are errors.
func LoadConfig() (Config, error) {
	cfg := Config{
		Issuer:               strings.TrimRight(getEnvOrDefault("AUTH_ISSUER", DefaultIssuer), "/"),
		KeySource:            strings.ToLower(getEnvOrDefault("AUTH_KEY_SOURCE", KeySourceStatic)),
		KeyFile:              os.Getenv("AUTH_KEY_FILE"),
		RSABits:              getEnvIntOrDefault("AUTH_RSA_BITS", cryptox.MinRSABits),
		ClientsFile:          os.Getenv("AUTH_CLIENTS_FILE"),
		Store:                strings.ToLower(getEnvOrDefault("AUTH_STORE", StoreMemory)),
		DatabaseFile:         getEnvOrDefault("AUTH_DATABASE_FILE", "auth.db"),
		PepperFile:           os.Getenv("AUTH_PEPPER_FILE"),
		MaxTokenTTL:          getEnvDurationOrDefault("AUTH_MAX_TOKEN_TTL", 24*time.Hour),
		MaxConcurrentSigning: getEnvIntOrDefault("AUTH_MAX_CONCURRENT_SIGNING", runtime.GOMAXPROCS(0)*2),
		IntrospectScopes:     httpx.ParseSpaceDelimitedFields(strings.ReplaceAll(os.Getenv("AUTH_INTROSPECT_SCOPES"), ",", " ")),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		RateLimits:           httpx.LimitsFromEnv(),
	}

	return cfg, cfg.Validate()
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	switch c.KeySource {
	case KeySourceStatic, KeySourceGenerate:
	case KeySourcePEM:
		if c.KeyFile == "" {
			return fmt.Errorf("config: AUTH_KEY_FILE is required when AUTH_KEY_SOURCE=%s", KeySourcePEM)
		}
	default:
		return fmt.Errorf("config: unknown AUTH_KEY_SOURCE %q", c.KeySource)
	}

	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.DatabaseFile == "" {
			return fmt.Errorf("config: AUTH_DATABASE_FILE is required when AUTH_STORE=%s", StoreSQLite)
		}
	default:
		return fmt.Errorf("config: unknown AUTH_STORE %q", c.Store)
	}

	if c.Issuer == "" {
		return fmt.Errorf("config: AUTH_ISSUER must not be empty")
	}
	if c.KeySource == KeySourceGenerate && c.RSABits < cryptox.MinRSABits {
		return fmt.Errorf("config: AUTH_RSA_BITS must be at least %d", cryptox.MinRSABits)
	}
	if c.MaxTokenTTL < 0 {
		return fmt.Errorf("config: AUTH_MAX_TOKEN_TTL must not be negative")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds.
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
