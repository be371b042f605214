// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the guides directory, the view database,
// admin authentication, rate limiting, and observability.
package config

import (
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "guide-server")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// AuthConfig defines the shared-password admin login.
type AuthConfig struct {
	// Password is the shared admin secret (ADMIN_PASSWORD).
	Password string
	// PasswordDefaulted is true when ADMIN_PASSWORD was unset and the
	// development default is in use. Callers should warn loudly.
	PasswordDefaulted bool
	// SessionTTL is how long an issued token stays valid.
	SessionTTL time.Duration
}

// DevAdminPassword is used when ADMIN_PASSWORD is not set. It is only
// acceptable for local development.
const DevAdminPassword = "changeme-dev"

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	MaxBodyBytes      int64         // request body cap
	GinMode           string        // debug|release|test
	TrustedProxies    []string      // IPs/CIDRs allowed to set X-Forwarded-For; empty trusts none

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogRedact      bool   // scrub PII/secrets from access logs
	SwaggerEnabled bool   // enable Swagger UI route

	// App
	DBPath       string // SQLite path for the view ledger
	GuidesDir    string // one sub-directory per guide slug
	TemplatePath string // optional override of the embedded tutorial template
	StaticDir    string // CSS/JS served under /guides/static; "" disables
	DevMode      bool   // re-read templates per render, watch guides for changes

	// Views
	ExcludedIPs     []string // addresses whose views are never recorded
	TopGuidesLimit  int      // default size of the top-guides report
	LegacyViewsPath string   // JSON file read by the one-time importer

	// Admin authentication
	Auth AuthConfig

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables, applies defaults,
// normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		Port:              str("PORT", "8080"),
		ReadTimeout:       dur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: dur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      dur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       dur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    num("MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:      int64(num("MAX_BODY_BYTES", 2<<20)),
		GinMode:           strings.ToLower(str("GIN_MODE", "release")),
		TrustedProxies:    list("TRUSTED_PROXIES"),

		LogLevel:       strings.ToLower(str("LOG_LEVEL", "info")),
		LogPretty:      flag("LOG_PRETTY", false),
		LogRedact:      flag("LOG_REDACT", true),
		SwaggerEnabled: flag("SWAGGER_ENABLED", false),

		DBPath:       str("DB_PATH", "view_stats.db"),
		GuidesDir:    filepath.Clean(str("GUIDES_DIR", "guides")),
		TemplatePath: str("TEMPLATE_PATH", ""),
		StaticDir:    str("STATIC_DIR", "static"),
		DevMode:      flag("DEV_MODE", false),

		ExcludedIPs:     list("EXCLUDED_IPS"),
		TopGuidesLimit:  num("TOP_GUIDES_LIMIT", 3),
		LegacyViewsPath: str("LEGACY_VIEWS_PATH", "view_stats.json"),

		Auth: AuthConfig{
			Password:   str("ADMIN_PASSWORD", ""),
			SessionTTL: dur("SESSION_TTL", 24*time.Hour),
		},

		RateRPS:   ratio("RATE_RPS", 5.0),
		RateBurst: num("RATE_BURST", 10),

		CORS: CORSConfig{AllowedOrigins: list("CORS_ALLOWED_ORIGINS")},
		Security: SecurityConfig{
			EnableHSTS: flag("ENABLE_HSTS", false),
			HSTSMaxAge: dur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		OTEL: OTELConfig{
			Enabled:     flag("OTEL_ENABLED", false),
			Endpoint:    str("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    flag("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: str("OTEL_SERVICE_NAME", "guide-server"),
			SampleRatio: ratio("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}
	cfg.normalize()
	return cfg, cfg.validate()
}

func (c *Config) normalize() {
	if c.LogLevel == "warning" {
		c.LogLevel = "warn"
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		c.GinMode = "release"
	}
	if strings.TrimSpace(c.Auth.Password) == "" {
		c.Auth.Password = DevAdminPassword
		c.Auth.PasswordDefaulted = true
	}
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true}

// validate returns the first violated constraint.
func (c Config) validate() error {
	blank := func(s string) bool { return strings.TrimSpace(s) == "" }
	checks := []struct {
		failed bool
		msg    string
	}{
		{!logLevels[c.LogLevel], "LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic"},
		{blank(c.Port), "PORT must not be empty"},
		{c.ReadTimeout <= 0 || c.ReadHeaderTimeout <= 0 || c.WriteTimeout <= 0 || c.IdleTimeout <= 0, "timeouts must be positive durations"},
		{c.MaxHeaderBytes <= 0, "MAX_HEADER_BYTES must be > 0"},
		{c.MaxBodyBytes <= 0, "MAX_BODY_BYTES must be > 0"},
		{!validProxies(c.TrustedProxies), "TRUSTED_PROXIES must list IP addresses or CIDR ranges"},
		{blank(c.DBPath), "DB_PATH must not be empty"},
		{blank(c.GuidesDir) || c.GuidesDir == ".", "GUIDES_DIR must name a directory"},
		{c.TopGuidesLimit < 1, "TOP_GUIDES_LIMIT must be >= 1"},
		{c.Auth.SessionTTL <= 0, "SESSION_TTL must be > 0"},
		{c.RateRPS < 0, "RATE_RPS must be >= 0"},
		{c.RateBurst < 1, "RATE_BURST must be >= 1"},
		{c.Security.HSTSMaxAge < 0, "HSTS_MAX_AGE must be >= 0"},
		{c.OTEL.SampleRatio < 0 || c.OTEL.SampleRatio > 1, "OTEL_TRACES_SAMPLER_ARG must be in [0,1]"},
	}
	for _, ch := range checks {
		if ch.failed {
			return errors.New(ch.msg)
		}
	}
	return nil
}

func validProxies(ps []string) bool {
	for _, p := range ps {
		if _, err := netip.ParsePrefix(p); err == nil {
			continue
		}
		if _, err := netip.ParseAddr(p); err != nil {
			return false
		}
	}
	return true
}

// ---- env parsing ----

// lookup returns parse(value) for a non-empty variable k, or def when it is
// unset, empty or unparsable.
func lookup[T any](k string, def T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(k)
	if !ok || v == "" {
		return def
	}
	out, err := parse(v)
	if err != nil {
		return def
	}
	return out
}

func str(k, def string) string {
	return lookup(k, def, func(v string) (string, error) { return v, nil })
}

func num(k string, def int) int { return lookup(k, def, strconv.Atoi) }

func ratio(k string, def float64) float64 {
	return lookup(k, def, func(v string) (float64, error) { return strconv.ParseFloat(v, 64) })
}

func dur(k string, def time.Duration) time.Duration { return lookup(k, def, time.ParseDuration) }

var errNotBool = errors.New("not a boolean")

func flag(k string, def bool) bool {
	return lookup(k, def, func(v string) (bool, error) {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true, nil
		case "0", "false", "no", "n", "off":
			return false, nil
		}
		return false, errNotBool
	})
}

// list splits a comma-separated variable, dropping blank entries.
func list(k string) []string {
	var out []string
	for _, p := range strings.Split(os.Getenv(k), ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
