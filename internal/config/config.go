// Package config provides centralized configuration management for the application.
// Values come from struct-tag defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables, in that order of precedence.
// Everything is validated on startup to fail fast on misconfiguration.
package config

import (
	"net"
	"strconv"
	"time"
)

// Store drivers accepted by DatabaseConfig.Driver.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Upload    UploadConfig    `yaml:"upload"`
	Admin     AdminConfig     `yaml:"admin"`
	Rate      RateLimitConfig `yaml:"rate_limit"`
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `yaml:"host" env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `yaml:"port" env:"SERVER_PORT" default:"8080"`

	// ReadTimeout bounds reading the request, photo upload included (default: 15s)
	ReadTimeout time.Duration `yaml:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout bounds writing the response (default: 60s)
	WriteTimeout time.Duration `yaml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"60s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `yaml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds record store settings.
type DatabaseConfig struct {
	// Driver selects the record store: postgres or memory (default: postgres)
	Driver string `yaml:"driver" env:"STORE_DRIVER" default:"postgres"`

	// URL is the PostgreSQL connection string, required for the postgres driver.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `yaml:"url" env:"DATABASE_URL" envAlt:"DB_URL"`

	// AutoMigrate applies embedded migrations at startup (default: true)
	AutoMigrate bool `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" default:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `yaml:"max_conns" env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `yaml:"min_conns" env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// UploadConfig holds registration photo settings.
type UploadConfig struct {
	// Dir is where player photos are stored (default: static/uploads)
	Dir string `yaml:"dir" env:"UPLOAD_DIR" default:"static/uploads"`

	// MaxRequestSize caps the whole registration request in bytes (default: 16MiB)
	MaxRequestSize int64 `yaml:"max_request_size" env:"UPLOAD_MAX_REQUEST_SIZE" default:"16777216"`

	// MaxConcurrent is the maximum number of registrations writing photos at once (default: 5)
	MaxConcurrent int `yaml:"max_concurrent" env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a registration waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `yaml:"max_wait_time" env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// AdminConfig holds the operator credential pair and session settings.
type AdminConfig struct {
	// Username is the admin login name (default: admin)
	Username string `yaml:"username" env:"ADMIN_USERNAME" default:"admin"`

	// Password is the plain admin password. Ignored when PasswordHash is set.
	Password string `yaml:"password" env:"ADMIN_PASSWORD"`

	// PasswordHash is a bcrypt hash of the admin password.
	PasswordHash string `yaml:"password_hash" env:"ADMIN_PASSWORD_HASH"`

	// SessionSecret signs session tokens (required, at least 16 bytes)
	SessionSecret string `yaml:"session_secret" env:"SESSION_SECRET" required:"true"`

	// SessionTTL is how long an admin session stays valid (default: 12h)
	SessionTTL time.Duration `yaml:"session_ttl" env:"SESSION_TTL" default:"12h"`

	// CookieSecure marks the session cookie Secure (default: false)
	CookieSecure bool `yaml:"cookie_secure" env:"SESSION_COOKIE_SECURE" default:"false"`
}

// RateLimitConfig holds rate limiting settings per time window.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `yaml:"enabled" env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 100)
	RequestsPerMinute int `yaml:"requests_per_minute" env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// SubmitLimit is requests per minute for form POST endpoints (default: 10)
	SubmitLimit int `yaml:"submit_limit" env:"RATE_LIMIT_SUBMIT" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `yaml:"enable_csp" env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `yaml:"level" env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `yaml:"format" env:"LOG_FORMAT" default:"text"`
}

// TelemetryConfig holds OpenTelemetry trace export settings.
type TelemetryConfig struct {
	Enabled        bool   `yaml:"enabled" env:"OTEL_ENABLED" default:"false"`
	ServiceName    string `yaml:"service_name" env:"OTEL_SERVICE_NAME" default:"vpl-registration"`
	ServiceVersion string `yaml:"service_version" env:"OTEL_SERVICE_VERSION" default:"dev"`
	OTLPEndpoint   string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4318"`
	Insecure       bool   `yaml:"insecure" env:"OTEL_INSECURE" default:"true"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
