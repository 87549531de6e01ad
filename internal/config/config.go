package config

import (
	"context"
	"time"
)

// ListenerConfig holds the network/TLS settings for a single listener (main or management).
type ListenerConfig struct {
	Port              int
	EnablePlainText   bool
	EnableTLS         bool
	TLSCertFile       string
	TLSKeyFile        string
	ReadHeaderTimeout time.Duration
}

type contextKey struct{}

// WithContext returns a new context carrying the given Config.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext retrieves the Config from the context.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(contextKey{}).(*Config)
	return cfg
}

const (
	ModeProd    = "prod"
	ModeTesting = "testing"
)

// Config holds all configuration for the care service.
type Config struct {
	// Mode controls security behavior: "prod" (default) or "testing".
	// In testing mode, unauthenticated requests are accepted with an
	// X-User-ID header.
	Mode string

	// KV backend type: "redis" or "memory".
	KVType string

	// Redis
	RedisURL string

	// Revenue attributed per completed session, in whole dollars.
	SessionRate int

	// Window for the therapist activity feed, in days.
	ActivityWindowDays int

	// Timeout for background index repair runs.
	RepairTimeout time.Duration

	// Bcrypt work factor for password hashing.
	BcryptCost int

	// Lifetime of email verification and password reset codes.
	CodeTTL time.Duration

	// Outbound mail. "log" writes mail to the service log instead of sending.
	MailerType string
	MailFrom   string

	// MetricsLabels is a comma-separated list of key=value pairs added as
	// constant labels to all Prometheus metrics. Values support ${VAR} expansion.
	// Defaults to "service=care-service".
	MetricsLabels string

	// Server
	Listener           ListenerConfig
	ManagementListener ListenerConfig
	// ManagementListenerEnabled is true when --management-port (or CARE_SERVICE_MANAGEMENT_PORT)
	// was explicitly provided. When false, management endpoints are served on the main port.
	ManagementListenerEnabled bool
	// ManagementAccessLog enables HTTP access logging for management endpoints (/health, /ready, /metrics).
	// Disabled by default to suppress high-frequency probe noise from the access log.
	ManagementAccessLog bool
	CORSEnabled         bool
	CORSOrigins         string

	// Body size limit (bytes)
	MaxBodySize int64

	// Graceful shutdown drain timeout (seconds)
	DrainTimeout int
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Mode:               ModeProd,
		KVType:             "redis",
		SessionRate:        150,
		ActivityWindowDays: 7,
		RepairTimeout:      30 * time.Second,
		BcryptCost:         10,
		CodeTTL:            time.Hour,
		MailerType:         "log",
		MailFrom:           "no-reply@wellmind.example",
		Listener: ListenerConfig{
			Port:              8080,
			EnablePlainText:   true,
			EnableTLS:         true,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ManagementListener: ListenerConfig{
			EnablePlainText: true,
			EnableTLS:       true,
		},
		MaxBodySize:  1024 * 1024,
		DrainTimeout: 30,
	}
}
