package serve

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v3"

	"github.com/wellmind/care-service/internal/config"
	registrykv "github.com/wellmind/care-service/internal/registry/kv"

	// Import all plugins to trigger init() registration
	_ "github.com/wellmind/care-service/internal/plugin/kv/memory"
	_ "github.com/wellmind/care-service/internal/plugin/kv/redis"
	_ "github.com/wellmind/care-service/internal/plugin/route/system"
)

// Command returns the serve sub-command.
func Command() *cli.Command {
	cfg := config.DefaultConfig()
	var readHeaderTimeoutSecs int = 5
	var repairTimeoutSecs int = 30
	var codeTTLMinutes int = 60
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the care service HTTP server",
		Flags: flags(&cfg, &readHeaderTimeoutSecs, &repairTimeoutSecs, &codeTTLMinutes),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg.Listener.ReadHeaderTimeout = time.Duration(readHeaderTimeoutSecs) * time.Second
			cfg.ManagementListener.ReadHeaderTimeout = cfg.Listener.ReadHeaderTimeout
			cfg.ManagementListenerEnabled = cmd.IsSet("management-port")
			cfg.RepairTimeout = time.Duration(repairTimeoutSecs) * time.Second
			cfg.CodeTTL = time.Duration(codeTTLMinutes) * time.Minute
			return run(config.WithContext(ctx, &cfg), cfg)
		},
	}
}

func flags(cfg *config.Config, readHeaderTimeoutSecs, repairTimeoutSecs, codeTTLMinutes *int) []cli.Flag {
	return []cli.Flag{

		// ── Server ────────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "tls-cert-file",
			Category:    "Server:",
			Sources:     cli.EnvVars("CARE_SERVICE_TLS_CERT_FILE"),
			Destination: &cfg.Listener.TLSCertFile,
			Usage:       "TLS certificate file for single-port TLS mode",
		},
		&cli.StringFlag{
			Name:        "tls-key-file",
			Category:    "Server:",
			Sources:     cli.EnvVars("CARE_SERVICE_TLS_KEY_FILE"),
			Destination: &cfg.Listener.TLSKeyFile,
			Usage:       "TLS private key file for single-port TLS mode",
		},
		&cli.IntFlag{
			Name:        "read-header-timeout-seconds",
			Category:    "Server:",
			Sources:     cli.EnvVars("CARE_SERVICE_READ_HEADER_TIMEOUT_SECONDS"),
			Destination: readHeaderTimeoutSecs,
			Value:       *readHeaderTimeoutSecs,
			Usage:       "HTTP read header timeout in seconds",
		},
		&cli.BoolFlag{
			Name:        "management-access-log",
			Category:    "Server:",
			Sources:     cli.EnvVars("CARE_SERVICE_MANAGEMENT_ACCESS_LOG"),
			Destination: &cfg.ManagementAccessLog,
			Usage:       "Enable HTTP access logging for management endpoints (/health, /ready, /metrics)",
		},
		&cli.IntFlag{
			Name:        "drain-timeout-seconds",
			Category:    "Server:",
			Sources:     cli.EnvVars("CARE_SERVICE_DRAIN_TIMEOUT_SECONDS"),
			Destination: &cfg.DrainTimeout,
			Value:       cfg.DrainTimeout,
			Usage:       "Graceful shutdown drain timeout in seconds",
		},
		&cli.StringFlag{
			Name:        "mode",
			Category:    "Server:",
			Sources:     cli.EnvVars("CARE_SERVICE_MODE"),
			Destination: &cfg.Mode,
			Value:       cfg.Mode,
			Usage:       "Security mode (prod|testing); testing accepts an X-User-ID header",
		},

		// ── Network Listener ──────────────────────────────────────
		&cli.IntFlag{
			Name:        "port",
			Category:    "Network Listener:",
			Sources:     cli.EnvVars("CARE_SERVICE_PORT"),
			Destination: &cfg.Listener.Port,
			Value:       cfg.Listener.Port,
			Usage:       "HTTP server port",
		},
		&cli.BoolFlag{
			Name:        "plain-text",
			Category:    "Network Listener:",
			Sources:     cli.EnvVars("CARE_SERVICE_PLAIN_TEXT"),
			Destination: &cfg.Listener.EnablePlainText,
			Value:       cfg.Listener.EnablePlainText,
			Usage:       "Enable plaintext HTTP/1.1 + h2c",
		},
		&cli.BoolFlag{
			Name:        "tls",
			Category:    "Network Listener:",
			Sources:     cli.EnvVars("CARE_SERVICE_TLS"),
			Destination: &cfg.Listener.EnableTLS,
			Value:       cfg.Listener.EnableTLS,
			Usage:       "Enable TLS HTTP/1.1 + HTTP/2",
		},

		// ── Management Network Listener ───────────────────────────
		&cli.IntFlag{
			Name:        "management-port",
			Category:    "Management Network Listener:",
			Sources:     cli.EnvVars("CARE_SERVICE_MANAGEMENT_PORT"),
			Destination: &cfg.ManagementListener.Port,
			Value:       cfg.ManagementListener.Port,
			Usage:       "Dedicated port for health and metrics (0 = OS-assigned random port); when unset, served on the main port",
		},
		&cli.BoolFlag{
			Name:        "management-plain-text",
			Category:    "Management Network Listener:",
			Sources:     cli.EnvVars("CARE_SERVICE_MANAGEMENT_PLAIN_TEXT"),
			Destination: &cfg.ManagementListener.EnablePlainText,
			Value:       cfg.ManagementListener.EnablePlainText,
			Usage:       "Enable plaintext HTTP for management server",
		},
		&cli.BoolFlag{
			Name:        "management-tls",
			Category:    "Management Network Listener:",
			Sources:     cli.EnvVars("CARE_SERVICE_MANAGEMENT_TLS"),
			Destination: &cfg.ManagementListener.EnableTLS,
			Value:       cfg.ManagementListener.EnableTLS,
			Usage:       "Enable TLS for management server",
		},

		// ── Key-Value Store ───────────────────────────────────────
		&cli.StringFlag{
			Name:        "kv-kind",
			Category:    "Key-Value Store:",
			Sources:     cli.EnvVars("CARE_SERVICE_KV_KIND"),
			Destination: &cfg.KVType,
			Value:       cfg.KVType,
			Usage:       "Backend kv store (" + strings.Join(registrykv.Names(), "|") + ")",
		},
		&cli.StringFlag{
			Name:        "redis-url",
			Category:    "Key-Value Store:",
			Sources:     cli.EnvVars("CARE_SERVICE_REDIS_URL"),
			Destination: &cfg.RedisURL,
			Usage:       "Redis connection URL",
		},

		// ── Care Platform ─────────────────────────────────────────
		&cli.IntFlag{
			Name:        "session-rate",
			Category:    "Care Platform:",
			Sources:     cli.EnvVars("CARE_SERVICE_SESSION_RATE"),
			Destination: &cfg.SessionRate,
			Value:       cfg.SessionRate,
			Usage:       "Revenue attributed per completed session, in whole dollars",
		},
		&cli.IntFlag{
			Name:        "activity-window-days",
			Category:    "Care Platform:",
			Sources:     cli.EnvVars("CARE_SERVICE_ACTIVITY_WINDOW_DAYS"),
			Destination: &cfg.ActivityWindowDays,
			Value:       cfg.ActivityWindowDays,
			Usage:       "How many days the dashboard activity feed looks back",
		},
		&cli.IntFlag{
			Name:        "repair-timeout-seconds",
			Category:    "Care Platform:",
			Sources:     cli.EnvVars("CARE_SERVICE_REPAIR_TIMEOUT_SECONDS"),
			Destination: repairTimeoutSecs,
			Value:       *repairTimeoutSecs,
			Usage:       "Timeout for background index repair runs in seconds",
		},
		&cli.IntFlag{
			Name:        "bcrypt-cost",
			Category:    "Care Platform:",
			Sources:     cli.EnvVars("CARE_SERVICE_BCRYPT_COST"),
			Destination: &cfg.BcryptCost,
			Value:       cfg.BcryptCost,
			Usage:       "Bcrypt work factor for password hashing",
		},
		&cli.IntFlag{
			Name:        "code-ttl-minutes",
			Category:    "Care Platform:",
			Sources:     cli.EnvVars("CARE_SERVICE_CODE_TTL_MINUTES"),
			Destination: codeTTLMinutes,
			Value:       *codeTTLMinutes,
			Usage:       "Lifetime of email verification and password reset codes in minutes",
		},

		// ── Mail ──────────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "mailer-kind",
			Category:    "Mail:",
			Sources:     cli.EnvVars("CARE_SERVICE_MAILER_KIND"),
			Destination: &cfg.MailerType,
			Value:       cfg.MailerType,
			Usage:       "Outbound mail delivery (log)",
		},
		&cli.StringFlag{
			Name:        "mail-from",
			Category:    "Mail:",
			Sources:     cli.EnvVars("CARE_SERVICE_MAIL_FROM"),
			Destination: &cfg.MailFrom,
			Value:       cfg.MailFrom,
			Usage:       "From address for outbound mail",
		},

		// ── HTTP ──────────────────────────────────────────────────
		&cli.BoolFlag{
			Name:        "cors-enabled",
			Category:    "HTTP:",
			Sources:     cli.EnvVars("CARE_SERVICE_CORS_ENABLED"),
			Destination: &cfg.CORSEnabled,
			Usage:       "Enable CORS handling on the main listener",
		},
		&cli.StringFlag{
			Name:        "cors-origins",
			Category:    "HTTP:",
			Sources:     cli.EnvVars("CARE_SERVICE_CORS_ORIGINS"),
			Destination: &cfg.CORSOrigins,
			Usage:       "Comma-separated allowed CORS origins; empty allows any origin",
		},

		// ── Monitoring ────────────────────────────────────────────
		&cli.StringFlag{
			Name:        "metrics-labels",
			Category:    "Monitoring:",
			Sources:     cli.EnvVars("CARE_SERVICE_METRICS_LABELS"),
			Destination: &cfg.MetricsLabels,
			Value:       "service=care-service",
			Usage:       "Comma-separated key=value pairs added as constant labels to all Prometheus metrics. Supports ${VAR} expansion.",
		},
	}
}

func run(ctx context.Context, cfg config.Config) error {
	srv, err := StartServer(ctx, &cfg)
	if err != nil {
		return err
	}

	<-ctx.Done()
	log.Info("Shutting down...")

	drainCtx, drainCancel := context.WithTimeout(context.Background(), time.Duration(cfg.DrainTimeout)*time.Second)
	defer drainCancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Error("Shutdown error", "err", err)
	}
	log.Info("Server stopped")
	return nil
}

func maxBodySizeMiddleware(maxBodySize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodySize)
		c.Next()
	}
}
