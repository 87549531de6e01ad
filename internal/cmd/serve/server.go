package serve

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/wellmind/care-service/internal/care"
	"github.com/wellmind/care-service/internal/config"
	"github.com/wellmind/care-service/internal/mailer"
	kvmetrics "github.com/wellmind/care-service/internal/plugin/kv/metrics"
	"github.com/wellmind/care-service/internal/plugin/route/accounts"
	"github.com/wellmind/care-service/internal/plugin/route/calls"
	"github.com/wellmind/care-service/internal/plugin/route/chat"
	"github.com/wellmind/care-service/internal/plugin/route/notifications"
	"github.com/wellmind/care-service/internal/plugin/route/sessions"
	routesystem "github.com/wellmind/care-service/internal/plugin/route/system"
	"github.com/wellmind/care-service/internal/plugin/route/therapist"
	registrykv "github.com/wellmind/care-service/internal/registry/kv"
	registryroute "github.com/wellmind/care-service/internal/registry/route"
	"github.com/wellmind/care-service/internal/security"
)

// Server holds the running server and its subsystems.
type Server struct {
	Config          *config.Config
	KV              registrykv.Store
	Store           *care.Store
	Router          *gin.Engine
	Running         *RunningServers
	closeManagement func(context.Context) error
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.closeManagement != nil {
		_ = s.closeManagement(ctx)
	}
	err := s.Running.Close(ctx)
	if cerr := s.KV.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// StartServer initializes all subsystems and starts the HTTP server.
// Use cfg.Listener.Port=0 for a random port. Actual port: Server.Running.Port.
func StartServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	log.Info("Starting care service",
		"httpPort", cfg.Listener.Port,
		"kv", cfg.KVType,
		"mode", cfg.Mode,
	)

	// Initialize Prometheus metrics with configured constant labels.
	metricsLabels, err := security.ParseMetricsLabels(cfg.MetricsLabels)
	if err != nil {
		return nil, fmt.Errorf("invalid --metrics-labels: %w", err)
	}
	security.InitMetrics(metricsLabels)

	// Initialize the kv backend.
	kvLoader, err := registrykv.Select(cfg.KVType)
	if err != nil {
		return nil, err
	}
	kvStore, err := kvLoader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize kv store: %w", err)
	}
	kvStore = kvmetrics.Wrap(kvStore)

	store := care.New(kvStore,
		care.WithSessionRate(cfg.SessionRate),
		care.WithActivityWindow(cfg.ActivityWindowDays),
		care.WithHasher(care.BcryptHasher{Cost: cfg.BcryptCost}),
		care.WithRepairTimeout(cfg.RepairTimeout),
	)

	var mail mailer.Mailer
	switch cfg.MailerType {
	case "", "log":
		mail = mailer.LogMailer{From: cfg.MailFrom}
	default:
		return nil, fmt.Errorf("unknown mailer %q; valid: [log]", cfg.MailerType)
	}

	// Set up gin
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.ManagementAccessLog {
		router.Use(security.AccessLogMiddleware())
	} else {
		router.Use(security.AccessLogMiddleware("/health", "/ready", "/metrics"))
	}
	router.Use(security.MetricsMiddleware())
	router.Use(maxBodySizeMiddleware(cfg.MaxBodySize))
	if cfg.CORSEnabled {
		router.Use(corsMiddleware(cfg.CORSOrigins))
	}

	// Mount main route plugins on the main router.
	for _, loader := range registryroute.MainRouteLoaders() {
		if err := loader(router); err != nil {
			return nil, fmt.Errorf("failed to load routes: %w", err)
		}
	}

	// Bearer tokens resolve against the token records the store issues.
	auth := security.AuthMiddleware(cfg, store.ResolveToken)

	accounts.MountRoutes(router, store, cfg, mail, auth)
	sessions.MountRoutes(router, store, auth)
	chat.MountRoutes(router, store, auth)
	therapist.MountRoutes(router, store, auth)
	notifications.MountRoutes(router, store, auth)
	calls.MountRoutes(router, store, auth)

	// Mount management route plugins. If a dedicated management port is configured,
	// run them on a bare gin engine served by the management server. Otherwise,
	// mount them on the main router so existing single-port behaviour is unchanged.
	var closeManagement func(context.Context) error
	if cfg.ManagementListenerEnabled {
		mgmtRouter := gin.New()
		mgmtRouter.Use(gin.Recovery())
		if cfg.ManagementAccessLog {
			mgmtRouter.Use(security.AccessLogMiddleware())
		}
		for _, loader := range registryroute.ManagementRouteLoaders() {
			if err := loader(mgmtRouter); err != nil {
				return nil, fmt.Errorf("failed to load management routes: %w", err)
			}
		}
		// Management listener shares TLS cert/key with the main listener.
		mgmtCfg := cfg.ManagementListener
		mgmtCfg.TLSCertFile = cfg.Listener.TLSCertFile
		mgmtCfg.TLSKeyFile = cfg.Listener.TLSKeyFile
		_, closeManagement, err = startManagementServer(mgmtCfg, mgmtRouter)
		if err != nil {
			return nil, fmt.Errorf("failed to start management server: %w", err)
		}
	} else {
		for _, loader := range registryroute.ManagementRouteLoaders() {
			if err := loader(router); err != nil {
				return nil, fmt.Errorf("failed to load management routes: %w", err)
			}
		}
	}

	running, err := StartSinglePortHTTP(ctx, cfg.Listener, router)
	if err != nil {
		return nil, err
	}

	log.Info("Server listening",
		"port", running.Port,
		"plaintext", cfg.Listener.EnablePlainText,
		"tls", cfg.Listener.EnableTLS,
	)

	routesystem.MarkReady()
	return &Server{
		Config:          cfg,
		KV:              kvStore,
		Store:           store,
		Router:          router,
		Running:         running,
		closeManagement: closeManagement,
	}, nil
}
