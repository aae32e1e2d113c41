package host

import (
	"context"
	"errors"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/popupctl/internal/popup"
	"github.com/danmuck/popupctl/internal/tools"
)

var (
	ErrInvalidHeartbeatInterval = errors.New("host: invalid heartbeat interval")
	ErrInvalidListenAddr        = errors.New("host: invalid listen addr")
)

// ServiceConfig configures the popup bridge standalone runtime.
type ServiceConfig struct {
	Name            string
	ListenAddr      string
	PublicURL       string
	CorsOrigins     []string
	BrowserCommand  string
	LocatorPath     string
	PermissionsPath string

	HeartbeatInterval time.Duration
	PresenceTTL       time.Duration

	Popup popup.Settings
}

// Bridge service defaults for standalone runtime configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Name:              "popupctl",
		ListenAddr:        ":9400",
		LocatorPath:       "/popup",
		PermissionsPath:   "/popup/permissions",
		HeartbeatInterval: 5 * time.Second,
		PresenceTTL:       1 * time.Second,
		Popup:             popup.DefaultSettings(),
	}
}

// Service runs the popup bridge lifecycle as a standalone process.
type Service struct {
	cfg        ServiceConfig
	bridge     *Bridge
	fallback   *PromptFallback
	controller *popup.Controller
	server     *Server
}

func NewService() (*Service, error) {
	return NewServiceWithConfig(DefaultServiceConfig())
}

func NewServiceWithConfig(cfg ServiceConfig) (*Service, error) {
	if cfg.HeartbeatInterval <= 0 {
		return nil, ErrInvalidHeartbeatInterval
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return nil, ErrInvalidListenAddr
	}
	if cfg.PresenceTTL <= 0 {
		cfg.PresenceTTL = DefaultServiceConfig().PresenceTTL
	}
	baseURL := strings.TrimSpace(cfg.PublicURL)
	if baseURL == "" {
		baseURL = deriveBaseURL(cfg.ListenAddr)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	logger := log.With().Str("component", "host").Logger()
	launcher := tools.BrowserLauncher{Command: cfg.BrowserCommand}

	settings := cfg.Popup
	if settings.Locator == "" {
		settings.Locator = baseURL + cfg.LocatorPath
	}
	if settings.PermissionsLocator == "" && cfg.PermissionsPath != "" {
		settings.PermissionsLocator = baseURL + cfg.PermissionsPath
	}
	settings = settings.WithDefaults()

	// A fresh surface must stay presumed-alive through the watchdog
	// window, or the liveness poll would close it before the page had
	// any chance to appear.
	grace := cfg.PresenceTTL
	if settings.WatchdogDelay > grace {
		grace = settings.WatchdogDelay
	}
	bridge := NewBridge(baseURL, launcher, cfg.PresenceTTL, grace, logger)
	fallback := NewPromptFallback(logger)

	controller, err := popup.NewController(popup.ControllerConfig{
		Transport: popup.NewDirectWindow(bridge, logger),
		Fallback:  fallback,
		Settings:  settings,
		Logger:    logger,
		Events: popup.Events{
			OnClosed: func() { logger.Info().Msg("host.session.closed") },
			OnReady:  func() { logger.Info().Msg("host.session.ready") },
		},
	})
	if err != nil {
		return nil, err
	}

	server := NewServer(
		cfg.Name,
		cfg.ListenAddr,
		cfg.CorsOrigins,
		bridge,
		controller,
		fallback,
		cfg.LocatorPath,
		cfg.PermissionsPath,
	)
	return &Service{
		cfg:        cfg,
		bridge:     bridge,
		fallback:   fallback,
		controller: controller,
		server:     server,
	}, nil
}

// Controller exposes the lifecycle controller to embedding code.
func (s *Service) Controller() *popup.Controller {
	return s.controller
}

// Run blocks until a process signal tears the bridge down.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return s.serve(ctx)
}

func (s *Service) serve(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.server.Serve()
	}()

	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()
	defer s.controller.OnBeforeUnload()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("host.service.shutdown")
			return nil
		case err := <-serveErr:
			return err
		case <-ticker.C:
			log.Info().
				Str("state", string(s.controller.State())).
				Bool("locked", s.controller.Locked()).
				Bool("fallback_pending", s.fallback.Pending()).
				Msg("host.service.heartbeat")
		}
	}
}

func deriveBaseURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://127.0.0.1" + addr
	}
	return "http://" + addr
}
