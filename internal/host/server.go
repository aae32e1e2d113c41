package host

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/popupctl/internal/observability"
	"github.com/danmuck/popupctl/internal/popup"
)

// Server exposes the popup page, its message channels, and the session
// admin surface for the embedding application.
type Server struct {
	name            string
	addr            string
	locatorPath     string
	permissionsPath string

	bridge     *Bridge
	controller *popup.Controller
	fallback   *PromptFallback
	router     *gin.Engine
	appeared   time.Time
}

func NewServer(name, addr string, corsOrigins []string, bridge *Bridge, controller *popup.Controller, fallback *PromptFallback, locatorPath, permissionsPath string) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(name))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	return &Server{
		name:            name,
		addr:            addr,
		locatorPath:     locatorPath,
		permissionsPath: permissionsPath,
		bridge:          bridge,
		controller:      controller,
		fallback:        fallback,
		router:          r,
		appeared:        time.Now(),
	}
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.appeared).String(),
			"service": s.name,
			"state":   string(s.controller.State()),
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET(s.locatorPath, func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(popupShell))
	})
	if s.permissionsPath != "" {
		s.router.GET(s.permissionsPath, func(c *gin.Context) {
			c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(permissionsShell))
		})
	}

	s.router.GET("/surfaces/:id/outbox", func(c *gin.Context) {
		messages, err := s.bridge.Drain(c.Param("id"))
		if err != nil {
			c.JSON(surfaceErrStatus(err), gin.H{"error": err.Error()})
			return
		}
		if messages == nil {
			messages = []popup.Message{}
		}
		c.JSON(http.StatusOK, gin.H{"messages": messages})
	})

	s.router.POST("/surfaces/:id/inbox", func(c *gin.Context) {
		var msg popup.Message
		if err := c.ShouldBindJSON(&msg); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.bridge.Inbound(c.Param("id"), msg); err != nil {
			c.JSON(surfaceErrStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.registerSessionRoutes()
}

// registerSessionRoutes is the embedding application's control surface.
func (s *Server) registerSessionRoutes() {
	s.router.POST("/sessions/open", func(c *gin.Context) {
		var req struct {
			Lazy bool `json:"lazy"`
		}
		// An empty body means a plain non-lazy open.
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.controller.RequestOpen(req.Lazy)
		c.JSON(http.StatusOK, gin.H{"status": "ok", "state": string(s.controller.State())})
	})

	s.router.POST("/sessions/close", func(c *gin.Context) {
		s.controller.Close()
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.POST("/sessions/unlock", func(c *gin.Context) {
		s.controller.Unlock()
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.POST("/sessions/message", func(c *gin.Context) {
		var msg popup.Message
		if err := c.ShouldBindJSON(&msg); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.controller.PostMessage(msg); err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.POST("/sessions/ready", func(c *gin.Context) {
		if err := s.controller.ResolveReadiness(c.Request.Context()); err != nil {
			c.JSON(http.StatusGatewayTimeout, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.GET("/sessions/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"state":            string(s.controller.State()),
			"locked":           s.controller.Locked(),
			"fallback_pending": s.fallback.Pending(),
		})
	})

	s.router.POST("/sessions/retry", func(c *gin.Context) {
		if !s.fallback.Retry() {
			c.JSON(http.StatusConflict, gin.H{"error": "no fallback pending"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.POST("/sessions/giveup", func(c *gin.Context) {
		if !s.fallback.GiveUp() {
			c.JSON(http.StatusConflict, gin.H{"error": "no fallback pending"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func (s *Server) Serve() error {
	s.RegisterRoutes()
	return s.router.Run(s.addr)
}

func surfaceErrStatus(err error) int {
	switch {
	case errors.Is(err, ErrSurfaceUnknown):
		return http.StatusNotFound
	case errors.Is(err, ErrSurfaceClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		out = []string{"http://127.0.0.1", "http://localhost"}
	}
	return out
}
