// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/invoxis/internal/application/dispatcher"
	"github.com/garyjia/invoxis/internal/application/service"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ProfileHeader selects the profile a request acts for
const ProfileHeader = "X-Profile-ID"

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	DefaultProfile string
	Debug          bool
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   60 * time.Second,
		DefaultProfile: "default",
	}
}

// Services are the application services exposed over HTTP
type Services struct {
	Drafts     service.DraftService
	Profiles   service.ProfileService
	Exports    service.ExportService
	Dispatcher dispatcher.Dispatcher
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	if config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if config.DefaultProfile == "" {
		config.DefaultProfile = DefaultServerConfig().DefaultProfile
	}

	server := &Server{
		config:   config,
		router:   gin.New(),
		services: services,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(corsMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// corsMiddleware lets the browser front end call the API from another origin
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+ProfileHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.services, s.config.DefaultProfile, s.logger)

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api/v1")
	{
		api.GET("/health", h.HealthCheck)

		drafts := api.Group("/drafts")
		drafts.POST("", h.CreateDraft)
		drafts.GET("", h.ListDrafts)
		drafts.GET("/:id", h.GetDraft)
		drafts.DELETE("/:id", h.DeleteDraft)

		drafts.PATCH("/:id/issuer", h.UpdateIssuer)
		drafts.PATCH("/:id/recipient", h.UpdateRecipient)
		drafts.POST("/:id/recipient/recent", h.UseRecentRecipient)
		drafts.POST("/:id/logo", h.UploadLogo)
		drafts.DELETE("/:id/logo", h.RemoveLogo)

		drafts.POST("/:id/items", h.AddLineItem)
		drafts.PATCH("/:id/items/:itemID", h.UpdateLineItem)
		drafts.DELETE("/:id/items/:itemID", h.RemoveLineItem)

		drafts.PATCH("/:id/settings", h.UpdateSettings)
		drafts.GET("/:id/totals", h.GetTotals)
		drafts.POST("/:id/validate", h.Validate)

		drafts.PUT("/:id/preview", h.MountPreview)
		drafts.DELETE("/:id/preview", h.UnmountPreview)
		drafts.POST("/:id/export", h.Export)
		drafts.GET("/:id/exports/:filename", h.DownloadExport)

		drafts.GET("/:id/events", h.StreamEvents)

		profile := api.Group("/profile")
		profile.GET("", h.GetProfile)
		profile.DELETE("", h.ResetProfile)
		profile.PUT("/theme", h.SetTheme)
		profile.POST("/theme/toggle", h.ToggleTheme)
		profile.PUT("/display-name", h.SetDisplayName)
		profile.GET("/recipients", h.RecentRecipients)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
