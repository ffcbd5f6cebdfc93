package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/work-piyush006/lifesync-ai/internal/logger"
)

// shutdownTimeout bounds how long in-flight requests may run after the
// daemon starts stopping.
const shutdownTimeout = 5 * time.Second

// Server serves the loopback REST API.
type Server struct {
	// address is the listen address, loopback by default.
	address string
	// engine is the configured gin router.
	engine *gin.Engine
}

// NewServer builds the router and binds all routes.
func NewServer(address string, handlers *Handlers) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	registerRoutes(engine, handlers)

	return &Server{
		address: address,
		engine:  engine,
	}
}

// registerRoutes binds every endpoint under /v1 plus the health probe.
func registerRoutes(engine *gin.Engine, h *Handlers) {
	engine.GET("/healthz", h.handleHealthz)

	v1 := engine.Group("/v1")

	v1.GET("/alarms", h.handleListAlarms)
	v1.POST("/alarms", h.handleCreateAlarm)
	v1.GET("/alarms/:id", h.handleGetAlarm)
	v1.DELETE("/alarms/:id", h.handleDeleteAlarm)
	v1.POST("/alarms/:id/enable", h.handleEnableAlarm)
	v1.POST("/alarms/:id/disable", h.handleDisableAlarm)

	v1.GET("/tones", h.handleListTones)
	v1.POST("/tones", h.handleRegisterTone)

	v1.GET("/sessions", h.handleListSessions)
	v1.POST("/sessions/:id/face", h.handleFace)
	v1.POST("/sessions/:id/steps", h.handleSteps)
	v1.POST("/sessions/:id/geo", h.handleGeo)
	v1.POST("/sessions/:id/dismiss", h.handleDismiss)
	v1.POST("/sessions/:id/snooze", h.handleSnooze)

	v1.GET("/settings", h.handleGetSettings)
}

// Engine exposes the router for in-process tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ctx = logger.WithName(ctx, "http")

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)

	go func() {
		logger.InfoKV(ctx, "HTTP API listening", "address", s.address)

		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to serve HTTP API: %w", err)

	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP API: %w", err)
	}

	if err := <-serveErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve HTTP API: %w", err)
	}

	return nil
}
