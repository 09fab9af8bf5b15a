// Package http is the HTTP adapter for the leave workflow core. It
// translates requests into service calls and error kinds into status codes;
// all business rules live below it.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     *zap.Logger
}

// NewServer creates a new HTTP server around the given handlers
func NewServer(config ServerConfig, handlers *Handlers, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: handlers,
		logger:   logger,
	}

	server.router.Use(gin.Recovery())
	server.router.Use(server.loggingMiddleware())
	server.setupRoutes()

	return server
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handlers.HealthCheck)

	api := s.router.Group("/api/v1")
	{
		requests := api.Group("/leave-requests")
		{
			requests.POST("", s.handlers.SubmitLeaveRequest)
			requests.GET("", s.handlers.ListMyLeaveRequests)
			requests.GET("/pending", s.handlers.ListPendingApprovals)
			requests.GET("/:id", s.handlers.GetLeaveRequest)
			requests.POST("/:id/approve", s.handlers.ApproveLeaveRequest)
			requests.POST("/:id/reject", s.handlers.RejectLeaveRequest)
			requests.POST("/:id/withdraw", s.handlers.WithdrawLeaveRequest)
		}

		workflows := api.Group("/workflows")
		{
			workflows.POST("", s.handlers.CreateDefinition)
			workflows.GET("", s.handlers.ListDefinitions)
			workflows.GET("/:id", s.handlers.GetDefinition)
			workflows.PUT("/:id", s.handlers.UpdateDefinition)
			workflows.PATCH("/:id", s.handlers.PatchDefinition)
			workflows.DELETE("/:id", s.handlers.DeleteDefinition)
			workflows.POST("/:id/duplicate", s.handlers.DuplicateDefinition)
		}

		api.GET("/reports/leave-requests", s.handlers.ExportLeaveRequests)
	}
}

// Start runs the server until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("HTTP server listening", zap.String("addr", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}
