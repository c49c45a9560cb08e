package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/productinventor/filevault/internal/logger"
	"github.com/productinventor/filevault/pkg/audit"
	"github.com/productinventor/filevault/pkg/config"
	"github.com/productinventor/filevault/pkg/content"
	"github.com/productinventor/filevault/pkg/metrics"
	"github.com/productinventor/filevault/pkg/store"
	"github.com/productinventor/filevault/pkg/token"
)

// Server provides the HTTP server exposing health checks and the
// download-token endpoint.
//
// Endpoints:
//   - GET /health: Liveness probe
//   - GET /health/ready: Readiness probe
//   - GET /health/stores: Detailed store health
//   - GET /api/download/{token}: Consume a download token and stream its blob
//
// The server shuts down gracefully when Start's context is cancelled,
// waiting up to a fixed 5 seconds; that timeout is not configurable.
type Server struct {
	server       *http.Server
	config       config.APIConfig
	shutdownOnce sync.Once
}

// NewServer creates a new API HTTP server, in a stopped state. Call
// Start() to begin serving requests.
func NewServer(cfg config.APIConfig, metadata *store.GORMStore, blobs *content.Store, tokens *token.Service, masterKey []byte, m *metrics.Metrics, auditLog *audit.Log) *Server {
	router := NewRouter(metadata, blobs, tokens, masterKey, m, auditLog)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Server{server: httpServer, config: cfg}
}

// Start starts the API HTTP server and blocks until the context is
// cancelled or an error occurs. When the context is cancelled, Start
// initiates graceful shutdown and returns.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "addr", s.config.Addr)
		logger.Debug("API endpoints available",
			"health", fmt.Sprintf("http://%s/health", s.config.Addr),
			"download", fmt.Sprintf("http://%s/api/download/{token}", s.config.Addr),
		)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown of the API server. Safe to call
// multiple times and concurrently with Start().
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("API server shutdown initiated")
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("API server shutdown error: %w", err)
			logger.Error("API server shutdown error", "error", err)
		} else {
			logger.Info("API server stopped gracefully")
		}
	})
	return shutdownErr
}

// Addr returns the address the server is configured to listen on.
func (s *Server) Addr() string {
	return s.config.Addr
}
