package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/productinventor/filevault/internal/logger"
	"github.com/productinventor/filevault/pkg/api"
	"github.com/productinventor/filevault/pkg/config"
	"github.com/productinventor/filevault/pkg/lock"
	"github.com/productinventor/filevault/pkg/metrics"
	"github.com/productinventor/filevault/pkg/token"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the filevault engine's download HTTP server",
	Long: `Start the download-token HTTP server along with its background
lock-reaper. The engine's other operations (checkout, checkin, create,
delete) are the pkg/lifecycle library surface, invoked in-process by the
chat-platform binding that embeds this module — this command only runs
the one HTTP endpoint the engine itself owns: GET /api/download/{token}.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metadata, err := openMetadataStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open metadata store: %w", err)
	}

	blobs, masterKey, err := openContentStore(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(reg)
	}

	locks := lock.New(metadata, cfg.Lock.Expiry())

	tokens, err := token.New(token.Config{
		Path:   cfg.Token.StorePath,
		Expiry: cfg.Token.Expiry(),
	})
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	defer tokens.Close()

	auditLog := newAuditLog(metadata)

	apiServer := api.NewServer(cfg.API, metadata, blobs, tokens, masterKey, m, auditLog)

	if cfg.Metrics.Enabled {
		startMetricsServer(ctx, cfg.Metrics.Addr, reg)
	}

	reapDone := startLockReaper(ctx, locks, m)

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- apiServer.Start(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("filevault serve started", "addr", apiServer.Addr())

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("shutdown signal received")
		cancel()
		<-reapDone
		return <-serverDone
	case err := <-serverDone:
		signal.Stop(sigChan)
		cancel()
		<-reapDone
		return err
	}
}

// startLockReaper runs ReapExpired on an interval until ctx is cancelled,
// returning a channel closed once the loop has exited. m may be nil.
func startLockReaper(ctx context.Context, locks *lock.Manager, m *metrics.Metrics) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := locks.ReapExpired(ctx)
				if err != nil {
					logger.Warn("lock reap failed", "error", err)
					continue
				}
				if n > 0 {
					logger.Debug("reaped expired locks", "count", n)
				}
				remaining, err := locks.CountActive(ctx)
				if err != nil {
					logger.Warn("lock count failed", "error", err)
					continue
				}
				m.SetLocksHeld(float64(remaining))
			}
		}
	}()
	return done
}

// startMetricsServer serves the Prometheus registry over HTTP until ctx is
// cancelled.
func startMetricsServer(ctx context.Context, addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		logger.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
}
