package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"machine-telemetry/confs"
	"machine-telemetry/handlers"
	httpHandler "machine-telemetry/handlers/http"
	"machine-telemetry/lifecycle"
)

// Server owns the HTTP surface: the signal query endpoints, the health
// probe, ingest stats and the live stream.
type Server struct {
	app    *gin.Engine
	cfg    *confs.Config
	life   *lifecycle.Coordinator
	logger *zap.Logger
}

func New(cfg *confs.Config, life *lifecycle.Coordinator, logger *zap.Logger,
	signals *httpHandler.SignalHandler, stats *httpHandler.StatsHandler, stream *handlers.StreamHandler) *Server {

	gin.SetMode(gin.ReleaseMode)
	app := gin.New()
	app.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	app.Use(cors.New(corsConfig))

	app.Use(drainGuard(life))

	app.GET("/health", signals.Health)
	app.GET("/signals/:signal_type", signals.GetRecentSignals)
	app.GET("/stats", stats.GetStats)
	app.GET("/ws", stream.HandleSignalWS)

	return &Server{app: app, cfg: cfg, life: life, logger: logger}
}

// drainGuard rejects requests arriving on kept-alive connections after
// the service has started draining.
func drainGuard(life *lifecycle.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if life.State() >= lifecycle.Draining {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "service is draining"})
			return
		}
		c.Next()
	}
}

// Run serves until ctx is canceled, then drains in-flight requests
// within the configured grace period. Exceeding the grace period is an
// error: work was abandoned.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ServerAddr(),
		Handler: s.app,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info("http server listening", zap.String("addr", srv.Addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("drain grace period exceeded: %w", err)
	}
	s.logger.Info("http server drained")
	return nil
}
