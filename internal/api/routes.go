// Package api serves the latest tick over a small read-only HTTP/JSON API.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"taskly/internal/logger"

	"github.com/gin-gonic/gin"
)

// Dependencies are the read sides the routes serve from
type Dependencies struct {
	State   StateReader
	Alerts  AlertReader
	History AlertHistory // optional alert database
	Metrics http.Handler // optional Prometheus handler
	Log     *logger.Logger
}

// NewRouter builds the gin engine with every route registered
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(deps.Log))
	SetupRoutes(router, deps)
	return router
}

// SetupRoutes registers the API routes on router
func SetupRoutes(router *gin.Engine, deps Dependencies) {
	healthHandler := NewHealthHandler(deps.State)
	snapshotHandler := NewSnapshotHandler(deps.State)
	processHandler := NewProcessHandler(deps.State)
	alertHandler := NewAlertHandler(deps.Alerts)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.CheckHealth)
		v1.GET("/snapshot", snapshotHandler.GetSnapshot)
		v1.GET("/history", snapshotHandler.GetHistory)
		v1.GET("/processes", processHandler.ListProcesses)
		v1.GET("/alerts", alertHandler.ListAlerts)
		if deps.History != nil {
			v1.GET("/alerts/history", NewHistoryHandler(deps.History).ListAlertHistory)
		}
	}

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}
}

func requestLogger(log *logger.Logger) gin.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// Serve runs the HTTP server on addr until ctx is cancelled
func Serve(ctx context.Context, addr string, handler http.Handler, log *logger.Logger) error {
	if log == nil {
		log = logger.Discard()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP API listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info("HTTP API stopped")
	return nil
}
