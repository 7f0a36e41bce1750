// Package httpapi exposes the engine command surface over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/doeshing/formatapi/internal/application/engine"
	"github.com/doeshing/formatapi/internal/domain"
	"github.com/doeshing/formatapi/internal/ports"
)

// HealthRunner produces the diagnostics served on /healthz.
type HealthRunner interface {
	Run(ctx context.Context) (domain.HealthReport, error)
}

// Handler serves the API routes.
type Handler struct {
	engine      *engine.Service
	health      HealthRunner
	logger      ports.Logger
	defaultMode string
}

// NewHandler builds a handler. health may be nil.
func NewHandler(svc *engine.Service, health HealthRunner, logger ports.Logger, defaultMode string) *Handler {
	if defaultMode == "" {
		defaultMode = domain.DefaultOCRMode
	}
	return &Handler{engine: svc, health: health, logger: logger, defaultMode: defaultMode}
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLogger())

	r.GET("/healthz", h.Health)

	api := r.Group("/api")
	{
		api.POST("/parse", h.Parse)
		api.POST("/format", h.Format)
		api.POST("/ocr", h.OCR)

		api.GET("/history", h.LoadHistory)
		api.PUT("/history", h.SaveHistory)
		api.POST("/history", h.AddHistoryItem)
		api.DELETE("/history", h.ClearHistory)
		api.DELETE("/history/:timestamp", h.DeleteHistoryItem)

		api.GET("/templates", h.LoadTemplates)
		api.PUT("/templates", h.SaveTemplates)
		api.POST("/templates/generalize", h.Generalize)
	}
	return r
}

// Serve runs the API on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, h *Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("http api listening", map[string]interface{}{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("http request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

func (h *Handler) Health(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	report, err := h.health.Run(c.Request.Context())
	status := http.StatusOK
	if err != nil || report.Failed() {
		status = http.StatusServiceUnavailable
	}
	checks := make([]gin.H, 0, len(report.Checks))
	for _, check := range report.Checks {
		checks = append(checks, gin.H{"name": check.Name, "status": check.Status, "details": check.Details})
	}
	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": checks})
}
