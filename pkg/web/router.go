package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the pages and the JSON API onto a gin engine
func NewRouter(h *Handler) (*gin.Engine, error) {
	tmpl, err := loadTemplates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.logger))
	router.SetHTMLTemplate(tmpl)

	router.GET("/", h.Home)
	router.POST("/generate", h.Generate)
	router.POST("/reset", h.Reset)
	router.POST("/dismiss", h.Dismiss)
	router.GET("/illustration", h.Illustration)
	router.GET("/card.png", h.DownloadCard)

	api := router.Group("/api")
	{
		api.GET("/state", h.GetState)
		api.POST("/generate", h.CreateGeneration)
		api.POST("/reset", h.ResetState)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router, nil
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request failed", fields...)
			return
		}
		logger.Debug("request", fields...)
	}
}
