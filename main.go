package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bugpersona/pkg/cache"
	"bugpersona/pkg/card"
	"bugpersona/pkg/config"
	"bugpersona/pkg/gemini"
	"bugpersona/pkg/logging"
	"bugpersona/pkg/openaicompat"
	"bugpersona/pkg/web"
	"bugpersona/pkg/workflow"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Load config.yml
	cfg, err := config.LoadConfig("config.yml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load .env for secrets
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	apiKey := os.Getenv(cfg.APIKeyEnv())
	if apiKey == "" {
		// generations fail with the user-facing message until a key is set
		logger.Warn("Missing API key, generation will fail", zap.String("env", cfg.APIKeyEnv()))
	}

	generator := newGenerator(cfg, apiKey, logger)

	var cardCache card.Cache = cache.NewMemoryCache(32)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisCache, err := cache.NewRedisCache(redisURL, "bugpersona")
		if err != nil {
			logger.Warn("Redis unavailable, falling back to in-memory card cache", zap.Error(err))
		} else {
			defer redisCache.Close()
			cardCache = redisCache
			logger.Info("Redis card cache enabled")
		}
	}
	exporter := card.NewExporter(card.NewRenderer(cfg.Card.Scale),
		card.WithCache(cardCache, cfg.CacheTTL()),
		card.WithLogger(logger),
	)

	wf := workflow.New(generator, generator,
		workflow.WithLogger(logger),
		workflow.WithFailureMessage(cfg.Generation.FailureMessage),
	)

	handler := web.NewHandler(wf, exporter, web.Options{
		PublicURL:            cfg.Server.PublicURL,
		ExportFailureMessage: cfg.Card.ExportFailureMessage,
		Logger:               logger,
	})
	router, err := web.NewRouter(handler)
	if err != nil {
		logger.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Bug Persona is listening", zap.String("port", cfg.Server.Port), zap.String("provider", cfg.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
}

func newGenerator(cfg *config.Config, apiKey string, logger *zap.Logger) workflow.Generator {
	models := cfg.Models()
	if cfg.Provider == config.ProviderOpenAI {
		return openaicompat.NewClient(apiKey, openaicompat.Config{
			BaseURL:    models.BaseURL,
			TextModel:  models.TextModel,
			ImageModel: models.ImageModel,
			Timeout:    cfg.Timeout(),
			Logger:     logger,
		})
	}
	return gemini.NewClient(apiKey, gemini.Config{
		BaseURL:    models.BaseURL,
		TextModel:  models.TextModel,
		ImageModel: models.ImageModel,
		Timeout:    cfg.Timeout(),
		Logger:     logger,
	})
}
