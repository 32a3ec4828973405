package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dseditor/AIStudioFloorPlan/internal/api"
	"github.com/dseditor/AIStudioFloorPlan/internal/infra/config"
	"github.com/dseditor/AIStudioFloorPlan/internal/infra/httpclient"
	"github.com/dseditor/AIStudioFloorPlan/internal/infra/limiter"
	"github.com/dseditor/AIStudioFloorPlan/internal/infra/logger"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/deck"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/gemini"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/generation"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/orchestrator"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/prompt"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/scene"
	"github.com/dseditor/AIStudioFloorPlan/internal/service/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	httpClient := httpclient.New(httpclient.Options{
		Timeout: time.Duration(cfg.HTTPClient.TimeoutSeconds) * time.Second,
	})

	lim := limiter.New(cfg.Limiter.MaxConcurrent, cfg.Limiter.RatePerSecond)

	geminiClient, err := gemini.New(gemini.Options{
		APIKey:     cfg.Gemini.APIKey,
		BaseURL:    cfg.Gemini.BaseURL,
		ImageModel: cfg.Gemini.ImageModel,
		TextModel:  cfg.Gemini.TextModel,
		HTTPClient: httpClient,
		Logger:     zapLogger,
	})
	if err != nil {
		log.Fatalf("failed to init gemini client: %v", err)
	}

	baseDelay := time.Duration(cfg.Generation.BaseDelayMs) * time.Millisecond
	maxDelay := time.Duration(cfg.Generation.MaxDelayMs) * time.Millisecond
	planRetryer := generation.NewRetryer(generation.RetryPolicy{
		MaxAttempts: cfg.Generation.PlanMaxAttempts,
		BaseDelay:   baseDelay,
		Multiplier:  2,
		MaxDelay:    maxDelay,
	}, zapLogger)
	sceneRetryer := generation.NewRetryer(generation.RetryPolicy{
		MaxAttempts: cfg.Generation.SimpleMaxAttempts,
		BaseDelay:   baseDelay,
		Multiplier:  2,
		MaxDelay:    maxDelay,
	}, zapLogger)

	orch := orchestrator.New(
		geminiClient,
		prompt.New(),
		generation.NewCoordinator(planRetryer, zapLogger),
		generation.NewCoordinator(sceneRetryer, zapLogger),
		scene.NewStore(),
		deck.NewRenderer(deck.NewFontCache()),
		storage.New(cfg.Export.BasePath, cfg.Export.BaseURL, zapLogger),
		lim,
		zapLogger,
	)

	router := api.NewRouter(orch, cfg.Export.BasePath, cfg.Export.BaseURL, zapLogger)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		zapLogger.Info("starting server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Error("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server forced to shutdown", "error", err)
	}
	zapLogger.Info("server stopped")
}
