package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	"github.com/costra/costra/application/usecase"
	"github.com/costra/costra/infrastructure/cache"
	"github.com/costra/costra/infrastructure/config"
	"github.com/costra/costra/infrastructure/http/handler"
	"github.com/costra/costra/infrastructure/http/middleware"
	"github.com/costra/costra/infrastructure/persistence/postgres"
	"github.com/costra/costra/infrastructure/service/logger"
	"github.com/costra/costra/infrastructure/service/ratelimit"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	structuredLogger := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "costra",
	})
	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"env": cfg.Environment,
	})

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	structuredLogger.Info(ctx, "Database connection established", nil)

	redisClient, err := cache.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	structuredLogger.Info(ctx, "Redis connection established", nil)

	// Repositories and cache
	ingredientRepo := postgres.NewIngredientRepository(db)
	recipeRepo := postgres.NewRecipeRepository(db)
	priceCache := cache.NewRedisPriceCache(redisClient)

	// Core services
	resolver := usecase.NewPriceResolver(ingredientRepo, priceCache, cfg.PriceCacheTTL, structuredLogger)
	calculator := usecase.NewCostCalculator(ingredientRepo, resolver, structuredLogger)
	ingredientUseCase := usecase.NewIngredientUseCase(ingredientRepo, structuredLogger)
	recipeUseCase := usecase.NewRecipeUseCase(recipeRepo, calculator, structuredLogger)

	// HTTP wiring
	router := mux.NewRouter()
	handler.NewHealthHandler(db).RegisterRoutes(router)
	handler.NewIngredientHandler(ingredientUseCase).RegisterRoutes(router)
	handler.NewRecipeHandler(recipeUseCase).RegisterRoutes(router)

	var limiter ratelimit.Limiter = ratelimit.NoopLimiter{}
	if cfg.RateLimitEnabled {
		limiter = ratelimit.NewRedisLimiter(redisClient, structuredLogger)
	}
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(limiter, structuredLogger, cfg.RateLimitRequests, cfg.RateLimitWindow)

	var chain http.Handler = router
	chain = rateLimitMiddleware.RateLimit(chain)
	if cfg.CORSEnabled {
		chain = middleware.CORSMiddleware(chain, cfg.CORSAllowedOrigins, cfg.CORSAllowCredentials)
	}
	chain = middleware.CorrelationIDMiddleware(chain)

	server := &http.Server{
		Addr:         cfg.ServerHost + ":" + cfg.ServerPort,
		Handler:      chain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		structuredLogger.Info(ctx, "HTTP server listening", map[string]interface{}{
			"addr": server.Addr,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	structuredLogger.Info(ctx, "Shutting down", nil)
	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "Graceful shutdown failed", err, nil)
	}
}
