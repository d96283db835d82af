package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"tradearena/configs"
	"tradearena/internal/adapter"
	"tradearena/internal/database"
	delivery "tradearena/internal/delivery/http"
	"tradearena/internal/infra"
	"tradearena/internal/repository"
	"tradearena/internal/service"
	"tradearena/internal/usecase"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Load configuration
	cfg := configs.Load()

	logger, err := newLogger(cfg.Server.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Initialize database
	db, err := infra.NewDatabase(ctx, cfg.Database.URL, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(db, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	challengeRepo := repository.NewChallengeRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	tradeRepo := repository.NewTradeRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	// Payment gateway
	paymentGateway := adapter.NewHTTPPaymentGateway(cfg.Payment.GatewayURL, cfg.Payment.SecretKey)

	// Leaderboard cache is optional: without REDIS_URL every read recomputes
	var leaderboardCache usecase.LeaderboardCache
	if cfg.Redis.URL != "" {
		redisClient, err := infra.NewRedisClient(ctx, cfg.Redis.URL, logger)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		leaderboardCache = infra.NewRedisLeaderboardCache(redisClient, logger)
	} else {
		logger.Info("REDIS_URL not set, leaderboard caching disabled")
	}

	// Initialize services
	challengeService := usecase.NewChallengeService(challengeRepo, participationRepo, activityRepo, paymentGateway, logger)
	tradeService := usecase.NewTradeService(tradeRepo, participationRepo, challengeRepo, activityRepo, logger)
	leaderboardService := usecase.NewLeaderboardService(participationRepo, userRepo, challengeRepo, leaderboardCache, logger)
	quoteService := service.NewMarketQuoteService(logger)

	// Quote feed runs until shutdown
	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()
	go quoteService.Run(feedCtx)

	// Scheduler: lifecycle sweep + leaderboard refresh
	scheduler := infra.NewScheduler(challengeService, leaderboardService, leaderboardCache, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Stop()

	// Initialize HTTP router
	e := echo.New()
	e.HideBanner = true

	delivery.SetupRoutes(e, &delivery.RouterConfig{
		AuthHandler:          delivery.NewAuthHandler(userRepo),
		ChallengeHandler:     delivery.NewChallengeHandler(challengeService, leaderboardService),
		ParticipationHandler: delivery.NewParticipationHandler(challengeService, activityRepo),
		TradeHandler:         delivery.NewTradeHandler(tradeService),
		MarketHandler:        delivery.NewMarketHandler(quoteService, logger),
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info("starting server",
		zap.String("addr", addr),
		zap.String("env", cfg.Server.Env))

	// Run server in goroutine
	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	stopFeed()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
