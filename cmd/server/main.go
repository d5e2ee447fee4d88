package main

import (
	"context"
	"os"

	"github.com/flashsale/checkout/internal/api/server"
	"github.com/flashsale/checkout/internal/cache"
	"github.com/flashsale/checkout/internal/config"
	"github.com/flashsale/checkout/internal/holds"
	"github.com/flashsale/checkout/internal/orders"
	"github.com/flashsale/checkout/internal/sweeper"
	"github.com/flashsale/checkout/internal/webhooks"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file found - continuing with environment variables")
	}

	cfg := config.Load()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to create pgx pool")
	}
	defer pool.Close()

	redisClient, err := config.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to connect to redis")
	}
	defer redisClient.Close()

	productCache := cache.NewProductCache(redisClient, cfg.ProductCacheTTL)

	holdsManager := holds.NewManager(holds.NewPostgresStore(pool), productCache, cfg.HoldTTL, logger)
	ordersManager := orders.NewManager(orders.NewPostgresStore(pool), productCache, logger)
	webhooksProcessor := webhooks.NewProcessor(webhooks.NewPostgresStore(pool), productCache, logger)

	sweep := sweeper.New(sweeper.NewPostgresScanner(pool), holdsManager, cfg.SweeperPeriod, logger)
	go sweep.Run(ctx)

	srv := server.NewServer(server.Config{Port: cfg.Port}, server.AppDeps{
		DB:           pool,
		ProductCache: productCache,
		Holds:        holdsManager,
		Orders:       ordersManager,
		Webhooks:     webhooksProcessor,
		Logger:       logger,
	})

	if err := srv.Start(); err != nil {
		logger.Error().Err(err).Msg("server exited")
		os.Exit(1)
	}
}
