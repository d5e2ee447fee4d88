// The sweeper binary runs the hold expiry sweeper as its own process,
// independent of the HTTP server, so it can scale or restart separately
// from request traffic.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/flashsale/checkout/internal/cache"
	"github.com/flashsale/checkout/internal/config"
	"github.com/flashsale/checkout/internal/holds"
	"github.com/flashsale/checkout/internal/sweeper"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file found - continuing with environment variables")
	}

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	sweep := sweeper.New(sweeper.NewPostgresScanner(pool), holdsManager, cfg.SweeperPeriod, logger)

	logger.Info().Dur("period", cfg.SweeperPeriod).Msg("sweeper starting")
	sweep.Run(ctx)
	logger.Info().Msg("sweeper stopped")
}
