// The seed binary inserts a single product. Products are created out of
// band; the HTTP API never mutates them.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/flashsale/checkout/internal/config"
	"github.com/flashsale/checkout/internal/db"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	name := flag.String("name", "", "product name")
	description := flag.String("description", "", "product description")
	price := flag.String("price", "0.00", "product price, e.g. 99.99")
	stock := flag.Int("stock", 0, "initial stock")
	flag.Parse()

	if *name == "" {
		logger.Fatal().Msg("-name is required")
	}

	amount, err := decimal.NewFromString(*price)
	if err != nil {
		logger.Fatal().Err(err).Str("price", *price).Msg("invalid price")
	}

	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file found - continuing with environment variables")
	}
	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to create pgx pool")
	}
	defer pool.Close()

	queries := db.New(pool)
	product, err := queries.InsertProduct(ctx, db.Product{
		Name:        *name,
		Description: *description,
		Price:       amount,
		Stock:       *stock,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to insert product")
	}

	logger.Info().Int64("product_id", product.ID).Str("name", product.Name).Int("stock", product.Stock).Msg("product seeded")
}
