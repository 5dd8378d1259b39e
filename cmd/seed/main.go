package main

import (
	"context"

	"storefront-checkout/internal/config"
	"storefront-checkout/internal/db"
	"storefront-checkout/internal/logging"
	addressrepo "storefront-checkout/internal/repository/address"
	clientrepo "storefront-checkout/internal/repository/client"
	productrepo "storefront-checkout/internal/repository/product"
	"storefront-checkout/internal/seed"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, "seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, db.Options{MaxConns: cfg.DBMaxConns, LogQueries: cfg.DBLogQueries}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	err = seed.Apply(ctx, seed.Stores{
		Products:  productrepo.NewPostgres(pool, logger),
		Clients:   clientrepo.NewPostgres(pool, logger),
		Addresses: addressrepo.NewPostgres(pool, logger),
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed apply")
	}

	logger.Info().Msg("seed applied")
}
