package main

import (
	"context"
	"flag"

	"storefront-checkout/internal/config"
	"storefront-checkout/internal/db"
	"storefront-checkout/internal/logging"
	"storefront-checkout/internal/migrate"
)

func main() {
	down := flag.Bool("down", false, "roll back every applied migration")
	flag.Parse()

	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, "migrate")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString, db.Options{MaxConns: cfg.DBMaxConns, LogQueries: cfg.DBLogQueries}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if *down {
		if err := migrate.Rollback(ctx, pool); err != nil {
			logger.Fatal().Err(err).Msg("rollback migration")
		}
	} else if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	v, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("read schema version")
	}
	logger.Info().Uint("version", v).Bool("dirty", dirty).Bool("down", *down).Msg("migrations done")
}
