package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
)

// Options tune the connection pool. Zero values keep the pgx defaults.
type Options struct {
	MaxConns int32
	// LogQueries traces every statement at debug level.
	LogQueries bool
}

// Connect opens a pgx connection pool and verifies connectivity with a ping.
func Connect(ctx context.Context, dsn string, opts Options, logger zerolog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	if opts.LogQueries {
		cfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   queryLogger(logger.With().Str("component", "pgx").Logger()),
			LogLevel: tracelog.LogLevelDebug,
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	logger.Info().
		Str("host", cfg.ConnConfig.Host).
		Str("database", cfg.ConnConfig.Database).
		Int32("max_conns", cfg.MaxConns).
		Bool("log_queries", opts.LogQueries).
		Msg("database pool ready")
	return pool, nil
}

// queryLogger forwards pgx trace events to zerolog.
func queryLogger(logger zerolog.Logger) tracelog.LoggerFunc {
	return func(_ context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		logger.WithLevel(zerologLevel(level)).Fields(data).Msg(msg)
	}
}

func zerologLevel(l tracelog.LogLevel) zerolog.Level {
	switch l {
	case tracelog.LogLevelTrace:
		return zerolog.TraceLevel
	case tracelog.LogLevelDebug:
		return zerolog.DebugLevel
	case tracelog.LogLevelInfo:
		return zerolog.InfoLevel
	case tracelog.LogLevelWarn:
		return zerolog.WarnLevel
	case tracelog.LogLevelError:
		return zerolog.ErrorLevel
	}
	return zerolog.Disabled
}
