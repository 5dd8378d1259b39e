package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-checkout/internal/domain"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const clientColumns = `id::text, phone, name, last_message_at, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("component", "client_repo").Logger()}
}

func (r *postgresRepo) UpsertByPhone(ctx context.Context, phone, name string) (*domain.Client, error) {
	q := `
INSERT INTO clients (phone, name)
VALUES ($1, $2)
ON CONFLICT (phone) DO UPDATE SET
    name = CASE WHEN EXCLUDED.name = '' THEN clients.name ELSE EXCLUDED.name END,
    updated_at = now()
RETURNING ` + clientColumns
	return r.scanClient(r.pool.QueryRow(ctx, q, phone, name))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	return r.scanClient(r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE id = $1`, id))
}

func (r *postgresRepo) GetByPhone(ctx context.Context, phone string) (*domain.Client, error) {
	return r.scanClient(r.pool.QueryRow(ctx, `SELECT `+clientColumns+` FROM clients WHERE phone = $1`, phone))
}

func (r *postgresRepo) ClaimMessageSlot(ctx context.Context, id string, now, notBefore time.Time) (bool, error) {
	cmd, err := r.pool.Exec(ctx, `
UPDATE clients
SET last_message_at = $2
WHERE id = $1 AND (last_message_at IS NULL OR last_message_at <= $3)
`, id, now, notBefore)
	if err != nil {
		return false, fmt.Errorf("client repo: claim message slot: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *postgresRepo) scanClient(row pgx.Row) (*domain.Client, error) {
	var c domain.Client
	err := row.Scan(&c.ID, &c.Phone, &c.Name, &c.LastMessageAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, domain.ErrAlreadyExists
		}
		r.logger.Error().Err(err).Msg("scan client")
		return nil, fmt.Errorf("client repo: %w", err)
	}
	return &c, nil
}
