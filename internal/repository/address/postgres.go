package address

import (
	"context"
	"errors"
	"fmt"

	"storefront-checkout/internal/domain"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const addressColumns = `id::text, owner_id::text, street, number, complement, neighborhood, city, state, zip_code, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("component", "address_repo").Logger()}
}

func (r *postgresRepo) Create(ctx context.Context, a domain.Address) (*domain.Address, error) {
	q := `
INSERT INTO addresses (owner_id, street, number, complement, neighborhood, city, state, zip_code)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + addressColumns
	res, err := scanAddress(r.pool.QueryRow(ctx, q, a.OwnerID, a.Street, a.Number, a.Complement, a.Neighborhood, a.City, a.State, a.ZipCode))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return nil, domain.ErrNotFound
		}
		r.logger.Error().Err(err).Str("owner_id", a.OwnerID).Msg("create address")
		return nil, fmt.Errorf("address repo: create: %w", err)
	}
	return res, nil
}

func (r *postgresRepo) GetForOwner(ctx context.Context, ownerID, id string) (*domain.Address, error) {
	q := `SELECT ` + addressColumns + ` FROM addresses WHERE id = $1 AND owner_id = $2`
	res, err := scanAddress(r.pool.QueryRow(ctx, q, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("address repo: get: %w", err)
	}
	return res, nil
}

func (r *postgresRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Address, error) {
	q := `SELECT ` + addressColumns + ` FROM addresses WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`
	rows, err := r.pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, fmt.Errorf("address repo: list: %w", err)
	}
	defer rows.Close()

	var result []domain.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("address repo: scan: %w", err)
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("address repo: list rows: %w", err)
	}
	return result, nil
}

func (r *postgresRepo) Update(ctx context.Context, ownerID, id string, in UpdateInput) (*domain.Address, error) {
	q := `
UPDATE addresses SET
    street = COALESCE($3, street),
    number = COALESCE($4, number),
    complement = COALESCE($5, complement),
    neighborhood = COALESCE($6, neighborhood),
    city = COALESCE($7, city),
    state = COALESCE($8, state),
    zip_code = COALESCE($9, zip_code),
    updated_at = now()
WHERE id = $1 AND owner_id = $2
RETURNING ` + addressColumns
	res, err := scanAddress(r.pool.QueryRow(ctx, q, id, ownerID,
		in.Street, in.Number, in.Complement, in.Neighborhood, in.City, in.State, in.ZipCode))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error().Err(err).Str("owner_id", ownerID).Str("address_id", id).Msg("update address")
		return nil, fmt.Errorf("address repo: update: %w", err)
	}
	return res, nil
}

func (r *postgresRepo) Delete(ctx context.Context, ownerID, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("address repo: delete: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.Debug().Str("owner_id", ownerID).Str("address_id", id).Msg("address deleted")
	return nil
}

func scanAddress(row pgx.Row) (*domain.Address, error) {
	var a domain.Address
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Street, &a.Number, &a.Complement, &a.Neighborhood, &a.City, &a.State, &a.ZipCode, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}
