package product

import (
	"context"
	"errors"
	"fmt"

	"storefront-checkout/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `id::text, sku, name, description, price, image, active, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("component", "product_repo").Logger()}
}

func (r *postgresRepo) List(ctx context.Context, activeOnly bool) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products`
	if activeOnly {
		q += ` WHERE active`
	}
	q += ` ORDER BY name ASC, id ASC`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		r.logger.Error().Err(err).Msg("list products")
		return nil, fmt.Errorf("product repo: list: %w", err)
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("product repo: scan: %w", err)
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("product repo: list rows: %w", err)
	}
	r.logger.Debug().Bool("active_only", activeOnly).Int("count", len(result)).Msg("list products")
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id).Msg("product not found")
			return nil, domain.ErrNotFound
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("get product")
		return nil, fmt.Errorf("product repo: get: %w", err)
	}
	return p, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	q := `
INSERT INTO products (id, sku, name, description, price, image, active)
VALUES (COALESCE(NULLIF($1, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7)
ON CONFLICT (sku) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    image = EXCLUDED.image,
    active = EXCLUDED.active,
    updated_at = now()
RETURNING ` + productColumns

	res, err := scanProduct(r.pool.QueryRow(ctx, q, p.ID, p.SKU, p.Name, p.Description, p.Price, p.Image, p.Active))
	if err != nil {
		r.logger.Error().Err(err).Str("sku", p.SKU).Msg("upsert product")
		return nil, fmt.Errorf("product repo: upsert %s: %w", p.SKU, err)
	}
	r.logger.Debug().Str("sku", res.SKU).Str("product_id", res.ID).Msg("upsert product")
	return res, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Price, &p.Image, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
