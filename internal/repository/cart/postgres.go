package cart

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

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("component", "cart_repo").Logger()}
}

func (r *postgresRepo) GetByOwner(ctx context.Context, ownerID string) (*domain.Cart, error) {
	const q = `
SELECT id::text, owner_id::text, created_at, updated_at
FROM carts
WHERE owner_id = $1
`
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, q, ownerID).Scan(&cart.ID, &cart.OwnerID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("cart repo: get owner=%s: %w", ownerID, err)
	}
	if err := r.loadLines(ctx, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *postgresRepo) Create(ctx context.Context, ownerID string) (*domain.Cart, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	const q = `
INSERT INTO carts (owner_id)
VALUES ($1)
ON CONFLICT (owner_id) DO UPDATE SET owner_id = EXCLUDED.owner_id
RETURNING id::text, owner_id::text, created_at, updated_at
`
	var cart domain.Cart
	err := r.pool.QueryRow(ctx, q, ownerID).Scan(&cart.ID, &cart.OwnerID, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("cart repo: create owner=%s: %w", ownerID, err)
	}
	if err := r.loadLines(ctx, &cart); err != nil {
		return nil, err
	}
	r.logger.Debug().Str("owner_id", ownerID).Str("cart_id", cart.ID).Msg("cart ready")
	return &cart, nil
}

func (r *postgresRepo) AddLine(ctx context.Context, cartID, productID string, quantity int) error {
	return r.inTx(ctx, cartID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
INSERT INTO cart_lines (cart_id, product_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (cart_id, product_id) DO UPDATE
SET quantity = cart_lines.quantity + EXCLUDED.quantity,
    updated_at = now()
`, cartID, productID, quantity)
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrNotFound
			}
			if isOutOfRange(err) {
				return fmt.Errorf("%w: line quantity would exceed %d", domain.ErrValidation, domain.MaxLineQuantity)
			}
			return fmt.Errorf("cart repo: add line: %w", err)
		}
		return nil
	})
}

func (r *postgresRepo) SetLineQuantity(ctx context.Context, cartID, lineID string, quantity int) error {
	return r.inTx(ctx, cartID, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `
UPDATE cart_lines
SET quantity = $1, updated_at = now()
WHERE id = $2 AND cart_id = $3
`, quantity, lineID, cartID)
		if err != nil {
			return fmt.Errorf("cart repo: set quantity: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *postgresRepo) RemoveLine(ctx context.Context, cartID, lineID string) error {
	return r.inTx(ctx, cartID, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE id = $1 AND cart_id = $2`, lineID, cartID)
		if err != nil {
			return fmt.Errorf("cart repo: remove line: %w", err)
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *postgresRepo) ClearLines(ctx context.Context, cartID string) error {
	return r.inTx(ctx, cartID, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID)
		if err != nil {
			return fmt.Errorf("cart repo: clear: %w", err)
		}
		r.logger.Debug().Str("cart_id", cartID).Int64("removed", cmd.RowsAffected()).Msg("cart cleared")
		return nil
	})
}

// inTx runs fn and bumps the cart's updated_at in the same transaction.
func (r *postgresRepo) inTx(ctx context.Context, cartID string, fn func(pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("cart repo: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := touchCart(ctx, tx, cartID); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("cart repo: commit: %w", err)
	}
	return nil
}

func (r *postgresRepo) loadLines(ctx context.Context, cart *domain.Cart) error {
	const q = `
SELECT l.id::text, l.cart_id::text, l.product_id::text, p.name, p.image, p.price, l.quantity, l.created_at, l.updated_at
FROM cart_lines l
JOIN products p ON p.id = l.product_id
WHERE l.cart_id = $1
ORDER BY l.created_at ASC, l.id ASC
`
	rows, err := r.pool.Query(ctx, q, cart.ID)
	if err != nil {
		return fmt.Errorf("cart repo: lines: %w", err)
	}
	defer rows.Close()

	cart.Lines = cart.Lines[:0]
	for rows.Next() {
		var line domain.CartLine
		if err := rows.Scan(
			&line.ID,
			&line.CartID,
			&line.ProductID,
			&line.ProductName,
			&line.ProductImage,
			&line.UnitPrice,
			&line.Quantity,
			&line.CreatedAt,
			&line.UpdatedAt,
		); err != nil {
			return fmt.Errorf("cart repo: scan line: %w", err)
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("cart repo: lines rows: %w", err)
	}
	return nil
}

func touchCart(ctx context.Context, tx pgx.Tx, cartID string) error {
	cmd, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("cart repo: touch: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}

// isOutOfRange reports an INTEGER overflow such as a quantity sum past 2^31-1.
func isOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.NumericValueOutOfRange
}
