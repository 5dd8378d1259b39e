package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storefront-checkout/internal/domain"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const orderColumns = `id::text, owner_id::text, address_id::text, address_snapshot, payment_method, status, total, notes, created_at, updated_at`

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger.With().Str("component", "order_repo").Logger()}
}

func (r *postgresRepo) CreateFromCart(ctx context.Context, in CreateInput) (*domain.Order, error) {
	addrJSON, err := json.Marshal(in.Address)
	if err != nil {
		return nil, fmt.Errorf("order repo: encode address: %w", err)
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("order repo: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Concurrent checkouts of the same cart queue up here.
	var locked string
	err = tx.QueryRow(ctx, `SELECT id::text FROM carts WHERE id = $1 AND owner_id = $2 FOR UPDATE`, in.CartID, in.OwnerID).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("order repo: lock cart: %w", err)
	}

	current, err := cartLineRefs(ctx, tx, in.CartID)
	if err != nil {
		return nil, err
	}
	if !sameLines(current, in.CartLines) {
		r.logger.Warn().Str("owner_id", in.OwnerID).Str("cart_id", in.CartID).Msg("cart changed during checkout")
		return nil, domain.ErrConflict
	}

	order := domain.Order{
		OwnerID:       in.OwnerID,
		Address:       in.Address,
		PaymentMethod: in.PaymentMethod,
		Total:         in.Total,
		Notes:         in.Notes,
	}
	var addrID *string
	if in.AddressID != "" {
		addrID = &in.AddressID
	}
	var snapshot []byte
	err = tx.QueryRow(ctx, `
INSERT INTO orders (owner_id, address_id, address_snapshot, payment_method, total, notes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+orderColumns,
		in.OwnerID, addrID, addrJSON, string(in.PaymentMethod), in.Total, in.Notes,
	).Scan(&order.ID, &order.OwnerID, &order.AddressID, &snapshot, &order.PaymentMethod, &order.Status, &order.Total, &order.Notes, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, domain.ErrNotFound
		}
		if isOutOfRange(err) {
			return nil, fmt.Errorf("%w: order total out of range", domain.ErrValidation)
		}
		return nil, fmt.Errorf("order repo: insert order: %w", err)
	}

	for _, line := range in.Lines {
		line.OrderID = order.ID
		err := tx.QueryRow(ctx, `
INSERT INTO order_items (order_id, product_id, product_name, product_image, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id::text, created_at
`, order.ID, line.ProductID, line.ProductName, line.ProductImage, line.Quantity, line.UnitPrice).Scan(&line.ID, &line.CreatedAt)
		if err != nil {
			if isForeignKeyViolation(err) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("order repo: insert item: %w", err)
		}
		order.Lines = append(order.Lines, line)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, in.CartID); err != nil {
		return nil, fmt.Errorf("order repo: clear cart: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, in.CartID); err != nil {
		return nil, fmt.Errorf("order repo: touch cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("order repo: commit: %w", err)
	}

	if err := json.Unmarshal(snapshot, &order.Address); err != nil {
		return nil, fmt.Errorf("order repo: decode address: %w", err)
	}
	r.logger.Info().
		Str("order_id", order.ID).
		Str("owner_id", order.OwnerID).
		Int("lines", len(order.Lines)).
		Str("total", order.Total.StringFixed(2)).
		Msg("order created")
	return &order, nil
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	return r.fetchOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepo) GetForOwner(ctx context.Context, ownerID, id string) (*domain.Order, error) {
	return r.fetchOne(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 AND owner_id = $2`, id, ownerID)
}

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Order, error) {
	where, args := f.where()
	args = append(args, f.Limit, f.Offset)
	q := `SELECT ` + orderColumns + ` FROM orders` + where +
		` ORDER BY created_at DESC, id DESC LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("owner_id", f.OwnerID).Msg("list orders")
		return nil, fmt.Errorf("order repo: list: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("order repo: scan: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order repo: list rows: %w", err)
	}
	rows.Close()

	if err := attachLines(ctx, r.pool, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *postgresRepo) Count(ctx context.Context, f ListFilter) (int, error) {
	where, args := f.where()
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM orders`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("order repo: count: %w", err)
	}
	return n, nil
}

func (r *postgresRepo) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, count(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("order repo: stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[domain.OrderStatus]int, len(domain.OrderStatuses))
	for _, s := range domain.OrderStatuses {
		stats[s] = 0
	}
	for rows.Next() {
		var (
			status domain.OrderStatus
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("order repo: scan stats: %w", err)
		}
		stats[status] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order repo: stats rows: %w", err)
	}
	return stats, nil
}

func (r *postgresRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error) {
	o, err := r.fetchOne(ctx, `
UPDATE orders
SET status = $3, updated_at = now()
WHERE id = $1 AND status = $2
RETURNING `+orderColumns, id, string(from), string(to))
	if err == nil {
		r.logger.Info().Str("order_id", id).Str("from", string(from)).Str("to", string(to)).Msg("order status changed")
		return o, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("order repo: exists: %w", err)
	}
	if exists {
		return nil, domain.ErrConflict
	}
	return nil, domain.ErrNotFound
}

func (r *postgresRepo) fetchOne(ctx context.Context, q string, args ...any) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("order repo: fetch: %w", err)
	}
	orders := []domain.Order{*o}
	if err := attachLines(ctx, r.pool, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// where renders the filter as a parameterized WHERE clause.
func (f ListFilter) where() (string, []any) {
	var (
		conds []string
		args  []any
	)
	if f.OwnerID != "" {
		args = append(args, f.OwnerID)
		conds = append(conds, "owner_id = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o        domain.Order
		snapshot []byte
	)
	if err := row.Scan(&o.ID, &o.OwnerID, &o.AddressID, &snapshot, &o.PaymentMethod, &o.Status, &o.Total, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if len(snapshot) > 0 {
		if err := json.Unmarshal(snapshot, &o.Address); err != nil {
			return nil, fmt.Errorf("decode address snapshot: %w", err)
		}
	}
	return &o, nil
}

// attachLines loads the items of every order with one query.
func attachLines(ctx context.Context, q querier, orders []domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := q.Query(ctx, `
SELECT id::text, order_id::text, product_id::text, product_name, product_image, quantity, unit_price, created_at
FROM order_items
WHERE order_id = ANY($1::text[]::uuid[])
ORDER BY created_at ASC, id ASC
`, ids)
	if err != nil {
		return fmt.Errorf("order repo: items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.ProductImage, &l.Quantity, &l.UnitPrice, &l.CreatedAt); err != nil {
			return fmt.Errorf("order repo: scan item: %w", err)
		}
		i := index[l.OrderID]
		orders[i].Lines = append(orders[i].Lines, l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("order repo: items rows: %w", err)
	}
	return nil
}

func cartLineRefs(ctx context.Context, tx pgx.Tx, cartID string) ([]CartLineRef, error) {
	rows, err := tx.Query(ctx, `SELECT id::text, product_id::text, quantity FROM cart_lines WHERE cart_id = $1`, cartID)
	if err != nil {
		return nil, fmt.Errorf("order repo: read cart lines: %w", err)
	}
	defer rows.Close()

	var refs []CartLineRef
	for rows.Next() {
		var ref CartLineRef
		if err := rows.Scan(&ref.ID, &ref.ProductID, &ref.Quantity); err != nil {
			return nil, fmt.Errorf("order repo: scan cart line: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("order repo: cart lines rows: %w", err)
	}
	return refs, nil
}

// sameLines compares two line sets regardless of order.
func sameLines(a, b []CartLineRef) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[CartLineRef]int, len(a))
	for _, ref := range a {
		seen[ref]++
	}
	for _, ref := range b {
		if seen[ref] == 0 {
			return false
		}
		seen[ref]--
	}
	return true
}

func isOutOfRange(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.NumericValueOutOfRange
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation
}
