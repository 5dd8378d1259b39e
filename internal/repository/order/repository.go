package order

import (
	"context"

	"storefront-checkout/internal/domain"

	"github.com/shopspring/decimal"
)

// CartLineRef identifies a cart line as it was read before checkout.
type CartLineRef struct {
	ID        string
	ProductID string
	Quantity  int
}

type CreateInput struct {
	OwnerID       string
	CartID        string
	AddressID     string
	Address       domain.AddressSnapshot
	PaymentMethod domain.PaymentMethod
	Notes         string
	Total         decimal.Decimal
	Lines         []domain.OrderLine
	// CartLines is the line set the order was priced from. Checkout fails
	// with domain.ErrConflict when the stored cart no longer matches it.
	CartLines []CartLineRef
}

// ListFilter scopes order listings. An empty OwnerID lists every owner.
type ListFilter struct {
	OwnerID string
	Status  domain.OrderStatus
	Limit   int
	Offset  int
}

type Repository interface {
	// CreateFromCart persists the order and its lines and empties the cart in
	// a single transaction.
	CreateFromCart(ctx context.Context, in CreateInput) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	GetForOwner(ctx context.Context, ownerID, id string) (*domain.Order, error)
	List(ctx context.Context, f ListFilter) ([]domain.Order, error)
	Count(ctx context.Context, f ListFilter) (int, error)
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
	// UpdateStatus moves the order from one status to another. It fails with
	// domain.ErrConflict if the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error)
}
