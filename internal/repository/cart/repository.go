package cart

import (
	"context"

	"storefront-checkout/internal/domain"
)

// Repository persists carts and their lines. Line operations take the cart id
// so a line id from another owner's cart never matches.
type Repository interface {
	GetByOwner(ctx context.Context, ownerID string) (*domain.Cart, error)
	// Create returns the owner's cart, inserting an empty one if none exists.
	Create(ctx context.Context, ownerID string) (*domain.Cart, error)
	// AddLine inserts a line or increments the quantity of the existing line for productID.
	AddLine(ctx context.Context, cartID, productID string, quantity int) error
	SetLineQuantity(ctx context.Context, cartID, lineID string, quantity int) error
	RemoveLine(ctx context.Context, cartID, lineID string) error
	ClearLines(ctx context.Context, cartID string) error
}
