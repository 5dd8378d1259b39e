package address

import (
	"context"

	"storefront-checkout/internal/domain"
)

// Repository stores delivery addresses. Every read and delete is scoped by owner.
type Repository interface {
	Create(ctx context.Context, a domain.Address) (*domain.Address, error)
	GetForOwner(ctx context.Context, ownerID, id string) (*domain.Address, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Address, error)
	// Update overwrites the non-nil fields of an owner's address.
	Update(ctx context.Context, ownerID, id string, in UpdateInput) (*domain.Address, error)
	Delete(ctx context.Context, ownerID, id string) error
}

// UpdateInput holds the fields to change. Nil leaves the column as is.
type UpdateInput struct {
	Street       *string
	Number       *string
	Complement   *string
	Neighborhood *string
	City         *string
	State        *string
	ZipCode      *string
}
