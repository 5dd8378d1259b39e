package product

import (
	"context"

	"storefront-checkout/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Product, error)
	// Upsert inserts or updates a product keyed by SKU.
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}
