package product

import (
	"context"

	"storefront-checkout/internal/domain"
	productrepo "storefront-checkout/internal/repository/product"

	"github.com/google/uuid"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

// List returns the products shoppers can put in a cart.
func (s *Service) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx, true)
}

// Get returns an active product. Inactive ones are reported as not found.
func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, domain.ErrNotFound
	}
	return p, nil
}
