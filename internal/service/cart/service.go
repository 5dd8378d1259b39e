package cart

import (
	"context"
	"errors"
	"fmt"

	"storefront-checkout/internal/domain"
	cartrepo "storefront-checkout/internal/repository/cart"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service manages an owner's cart. Every operation resolves the cart from the
// owner id, so line ids belonging to other owners are reported as not found.
type Service struct {
	repo     cartRepo
	products productLookup
	logger   zerolog.Logger
}

type cartRepo interface {
	GetByOwner(ctx context.Context, ownerID string) (*domain.Cart, error)
	Create(ctx context.Context, ownerID string) (*domain.Cart, error)
	AddLine(ctx context.Context, cartID, productID string, quantity int) error
	SetLineQuantity(ctx context.Context, cartID, lineID string, quantity int) error
	RemoveLine(ctx context.Context, cartID, lineID string) error
	ClearLines(ctx context.Context, cartID string) error
}

type productLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

func New(repo cartrepo.Repository, products productLookup, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		products: products,
		logger:   logger.With().Str("component", "cart_service").Logger(),
	}
}

// Get returns the owner's cart, creating an empty one on first access.
func (s *Service) Get(ctx context.Context, ownerID string) (*domain.Cart, error) {
	if err := requireID(ownerID); err != nil {
		return nil, err
	}
	cart, err := s.repo.GetByOwner(ctx, ownerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	cart, err = s.repo.Create(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("owner_id", ownerID).Str("cart_id", cart.ID).Msg("cart created")
	return cart, nil
}

func (s *Service) AddItem(ctx context.Context, ownerID, productID string, quantity int) (*domain.Cart, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(productID); err != nil {
		return nil, domain.ErrNotFound
	}
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, domain.ErrNotFound
	}

	cart, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddLine(ctx, cart.ID, product.ID, quantity); err != nil {
		return nil, err
	}
	s.logger.Debug().Str("owner_id", ownerID).Str("product_id", productID).Int("quantity", quantity).Msg("item added")
	return s.repo.GetByOwner(ctx, ownerID)
}

// UpdateItemQuantity overwrites the quantity of a line in the owner's cart.
func (s *Service) UpdateItemQuantity(ctx context.Context, ownerID, lineID string, quantity int) (*domain.Cart, error) {
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}
	cart, err := s.ownedCart(ctx, ownerID, lineID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetLineQuantity(ctx, cart.ID, lineID, quantity); err != nil {
		return nil, err
	}
	return s.repo.GetByOwner(ctx, ownerID)
}

func (s *Service) RemoveItem(ctx context.Context, ownerID, lineID string) (*domain.Cart, error) {
	cart, err := s.ownedCart(ctx, ownerID, lineID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.RemoveLine(ctx, cart.ID, lineID); err != nil {
		return nil, err
	}
	return s.repo.GetByOwner(ctx, ownerID)
}

// Clear empties the owner's cart. Unlike Get it never creates one.
func (s *Service) Clear(ctx context.Context, ownerID string) (*domain.Cart, error) {
	if err := requireID(ownerID); err != nil {
		return nil, err
	}
	cart, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ClearLines(ctx, cart.ID); err != nil {
		return nil, err
	}
	return s.repo.GetByOwner(ctx, ownerID)
}

func (s *Service) ownedCart(ctx context.Context, ownerID, lineID string) (*domain.Cart, error) {
	if err := requireID(ownerID); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(lineID); err != nil {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetByOwner(ctx, ownerID)
}

func validateQuantity(q int) error {
	if q <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}
	if q > domain.MaxLineQuantity {
		return fmt.Errorf("%w: quantity must not exceed %d", domain.ErrValidation, domain.MaxLineQuantity)
	}
	return nil
}

func requireID(ownerID string) error {
	if _, err := uuid.Parse(ownerID); err != nil {
		return fmt.Errorf("%w: owner id required", domain.ErrValidation)
	}
	return nil
}
