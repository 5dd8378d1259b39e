package cart

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"storefront-checkout/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ownerID   = "5f0c6a4e-1b7e-4d0a-9c1e-000000000001"
	productID = "5f0c6a4e-1b7e-4d0a-9c1e-0000000000a1"
	lineID    = "5f0c6a4e-1b7e-4d0a-9c1e-0000000000b1"
)

type stubRepo struct {
	cart          *domain.Cart
	getErr        error
	createCalls   int
	addErr        error
	setErr        error
	removeErr     error
	lastAddCartID string
	lastAddProd   string
	lastAddQty    int
	lastSetCartID string
	lastSetLineID string
	lastSetQty    int
	lastRemoveID  string
	clearedCartID string
}

func (s *stubRepo) GetByOwner(_ context.Context, _ string) (*domain.Cart, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.cart == nil {
		return nil, domain.ErrNotFound
	}
	return s.cart, nil
}

func (s *stubRepo) Create(_ context.Context, owner string) (*domain.Cart, error) {
	s.createCalls++
	s.cart = &domain.Cart{ID: "cart-1", OwnerID: owner}
	return s.cart, nil
}

func (s *stubRepo) AddLine(_ context.Context, cartID, productID string, quantity int) error {
	s.lastAddCartID = cartID
	s.lastAddProd = productID
	s.lastAddQty = quantity
	return s.addErr
}

func (s *stubRepo) SetLineQuantity(_ context.Context, cartID, lineID string, quantity int) error {
	s.lastSetCartID = cartID
	s.lastSetLineID = lineID
	s.lastSetQty = quantity
	return s.setErr
}

func (s *stubRepo) RemoveLine(_ context.Context, _, lineID string) error {
	s.lastRemoveID = lineID
	return s.removeErr
}

func (s *stubRepo) ClearLines(_ context.Context, cartID string) error {
	s.clearedCartID = cartID
	if s.cart != nil {
		s.cart.Lines = nil
	}
	return nil
}

type stubProductRepo struct {
	product *domain.Product
	err     error
}

func (s *stubProductRepo) GetByID(_ context.Context, _ string) (*domain.Product, error) {
	return s.product, s.err
}

func newService(repo *stubRepo, products *stubProductRepo) *Service {
	return New(repo, products, zerolog.Nop())
}

func TestGetCreatesCartLazily(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(repo, &stubProductRepo{})

	cart, err := svc.Get(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, ownerID, cart.OwnerID)
	assert.Equal(t, 1, repo.createCalls)

	_, err = svc.Get(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.createCalls, "existing cart must be reused")
}

func TestGetPropagatesStorageErrors(t *testing.T) {
	boom := errors.New("db down")
	svc := newService(&stubRepo{getErr: boom}, &stubProductRepo{})

	_, err := svc.Get(context.Background(), ownerID)
	assert.ErrorIs(t, err, boom)
}

func TestAddItemValidation(t *testing.T) {
	svc := newService(&stubRepo{}, &stubProductRepo{})

	for _, q := range []int{0, -3, domain.MaxLineQuantity + 1} {
		_, err := svc.AddItem(context.Background(), ownerID, productID, q)
		if !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("quantity %d: expected validation error, got %v", q, err)
		}
	}
}

func TestAddItemUnknownProduct(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(repo, &stubProductRepo{err: domain.ErrNotFound})

	_, err := svc.AddItem(context.Background(), ownerID, productID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, repo.lastAddCartID)

	_, err = svc.AddItem(context.Background(), ownerID, "not-a-uuid", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddItemInactiveProduct(t *testing.T) {
	svc := newService(&stubRepo{}, &stubProductRepo{product: &domain.Product{ID: productID, Active: false}})

	_, err := svc.AddItem(context.Background(), ownerID, productID, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAddItemHappyPath(t *testing.T) {
	repo := &stubRepo{}
	products := &stubProductRepo{product: &domain.Product{ID: productID, Name: "Rice", Price: decimal.RequireFromString("8.99"), Active: true}}
	svc := newService(repo, products)

	cart, err := svc.AddItem(context.Background(), ownerID, productID, 2)
	require.NoError(t, err)
	assert.Equal(t, "cart-1", repo.lastAddCartID)
	assert.Equal(t, productID, repo.lastAddProd)
	assert.Equal(t, 2, repo.lastAddQty)
	assert.Equal(t, "cart-1", cart.ID)
}

func TestUpdateItemQuantity(t *testing.T) {
	repo := &stubRepo{cart: &domain.Cart{ID: "cart-1", OwnerID: ownerID}}
	svc := newService(repo, &stubProductRepo{})

	_, err := svc.UpdateItemQuantity(context.Background(), ownerID, lineID, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.UpdateItemQuantity(context.Background(), ownerID, lineID, 7)
	require.NoError(t, err)
	assert.Equal(t, "cart-1", repo.lastSetCartID)
	assert.Equal(t, lineID, repo.lastSetLineID)
	assert.Equal(t, 7, repo.lastSetQty)
}

func TestUpdateItemQuantityUpperBound(t *testing.T) {
	repo := &stubRepo{cart: &domain.Cart{ID: "cart-1", OwnerID: ownerID}}
	svc := newService(repo, &stubProductRepo{})

	_, err := svc.UpdateItemQuantity(context.Background(), ownerID, lineID, domain.MaxLineQuantity+1)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Empty(t, repo.lastSetLineID, "oversized quantity must not reach storage")

	_, err = svc.UpdateItemQuantity(context.Background(), ownerID, lineID, domain.MaxLineQuantity)
	require.NoError(t, err)
	assert.Equal(t, domain.MaxLineQuantity, repo.lastSetQty)
}

func TestAddItemPropagatesOverflowFromStorage(t *testing.T) {
	repo := &stubRepo{addErr: fmt.Errorf("%w: line quantity would exceed %d", domain.ErrValidation, domain.MaxLineQuantity)}
	products := &stubProductRepo{product: &domain.Product{ID: productID, Active: true}}
	svc := newService(repo, products)

	_, err := svc.AddItem(context.Background(), ownerID, productID, 5)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateItemQuantityForeignLine(t *testing.T) {
	repo := &stubRepo{cart: &domain.Cart{ID: "cart-1", OwnerID: ownerID}, setErr: domain.ErrNotFound}
	svc := newService(repo, &stubProductRepo{})

	_, err := svc.UpdateItemQuantity(context.Background(), ownerID, lineID, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.UpdateItemQuantity(context.Background(), ownerID, "garbage", 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateItemQuantityWithoutCart(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(repo, &stubProductRepo{})

	_, err := svc.UpdateItemQuantity(context.Background(), ownerID, lineID, 2)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, repo.createCalls)
}

func TestRemoveItem(t *testing.T) {
	repo := &stubRepo{cart: &domain.Cart{ID: "cart-1", OwnerID: ownerID}}
	svc := newService(repo, &stubProductRepo{})

	_, err := svc.RemoveItem(context.Background(), ownerID, lineID)
	require.NoError(t, err)
	assert.Equal(t, lineID, repo.lastRemoveID)

	repo.removeErr = domain.ErrNotFound
	_, err = svc.RemoveItem(context.Background(), ownerID, lineID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestClear(t *testing.T) {
	repo := &stubRepo{cart: &domain.Cart{ID: "cart-1", OwnerID: ownerID, Lines: []domain.CartLine{{ID: lineID, Quantity: 1}}}}
	svc := newService(repo, &stubProductRepo{})

	cart, err := svc.Clear(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Equal(t, "cart-1", repo.clearedCartID)
	assert.True(t, cart.IsEmpty())
}

func TestClearWithoutCart(t *testing.T) {
	repo := &stubRepo{}
	svc := newService(repo, &stubProductRepo{})

	_, err := svc.Clear(context.Background(), ownerID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Zero(t, repo.createCalls, "clear must not create a cart")
}

func TestInvalidOwner(t *testing.T) {
	svc := newService(&stubRepo{}, &stubProductRepo{})

	_, err := svc.Get(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrValidation)
}
