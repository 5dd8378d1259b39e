package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront-checkout/internal/domain"
	addresssvc "storefront-checkout/internal/service/address"
	clientsvc "storefront-checkout/internal/service/client"
	ordersvc "storefront-checkout/internal/service/order"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	testClientID = "7d1f3c2a-5b9e-4f10-8a7c-3e2d1c0b9a88"
	testAdminKey = "s3cret"
)

type stubClientService struct {
	client     *domain.Client
	err        error
	inbound    *clientsvc.InboundResult
	inboundErr error
}

func (s *stubClientService) Register(_ context.Context, phone, name string) (*domain.Client, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Client{ID: testClientID, Phone: phone, Name: name}, nil
}

func (s *stubClientService) Login(_ context.Context, _ string) (*domain.Client, error) {
	return s.client, s.err
}

func (s *stubClientService) Get(_ context.Context, id string) (*domain.Client, error) {
	if s.client == nil || s.client.ID != id {
		return nil, domain.ErrNotFound
	}
	return s.client, nil
}

func (s *stubClientService) HandleInbound(_ context.Context, _, _ string) (*clientsvc.InboundResult, error) {
	return s.inbound, s.inboundErr
}

type stubProductService struct {
	products []domain.Product
	err      error
}

func (s *stubProductService) List(_ context.Context) ([]domain.Product, error) {
	return s.products, s.err
}

func (s *stubProductService) Get(_ context.Context, id string) (*domain.Product, error) {
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

type stubAddressService struct {
	address *domain.Address
	err     error
	lastIn  addresssvc.CreateInput
	lastUpd addresssvc.UpdateInput
	lastID  string
}

func (s *stubAddressService) Create(_ context.Context, ownerID string, in addresssvc.CreateInput) (*domain.Address, error) {
	s.lastIn = in
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Address{ID: "addr-1", OwnerID: ownerID, Street: in.Street}, nil
}

func (s *stubAddressService) List(_ context.Context, _ string) ([]domain.Address, error) {
	if s.address == nil {
		return nil, s.err
	}
	return []domain.Address{*s.address}, s.err
}

func (s *stubAddressService) Get(_ context.Context, _, _ string) (*domain.Address, error) {
	return s.address, s.err
}

func (s *stubAddressService) Update(_ context.Context, ownerID, id string, in addresssvc.UpdateInput) (*domain.Address, error) {
	s.lastID, s.lastUpd = id, in
	if s.err != nil {
		return nil, s.err
	}
	a := domain.Address{ID: id, OwnerID: ownerID, Street: "Rua A", City: "Recife"}
	if in.Street != nil {
		a.Street = *in.Street
	}
	return &a, nil
}

func (s *stubAddressService) Delete(_ context.Context, _, _ string) error {
	return s.err
}

type stubCartService struct {
	cart      *domain.Cart
	err       error
	lastOwner string
	lastQty   int
}

func (s *stubCartService) result(owner string) (*domain.Cart, error) {
	s.lastOwner = owner
	if s.err != nil {
		return nil, s.err
	}
	return s.cart, nil
}

func (s *stubCartService) Get(_ context.Context, ownerID string) (*domain.Cart, error) {
	return s.result(ownerID)
}

func (s *stubCartService) AddItem(_ context.Context, ownerID, _ string, quantity int) (*domain.Cart, error) {
	s.lastQty = quantity
	return s.result(ownerID)
}

func (s *stubCartService) UpdateItemQuantity(_ context.Context, ownerID, _ string, quantity int) (*domain.Cart, error) {
	s.lastQty = quantity
	return s.result(ownerID)
}

func (s *stubCartService) RemoveItem(_ context.Context, ownerID, _ string) (*domain.Cart, error) {
	return s.result(ownerID)
}

func (s *stubCartService) Clear(_ context.Context, ownerID string) (*domain.Cart, error) {
	return s.result(ownerID)
}

type stubOrderService struct {
	order      *domain.Order
	page       *ordersvc.Page
	adminPage  *ordersvc.AdminPage
	err        error
	lastCreate ordersvc.CreateInput
	lastQuery  ordersvc.ListQuery
	lastStatus domain.OrderStatus
	forced     bool
}

func (s *stubOrderService) CreateOrder(_ context.Context, _ string, in ordersvc.CreateInput) (*domain.Order, error) {
	s.lastCreate = in
	return s.order, s.err
}

func (s *stubOrderService) List(_ context.Context, _ string, q ordersvc.ListQuery) (*ordersvc.Page, error) {
	s.lastQuery = q
	return s.page, s.err
}

func (s *stubOrderService) Get(_ context.Context, _, _ string) (*domain.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) UpdateStatus(_ context.Context, _, _ string, to domain.OrderStatus) (*domain.Order, error) {
	s.lastStatus = to
	return s.order, s.err
}

func (s *stubOrderService) Cancel(_ context.Context, _, _ string) (*domain.Order, error) {
	return s.order, s.err
}

func (s *stubOrderService) ListAdmin(_ context.Context, q ordersvc.ListQuery) (*ordersvc.AdminPage, error) {
	s.lastQuery = q
	return s.adminPage, s.err
}

func (s *stubOrderService) UpdateStatusAdmin(_ context.Context, _ string, to domain.OrderStatus) (*domain.Order, error) {
	s.lastStatus = to
	return s.order, s.err
}

func (s *stubOrderService) ForceStatus(_ context.Context, _ string, to domain.OrderStatus) (*domain.Order, error) {
	s.lastStatus = to
	s.forced = true
	return s.order, s.err
}

type testDeps struct {
	clients   *stubClientService
	products  *stubProductService
	addresses *stubAddressService
	carts     *stubCartService
	orders    *stubOrderService
}

func newTestDeps() *testDeps {
	return &testDeps{
		clients:   &stubClientService{client: &domain.Client{ID: testClientID, Phone: "5581999990000", Name: "Ana"}},
		products:  &stubProductService{},
		addresses: &stubAddressService{},
		carts:     &stubCartService{},
		orders:    &stubOrderService{},
	}
}

func (d *testDeps) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return buildRouter(zerolog.New(io.Discard), nil, Deps{
		ClientSvc:   d.clients,
		ProductSvc:  d.products,
		AddressSvc:  d.addresses,
		CartSvc:     d.carts,
		OrderSvc:    d.orders,
		AdminAPIKey: testAdminKey,
	})
}

// do sends a request as the given client. An empty clientID calls anonymously.
func do(t *testing.T, router http.Handler, method, path, clientID, body string) *httptest.ResponseRecorder {
	t.Helper()
	return doWithHeader(t, router, method, path, body, clientHeader, clientID)
}

func doWithHeader(t *testing.T, router http.Handler, method, path, body, header, value string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(header, value)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}
