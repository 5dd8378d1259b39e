package order

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront-checkout/internal/domain"
	orderrepo "storefront-checkout/internal/repository/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memStore is an in-memory stand-in for the Postgres schema shared by the
// cart, order, address and client repositories in these tests.
type memStore struct {
	mu        sync.Mutex
	clock     time.Time
	products  map[string]domain.Product
	clients   map[string]domain.Client
	addresses map[string]domain.Address
	carts     map[string]*domain.Cart // by owner
	orders    map[string]domain.Order

	// beforeCheckout runs inside CreateFromCart before the cart is compared.
	beforeCheckout func()
}

func newMemStore() *memStore {
	return &memStore{
		clock:     time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		products:  map[string]domain.Product{},
		clients:   map[string]domain.Client{},
		addresses: map[string]domain.Address{},
		carts:     map[string]*domain.Cart{},
		orders:    map[string]domain.Order{},
	}
}

func (s *memStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *memStore) addProduct(name, price string) domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := domain.Product{ID: uuid.NewString(), SKU: name, Name: name, Price: decimal.RequireFromString(price), Active: true}
	s.products[p.ID] = p
	return p
}

func (s *memStore) setPrice(id, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	p.Price = decimal.RequireFromString(price)
	s.products[id] = p
}

func (s *memStore) addClient(phone string) domain.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := domain.Client{ID: uuid.NewString(), Phone: phone, Name: "Client " + phone}
	s.clients[c.ID] = c
	return c
}

func (s *memStore) addAddress(ownerID string) domain.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := domain.Address{ID: uuid.NewString(), OwnerID: ownerID, Street: "Rua das Flores", Number: "42", Neighborhood: "Boa Vista", City: "Recife", State: "PE", ZipCode: "50050-000"}
	s.addresses[a.ID] = a
	return a
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// withPrices returns a copy of the cart with live product data on each line.
func (s *memStore) withPrices(c *domain.Cart) *domain.Cart {
	out := *c
	out.Lines = make([]domain.CartLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		p := s.products[l.ProductID]
		l.ProductName = p.Name
		l.ProductImage = p.Image
		l.UnitPrice = p.Price
		out.Lines = append(out.Lines, l)
	}
	return &out
}

type memCartRepo struct{ s *memStore }

func (r memCartRepo) GetByOwner(_ context.Context, ownerID string) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[ownerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.s.withPrices(c), nil
}

func (r memCartRepo) Create(_ context.Context, ownerID string) (*domain.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[ownerID]
	if !ok {
		now := r.s.tick()
		c = &domain.Cart{ID: uuid.NewString(), OwnerID: ownerID, CreatedAt: now, UpdatedAt: now}
		r.s.carts[ownerID] = c
	}
	return r.s.withPrices(c), nil
}

func (r memCartRepo) cartByID(cartID string) *domain.Cart {
	for _, c := range r.s.carts {
		if c.ID == cartID {
			return c
		}
	}
	return nil
}

func (r memCartRepo) AddLine(_ context.Context, cartID, productID string, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.cartByID(cartID)
	if c == nil {
		return domain.ErrNotFound
	}
	if _, ok := r.s.products[productID]; !ok {
		return domain.ErrNotFound
	}
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines[i].Quantity += quantity
			return nil
		}
	}
	c.Lines = append(c.Lines, domain.CartLine{ID: uuid.NewString(), CartID: cartID, ProductID: productID, Quantity: quantity, CreatedAt: r.s.tick()})
	return nil
}

func (r memCartRepo) SetLineQuantity(_ context.Context, cartID, lineID string, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.cartByID(cartID)
	if c == nil {
		return domain.ErrNotFound
	}
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines[i].Quantity = quantity
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r memCartRepo) RemoveLine(_ context.Context, cartID, lineID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.cartByID(cartID)
	if c == nil {
		return domain.ErrNotFound
	}
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r memCartRepo) ClearLines(_ context.Context, cartID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c := r.cartByID(cartID); c != nil {
		c.Lines = nil
	}
	return nil
}

type memOrderRepo struct{ s *memStore }

func (r memOrderRepo) CreateFromCart(_ context.Context, in orderrepo.CreateInput) (*domain.Order, error) {
	if r.s.beforeCheckout != nil {
		r.s.beforeCheckout()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	c, ok := r.s.carts[in.OwnerID]
	if !ok || c.ID != in.CartID {
		return nil, domain.ErrNotFound
	}
	current := make([]orderrepo.CartLineRef, 0, len(c.Lines))
	for _, l := range c.Lines {
		current = append(current, orderrepo.CartLineRef{ID: l.ID, ProductID: l.ProductID, Quantity: l.Quantity})
	}
	if !sameRefs(current, in.CartLines) {
		return nil, domain.ErrConflict
	}

	now := r.s.tick()
	addrID := in.AddressID
	o := domain.Order{
		ID:            uuid.NewString(),
		OwnerID:       in.OwnerID,
		AddressID:     &addrID,
		Address:       in.Address,
		PaymentMethod: in.PaymentMethod,
		Status:        domain.OrderStatusPending,
		Total:         in.Total,
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, l := range in.Lines {
		l.ID = uuid.NewString()
		l.OrderID = o.ID
		l.CreatedAt = now
		o.Lines = append(o.Lines, l)
	}
	r.s.orders[o.ID] = o
	c.Lines = nil
	return cloneOrder(o), nil
}

func (r memOrderRepo) Get(_ context.Context, id string) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneOrder(o), nil
}

func (r memOrderRepo) GetForOwner(ctx context.Context, ownerID, id string) (*domain.Order, error) {
	o, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return o, nil
}

func (r memOrderRepo) matching(f orderrepo.ListFilter) []domain.Order {
	var out []domain.Order
	for _, o := range r.s.orders {
		if f.OwnerID != "" && o.OwnerID != f.OwnerID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r memOrderRepo) List(_ context.Context, f orderrepo.ListFilter) ([]domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := r.matching(f)
	if f.Offset >= len(all) {
		return nil, nil
	}
	end := f.Offset + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[f.Offset:end], nil
}

func (r memOrderRepo) Count(_ context.Context, f orderrepo.ListFilter) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.matching(f)), nil
}

func (r memOrderRepo) CountByStatus(_ context.Context) (map[domain.OrderStatus]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stats := map[domain.OrderStatus]int{}
	for _, o := range r.s.orders {
		stats[o.Status]++
	}
	return stats, nil
}

func (r memOrderRepo) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if o.Status != from {
		return nil, domain.ErrConflict
	}
	o.Status = to
	o.UpdatedAt = r.s.tick()
	r.s.orders[id] = o
	return cloneOrder(o), nil
}

type memAddresses struct{ s *memStore }

func (r memAddresses) GetForOwner(_ context.Context, ownerID, id string) (*domain.Address, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.addresses[id]
	if !ok || a.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return &a, nil
}

type memClients struct{ s *memStore }

func (r memClients) GetByID(_ context.Context, id string) (*domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

type memProducts struct{ s *memStore }

func (r memProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func cloneOrder(o domain.Order) *domain.Order {
	o.Lines = append([]domain.OrderLine(nil), o.Lines...)
	return &o
}

func sameRefs(a, b []orderrepo.CartLineRef) bool {
	if len(a) != len(b) {
		return false
	}
	seen := map[orderrepo.CartLineRef]int{}
	for _, r := range a {
		seen[r]++
	}
	for _, r := range b {
		if seen[r] == 0 {
			return false
		}
		seen[r]--
	}
	return true
}
