package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-checkout/internal/domain"
	orderrepo "storefront-checkout/internal/repository/order"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const instrumentationName = "storefront-checkout/internal/service/order"

const maxNotesLength = 500

// Notifier delivers best-effort messages about placed orders.
type Notifier interface {
	NotifyOrderPlaced(ctx context.Context, contact string, o domain.Order) error
	NotifyDelivery(ctx context.Context, contact string, o domain.Order, customer domain.Client) error
}

type orderRepo interface {
	CreateFromCart(ctx context.Context, in orderrepo.CreateInput) (*domain.Order, error)
	Get(ctx context.Context, id string) (*domain.Order, error)
	GetForOwner(ctx context.Context, ownerID, id string) (*domain.Order, error)
	List(ctx context.Context, f orderrepo.ListFilter) ([]domain.Order, error)
	Count(ctx context.Context, f orderrepo.ListFilter) (int, error)
	CountByStatus(ctx context.Context) (map[domain.OrderStatus]int, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error)
}

type cartReader interface {
	Get(ctx context.Context, ownerID string) (*domain.Cart, error)
}

type addressLookup interface {
	GetForOwner(ctx context.Context, ownerID, id string) (*domain.Address, error)
}

type clientLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Client, error)
}

// Options are deployment-time settings for the order lifecycle.
type Options struct {
	// DeliveryContacts receive a delivery message for every placed order.
	DeliveryContacts []string
	// NotifyTimeout bounds each notification call. Zero means no bound.
	NotifyTimeout time.Duration
	// AllowStatusOverride enables ForceStatus for administrators.
	AllowStatusOverride bool
}

type Service struct {
	repo      orderRepo
	carts     cartReader
	addresses addressLookup
	clients   clientLookup
	notifier  Notifier
	opts      Options
	logger    zerolog.Logger

	tracer         trace.Tracer
	ordersCreated  metric.Int64Counter
	statusChanges  metric.Int64Counter
	notifyFailures metric.Int64Counter
}

func New(repo orderrepo.Repository, carts cartReader, addresses addressLookup, clients clientLookup, notifier Notifier, logger zerolog.Logger, opts Options) *Service {
	meter := otel.Meter(instrumentationName)
	return &Service{
		repo:      repo,
		carts:     carts,
		addresses: addresses,
		clients:   clients,
		notifier:  notifier,
		opts:      opts,
		logger:    logger.With().Str("component", "order_service").Logger(),

		tracer:         otel.Tracer(instrumentationName),
		ordersCreated:  counter(meter, "orders.created", "Orders placed"),
		statusChanges:  counter(meter, "orders.status_changes", "Order status transitions"),
		notifyFailures: counter(meter, "orders.notifications.failed", "Notifications that could not be delivered"),
	}
}

type CreateInput struct {
	AddressID     string
	PaymentMethod domain.PaymentMethod
	Notes         string
}

// CreateOrder checks out the owner's cart. The order is priced from the cart
// as read here and the cart is emptied in the same transaction that stores the
// order. Notifications run afterwards and never fail the call.
func (s *Service) CreateOrder(ctx context.Context, ownerID string, in CreateInput) (_ *domain.Order, err error) {
	ctx, span := s.tracer.Start(ctx, "order.create", trace.WithAttributes(attribute.String("owner.id", ownerID)))
	defer func() { endSpan(span, err) }()

	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if !in.PaymentMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown payment method %q", domain.ErrValidation, in.PaymentMethod)
	}
	notes := strings.TrimSpace(in.Notes)
	if len([]rune(notes)) > maxNotesLength {
		return nil, fmt.Errorf("%w: notes longer than %d characters", domain.ErrValidation, maxNotesLength)
	}
	if _, err := uuid.Parse(in.AddressID); err != nil {
		return nil, domain.ErrNotFound
	}

	addr, err := s.addresses.GetForOwner(ctx, ownerID, in.AddressID)
	if err != nil {
		return nil, err
	}
	cart, err := s.carts.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, domain.ErrCartEmpty
	}

	lines, refs := snapshot(cart)
	total := domain.LinesTotal(lines)
	if total.GreaterThan(domain.MaxOrderTotal) {
		return nil, fmt.Errorf("%w: order total %s exceeds %s", domain.ErrValidation, total.StringFixed(2), domain.MaxOrderTotal.StringFixed(2))
	}
	order, err := s.repo.CreateFromCart(ctx, orderrepo.CreateInput{
		OwnerID:       ownerID,
		CartID:        cart.ID,
		AddressID:     addr.ID,
		Address:       addr.Snapshot(),
		PaymentMethod: in.PaymentMethod,
		Notes:         notes,
		Total:         total,
		Lines:         lines,
		CartLines:     refs,
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID))
	s.ordersCreated.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_method", string(order.PaymentMethod))))
	s.logger.Info().
		Str("order_id", order.ID).
		Str("owner_id", ownerID).
		Str("total", order.Total.StringFixed(2)).
		Msg("order placed")

	s.notifyPlaced(ctx, *order)
	return order, nil
}

// snapshot freezes the current cart into order lines.
func snapshot(cart *domain.Cart) ([]domain.OrderLine, []orderrepo.CartLineRef) {
	lines := make([]domain.OrderLine, 0, len(cart.Lines))
	refs := make([]orderrepo.CartLineRef, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		lines = append(lines, domain.OrderLine{
			ProductID:    l.ProductID,
			ProductName:  l.ProductName,
			ProductImage: l.ProductImage,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
		})
		refs = append(refs, orderrepo.CartLineRef{ID: l.ID, ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return lines, refs
}

type ListQuery struct {
	Page   int
	Limit  int
	Status domain.OrderStatus
}

type Page struct {
	Orders     []domain.Order
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

type AdminPage struct {
	Page
	Stats map[domain.OrderStatus]int
}

// List returns the owner's orders, newest first.
func (s *Service) List(ctx context.Context, ownerID string, q ListQuery) (*Page, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if err := q.validate(); err != nil {
		return nil, err
	}
	f := q.filter()
	f.OwnerID = ownerID

	var (
		orders []domain.Order
		total  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		orders, err = s.repo.List(gctx, f)
		return err
	})
	g.Go(func() (err error) {
		total, err = s.repo.Count(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return newPage(orders, q, total), nil
}

// ListAdmin lists orders of every owner plus order counts per status. The
// counts ignore the status filter.
func (s *Service) ListAdmin(ctx context.Context, q ListQuery) (*AdminPage, error) {
	if err := q.validate(); err != nil {
		return nil, err
	}
	f := q.filter()

	var (
		orders []domain.Order
		total  int
		stats  map[domain.OrderStatus]int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		orders, err = s.repo.List(gctx, f)
		return err
	})
	g.Go(func() (err error) {
		total, err = s.repo.Count(gctx, f)
		return err
	})
	g.Go(func() (err error) {
		stats, err = s.repo.CountByStatus(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if stats == nil {
		stats = make(map[domain.OrderStatus]int, len(domain.OrderStatuses))
	}
	for _, st := range domain.OrderStatuses {
		if _, ok := stats[st]; !ok {
			stats[st] = 0
		}
	}
	return &AdminPage{Page: *newPage(orders, q, total), Stats: stats}, nil
}

func (s *Service) Get(ctx context.Context, ownerID, orderID string) (*domain.Order, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, domain.ErrNotFound
	}
	return s.repo.GetForOwner(ctx, ownerID, orderID)
}

// UpdateStatus moves one of the owner's orders along the lifecycle.
func (s *Service) UpdateStatus(ctx context.Context, ownerID, orderID string, to domain.OrderStatus) (*domain.Order, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrValidation, to)
	}
	o, err := s.Get(ctx, ownerID, orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, o, to)
}

// Cancel cancels a pending order. Orders past PENDING cannot be cancelled by
// their owner even where the lifecycle would allow it.
func (s *Service) Cancel(ctx context.Context, ownerID, orderID string) (*domain.Order, error) {
	o, err := s.Get(ctx, ownerID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.OrderStatusPending {
		return nil, domain.ErrNotCancellable
	}
	updated, err := s.repo.UpdateStatus(ctx, o.ID, domain.OrderStatusPending, domain.OrderStatusCancelled)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.ErrNotCancellable
		}
		return nil, err
	}
	s.recordTransition(ctx, o.ID, domain.OrderStatusPending, domain.OrderStatusCancelled, "owner_cancel")
	return updated, nil
}

// UpdateStatusAdmin moves any order along the lifecycle regardless of owner.
func (s *Service) UpdateStatusAdmin(ctx context.Context, orderID string, to domain.OrderStatus) (*domain.Order, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrValidation, to)
	}
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, domain.ErrNotFound
	}
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, o, to)
}

// ForceStatus writes a status without consulting the lifecycle table. It is
// refused unless Options.AllowStatusOverride is set.
func (s *Service) ForceStatus(ctx context.Context, orderID string, to domain.OrderStatus) (*domain.Order, error) {
	if !s.opts.AllowStatusOverride {
		return nil, fmt.Errorf("%w: status override is disabled", domain.ErrForbidden)
	}
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", domain.ErrValidation, to)
	}
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, domain.ErrNotFound
	}
	o, err := s.repo.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == to {
		return o, nil
	}
	updated, err := s.repo.UpdateStatus(ctx, o.ID, o.Status, to)
	if err != nil {
		return nil, err
	}
	s.logger.Warn().Str("order_id", o.ID).Str("from", string(o.Status)).Str("to", string(to)).Msg("order status overridden")
	s.recordTransition(ctx, o.ID, o.Status, to, "admin_override")
	return updated, nil
}

func (s *Service) transition(ctx context.Context, o *domain.Order, to domain.OrderStatus) (*domain.Order, error) {
	if !CanTransition(o.Status, to) {
		return nil, fmt.Errorf("%w: %s to %s", domain.ErrInvalidTransition, o.Status, to)
	}
	updated, err := s.repo.UpdateStatus(ctx, o.ID, o.Status, to)
	if err != nil {
		return nil, err
	}
	s.recordTransition(ctx, o.ID, o.Status, to, "lifecycle")
	return updated, nil
}

func (s *Service) recordTransition(ctx context.Context, orderID string, from, to domain.OrderStatus, source string) {
	s.statusChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", string(from)),
		attribute.String("to", string(to)),
		attribute.String("source", source),
	))
	s.logger.Info().Str("order_id", orderID).Str("from", string(from)).Str("to", string(to)).Str("source", source).Msg("order status updated")
}

func (q ListQuery) validate() error {
	if q.Page < 1 {
		return fmt.Errorf("%w: page must be a positive integer", domain.ErrValidation)
	}
	if q.Limit < 1 {
		return fmt.Errorf("%w: limit must be a positive integer", domain.ErrValidation)
	}
	if q.Status != "" && !q.Status.Valid() {
		return fmt.Errorf("%w: unknown order status %q", domain.ErrValidation, q.Status)
	}
	return nil
}

func (q ListQuery) filter() orderrepo.ListFilter {
	return orderrepo.ListFilter{
		Status: q.Status,
		Limit:  q.Limit,
		Offset: (q.Page - 1) * q.Limit,
	}
}

func newPage(orders []domain.Order, q ListQuery, total int) *Page {
	if orders == nil {
		orders = []domain.Order{}
	}
	return &Page{
		Orders:     orders,
		Page:       q.Page,
		Limit:      q.Limit,
		Total:      total,
		TotalPages: (total + q.Limit - 1) / q.Limit,
	}
}

func requireOwner(ownerID string) error {
	if _, err := uuid.Parse(ownerID); err != nil {
		return fmt.Errorf("%w: owner id required", domain.ErrValidation)
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func counter(m metric.Meter, name, desc string) metric.Int64Counter {
	c, err := m.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		c, _ = noop.NewMeterProvider().Meter(instrumentationName).Int64Counter(name)
	}
	return c
}
