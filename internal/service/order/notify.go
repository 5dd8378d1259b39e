package order

import (
	"context"
	"fmt"

	"storefront-checkout/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// notifyPlaced tells the owner and every delivery agent about a new order.
// It runs on a context detached from the request so a client hang-up after
// commit does not cut the messages short.
func (s *Service) notifyPlaced(ctx context.Context, o domain.Order) {
	if s.notifier == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if s.opts.NotifyTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.NotifyTimeout)
		defer cancel()
	}
	ctx, span := s.tracer.Start(ctx, "order.notify")
	defer span.End()

	var customer domain.Client
	if c, err := s.clients.GetByID(ctx, o.OwnerID); err != nil {
		s.logger.Warn().Err(err).Str("order_id", o.ID).Str("owner_id", o.OwnerID).Msg("owner contact unavailable")
	} else {
		customer = *c
	}

	if customer.Phone != "" {
		s.dispatch(ctx, o.ID, "order_placed", customer.Phone, func(ctx context.Context) error {
			return s.notifier.NotifyOrderPlaced(ctx, customer.Phone, o)
		})
	}
	for _, agent := range s.opts.DeliveryContacts {
		s.dispatch(ctx, o.ID, "delivery", agent, func(ctx context.Context) error {
			return s.notifier.NotifyDelivery(ctx, agent, o, customer)
		})
	}
}

func (s *Service) dispatch(ctx context.Context, orderID, kind, contact string, send func(context.Context) error) {
	err := safeSend(ctx, send)
	if err != nil {
		s.notifyFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
		s.logger.Warn().Err(err).Str("order_id", orderID).Str("kind", kind).Str("contact", contact).Msg("notification failed")
		return
	}
	s.logger.Info().Str("order_id", orderID).Str("kind", kind).Str("contact", contact).Msg("notification sent")
}

// safeSend turns a panicking notifier into an ordinary error.
func safeSend(ctx context.Context, send func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("notifier panic: %v", r)
		}
	}()
	return send(ctx)
}
