package notifier

import (
	"context"
	"errors"
	"fmt"

	"storefront-checkout/internal/config"
	"storefront-checkout/internal/domain"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// ErrNotConfigured is returned when no gateway endpoint is set.
var ErrNotConfigured = errors.New("whatsapp gateway not configured")

type sendRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// WhatsApp sends text messages through an HTTP messaging gateway.
type WhatsApp struct {
	http          *resty.Client
	endpoint      string
	storefrontURL string
	logger        zerolog.Logger
}

func New(cfg config.WhatsAppConfig, logger zerolog.Logger) *WhatsApp {
	c := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	if cfg.Token != "" {
		c.SetHeader("Client-Token", cfg.Token)
	}
	return &WhatsApp{
		http:          c,
		endpoint:      cfg.Endpoint,
		storefrontURL: cfg.StorefrontURL,
		logger:        logger.With().Str("component", "whatsapp").Logger(),
	}
}

// Send posts a single message. Any non-2xx answer from the gateway is an error.
func (w *WhatsApp) Send(ctx context.Context, phone, message string) error {
	if w.endpoint == "" {
		return ErrNotConfigured
	}
	resp, err := w.http.R().
		SetContext(ctx).
		SetBody(sendRequest{Phone: phone, Message: message}).
		Post(w.endpoint)
	if err != nil {
		return fmt.Errorf("whatsapp: send: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("whatsapp: gateway answered %d: %s", resp.StatusCode(), truncate(resp.String(), 200))
	}
	w.logger.Debug().Str("phone", phone).Dur("latency", resp.Time()).Msg("message delivered to gateway")
	return nil
}

func (w *WhatsApp) NotifyOrderPlaced(ctx context.Context, contact string, o domain.Order) error {
	return w.Send(ctx, contact, OrderPlacedMessage(o))
}

func (w *WhatsApp) NotifyDelivery(ctx context.Context, contact string, o domain.Order, customer domain.Client) error {
	return w.Send(ctx, contact, DeliveryMessage(o, customer))
}

func (w *WhatsApp) SendWelcome(ctx context.Context, phone string) error {
	return w.Send(ctx, phone, WelcomeMessage(w.storefrontURL, phone))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
