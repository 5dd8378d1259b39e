package client

import (
	"context"
	"time"

	"storefront-checkout/internal/domain"
)

type Repository interface {
	// UpsertByPhone creates the client or renames the existing one with the same phone.
	UpsertByPhone(ctx context.Context, phone, name string) (*domain.Client, error)
	GetByID(ctx context.Context, id string) (*domain.Client, error)
	GetByPhone(ctx context.Context, phone string) (*domain.Client, error)
	// ClaimMessageSlot records a message sent at now unless one was already
	// recorded after notBefore. It reports whether the slot was claimed.
	ClaimMessageSlot(ctx context.Context, id string, now, notBefore time.Time) (bool, error)
}
