package seed

import (
	"context"
	"fmt"

	"storefront-checkout/internal/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type productWriter interface {
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}

type clientWriter interface {
	UpsertByPhone(ctx context.Context, phone, name string) (*domain.Client, error)
}

type addressStore interface {
	Create(ctx context.Context, a domain.Address) (*domain.Address, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Address, error)
}

// Stores groups the repositories seeding writes through.
type Stores struct {
	Products  productWriter
	Clients   clientWriter
	Addresses addressStore
}

type productSeed struct {
	SKU         string
	Name        string
	Description string
	Price       string
}

var demoProducts = []productSeed{
	{SKU: "RICE-5KG", Name: "Rice 5kg", Description: "Long grain white rice", Price: "8.99"},
	{SKU: "BEANS-1KG", Name: "Black beans 1kg", Description: "Type 1 black beans", Price: "7.99"},
	{SKU: "COFFEE-500G", Name: "Ground coffee 500g", Description: "Medium roast", Price: "18.90"},
	{SKU: "MILK-1L", Name: "Whole milk 1L", Description: "UHT whole milk", Price: "5.49"},
}

const (
	demoPhone = "5581999990000"
	demoName  = "Demo Client"
)

// Apply inserts demo data for manual testing. Running it twice leaves the
// same rows behind.
func Apply(ctx context.Context, stores Stores, logger zerolog.Logger) error {
	for _, p := range demoProducts {
		_, err := stores.Products.Upsert(ctx, domain.Product{
			SKU:         p.SKU,
			Name:        p.Name,
			Description: p.Description,
			Price:       decimal.RequireFromString(p.Price),
			Active:      true,
		})
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
	}

	client, err := stores.Clients.UpsertByPhone(ctx, demoPhone, demoName)
	if err != nil {
		return fmt.Errorf("upsert demo client: %w", err)
	}

	existing, err := stores.Addresses.ListByOwner(ctx, client.ID)
	if err != nil {
		return fmt.Errorf("list demo addresses: %w", err)
	}
	if len(existing) == 0 {
		_, err = stores.Addresses.Create(ctx, domain.Address{
			OwnerID:      client.ID,
			Street:       "Rua das Flores",
			Number:       "42",
			Neighborhood: "Boa Vista",
			City:         "Recife",
			State:        "PE",
			ZipCode:      "50050-000",
		})
		if err != nil {
			return fmt.Errorf("create demo address: %w", err)
		}
	}

	logger.Info().
		Int("products", len(demoProducts)).
		Str("client_id", client.ID).
		Msg("seed applied")
	return nil
}
