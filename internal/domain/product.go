package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string
	SKU         string
	Name        string
	Description string
	Price       decimal.Decimal
	Image       string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
