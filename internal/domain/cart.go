package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity is the largest quantity a cart or order line can hold.
// It matches the INTEGER columns storing it.
const MaxLineQuantity = math.MaxInt32

// Cart is the mutable basket of a single owner. Amounts are derived from the
// live product price carried on every line and are never stored.
type Cart struct {
	ID        string
	OwnerID   string
	Lines     []CartLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine is one product in a cart. Quantity is always at least 1.
type CartLine struct {
	ID           string
	CartID       string
	ProductID    string
	ProductName  string
	ProductImage string
	UnitPrice    decimal.Decimal
	Quantity     int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount is the sum of quantities, not the number of lines.
func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
