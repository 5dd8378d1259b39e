package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusInProgress,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, st := range OrderStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// ParseOrderStatus accepts a status name in any letter case.
func ParseOrderStatus(v string) (OrderStatus, error) {
	s := OrderStatus(strings.ToUpper(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown order status %q", ErrValidation, v)
	}
	return s, nil
}

type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "CARD"
	PaymentMethodPix  PaymentMethod = "PIX"
	PaymentMethodCash PaymentMethod = "CASH"
)

func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentMethodCard, PaymentMethodPix, PaymentMethodCash:
		return true
	}
	return false
}

func ParsePaymentMethod(v string) (PaymentMethod, error) {
	p := PaymentMethod(strings.ToUpper(strings.TrimSpace(v)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown payment method %q", ErrValidation, v)
	}
	return p, nil
}

// Label is the customer-facing name of the payment method.
func (p PaymentMethod) Label() string {
	switch p {
	case PaymentMethodCard:
		return "Card"
	case PaymentMethodPix:
		return "PIX"
	case PaymentMethodCash:
		return "Cash"
	}
	return string(p)
}

// Order is an immutable snapshot of a checked-out cart. Only Status and
// UpdatedAt change after creation.
type Order struct {
	ID            string
	OwnerID       string
	AddressID     *string
	Address       AddressSnapshot
	PaymentMethod PaymentMethod
	Status        OrderStatus
	Total         decimal.Decimal
	Notes         string
	Lines         []OrderLine
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MaxOrderTotal is the largest total the orders table can store (NUMERIC(12,2)).
var MaxOrderTotal = decimal.RequireFromString("9999999999.99")

type OrderLine struct {
	ID           string
	OrderID      string
	ProductID    string
	ProductName  string
	ProductImage string
	Quantity     int
	UnitPrice    decimal.Decimal
	CreatedAt    time.Time
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LinesTotal sums quantity times unit price over lines.
func LinesTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
