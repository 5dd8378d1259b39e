package domain

import "time"

// Client is a phone-identified shopper. Carts, addresses and orders are owned
// by a client.
type Client struct {
	ID            string
	Phone         string
	Name          string
	LastMessageAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
