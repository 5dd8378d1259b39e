package domain

import "time"

type Address struct {
	ID           string
	OwnerID      string
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
	ZipCode      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AddressSnapshot is the copy of a delivery address frozen into an order.
type AddressSnapshot struct {
	ID           string `json:"id"`
	Street       string `json:"street"`
	Number       string `json:"number"`
	Complement   string `json:"complement,omitempty"`
	Neighborhood string `json:"neighborhood"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
}

func (a Address) Snapshot() AddressSnapshot {
	return AddressSnapshot{
		ID:           a.ID,
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
		ZipCode:      a.ZipCode,
	}
}
