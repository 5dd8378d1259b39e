package httpserver

import (
	"time"

	"storefront-checkout/internal/domain"
	ordersvc "storefront-checkout/internal/service/order"

	"github.com/shopspring/decimal"
)

type clientView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type productView struct {
	ID          string `json:"id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price"`
	Image       string `json:"image,omitempty"`
}

type addressView struct {
	ID           string    `json:"id"`
	Street       string    `json:"street"`
	Number       string    `json:"number"`
	Complement   string    `json:"complement,omitempty"`
	Neighborhood string    `json:"neighborhood"`
	City         string    `json:"city"`
	State        string    `json:"state"`
	ZipCode      string    `json:"zipCode"`
	CreatedAt    time.Time `json:"createdAt"`
}

type cartItemView struct {
	ID           string `json:"id"`
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName"`
	ProductImage string `json:"productImage,omitempty"`
	UnitPrice    string `json:"unitPrice"`
	Quantity     int    `json:"quantity"`
	Subtotal     string `json:"subtotal"`
}

type cartView struct {
	ID        string         `json:"id"`
	OwnerID   string         `json:"ownerId"`
	Items     []cartItemView `json:"items"`
	Total     string         `json:"total"`
	ItemCount int            `json:"itemCount"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type orderItemView struct {
	ID           string `json:"id"`
	ProductID    string `json:"productId"`
	ProductName  string `json:"productName"`
	ProductImage string `json:"productImage,omitempty"`
	Quantity     int    `json:"quantity"`
	UnitPrice    string `json:"unitPrice"`
	Subtotal     string `json:"subtotal"`
}

type orderView struct {
	ID            string                 `json:"id"`
	OwnerID       string                 `json:"ownerId"`
	Status        domain.OrderStatus     `json:"status"`
	NextStatuses  []domain.OrderStatus   `json:"nextStatuses"`
	PaymentMethod domain.PaymentMethod   `json:"paymentMethod"`
	Total         string                 `json:"total"`
	Notes         string                 `json:"notes,omitempty"`
	Address       domain.AddressSnapshot `json:"address"`
	Items         []orderItemView        `json:"items"`
	CreatedAt     time.Time              `json:"createdAt"`
	UpdatedAt     time.Time              `json:"updatedAt"`
}

type paginationView struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type orderListView struct {
	Orders     []orderView    `json:"orders"`
	Pagination paginationView `json:"pagination"`
}

type adminOrderListView struct {
	orderListView
	Stats map[domain.OrderStatus]int `json:"stats"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func toClientView(c domain.Client) clientView {
	return clientView{ID: c.ID, Name: c.Name, Phone: c.Phone, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func toProductView(p domain.Product) productView {
	return productView{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       money(p.Price),
		Image:       p.Image,
	}
}

func toAddressView(a domain.Address) addressView {
	return addressView{
		ID:           a.ID,
		Street:       a.Street,
		Number:       a.Number,
		Complement:   a.Complement,
		Neighborhood: a.Neighborhood,
		City:         a.City,
		State:        a.State,
		ZipCode:      a.ZipCode,
		CreatedAt:    a.CreatedAt,
	}
}

func toCartView(cart domain.Cart) cartView {
	items := make([]cartItemView, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, cartItemView{
			ID:           l.ID,
			ProductID:    l.ProductID,
			ProductName:  l.ProductName,
			ProductImage: l.ProductImage,
			UnitPrice:    money(l.UnitPrice),
			Quantity:     l.Quantity,
			Subtotal:     money(l.Subtotal()),
		})
	}
	return cartView{
		ID:        cart.ID,
		OwnerID:   cart.OwnerID,
		Items:     items,
		Total:     money(cart.Total()),
		ItemCount: cart.ItemCount(),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
}

func toOrderView(o domain.Order) orderView {
	items := make([]orderItemView, 0, len(o.Lines))
	for _, l := range o.Lines {
		items = append(items, orderItemView{
			ID:           l.ID,
			ProductID:    l.ProductID,
			ProductName:  l.ProductName,
			ProductImage: l.ProductImage,
			Quantity:     l.Quantity,
			UnitPrice:    money(l.UnitPrice),
			Subtotal:     money(l.Subtotal()),
		})
	}
	next := ordersvc.NextStatuses(o.Status)
	if next == nil {
		next = []domain.OrderStatus{}
	}
	return orderView{
		ID:            o.ID,
		OwnerID:       o.OwnerID,
		Status:        o.Status,
		NextStatuses:  next,
		PaymentMethod: o.PaymentMethod,
		Total:         money(o.Total),
		Notes:         o.Notes,
		Address:       o.Address,
		Items:         items,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func toOrderListView(p ordersvc.Page) orderListView {
	orders := make([]orderView, 0, len(p.Orders))
	for _, o := range p.Orders {
		orders = append(orders, toOrderView(o))
	}
	return orderListView{
		Orders: orders,
		Pagination: paginationView{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      p.Total,
			TotalPages: p.TotalPages,
		},
	}
}
