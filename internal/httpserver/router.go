package httpserver

import (
	"context"
	"slices"
	"time"

	"storefront-checkout/internal/domain"
	addresssvc "storefront-checkout/internal/service/address"
	clientsvc "storefront-checkout/internal/service/client"
	ordersvc "storefront-checkout/internal/service/order"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type ClientService interface {
	Register(ctx context.Context, phone, name string) (*domain.Client, error)
	Login(ctx context.Context, phone string) (*domain.Client, error)
	Get(ctx context.Context, id string) (*domain.Client, error)
	HandleInbound(ctx context.Context, phone, senderName string) (*clientsvc.InboundResult, error)
}

type ProductService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type AddressService interface {
	Create(ctx context.Context, ownerID string, in addresssvc.CreateInput) (*domain.Address, error)
	List(ctx context.Context, ownerID string) ([]domain.Address, error)
	Get(ctx context.Context, ownerID, id string) (*domain.Address, error)
	Update(ctx context.Context, ownerID, id string, in addresssvc.UpdateInput) (*domain.Address, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type CartService interface {
	Get(ctx context.Context, ownerID string) (*domain.Cart, error)
	AddItem(ctx context.Context, ownerID, productID string, quantity int) (*domain.Cart, error)
	UpdateItemQuantity(ctx context.Context, ownerID, lineID string, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, ownerID, lineID string) (*domain.Cart, error)
	Clear(ctx context.Context, ownerID string) (*domain.Cart, error)
}

type OrderService interface {
	CreateOrder(ctx context.Context, ownerID string, in ordersvc.CreateInput) (*domain.Order, error)
	List(ctx context.Context, ownerID string, q ordersvc.ListQuery) (*ordersvc.Page, error)
	Get(ctx context.Context, ownerID, orderID string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, ownerID, orderID string, to domain.OrderStatus) (*domain.Order, error)
	Cancel(ctx context.Context, ownerID, orderID string) (*domain.Order, error)
	ListAdmin(ctx context.Context, q ordersvc.ListQuery) (*ordersvc.AdminPage, error)
	UpdateStatusAdmin(ctx context.Context, orderID string, to domain.OrderStatus) (*domain.Order, error)
	ForceStatus(ctx context.Context, orderID string, to domain.OrderStatus) (*domain.Order, error)
}

// Deps holds the services and settings the router needs.
type Deps struct {
	ClientSvc  ClientService
	ProductSvc ProductService
	AddressSvc AddressService
	CartSvc    CartService
	OrderSvc   OrderService

	AdminAPIKey    string
	AllowedOrigins []string
	ServiceName    string
}

type handler struct {
	clients   ClientService
	products  ProductService
	addresses AddressService
	carts     CartService
	orders    OrderService
	logger    zerolog.Logger
}

// buildRouter wires routes for the API.
func buildRouter(logger zerolog.Logger, db pinger, deps Deps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger), gin.Recovery(), corsMiddleware(deps.AllowedOrigins))
	if deps.ServiceName != "" {
		router.Use(otelgin.Middleware(deps.ServiceName))
	}

	h := &handler{
		clients:   deps.ClientSvc,
		products:  deps.ProductSvc,
		addresses: deps.AddressSvc,
		carts:     deps.CartSvc,
		orders:    deps.OrderSvc,
		logger:    logger.With().Str("component", "http").Logger(),
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.POST("/clients", h.registerClient)
	router.POST("/clients/login", h.loginClient)
	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)
	router.POST("/webhook/whatsapp", h.whatsappWebhook)

	owner := router.Group("/", clientMiddleware(deps.ClientSvc))
	owner.GET("/addresses", h.listAddresses)
	owner.POST("/addresses", h.createAddress)
	owner.GET("/addresses/:id", h.getAddress)
	owner.PUT("/addresses/:id", h.updateAddress)
	owner.DELETE("/addresses/:id", h.deleteAddress)

	owner.GET("/cart", h.getCart)
	owner.DELETE("/cart", h.clearCart)
	owner.POST("/cart/items", h.addCartItem)
	owner.PATCH("/cart/items/:id", h.updateCartItem)
	owner.DELETE("/cart/items/:id", h.removeCartItem)

	owner.POST("/orders", h.createOrder)
	owner.GET("/orders", h.listOrders)
	owner.GET("/orders/:id", h.getOrder)
	owner.PATCH("/orders/:id/status", h.updateOrderStatus)
	owner.POST("/orders/:id/cancel", h.cancelOrder)

	admin := router.Group("/admin", adminMiddleware(deps.AdminAPIKey))
	admin.GET("/orders", h.adminListOrders)
	admin.PATCH("/orders/:id/status", h.adminUpdateOrderStatus)

	return router
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", clientHeader, adminHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
