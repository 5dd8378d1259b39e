package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"storefront-checkout/internal/config"
	"storefront-checkout/internal/db"
	"storefront-checkout/internal/httpserver"
	"storefront-checkout/internal/logging"
	"storefront-checkout/internal/notifier"
	addressrepo "storefront-checkout/internal/repository/address"
	cartrepo "storefront-checkout/internal/repository/cart"
	clientrepo "storefront-checkout/internal/repository/client"
	orderrepo "storefront-checkout/internal/repository/order"
	productrepo "storefront-checkout/internal/repository/product"
	addresssvc "storefront-checkout/internal/service/address"
	cartsvc "storefront-checkout/internal/service/cart"
	clientsvc "storefront-checkout/internal/service/client"
	ordersvc "storefront-checkout/internal/service/order"
	productsvc "storefront-checkout/internal/service/product"
	"storefront-checkout/internal/telemetry"
)

var version = "dev"

func main() {
	cfg := config.FromEnv()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat, "api")

	ctx := context.Background()
	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, cfg.ServiceName, version)
	if err != nil {
		logger.Fatal().Err(err).Msg("init telemetry")
	}

	dbpool, err := db.Connect(ctx, cfg.DBConnString, db.Options{MaxConns: cfg.DBMaxConns, LogQueries: cfg.DBLogQueries}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to db")
	}
	defer dbpool.Close()

	productRepo := productrepo.NewPostgres(dbpool, logger)
	cartRepo := cartrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	addressRepo := addressrepo.NewPostgres(dbpool, logger)
	clientRepo := clientrepo.NewPostgres(dbpool, logger)

	wa := notifier.New(cfg.WhatsApp, logger)
	if cfg.WhatsApp.Endpoint == "" {
		logger.Warn().Msg("whatsapp gateway not configured, notifications will be skipped")
	}

	productService := productsvc.New(productRepo)
	cartService := cartsvc.New(cartRepo, productRepo, logger)
	addressService := addresssvc.New(addressRepo, logger)
	clientService := clientsvc.New(clientRepo, wa, cfg.WelcomeCooldown, logger)
	orderService := ordersvc.New(orderRepo, cartService, addressRepo, clientRepo, wa, logger, ordersvc.Options{
		DeliveryContacts:    cfg.DeliveryAgentPhones,
		NotifyTimeout:       cfg.WhatsApp.Timeout,
		AllowStatusOverride: cfg.AdminStatusOverride,
	})

	if cfg.AdminAPIKey == "" {
		logger.Warn().Msg("ADMIN_API_KEY is empty, admin routes will reject every request")
	}

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		ClientSvc:      clientService,
		ProductSvc:     productService,
		AddressSvc:     addressService,
		CartSvc:        cartService,
		OrderSvc:       orderService,
		AdminAPIKey:    cfg.AdminAPIKey,
		AllowedOrigins: cfg.AllowedOrigins,
		ServiceName:    cfg.ServiceName,
	})

	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		logger.Info().Msg("server stopped")
	}
	if err := shutdownTelemetry(ctx); err != nil {
		logger.Error().Err(err).Msg("telemetry shutdown")
	}
}
