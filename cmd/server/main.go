package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/ponchomart/storefront/internal/checkout"
	"github.com/ponchomart/storefront/internal/config"
	"github.com/ponchomart/storefront/internal/credential"
	"github.com/ponchomart/storefront/internal/es"
	"github.com/ponchomart/storefront/internal/guestcart"
	"github.com/ponchomart/storefront/internal/handlers"
	"github.com/ponchomart/storefront/internal/localstore"
	"github.com/ponchomart/storefront/internal/logging"
	"github.com/ponchomart/storefront/internal/middleware/session"
	"github.com/ponchomart/storefront/internal/mykafka"
	"github.com/ponchomart/storefront/internal/postal"
	"github.com/ponchomart/storefront/internal/reconcile"
	httpserver "github.com/ponchomart/storefront/internal/transport/http"
	"github.com/ponchomart/storefront/internal/upstream"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.New(os.Getenv("LOG_LEVEL"))

	e := echo.New()
	e.HideBanner = true

	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logging.IntoContext(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	db, err := config.InitDB()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	producer, err := mykafka.NewProducer([]string{cfg.KAFKA_ADDRESS})
	if err != nil {
		log.Fatalf("kafka init error: %v", err)
	}

	esClient, err := es.NewClient(cfg)
	if err != nil {
		log.Fatalf("elasticsearch init error: %v", err)
	}

	creds := credential.NewStore(cfg.AUTH_TOKEN_URL, cfg.AUTH_BASIC)
	gateway := upstream.New(upstream.Config{
		CartBase:     cfg.CART_API_BASE,
		ProductBase:  cfg.PRODUCT_API_BASE,
		ResourceBase: cfg.RESOURCE_API_BASE,
	}, creds)

	guest := guestcart.NewStore()
	local := localstore.New(db)
	reconciler := &reconcile.Engine{Gateway: gateway, Guest: guest}
	orchestrator := &checkout.Orchestrator{Gateway: gateway}
	postalClient := postal.New(cfg.JP_API_HOST, cfg.JP_API_CLIENT_ID, cfg.JP_API_CLIENT_SECRET, cfg.JP_API_SEARCH_PATH)

	jwtSecret := []byte(cfg.JWT_SECRET)

	httpserver.Register(e, &httpserver.Deps{
		Session: &session.Middleware{Creds: creds},
		Auth: &handlers.AuthHandler{
			Creds:      creds,
			Local:      local,
			Reconciler: reconciler,
			Producer:   producer,
			JWTSecret:  jwtSecret,
		},
		Guest: &handlers.GuestCartHandler{Guest: guest},
		Cart: &handlers.CartHandler{
			Gateway:   gateway,
			Producer:  producer,
			Local:     local,
			JWTSecret: jwtSecret,
		},
		Checkout: &handlers.CheckoutHandler{Orchestrator: orchestrator, Producer: producer},
		Address: &handlers.AddressHandler{
			Gateway:   gateway,
			Local:     local,
			JWTSecret: jwtSecret,
		},
		Product:  &handlers.ProductHandler{Gateway: gateway, ES: esClient},
		Search:   &handlers.SearchHandler{ES: esClient},
		Postcode: &handlers.PostcodeHandler{Postal: postalClient},
		Payment:  &handlers.PaymentHandler{Local: local, JWTSecret: jwtSecret},
		Orders:   &handlers.OrdersHandler{Gateway: gateway},
		Banners:  &handlers.BannersHandler{Gateway: gateway},
		Account:  &handlers.AccountHandler{Local: local, JWTSecret: jwtSecret},
	})

	go func() {
		log.Printf("Starting storefront on %s...", cfg.HTTP_ADDR)
		if err := e.Start(cfg.HTTP_ADDR); err != nil && err != http.ErrServerClosed {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("echo shutdown: %v", err)
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close: %v", err)
	}

	sqlDB, err := db.DB()
	if err == nil {
		sqlDB.Close()
	}

	log.Println("Server stopped")
}
