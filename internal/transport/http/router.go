package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ponchomart/storefront/internal/handlers"
	"github.com/ponchomart/storefront/internal/middleware/session"
)

type Deps struct {
	Session  *session.Middleware
	Auth     *handlers.AuthHandler
	Guest    *handlers.GuestCartHandler
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Address  *handlers.AddressHandler
	Product  *handlers.ProductHandler
	Search   *handlers.SearchHandler
	Postcode *handlers.PostcodeHandler
	Payment  *handlers.PaymentHandler
	Orders   *handlers.OrdersHandler
	Banners  *handlers.BannersHandler
	Account  *handlers.AccountHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	api := e.Group("/api/v1")
	api.Use(d.Session.Hydrate)

	api.POST("/login", d.Auth.Login)
	api.POST("/signup", d.Auth.Signup)
	api.POST("/logout", d.Auth.Logout)
	api.POST("/auth/refresh", d.Auth.Refresh)
	api.GET("/session", d.Auth.Session)

	api.GET("/guest-cart", d.Guest.Get)
	api.POST("/guest-cart", d.Guest.Add)
	api.PUT("/guest-cart", d.Guest.SetQuantity)
	api.DELETE("/guest-cart", d.Guest.Delete)

	api.GET("/cart", d.Cart.Get)
	api.POST("/cart", d.Cart.Add)
	api.PUT("/cart", d.Cart.SetQuantity)
	api.PATCH("/cart", d.Cart.AssignAddress)
	api.DELETE("/cart", d.Cart.Clear)

	api.POST("/checkout/confirm", d.Checkout.Confirm)

	api.GET("/orders", d.Orders.List)

	api.GET("/banners", d.Banners.List)

	api.GET("/account", d.Account.Get)
	api.PUT("/account", d.Account.Update)

	api.GET("/addresses", d.Address.List)
	api.POST("/addresses", d.Address.Upsert)
	api.PUT("/addresses", d.Address.Upsert)

	api.GET("/products", d.Product.List)
	api.GET("/products/:id", d.Product.Get)
	api.GET("/products/:id/variants", d.Product.Variants)
	api.GET("/products/search", d.Product.UpstreamSearch)

	api.GET("/search", d.Search.Search)

	api.GET("/postcode", d.Postcode.Lookup)

	api.GET("/payments", d.Payment.List)
	api.POST("/payments", d.Payment.Create)
	api.PUT("/payments/:id", d.Payment.Update)
	api.DELETE("/payments/:id", d.Payment.Delete)
}
