package httpserver

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/storefront/pkg/middleware/logging"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP
	CartHandler    *CartHTTP
	OrderHandler   *OrderHTTP
	CouponHandler  *CouponHTTP
	AdminHandler   *AdminHTTP

	JWTSecret []byte
	Lookup    middleware.UserLookup
	// Ready reports whether backing stores answer. Nil means always ready.
	Ready func(ctx context.Context) error
}

// NewEcho builds the server with the middleware stack every route shares.
func NewEcho(logger *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.Secure())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, HeaderIdempotencyKey},
	}))
	e.Use(echomw.BodyLimit("1M"))
	return e
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "not ready")
			}
		}
		return c.NoContent(http.StatusOK)
	})

	authMW := middleware.NewBearerAuth(d.JWTSecret, d.Lookup)

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)

	e.GET("/products", d.CatalogHandler.GetProducts)
	e.GET("/products/search", d.CatalogHandler.Search)
	e.GET("/products/:id", d.CatalogHandler.GetProduct)
	e.GET("/categories", d.CatalogHandler.GetCategories)
	e.POST("/coupons/validate", d.CouponHandler.Validate)

	cart := e.Group("/cart", authMW.RequireAuth)
	cart.GET("", d.CartHandler.GetCart)
	cart.POST("/add", d.CartHandler.AddToCart)
	cart.PUT("/:inventoryId", d.CartHandler.SetQuantity)
	cart.DELETE("/:inventoryId", d.CartHandler.RemoveItem)
	cart.DELETE("", d.CartHandler.ClearCart)

	orders := e.Group("/orders", authMW.RequireAuth)
	orders.POST("", d.OrderHandler.PlaceOrder)
	orders.GET("/myorders", d.OrderHandler.MyOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PUT("/:id/cancel", d.OrderHandler.CancelOrder)
	orders.POST("/:id/reviews", d.OrderHandler.CreateReview)

	admin := e.Group("/admin", authMW.RequireAdmin)
	admin.GET("/orders", d.OrderHandler.ListOrders)
	admin.PUT("/orders/:id/status", d.OrderHandler.UpdateStatus)
	admin.PUT("/orders/:id/payment", d.OrderHandler.UpdatePayment)

	admin.POST("/products", d.CatalogHandler.CreateProduct)
	admin.PATCH("/products/:id", d.CatalogHandler.PatchProduct)
	admin.DELETE("/products/:id", d.CatalogHandler.DeleteProduct)
	admin.PUT("/inventory/:id/stock", d.CatalogHandler.SetStock)
	admin.DELETE("/inventory/:id", d.CatalogHandler.DeleteInventoryItem)
	admin.POST("/categories", d.CatalogHandler.CreateCategory)
	admin.DELETE("/categories/:id", d.CatalogHandler.DeleteCategory)

	admin.GET("/coupons", d.CouponHandler.List)
	admin.POST("/coupons", d.CouponHandler.Create)
	admin.PATCH("/coupons/:id", d.CouponHandler.Patch)
	admin.DELETE("/coupons/:id", d.CouponHandler.Delete)

	admin.GET("/reviews", d.AdminHandler.ListReviews)
	admin.PATCH("/reviews/:id", d.AdminHandler.PatchReview)
	admin.GET("/users", d.AdminHandler.ListUsers)
	admin.GET("/stats", d.AdminHandler.Stats)
}
