package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/order-service/internal/api/http/handlers"
	"github.com/spec-kit/order-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Orders         *handlers.OrdersHandler
	Catalog        *handlers.CatalogHandler
	Admin          *handlers.AdminHandler
	AdminOrders    *handlers.AdminOrdersHandler
	AdminCatalog   *handlers.AdminCatalogHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/check-duplicate", cfg.AuthMiddleware.OptionalAuth, cfg.Auth.CheckDuplicate)

	users := api.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/profile", cfg.Users.Profile)
	users.Put("/profile", cfg.Users.UpdateProfile)
	users.Post("/password", cfg.Users.ChangePassword)

	// Catalog reads are public; admins get inactive visibility via the
	// optional principal.
	products := api.Group("/products", cfg.AuthMiddleware.OptionalAuth)
	products.Get("/", cfg.Catalog.ListProducts)
	products.Get("/:id", cfg.Catalog.GetProduct)

	couriers := api.Group("/couriers", cfg.AuthMiddleware.OptionalAuth)
	couriers.Get("/", cfg.Catalog.ListCouriers)
	couriers.Get("/:id", cfg.Catalog.GetCourier)

	orders := api.Group("/orders", cfg.AuthMiddleware.Handle)
	orders.Post("/", cfg.Orders.Create)
	orders.Get("/", cfg.Orders.List)
	orders.Get("/:id", cfg.Orders.Get)
	orders.Post("/:id/cancel", cfg.Orders.Cancel)

	admin := api.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireAdmin())

	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Get("/users/:id", cfg.Admin.GetUser)
	admin.Patch("/users/:id", cfg.Admin.UpdateUser)
	admin.Delete("/users/:id", cfg.Admin.DeleteUser)

	admin.Get("/orders", cfg.AdminOrders.List)
	admin.Patch("/orders/:id", cfg.AdminOrders.Update)
	admin.Delete("/orders/:id", cfg.AdminOrders.Delete)

	admin.Get("/products", cfg.AdminCatalog.ListProducts)
	admin.Post("/products", cfg.AdminCatalog.CreateProduct)
	admin.Patch("/products/:id", cfg.AdminCatalog.UpdateProduct)
	admin.Post("/products/:id/toggle", cfg.AdminCatalog.ToggleProduct)
	admin.Delete("/products/:id", cfg.AdminCatalog.DeleteProduct)

	admin.Get("/couriers", cfg.AdminCatalog.ListCouriers)
	admin.Post("/couriers", cfg.AdminCatalog.CreateCourier)
	admin.Patch("/couriers/:id", cfg.AdminCatalog.UpdateCourier)
	admin.Delete("/couriers/:id", cfg.AdminCatalog.DeleteCourier)

	admin.Get("/stats", cfg.Admin.Stats)
	admin.Get("/logs", cfg.Admin.Logs)
}
