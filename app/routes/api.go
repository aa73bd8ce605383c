// Package routes wires controllers onto the HTTP router.
package routes

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/cremaze/cremaze/app/controllers"
	"github.com/cremaze/cremaze/pkg/metrics"
	"github.com/cremaze/cremaze/pkg/middleware"
	"github.com/cremaze/cremaze/pkg/rbac"
	"github.com/cremaze/cremaze/pkg/response"
	"github.com/cremaze/cremaze/pkg/router"
	"github.com/cremaze/cremaze/pkg/storage"
	"github.com/cremaze/cremaze/pkg/ws"
)

// RegisterAPI mounts the full REST surface. hub is the admin live feed; pass
// nil to skip the websocket endpoint (tests do).
func RegisterAPI(r *router.Router, hub *ws.Hub) {
	authController := controllers.NewAuthController()
	productController := controllers.NewProductController()
	orderController := controllers.NewOrderController()
	paymentController := controllers.NewPaymentController()
	contactController := controllers.NewContactController()

	r.Get("/api/health", "health", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})
	r.HandleFunc("/metrics", metrics.Handler())

	// Product images uploaded through the local disk.
	uploads := http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(filepath.Clean(storage.LocalRoot()))))
	r.Mount("/uploads/", uploads)

	api := r.Group("/api")

	// Public storefront.
	users := api.Group("/users")
	users.Post("/register", "users.register", authController.Register, middleware.RateLimit(10, time.Minute))
	users.Post("/login", "users.login", authController.Login, middleware.RateLimit(20, time.Minute))
	users.Post("/refresh", "users.refresh", authController.Refresh, middleware.RateLimit(20, time.Minute))

	products := api.Group("/products")
	products.Get("", "products.list", productController.List)
	products.Get("/{id}", "products.get", productController.Get)

	api.Post("/contact/send", "contact.submit", contactController.Submit, middleware.RateLimit(5, time.Minute))

	// Authenticated customers.
	authed := api.Group("", middleware.Auth)
	authed.Get("/users/profile", "users.profile", authController.Profile)
	authed.Put("/users/profile", "users.profile.update", authController.UpdateProfile)

	orders := authed.Group("/orders")
	orders.Post("", "orders.create", orderController.Create)
	orders.Get("/myorders", "orders.mine", orderController.ListMine)
	orders.Get("/{id}", "orders.get", orderController.Get)

	payment := authed.Group("/payment")
	payment.Post("/create-order", "payment.intent", paymentController.CreateIntent)
	payment.Post("/verify", "payment.verify", paymentController.Verify)
	payment.Post("/failed", "payment.fail", paymentController.Fail)
	payment.Post("/status", "payment.status", paymentController.Status)

	// Admin back office.
	admin := api.Group("", middleware.Auth, rbac.Admin)
	admin.Get("/orders", "orders.all", orderController.ListAll)
	admin.Put("/orders/{id}/deliver", "orders.deliver", orderController.MarkDelivered)
	admin.Put("/orders/{id}/cancel", "orders.cancel", orderController.Cancel)
	admin.Put("/orders/{id}/restore", "orders.restore", orderController.Restore)

	admin.Post("/products", "products.create", productController.Create)
	admin.Put("/products/{id}", "products.update", productController.Update)
	admin.Delete("/products/{id}", "products.delete", productController.Delete)

	admin.Get("/contact", "contact.list", contactController.List)
	admin.Get("/contact/unread-count", "contact.unread", contactController.UnreadCount)
	admin.Put("/contact/{id}/read", "contact.read", contactController.MarkRead)
	admin.Put("/contact/{id}/archive", "contact.archive", contactController.Archive)
	admin.Put("/contact/{id}/restore", "contact.restore", contactController.Restore)
	admin.Delete("/contact/{id}", "contact.delete", contactController.Delete)

	registerAdminGraphQL(admin)

	if hub != nil {
		admin.Get("/admin/ws", "admin.ws", func(w http.ResponseWriter, r *http.Request) {
			ws.Upgrade(w, r, hub)
		})
	}
}
