package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/zahrat-boutique/api/internal/advisor"
	"github.com/zahrat-boutique/api/internal/auth"
	"github.com/zahrat-boutique/api/internal/config"
	"github.com/zahrat-boutique/api/internal/enum"
	"github.com/zahrat-boutique/api/internal/handler"
	mw "github.com/zahrat-boutique/api/internal/middleware"
	"github.com/zahrat-boutique/api/internal/service"
	"github.com/zahrat-boutique/api/internal/store/postgres"
	"github.com/zahrat-boutique/api/internal/ws"
)

// New creates a Chi router with all application routes wired up.
// Applies authentication and role-based middleware as needed.
func New(cfg *config.Config, store *postgres.Store, orderSvc *service.OrderService, adviser *advisor.Client, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173", // Vite dev server
			"http://localhost:3000",
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(auth.NewResolver(store, store), store, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Orders: reads are open to every authenticated role; the handler
		// scopes customers down to their own bookings.
		orderHandler := handler.NewOrderHandler(orderSvc, store, adviser)
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", orderHandler.List)
			r.Get("/{id}", orderHandler.Get)
			r.Get("/{id}/advice", orderHandler.Advice)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.RoleAdmin, enum.RoleStaff))
				r.Post("/", orderHandler.Create)
				r.Patch("/{id}/status", orderHandler.UpdateStatus)
				r.Post("/{id}/payment-toggle", orderHandler.TogglePayment)
				r.Put("/{id}/invoice", orderHandler.UpdateInvoice)
			})

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.RoleAdmin))
				r.Delete("/{id}", orderHandler.Delete)
			})
		})

		// Customer directory (staff-facing)
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin, enum.RoleStaff, enum.RoleViewer))
			customerHandler := handler.NewCustomerHandler(store)
			r.Get("/customers", customerHandler.List)
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(mw.RequireRole(enum.RoleAdmin))

			userHandler := handler.NewUserHandler(store)
			r.Route("/users", userHandler.RegisterRoutes)

			settingsHandler := handler.NewSettingsHandler(store)
			r.Route("/settings", settingsHandler.RegisterRoutes)

			logHandler := handler.NewLogHandler(store)
			r.Get("/admin-logs", logHandler.List)
		})
	})

	return r
}
