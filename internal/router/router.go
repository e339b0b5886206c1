package router

import (
	"net/http"

	"github.com/dhobi-app/ordering/internal/config"
	"github.com/dhobi-app/ordering/internal/handler"
	mw "github.com/dhobi-app/ordering/internal/middleware"
	"github.com/dhobi-app/ordering/internal/service"
	"github.com/dhobi-app/ordering/internal/store"
	"github.com/dhobi-app/ordering/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// New creates a Chi router with the reference backend's routes wired up.
func New(cfg *config.Config, st *store.Store, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", handler.RequestKeyHeader},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	authHandler := handler.NewAuthHandler(cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// WebSocket route (handles auth internally via query param)
	r.Get("/ws/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, cfg.JWTSecret, w, r)
	})

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		priceHandler := handler.NewPriceHandler(st)
		priceHandler.RegisterRoutes(r)

		scheduleHandler := handler.NewScheduleHandler(st)
		scheduleHandler.RegisterRoutes(r)

		orderService := service.NewOrderService(st)
		orderHandler := handler.NewOrderHandler(orderService, st, hub)
		r.Route("/orders", orderHandler.RegisterRoutes)
	})

	return r
}
