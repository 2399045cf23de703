package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/restaurant-pos/internal/auth"
	"github.com/vasiliy-maslov/restaurant-pos/internal/customer"
	"github.com/vasiliy-maslov/restaurant-pos/internal/inventory"
	"github.com/vasiliy-maslov/restaurant-pos/internal/menu"
	"github.com/vasiliy-maslov/restaurant-pos/internal/order"
	"github.com/vasiliy-maslov/restaurant-pos/internal/receipt"
	"github.com/vasiliy-maslov/restaurant-pos/internal/report"
	"github.com/vasiliy-maslov/restaurant-pos/internal/staff"
	"github.com/vasiliy-maslov/restaurant-pos/internal/table"
)

// Services is everything the HTTP API fronts.
type Services struct {
	Auth      auth.Service
	Orders    order.Service
	Tables    table.Service
	Menu      menu.Service
	Customers customer.Service
	Staff     staff.Service
	Inventory inventory.Service
	Receipts  receipt.Service
	Reports   report.Service

	// Health, when set, is consulted by GET /health.
	Health func(ctx context.Context) error
}

type routeRegistrar interface {
	RegisterRoutes(router chi.Router)
}

// NewRouter builds the API. Every /api route except login requires a session.
func NewRouter(s Services, corsOrigins []string) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}).Handler)

	router.Get("/health", healthHandler(s.Health))

	authHandler := NewAuthHandler(s.Auth)
	protected := []routeRegistrar{
		authHandler,
		NewOrderHandler(s.Orders),
		NewTableHandler(s.Tables),
		NewMenuHandler(s.Menu),
		NewCustomerHandler(s.Customers),
		NewStaffHandler(s.Staff),
		NewInventoryHandler(s.Inventory),
		NewReceiptHandler(s.Receipts),
		NewReportHandler(s.Reports),
	}

	router.Route("/api", func(r chi.Router) {
		authHandler.RegisterPublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(RequireSession(s.Auth))
			for _, h := range protected {
				h.RegisterRoutes(r)
			}
		})
	})

	log.Info().Int("route_groups", len(protected)).Msg("HTTP routes registered")
	return router
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				log.Error().Err(err).Msg("Health check failed")
				respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
