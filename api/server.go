/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route
  definitions for the credit engine API.

ROUTES:
  /api/vendors            - Account provisioning and vendor views
  /api/cycles             - Cycle lifecycle, quotes, repayments
  /api/admin              - Manual reminder sweeps

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Vendor routes
		r.Route("/vendors", func(r chi.Router) {
			r.Post("/", h.CreateVendor)
			r.Get("/{id}/summary", h.GetVendorSummary)
			r.Get("/{id}/cycles", h.ListVendorCycles)
			r.Get("/{id}/notifications", h.ListVendorNotifications)
			r.Get("/{id}/performance", h.AnalyzeVendor)
			r.Post("/{id}/limit", h.ChangeVendorLimit)
			r.Post("/{id}/purchases/validate", h.ValidatePurchase)
		})

		// Cycle routes
		r.Route("/cycles", func(r chi.Router) {
			r.Post("/", h.OpenCycle)
			r.Get("/{id}", h.GetCycle)
			r.Get("/{id}/quote", h.QuoteCycle)
			r.Post("/{id}/repayments", h.RepayCycle)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/sweep", h.TriggerSweep)
		})
	})

	return r
}
