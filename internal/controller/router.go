// internal/controller/router.go
package controller

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/engagecrm/engage-backend/internal/auth"
)

// Controllers groups everything the router mounts.
type Controllers struct {
	Auth     *AuthController
	Customer *CustomerController
	Order    *OrderController
	Campaign *CampaignController
	Delivery *DeliveryController
}

// NewRouter wires the full API surface. Everything under /api except the
// OAuth handshake and the vendor receipt callback requires a bearer token.
func NewRouter(c Controllers, jwtSecret []byte, frontendURL string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{frontendURL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/auth/google", c.Auth.Login)
		r.Get("/auth/google/callback", c.Auth.Callback)

		// Vendor callbacks authenticate out of band, not with user tokens.
		r.Post("/delivery/receipt", c.Delivery.ReceiveReceipt)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(jwtSecret))

			r.Get("/auth/user", c.Auth.CurrentUser)

			r.Post("/customers", c.Customer.CreateCustomer)
			r.Get("/customers", c.Customer.ListCustomers)
			r.Post("/customers/segment", c.Customer.SegmentCustomers)

			r.Post("/orders", c.Order.CreateOrder)
			r.Get("/orders", c.Order.ListOrders)

			r.Post("/campaigns", c.Campaign.CreateCampaign)
			r.Get("/campaigns", c.Campaign.ListCampaigns)
			r.Post("/campaigns/preview", c.Campaign.PreviewAudience)

			r.Get("/delivery", c.Delivery.ListLogs)
		})
	})

	return r
}
