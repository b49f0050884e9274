package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ghuser/circulationledger/pkg/logger"
	"github.com/ghuser/circulationledger/services/circulation/application/handlers"
	appsvcs "github.com/ghuser/circulationledger/services/circulation/application/services"
)

// CirculationRoutes registers circulation endpoints on the provided chi router.
// idempotent wraps the borrow and return endpoints; nil leaves them bare.
func CirculationRoutes(r chi.Router, svcs *appsvcs.Services, log logger.Logger, idempotent func(http.Handler) http.Handler) {
	if idempotent == nil {
		idempotent = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/items", func(r chi.Router) {
		r.Get("/", handlers.NewListItemsHandler(svcs, log).Execute)
		r.Post("/", handlers.NewPostItemHandler(svcs, log).Execute)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", handlers.NewGetItemHandler(svcs, log).Execute)
			r.Put("/", handlers.NewPutItemHandler(svcs, log).Execute)
			r.Delete("/", handlers.NewDeleteItemHandler(svcs, log).Execute)
			r.Get("/availability", handlers.NewGetAvailabilityHandler(svcs, log).Execute)
			r.Get("/stats", handlers.NewGetStatsHandler(svcs, log).Execute)

			r.Group(func(r chi.Router) {
				r.Use(idempotent)
				r.Post("/borrow", handlers.NewPostBorrowHandler(svcs, log).Execute)
				r.Post("/return", handlers.NewPostReturnHandler(svcs, log).Execute)
			})
		})
	})

	r.Get("/loans", handlers.NewListLoansHandler(svcs, log).Execute)
}
