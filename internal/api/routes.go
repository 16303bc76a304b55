package api

import "github.com/go-chi/chi/v5"

// Handlers groups the HTTP handlers served under /api.
type Handlers struct {
	Collections *CollectionHandler
	Reviews     *ReviewHandler
	Plan        *PlanHandler
	Ledger      *LedgerHandler
}

// Routes registers every endpoint on r.
func (h Handlers) Routes(r chi.Router) {
	r.Route("/collections", func(r chi.Router) {
		r.Post("/", h.Collections.CreateCollection)
		r.Get("/", h.Collections.ListCollections)
		r.Get("/{id}", h.Collections.GetCollection)
		r.Get("/{id}/items", h.Collections.ListItems)
		r.Get("/{id}/estimate", h.Collections.EstimateRetention)
		r.Post("/{id}/deadline", h.Collections.AllocateDeadline)
	})

	r.Post("/reviews", h.Reviews.SubmitReview)
	r.Post("/reviews/batch", h.Reviews.SubmitBatchReview)

	r.Get("/plan/recommendation", h.Plan.GetRecommendation)
	r.Post("/plan/assign", h.Plan.AssignItems)

	r.Post("/ledger/rollover", h.Ledger.Rollover)
	r.Get("/ledger/today", h.Ledger.Today)
	r.Get("/ledger", h.Ledger.History)
	r.Put("/settings/target", h.Ledger.SetTarget)
}
