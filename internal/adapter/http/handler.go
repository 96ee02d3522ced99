package httpadapter

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"adcore/internal/core/port"
	"adcore/internal/metrics"
)

// Services are the use cases the HTTP adapter exposes.
type Services struct {
	Serving   port.ServingUseCase
	Targeting port.TargetingUseCase
	Budget    port.BudgetUseCase
	Billing   port.BillingUseCase
	Catalog   port.CatalogUseCase
}

// Handler contains dependencies and routes. It is an inbound adapter for HTTP.
type Handler struct {
	svc    Services
	logger *slog.Logger
	router chi.Router
}

// NewHandler creates a handler with all routes configured on a chi.Router.
func NewHandler(svc Services, logger *slog.Logger) *Handler {
	h := &Handler{svc: svc, logger: logger}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/ad/request", h.handleAdRequest)
		r.Get("/stats/overview", h.handleStatsOverview)

		r.Route("/advertisers/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetAdvertiser)
			r.Post("/payments", h.handleProcessPayment)
			r.Post("/deductions", h.handleDeduct)
			r.Get("/balance/check", h.handleBalanceCheck)
			r.Get("/transactions", h.handleListTransactions)
			r.Get("/campaigns", h.handleListCampaigns)
			r.Post("/campaigns", h.handleCreateCampaign)
		})

		r.Route("/transactions/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetTransaction)
			r.Patch("/", h.handleUpdateTransactionStatus)
			r.Post("/refunds", h.handleProcessRefund)
		})

		r.Route("/campaigns/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetCampaign)
			r.Put("/", h.handleUpdateCampaign)
			r.Delete("/", h.handleDeleteCampaign)
			r.Get("/budget", h.handleCheckBudget)
			r.Get("/adgroups", h.handleListAdGroups)
			r.Post("/adgroups", h.handleCreateAdGroup)
		})

		r.Route("/adgroups/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetAdGroup)
			r.Put("/", h.handleUpdateAdGroup)
			r.Delete("/", h.handleDeleteAdGroup)
			r.Post("/targeting/evaluate", h.handleEvaluateTargeting)
			r.Get("/criteria", h.handleListCriteria)
			r.Post("/criteria", h.handleCreateCriterion)
		})

		r.Route("/criteria/{id}", func(r chi.Router) {
			r.Get("/", h.handleGetCriterion)
			r.Put("/", h.handleUpdateCriterion)
			r.Delete("/", h.handleDeleteCriterion)
		})
	})
	h.router = r
	return h
}

// Router returns the underlying http.Handler.
func (h *Handler) Router() http.Handler {
	return h.router
}
