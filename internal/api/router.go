// Package api exposes the accounting core over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/spendiq/spendiq/internal/accounts"
	"github.com/spendiq/spendiq/internal/analytic"
	"github.com/spendiq/spendiq/internal/budget"
	"github.com/spendiq/spendiq/internal/invoice"
	"github.com/spendiq/spendiq/internal/journal"
)

// Services are the core services the handlers call.
type Services struct {
	Accounts *accounts.Service
	Analytic *analytic.Service
	Journal  *journal.Service
	Invoices *invoice.Service
	Budgets  *budget.Service
}

// Handler serves the API routes.
type Handler struct {
	svc Services
	log *slog.Logger
}

// NewRouter builds the chi router with middleware and every route mounted.
func NewRouter(svc Services, logger *slog.Logger) http.Handler {
	h := &Handler{svc: svc, log: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/journal-entries", func(r chi.Router) {
		r.Get("/", h.ListEntries)
		r.Post("/", h.CreateEntry)
		r.Get("/{id}", h.GetEntry)
		r.Delete("/{id}", h.DeleteEntry)
		r.Post("/{id}/post", h.PostEntry)
	})

	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.ListInvoices)
		r.Post("/", h.CreateInvoice)
		r.Get("/{id}", h.GetInvoice)
		r.Post("/{id}/post", h.PostInvoice)
		r.Post("/{id}/cancel", h.CancelInvoice)
		r.Get("/{id}/payments", h.ListPayments)
		r.Post("/{id}/payments", h.RegisterPayment)
	})

	r.Route("/budgets", func(r chi.Router) {
		r.Get("/", h.ListBudgets)
		r.Post("/", h.CreateBudget)
		r.Get("/{id}", h.GetBudget)
		r.Put("/{id}", h.UpdateBudget)
		r.Get("/{id}/actuals", h.BudgetActuals)
		r.Get("/{id}/history", h.BudgetHistory)
		r.Post("/{id}/confirm", h.ConfirmBudget)
		r.Post("/{id}/revise", h.ReviseBudget)
		r.Post("/{id}/archive", h.ArchiveBudget)
	})

	r.Get("/accounts", h.ListAccounts)
	r.Get("/analytic-accounts", h.AnalyticTree)
	r.Get("/rules", h.ListRules)
	r.Post("/rules/match", h.MatchRule)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration", time.Since(start),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
