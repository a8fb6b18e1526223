package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/spendiq/spendiq/internal/budget"
	"github.com/spendiq/spendiq/internal/model"
)

// BudgetRequest is the body of POST /budgets and PUT /budgets/{id}.
type BudgetRequest struct {
	Name              string          `json:"name"`
	StartDate         string          `json:"start_date"`
	EndDate           string          `json:"end_date"`
	AnalyticAccountID string          `json:"analytic_account_id"`
	Type              string          `json:"type"`
	BudgetedAmount    decimal.Decimal `json:"budgeted_amount"`
}

// Actuals is the JSON form of a budget's reconciliation.
type Actuals struct {
	ActualAmount       decimal.Decimal `json:"actual_amount"`
	AchievedPercentage decimal.Decimal `json:"achieved_percentage"`
	RemainingAmount    decimal.Decimal `json:"remaining_amount"`
	IsOverBudget       bool            `json:"is_over_budget"`
}

// Budget is the JSON form of a budget version.
type Budget struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	StartDate         string          `json:"start_date"`
	EndDate           string          `json:"end_date"`
	AnalyticAccountID string          `json:"analytic_account_id"`
	Type              string          `json:"type"`
	BudgetedAmount    decimal.Decimal `json:"budgeted_amount"`
	Status            string          `json:"status"`
	RevisionOfID      string          `json:"revision_of_id,omitempty"`
	Actuals           *Actuals        `json:"actuals,omitempty"`
}

func toActuals(a model.BudgetActuals) *Actuals {
	return &Actuals{
		ActualAmount:       a.ActualAmount,
		AchievedPercentage: a.AchievedPercentage,
		RemainingAmount:    a.RemainingAmount,
		IsOverBudget:       a.IsOverBudget,
	}
}

func toBudget(b model.Budget, a *model.BudgetActuals) Budget {
	out := Budget{
		ID:                b.ID,
		Name:              b.Name,
		StartDate:         formatDate(b.StartDate),
		EndDate:           formatDate(b.EndDate),
		AnalyticAccountID: b.AnalyticAccountID,
		Type:              string(b.Type),
		BudgetedAmount:    b.BudgetedAmount,
		Status:            string(b.Status),
		RevisionOfID:      b.RevisionOfID,
	}
	if a != nil {
		out.Actuals = toActuals(*a)
	}
	return out
}

func budgetDraft(req BudgetRequest) (budget.Draft, error) {
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return budget.Draft{}, err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return budget.Draft{}, err
	}
	return budget.Draft{
		Name:              req.Name,
		StartDate:         start,
		EndDate:           end,
		AnalyticAccountID: req.AnalyticAccountID,
		Type:              model.BudgetType(req.Type),
		BudgetedAmount:    req.BudgetedAmount,
	}, nil
}

// ListBudgets handles GET /budgets.
func (h *Handler) ListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.svc.Budgets.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]Budget, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudget(b.Budget, b.Actuals))
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": out})
}

// GetBudget handles GET /budgets/{id}.
func (h *Handler) GetBudget(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Budgets.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budget": toBudget(b.Budget, b.Actuals)})
}

// CreateBudget handles POST /budgets.
func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	var req BudgetRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := budgetDraft(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.svc.Budgets.Create(r.Context(), d)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"budget": toBudget(b, nil)})
}

// UpdateBudget handles PUT /budgets/{id}.
func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	var req BudgetRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	d, err := budgetDraft(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.svc.Budgets.Update(r.Context(), chi.URLParam(r, "id"), d)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budget": toBudget(b, nil)})
}

// BudgetActuals handles GET /budgets/{id}/actuals.
func (h *Handler) BudgetActuals(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Budgets.ComputeActuals(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"actuals": toActuals(a)})
}

// BudgetHistory handles GET /budgets/{id}/history.
func (h *Handler) BudgetHistory(w http.ResponseWriter, r *http.Request) {
	chain, err := h.svc.Budgets.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]Budget, 0, len(chain))
	for _, b := range chain {
		out = append(out, toBudget(b, nil))
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": out})
}

// ConfirmBudget handles POST /budgets/{id}/confirm.
func (h *Handler) ConfirmBudget(w http.ResponseWriter, r *http.Request) {
	h.budgetTransition(w, r, h.svc.Budgets.Confirm, http.StatusOK)
}

// ReviseBudget handles POST /budgets/{id}/revise. The response holds the new draft.
func (h *Handler) ReviseBudget(w http.ResponseWriter, r *http.Request) {
	h.budgetTransition(w, r, h.svc.Budgets.Revise, http.StatusCreated)
}

// ArchiveBudget handles POST /budgets/{id}/archive.
func (h *Handler) ArchiveBudget(w http.ResponseWriter, r *http.Request) {
	h.budgetTransition(w, r, h.svc.Budgets.Archive, http.StatusOK)
}

func (h *Handler) budgetTransition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, id string) (model.Budget, error), status int) {
	b, err := fn(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, status, map[string]any{"budget": toBudget(b, nil)})
}
