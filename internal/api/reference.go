package api

import (
	"net/http"
	"strings"

	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
)

// Account is the JSON form of a chart account.
type Account struct {
	ID           string `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Reconcilable bool   `json:"reconcilable"`
}

// AnalyticAccount is the JSON form of an analytic account and its children.
type AnalyticAccount struct {
	ID       string            `json:"id"`
	Code     string            `json:"code"`
	Name     string            `json:"name"`
	Children []AnalyticAccount `json:"children,omitempty"`
}

// Condition is the JSON form of a rule condition.
type Condition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// Rule is the JSON form of an auto-analytical rule.
type Rule struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Priority          int         `json:"priority"`
	Active            bool        `json:"active"`
	AnalyticAccountID string      `json:"analytic_account_id"`
	Conditions        []Condition `json:"conditions"`
}

// MatchRequest is the body of POST /rules/match.
type MatchRequest struct {
	VendorID          string `json:"vendor_id,omitempty"`
	ProductCategoryID string `json:"product_category_id,omitempty"`
	Description       string `json:"description,omitempty"`
	AccountID         string `json:"account_id,omitempty"`
}

// MatchResponse reports the analytic account a line would be tagged with.
type MatchResponse struct {
	Matched           bool   `json:"matched"`
	AnalyticAccountID string `json:"analytic_account_id,omitempty"`
}

func toAnalytic(a model.AnalyticAccount) AnalyticAccount {
	out := AnalyticAccount{ID: a.ID, Code: a.Code, Name: a.Name}
	for _, c := range a.Children {
		out.Children = append(out.Children, toAnalytic(c))
	}
	return out
}

// ListAccounts handles GET /accounts with an optional ?type= filter.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	var (
		accts []model.Account
		err   error
	)
	if t := r.URL.Query().Get("type"); t != "" {
		typ := model.AccountType(strings.ToLower(t))
		if !typ.Valid() {
			h.writeError(w, r, ledgererr.Validationf("unknown account type %q", t))
			return
		}
		accts, err = h.svc.Accounts.ByType(r.Context(), typ)
	} else {
		accts, err = h.svc.Accounts.All(r.Context())
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]Account, 0, len(accts))
	for _, a := range accts {
		out = append(out, Account{ID: a.ID, Code: a.Code, Name: a.Name, Type: string(a.Type), Reconcilable: a.Reconcilable})
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": out})
}

// AnalyticTree handles GET /analytic-accounts.
func (h *Handler) AnalyticTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.svc.Analytic.Tree(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]AnalyticAccount, 0, len(tree))
	for _, a := range tree {
		out = append(out, toAnalytic(a))
	}
	writeJSON(w, http.StatusOK, map[string]any{"analytic_accounts": out})
}

// ListRules handles GET /rules.
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.svc.Analytic.Rules(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]Rule, 0, len(rules))
	for _, rl := range rules {
		conds := make([]Condition, 0, len(rl.Conditions))
		for _, c := range rl.Conditions {
			conds = append(conds, Condition{Field: string(c.Field), Operator: string(c.Operator), Value: c.Value})
		}
		out = append(out, Rule{ID: rl.ID, Name: rl.Name, Priority: rl.Priority, Active: rl.Active, AnalyticAccountID: rl.TargetAccountID, Conditions: conds})
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": out})
}

// MatchRule handles POST /rules/match.
func (h *Handler) MatchRule(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	target, ok, err := h.svc.Analytic.FindAnalyticAccount(r.Context(), model.MatchContext{
		VendorID:          req.VendorID,
		ProductCategoryID: req.ProductCategoryID,
		Description:       req.Description,
		AccountID:         req.AccountID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MatchResponse{Matched: ok, AnalyticAccountID: target})
}
