package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/spendiq/spendiq/internal/journal"
	"github.com/spendiq/spendiq/internal/model"
)

// EntryLineRequest is one line of a journal entry request. The account is
// given either by id or by chart code.
type EntryLineRequest struct {
	AccountID         string          `json:"account_id,omitempty"`
	AccountCode       string          `json:"account_code,omitempty"`
	PartnerID         string          `json:"partner_id,omitempty"`
	AnalyticAccountID string          `json:"analytic_account_id,omitempty"`
	Label             string          `json:"label,omitempty"`
	Debit             decimal.Decimal `json:"debit"`
	Credit            decimal.Decimal `json:"credit"`
}

// CreateEntryRequest is the body of POST /journal-entries.
type CreateEntryRequest struct {
	Date      string             `json:"date"`
	Reference string             `json:"reference"`
	Post      bool               `json:"post"`
	Lines     []EntryLineRequest `json:"lines"`
}

// EntryLine is the JSON form of a journal line.
type EntryLine struct {
	ID                  string          `json:"id"`
	AccountID           string          `json:"account_id"`
	AccountCode         string          `json:"account_code"`
	AccountName         string          `json:"account_name"`
	PartnerID           string          `json:"partner_id,omitempty"`
	AnalyticAccountID   string          `json:"analytic_account_id,omitempty"`
	AnalyticAccountName string          `json:"analytic_account_name,omitempty"`
	Label               string          `json:"label,omitempty"`
	Debit               decimal.Decimal `json:"debit"`
	Credit              decimal.Decimal `json:"credit"`
}

// Entry is the JSON form of a journal entry.
type Entry struct {
	ID        string      `json:"id"`
	Date      string      `json:"date"`
	Reference string      `json:"reference"`
	State     string      `json:"state"`
	Lines     []EntryLine `json:"lines"`
}

func toEntry(e model.JournalEntry) Entry {
	out := Entry{ID: e.ID, Date: formatDate(e.Date), Reference: e.Reference, State: string(e.State), Lines: []EntryLine{}}
	for _, l := range e.Lines {
		out.Lines = append(out.Lines, EntryLine{
			ID:                  l.ID,
			AccountID:           l.AccountID,
			AccountCode:         l.AccountCode,
			AccountName:         l.AccountName,
			PartnerID:           l.PartnerID,
			AnalyticAccountID:   l.AnalyticAccountID,
			AnalyticAccountName: l.AnalyticAccountName,
			Label:               l.Label,
			Debit:               l.Debit,
			Credit:              l.Credit,
		})
	}
	return out
}

func (h *Handler) accountID(ctx context.Context, id, code string) (string, error) {
	if code == "" {
		return id, nil
	}
	a, err := h.svc.Accounts.ByCode(ctx, code)
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

// ListEntries handles GET /journal-entries.
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.Journal.FindAll(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntry(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{"journal_entries": out})
}

// GetEntry handles GET /journal-entries/{id}.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Journal.FindOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"journal_entry": toEntry(e)})
}

// CreateEntry handles POST /journal-entries. With "post": true the entry is
// posted right after creation.
func (h *Handler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req CreateEntryRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	draft := journal.Draft{Date: date, Reference: req.Reference}
	for _, l := range req.Lines {
		acct, err := h.accountID(r.Context(), l.AccountID, l.AccountCode)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		draft.Lines = append(draft.Lines, journal.LineDraft{
			AccountID:         acct,
			PartnerID:         l.PartnerID,
			AnalyticAccountID: l.AnalyticAccountID,
			Label:             l.Label,
			Debit:             l.Debit,
			Credit:            l.Credit,
		})
	}

	e, err := h.svc.Journal.Create(r.Context(), draft)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Post {
		if e, err = h.svc.Journal.Post(r.Context(), e.ID); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, map[string]any{"journal_entry": toEntry(e)})
}

// PostEntry handles POST /journal-entries/{id}/post.
func (h *Handler) PostEntry(w http.ResponseWriter, r *http.Request) {
	e, err := h.svc.Journal.Post(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"journal_entry": toEntry(e)})
}

// DeleteEntry handles DELETE /journal-entries/{id}.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Journal.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
