package api

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendiq/spendiq/internal/accounts"
	"github.com/spendiq/spendiq/internal/activity"
	"github.com/spendiq/spendiq/internal/analytic"
	"github.com/spendiq/spendiq/internal/budget"
	"github.com/spendiq/spendiq/internal/invoice"
	"github.com/spendiq/spendiq/internal/journal"
	"github.com/spendiq/spendiq/internal/model"
	"github.com/spendiq/spendiq/internal/store/storetest"
)

type testServer struct {
	handler   http.Handler
	marketing string
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	st := storetest.Open(t)
	logger := slog.New(slog.DiscardHandler)
	rec := activity.Nop{}

	accts := accounts.NewService(st, logger)
	require.NoError(t, accts.Seed(context.Background(), accounts.DefaultChart()))
	an := analytic.NewService(st, logger, rec)
	mkt, err := an.CreateAccount(context.Background(), analytic.AccountDraft{Code: "MKT", Name: "Marketing"})
	require.NoError(t, err)
	_, err = an.CreateRule(context.Background(), analytic.RuleDraft{
		Name: "ads", Priority: 1, TargetAccountID: mkt.ID,
		Conditions: []model.Condition{{Field: model.FieldDescription, Operator: model.OpContains, Value: "ads"}},
	})
	require.NoError(t, err)

	j := journal.NewService(st, logger, rec)
	svc := Services{
		Accounts: accts,
		Analytic: an,
		Journal:  j,
		Invoices: invoice.NewService(st, j, accounts.DefaultSystemAccounts(), logger, rec),
		Budgets:  budget.NewService(st, logger, rec),
	}
	return testServer{handler: NewRouter(svc, logger), marketing: mkt.ID}
}

func (s testServer) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func obj(t *testing.T, m map[string]any, key string) map[string]any {
	t.Helper()
	v, ok := m[key].(map[string]any)
	require.True(t, ok, "response has no %q object: %v", key, m)
	return v
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestJournalEntries(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/journal-entries", map[string]any{
		"date": "2025-01-15",
		"lines": []map[string]any{
			{"account_code": "5100", "debit": "120.00"},
			{"account_code": "1010", "credit": "100.00"},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "unbalanced_entry", body["error"])

	code, body = s.do(t, http.MethodPost, "/journal-entries", map[string]any{
		"date":      "2025-01-15",
		"reference": "Ads",
		"lines": []map[string]any{
			{"account_code": "5100", "debit": 120, "analytic_account_id": s.marketing},
			{"account_code": "1010", "credit": "120"},
		},
	})
	require.Equal(t, http.StatusCreated, code, body)
	entry := obj(t, body, "journal_entry")
	assert.Equal(t, "DRAFT", entry["state"])
	id := entry["id"].(string)

	code, body = s.do(t, http.MethodPost, "/journal-entries/"+id+"/post", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "POSTED", obj(t, body, "journal_entry")["state"])

	code, body = s.do(t, http.MethodPost, "/journal-entries/"+id+"/post", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "already_posted", body["error"])

	code, _ = s.do(t, http.MethodDelete, "/journal-entries/"+id, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, body = s.do(t, http.MethodGet, "/journal-entries/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	lines := obj(t, body, "journal_entry")["lines"].([]any)
	require.Len(t, lines, 2)
	first := lines[0].(map[string]any)
	assert.Equal(t, "5100", first["account_code"])
	assert.Equal(t, "Marketing", first["analytic_account_name"])
	assert.Equal(t, "120", first["debit"])

	code, body = s.do(t, http.MethodGet, "/journal-entries", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["journal_entries"], 1)

	code, body = s.do(t, http.MethodGet, "/journal-entries/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "not_found", body["error"])
}

func TestJournalEntries_BadRequests(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/journal-entries", "{not json")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid_request", body["error"])

	code, _ = s.do(t, http.MethodPost, "/journal-entries", map[string]any{"date": "15/01/2025"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/journal-entries", map[string]any{
		"date":  "2025-01-15",
		"lines": []map[string]any{{"account_code": "9999", "debit": "1"}},
	})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestInvoiceFlow(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/invoices", map[string]any{
		"type":       "IN_INVOICE",
		"date":       "2025-02-10",
		"partner_id": "vendor-1",
		"lines": []map[string]any{
			{"description": "Search ads", "quantity": "1", "unit_price": "300"},
			{"description": "Chairs", "quantity": "2", "unit_price": "50"},
		},
	})
	require.Equal(t, http.StatusCreated, code, body)
	bill := obj(t, body, "invoice")
	assert.Equal(t, "BILL/2025/0001", bill["number"])
	assert.Equal(t, "400", bill["total_amount"])
	billID := bill["id"].(string)

	code, body = s.do(t, http.MethodPost, "/invoices/"+billID+"/post", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "missing_analytic_account", body["error"])

	code, body = s.do(t, http.MethodPost, "/invoices", map[string]any{
		"type":       "OUT_INVOICE",
		"date":       "2025-02-11",
		"partner_id": "cust-1",
		"lines":      []map[string]any{{"description": "Consulting", "quantity": 4, "unit_price": 125}},
	})
	require.Equal(t, http.StatusCreated, code, body)
	invID := obj(t, body, "invoice")["id"].(string)

	code, body = s.do(t, http.MethodPost, "/invoices/"+invID+"/post", nil)
	require.Equal(t, http.StatusOK, code, body)
	posted := obj(t, body, "invoice")
	assert.Equal(t, "POSTED", posted["status"])
	assert.NotEmpty(t, posted["journal_entry_id"])

	code, body = s.do(t, http.MethodPost, "/invoices/"+invID+"/payments", map[string]any{"amount": "600", "date": "2025-02-20"})
	assert.Equal(t, http.StatusBadRequest, code, body)

	code, body = s.do(t, http.MethodPost, "/invoices/"+invID+"/payments", map[string]any{"amount": "500", "date": "2025-02-20"})
	require.Equal(t, http.StatusCreated, code, body)

	code, body = s.do(t, http.MethodGet, "/invoices/"+invID, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "PAID", obj(t, body, "invoice")["payment_state"])

	code, body = s.do(t, http.MethodGet, "/invoices/"+invID+"/payments", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["payments"], 1)

	code, body = s.do(t, http.MethodPost, "/invoices/"+billID+"/cancel", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "CANCELLED", obj(t, body, "invoice")["status"])

	code, body = s.do(t, http.MethodGet, "/invoices", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["invoices"], 2)
}

func TestBudgetFlow(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/budgets", map[string]any{
		"name":                "Q1 Marketing",
		"start_date":          "2025-01-01",
		"end_date":            "2025-03-31",
		"analytic_account_id": s.marketing,
		"type":                "EXPENSE",
		"budgeted_amount":     "800",
	})
	require.Equal(t, http.StatusCreated, code, body)
	id := obj(t, body, "budget")["id"].(string)

	update := map[string]any{
		"name":                "Q1 Marketing",
		"start_date":          "2025-01-01",
		"end_date":            "2025-03-31",
		"analytic_account_id": s.marketing,
		"type":                "EXPENSE",
		"budgeted_amount":     "1000",
	}
	code, body = s.do(t, http.MethodPut, "/budgets/"+id, update)
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, "1000", obj(t, body, "budget")["budgeted_amount"])

	code, body = s.do(t, http.MethodPost, "/invoices", map[string]any{
		"type":       "IN_INVOICE",
		"date":       "2025-02-10",
		"partner_id": "vendor-1",
		"lines":      []map[string]any{{"description": "Display ads", "quantity": "1", "unit_price": "250"}},
	})
	require.Equal(t, http.StatusCreated, code, body)
	billID := obj(t, body, "invoice")["id"].(string)

	code, body = s.do(t, http.MethodGet, "/budgets/"+id+"/actuals", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "0", obj(t, body, "actuals")["actual_amount"], "draft bills must not count")

	code, _ = s.do(t, http.MethodPost, "/invoices/"+billID+"/post", nil)
	require.Equal(t, http.StatusOK, code)

	code, body = s.do(t, http.MethodGet, "/budgets/"+id+"/actuals", nil)
	require.Equal(t, http.StatusOK, code)
	actuals := obj(t, body, "actuals")
	assert.Equal(t, "250", actuals["actual_amount"])
	assert.Equal(t, "25", actuals["achieved_percentage"])
	assert.Equal(t, "750", actuals["remaining_amount"])
	assert.Equal(t, false, actuals["is_over_budget"])

	code, body = s.do(t, http.MethodPost, "/budgets/"+id+"/confirm", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "CONFIRMED", obj(t, body, "budget")["status"])

	code, body = s.do(t, http.MethodPut, "/budgets/"+id, update)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "invalid_state", body["error"])

	code, body = s.do(t, http.MethodGet, "/budgets/"+id, nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotNil(t, obj(t, body, "budget")["actuals"])

	code, body = s.do(t, http.MethodPost, "/budgets/"+id+"/revise", nil)
	require.Equal(t, http.StatusCreated, code)
	revID := obj(t, body, "budget")["id"].(string)

	code, body = s.do(t, http.MethodPost, "/budgets/"+id+"/archive", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "invalid_state", body["error"])

	code, body = s.do(t, http.MethodGet, "/budgets/"+revID+"/history", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["budgets"], 2)

	code, body = s.do(t, http.MethodGet, "/budgets", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["budgets"], 2)
}

func TestRulesMatch(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/rules/match", map[string]any{"description": "Facebook ADS"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["matched"])
	assert.Equal(t, s.marketing, body["analytic_account_id"])

	code, body = s.do(t, http.MethodPost, "/rules/match", map[string]any{"vendor_id": "acme"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["matched"])

	code, body = s.do(t, http.MethodGet, "/rules", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["rules"], 1)

	code, body = s.do(t, http.MethodGet, "/analytic-accounts", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["analytic_accounts"], 1)

	code, body = s.do(t, http.MethodGet, "/accounts", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["accounts"], len(accounts.DefaultChart()))

	code, body = s.do(t, http.MethodGet, "/accounts?type=expense", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["accounts"], 4)

	code, _ = s.do(t, http.MethodGet, "/accounts?type=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}
