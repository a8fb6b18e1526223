package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	writeJSON(w, status, ErrorResponse{Error: code, ErrorDescription: description})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a service error onto a status code and error code.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledgererr.ErrValidation):
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ledgererr.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ledgererr.ErrAlreadyPosted):
		writeJSONError(w, http.StatusConflict, "already_posted", err.Error())
	case errors.Is(err, ledgererr.ErrInvalidState):
		writeJSONError(w, http.StatusConflict, "invalid_state", err.Error())
	case errors.Is(err, ledgererr.ErrUnbalanced):
		writeJSONError(w, http.StatusUnprocessableEntity, "unbalanced_entry", err.Error())
	case errors.Is(err, ledgererr.ErrMissingSystemAccount):
		writeJSONError(w, http.StatusUnprocessableEntity, "missing_system_account", err.Error())
	case errors.Is(err, ledgererr.ErrMissingAnalyticAccount):
		writeJSONError(w, http.StatusUnprocessableEntity, "missing_analytic_account", err.Error())
	default:
		h.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return ledgererr.Validationf("parsing request body: %v", err)
	}
	return nil
}

func parseDate(field, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, ledgererr.Validationf("%s: %q is not a YYYY-MM-DD date", field, s)
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(model.DateLayout)
}
