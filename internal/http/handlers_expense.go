package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dewanik/voice-ios-budget-server/internal/core"
	"github.com/Dewanik/voice-ios-budget-server/internal/storage"
)

type expenseActionPayload struct {
	Action    string `json:"action"`
	ExpenseID int64  `json:"expense_id"`
	Amount    string `json:"amount"`
	Category  string `json:"category"`
	Note      string `json:"note"`
}

// handleExpenses lets an owner correct or remove their own ledger entries.
// A foreign or missing expense id is a silent no-op.
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request, user core.User) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeAPIError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxIngestBodySize))
	dec.DisallowUnknownFields()

	var payload expenseActionPayload
	if err := dec.Decode(&payload); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.ExpenseID <= 0 {
		writeAPIError(w, http.StatusBadRequest, "expense_id is required")
		return
	}

	switch payload.Action {
	case "update":
		s.updateExpense(w, r, user, payload)
	case "delete":
		s.deleteExpense(w, r, user, payload)
	default:
		writeAPIError(w, http.StatusBadRequest, "action must be update or delete")
	}
}

func (s *Server) updateExpense(w http.ResponseWriter, r *http.Request, user core.User, payload expenseActionPayload) {
	var upd storage.ExpenseUpdate

	if raw := strings.TrimSpace(payload.Amount); raw != "" {
		amount, err := core.ParseAmount(raw)
		if err != nil {
			writeAPIError(w, http.StatusBadRequest, err.Error())
			return
		}
		upd.Amount = &amount
	}
	if raw := strings.TrimSpace(payload.Category); raw != "" {
		if err := core.ValidateCategory(raw); err != nil {
			writeAPIError(w, http.StatusBadRequest, err.Error())
			return
		}
		upd.Category = &raw
	}
	if payload.Note != "" {
		note := strings.TrimSpace(payload.Note)
		upd.Note = &note
	}
	if upd.Amount == nil && upd.Category == nil && upd.Note == nil {
		writeAPIError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	if err := s.storage.UpdateExpense(r.Context(), user.ID, payload.ExpenseID, upd); err != nil {
		slog.ErrorContext(r.Context(), "Expense update failed",
			"error", err,
			"user_id", user.ID,
			"expense_id", payload.ExpenseID)
		writeAPIError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
	}{OK: true})
}

func (s *Server) deleteExpense(w http.ResponseWriter, r *http.Request, user core.User, payload expenseActionPayload) {
	if err := s.storage.DeleteExpense(r.Context(), user.ID, payload.ExpenseID); err != nil {
		slog.ErrorContext(r.Context(), "Expense delete failed",
			"error", err,
			"user_id", user.ID,
			"expense_id", payload.ExpenseID)
		writeAPIError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
	}{OK: true})
}
