package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Dewanik/voice-ios-budget-server/internal/core"
)

type budgetActionPayload struct {
	Action   string `json:"action"`
	Period   string `json:"period"`
	Category string `json:"category"`
	Amount   string `json:"amount"`
	BudgetID int64  `json:"budget_id"`
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request, user core.User) {
	switch r.Method {
	case http.MethodGet:
		s.listBudgets(w, r, user)
	case http.MethodPost:
		s.mutateBudgets(w, r, user)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeAPIError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listBudgets(w http.ResponseWriter, r *http.Request, user core.User) {
	comparisons, err := s.budgets.ListWithSpending(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Budget listing failed",
			"error", err,
			"user_id", user.ID)
		writeAPIError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]budgetComparisonJSON, 0, len(comparisons))
	for _, c := range comparisons {
		out = append(out, toBudgetComparisonJSON(c))
	}
	writeJSON(w, http.StatusOK, struct {
		Budgets []budgetComparisonJSON `json:"budgets"`
	}{Budgets: out})
}

func (s *Server) mutateBudgets(w http.ResponseWriter, r *http.Request, user core.User) {
	defer r.Body.Close()

	dec := json.NewDecoder(io.LimitReader(r.Body, maxIngestBodySize))
	dec.DisallowUnknownFields()

	var payload budgetActionPayload
	if err := dec.Decode(&payload); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	switch payload.Action {
	case "add":
		s.addBudget(w, r, user, payload)
	case "delete":
		s.deleteBudget(w, r, user, payload)
	default:
		writeAPIError(w, http.StatusBadRequest, "action must be add or delete")
	}
}

func (s *Server) addBudget(w http.ResponseWriter, r *http.Request, user core.User, payload budgetActionPayload) {
	period, err := core.ParsePeriod(strings.TrimSpace(payload.Period))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := core.ParseAmount(strings.TrimSpace(payload.Amount))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error())
		return
	}

	budget, err := s.budgets.Upsert(r.Context(), user.ID, period, strings.TrimSpace(payload.Category), amount)
	if err != nil {
		if isValidationError(err) {
			writeAPIError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "Budget upsert failed",
			"error", err,
			"user_id", user.ID,
			"period", period.String())
		writeAPIError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		ID       int64  `json:"id"`
		Period   string `json:"period"`
		Category string `json:"category,omitempty"`
		Amount   string `json:"amount"`
	}{
		ID:       budget.ID,
		Period:   budget.Period.String(),
		Category: budget.Category,
		Amount:   budget.Amount.String(),
	})
}

// deleteBudget answers OK even when nothing matched: a foreign or missing
// id means there is nothing to do, not an error.
func (s *Server) deleteBudget(w http.ResponseWriter, r *http.Request, user core.User, payload budgetActionPayload) {
	if payload.BudgetID <= 0 {
		writeAPIError(w, http.StatusBadRequest, "budget_id is required")
		return
	}

	if err := s.budgets.Delete(r.Context(), user.ID, payload.BudgetID); err != nil {
		slog.ErrorContext(r.Context(), "Budget delete failed",
			"error", err,
			"user_id", user.ID,
			"budget_id", payload.BudgetID)
		writeAPIError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
	}{OK: true})
}
