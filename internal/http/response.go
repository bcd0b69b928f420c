package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Dewanik/voice-ios-budget-server/internal/core"
)

// ingestResponse is the wire contract of the shortcut-facing endpoints.
// ExpenseID and CreatedAt are null unless a new expense row was written.
type ingestResponse struct {
	OK        bool    `json:"ok"`
	Message   string  `json:"message,omitempty"`
	ExpenseID *int64  `json:"expense_id"`
	CreatedAt *string `json:"created_at"`
	Error     string  `json:"error,omitempty"`
}

func ingestSuccess(e core.Expense) ingestResponse {
	created := e.CreatedAt.UTC().Format(time.RFC3339)
	return ingestResponse{
		OK:        true,
		Message:   "Expense recorded",
		ExpenseID: &e.ID,
		CreatedAt: &created,
	}
}

func ingestAlreadyProcessed() ingestResponse {
	return ingestResponse{
		OK:      true,
		Message: "Already processed",
	}
}

func ingestFailure(msg string) ingestResponse {
	return ingestResponse{OK: false, Error: msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// apiError is the failure shape of the /api endpoints.
type apiError struct {
	Error string `json:"error"`
}

func writeAPIError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}

// expenseJSON is the wire form of one ledger entry.
type expenseJSON struct {
	ID        int64  `json:"id"`
	Amount    string `json:"amount"`
	Category  string `json:"category"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toExpenseJSON(e core.Expense) expenseJSON {
	return expenseJSON{
		ID:        e.ID,
		Amount:    e.Amount.String(),
		Category:  e.Category,
		Note:      e.Note,
		CreatedAt: e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type categoryTotalJSON struct {
	Category string  `json:"category"`
	Total    string  `json:"total"`
	Budget   *string `json:"budget,omitempty"`
}

type budgetSummaryJSON struct {
	Overall   *string `json:"overall,omitempty"`
	Spent     string  `json:"spent"`
	Remaining *string `json:"remaining,omitempty"`
}

type reportJSON struct {
	Start      string              `json:"start"`
	End        string              `json:"end"`
	Search     string              `json:"search,omitempty"`
	Total      string              `json:"total"`
	Expenses   []expenseJSON       `json:"expenses"`
	ByCategory []categoryTotalJSON `json:"by_category"`
	Budget     budgetSummaryJSON   `json:"budget"`
}

func toReportJSON(r core.Report) reportJSON {
	out := reportJSON{
		Start:    r.Range.Start.Format("2006-01-02"),
		End:      r.Range.End.Format("2006-01-02"),
		Search:   r.Search,
		Total:    r.Total.String(),
		Expenses: make([]expenseJSON, 0, len(r.Expenses)),
		Budget: budgetSummaryJSON{
			Spent:     r.Budget.Spent.String(),
			Overall:   moneyString(r.Budget.Overall),
			Remaining: moneyString(r.Budget.Remaining),
		},
	}
	for _, e := range r.Expenses {
		out.Expenses = append(out.Expenses, toExpenseJSON(e))
	}
	out.ByCategory = make([]categoryTotalJSON, 0, len(r.ByCategory))
	for _, ct := range r.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryTotalJSON{
			Category: ct.Category,
			Total:    ct.Total.String(),
			Budget:   moneyString(ct.Budget),
		})
	}
	return out
}

type budgetComparisonJSON struct {
	ID          int64   `json:"id"`
	Period      string  `json:"period"`
	Category    string  `json:"category,omitempty"`
	Amount      string  `json:"amount"`
	Spent       string  `json:"spent"`
	Remaining   string  `json:"remaining"`
	PercentUsed float64 `json:"percent_used"`
	IsOver      bool    `json:"is_over"`
}

func toBudgetComparisonJSON(c core.BudgetComparison) budgetComparisonJSON {
	return budgetComparisonJSON{
		ID:          c.Budget.ID,
		Period:      c.Budget.Period.String(),
		Category:    c.Budget.Category,
		Amount:      c.Budget.Amount.String(),
		Spent:       c.Spent.String(),
		Remaining:   c.Remaining.String(),
		PercentUsed: c.PercentUsed,
		IsOver:      c.IsOver,
	}
}

func moneyString(m *core.Money) *string {
	if m == nil {
		return nil
	}
	s := m.String()
	return &s
}
