package core

// CategoryTotal is a per-category subtotal, annotated with the matching
// category budget for the report month when one exists.
type CategoryTotal struct {
	Category string
	Total    Money
	Budget   *Money
}

// BudgetSummary carries the overall-budget metrics for a report. Overall
// and Remaining are nil when no overall budget is set for the month.
type BudgetSummary struct {
	Overall   *Money
	Spent     Money
	Remaining *Money
}

// Report is the view model produced by the report builder for a
// date-bounded, optionally search-filtered slice of the ledger.
type Report struct {
	Range      DateRange
	Search     string
	Expenses   []Expense
	Total      Money
	ByCategory []CategoryTotal
	Budget     BudgetSummary
}

// BudgetComparison is one row of the budget manager's spent-vs-budget
// listing. Remaining may be negative.
type BudgetComparison struct {
	Budget      Budget
	Spent       Money
	Remaining   Money
	PercentUsed float64
	IsOver      bool
}
