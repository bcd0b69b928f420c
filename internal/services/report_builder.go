package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/Dewanik/voice-ios-budget-server/internal/core"
	"github.com/Dewanik/voice-ios-budget-server/internal/storage"
)

// ReportBuilder assembles expense reports from the ledger, annotated with
// the budgets of the month the range starts in.
type ReportBuilder struct {
	storage *storage.SQLiteRepository
}

func NewReportBuilder(storage *storage.SQLiteRepository) *ReportBuilder {
	return &ReportBuilder{storage: storage}
}

// BuildReport lists the user's expenses inside rng (inclusive on both
// ends), optionally filtered by a case-insensitive search over category
// and note, and computes the total, per-category subtotals, and
// budget-vs-spent metrics.
func (b *ReportBuilder) BuildReport(ctx context.Context, userID int64, rng core.DateRange, search string) (core.Report, error) {
	if err := rng.Validate(); err != nil {
		return core.Report{}, err
	}

	expenses, err := b.storage.ListExpensesInRange(ctx, userID, rng, search)
	if err != nil {
		return core.Report{}, fmt.Errorf("list expenses: %w", err)
	}

	report := core.Report{
		Range:    rng,
		Search:   search,
		Expenses: expenses,
	}

	subtotals := make(map[string]int64)
	for _, e := range expenses {
		report.Total.Cents += e.Amount.Cents
		subtotals[e.Category] += e.Amount.Cents
	}

	// Budgets are monthly; annotate against the month the range starts in.
	budgets, err := b.storage.BudgetsForPeriod(ctx, userID, core.PeriodOf(rng.Start))
	if err != nil {
		return core.Report{}, fmt.Errorf("load budgets: %w", err)
	}

	byCategory := make(map[string]core.Money, len(budgets))
	for _, bd := range budgets {
		if bd.Category == "" {
			overall := bd.Amount
			remaining := overall.Sub(report.Total)
			report.Budget.Overall = &overall
			report.Budget.Remaining = &remaining
			continue
		}
		byCategory[bd.Category] = bd.Amount
	}
	report.Budget.Spent = report.Total

	for category, cents := range subtotals {
		ct := core.CategoryTotal{
			Category: category,
			Total:    core.Money{Cents: cents},
		}
		if budget, ok := byCategory[category]; ok {
			ct.Budget = &budget
		}
		report.ByCategory = append(report.ByCategory, ct)
	}
	sort.Slice(report.ByCategory, func(i, j int) bool {
		a, b := report.ByCategory[i], report.ByCategory[j]
		if a.Total.Cents != b.Total.Cents {
			return a.Total.Cents > b.Total.Cents
		}
		return a.Category < b.Category
	})

	return report, nil
}
