package services

import (
	"context"
	"fmt"

	"github.com/Dewanik/voice-ios-budget-server/internal/core"
	"github.com/Dewanik/voice-ios-budget-server/internal/storage"
)

// BudgetManager maintains the user's monthly budgets and compares them
// against recorded spending.
type BudgetManager struct {
	storage *storage.SQLiteRepository
}

func NewBudgetManager(storage *storage.SQLiteRepository) *BudgetManager {
	return &BudgetManager{storage: storage}
}

// Upsert creates the budget for (period, category), or replaces its amount
// when one already exists. An empty category is the overall budget for the
// month.
func (m *BudgetManager) Upsert(ctx context.Context, userID int64, period core.Period, category string, amount core.Money) (core.Budget, error) {
	candidate := core.Budget{
		UserID:   userID,
		Period:   period,
		Category: category,
		Amount:   amount,
	}
	if err := candidate.Validate(); err != nil {
		return core.Budget{}, err
	}

	budget, err := m.storage.UpsertBudget(ctx, userID, period, category, amount)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	return budget, nil
}

// Delete removes the user's budget by id. Deleting a missing or foreign
// budget is a no-op.
func (m *BudgetManager) Delete(ctx context.Context, userID, budgetID int64) error {
	if err := m.storage.DeleteBudget(ctx, userID, budgetID); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

// ListWithSpending returns every budget of the user together with the
// spending recorded in its month. Overall budgets compare against all
// expenses of the month, category budgets only against their category.
func (m *BudgetManager) ListWithSpending(ctx context.Context, userID int64) ([]core.BudgetComparison, error) {
	budgets, err := m.storage.ListBudgets(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	comparisons := make([]core.BudgetComparison, 0, len(budgets))
	for _, budget := range budgets {
		spent, err := m.storage.SumExpensesInRange(ctx, userID, budget.Period.Range(), budget.Category)
		if err != nil {
			return nil, fmt.Errorf("sum spending for budget %d: %w", budget.ID, err)
		}
		comparisons = append(comparisons, core.BudgetComparison{
			Budget:      budget,
			Spent:       spent,
			Remaining:   budget.Amount.Sub(spent),
			PercentUsed: spent.PercentOf(budget.Amount),
			IsOver:      spent.Cents > budget.Amount.Cents,
		})
	}
	return comparisons, nil
}
