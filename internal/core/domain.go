package core

import (
	"errors"
	"strings"
	"time"
)

const MaxCategoryLength = 80

type (
	// Expense is a single ledger entry owned by exactly one user.
	// CreatedAt is server-assigned and immutable once set.
	Expense struct {
		ID        int64
		UserID    int64
		Amount    Money
		Category  string
		Note      string
		CreatedAt time.Time
	}

	// Budget is a monthly spending limit. An empty category means the
	// budget applies to the user's total spend for the period.
	Budget struct {
		ID        int64
		UserID    int64
		Period    Period
		Category  string
		Amount    Money
		CreatedAt time.Time
	}

	// User is a resource owner. Accounts are provisioned out of band;
	// Active gates the credential check.
	User struct {
		ID       int64
		Username string
		Email    string
		Active   bool
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount: must be a positive number")
	ErrEmptyCategory    = errors.New("category is required")
	ErrCategoryTooLong  = errors.New("category too long (max 80 characters)")
	ErrInvalidPeriod    = errors.New("invalid month format, use YYYY-MM")
	ErrInvalidDateRange = errors.New("start must be before or equal to end")
)

// ValidateCategory checks a trimmed category against the length bounds.
func ValidateCategory(category string) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return ErrEmptyCategory
	}
	if len(category) > MaxCategoryLength {
		return ErrCategoryTooLong
	}
	return nil
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	return ValidateCategory(e.Category)
}

func (b Budget) Validate() error {
	if err := b.Amount.Validate(); err != nil {
		return err
	}
	// Empty category is the overall budget, so only the upper bound applies.
	if len(b.Category) > MaxCategoryLength {
		return ErrCategoryTooLong
	}
	return nil
}
