package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// GoalPriority orders goals by importance.
type GoalPriority string

const (
	GoalPriorityLow    GoalPriority = "low"
	GoalPriorityMedium GoalPriority = "medium"
	GoalPriorityHigh   GoalPriority = "high"
)

// GoalCategory classifies what a goal is saving toward.
type GoalCategory string

const (
	GoalCategoryEmergencyFund GoalCategory = "emergency_fund"
	GoalCategoryDebtPayoff    GoalCategory = "debt_payoff"
	GoalCategorySavings       GoalCategory = "savings"
	GoalCategoryInvestment    GoalCategory = "investment"
	GoalCategoryPurchase      GoalCategory = "purchase"
	GoalCategoryVacation      GoalCategory = "vacation"
	GoalCategoryEducation     GoalCategory = "education"
	GoalCategoryRetirement    GoalCategory = "retirement"
	GoalCategoryOther         GoalCategory = "other"
)

// GoalStatus is a goal's lifecycle state.
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusPaused    GoalStatus = "paused"
)

// FinancialGoal is a savings target parsed from an external record.
type FinancialGoal struct {
	ID            string
	Title         string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Deadline      *time.Time
	Priority      GoalPriority
	Category      GoalCategory
	Status        GoalStatus
}

// Validate checks the goal's invariants.
func (g *FinancialGoal) Validate() error {
	if g.ID == "" {
		return errors.New("goal id is required")
	}
	if g.Title == "" {
		return errors.New("goal title is required")
	}
	if g.TargetAmount.LessThanOrEqual(decimal.Zero) {
		return errors.New("goal target amount must be positive")
	}
	if g.CurrentAmount.IsNegative() {
		return errors.New("goal current amount must not be negative")
	}
	return nil
}

// Progress returns currentAmount/targetAmount clamped to [0,1].
func (g *FinancialGoal) Progress() float64 {
	if g.TargetAmount.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	progress, _ := g.CurrentAmount.Div(g.TargetAmount).Float64()
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

// RemainingAmount returns how much is still needed, floored at zero.
func (g *FinancialGoal) RemainingAmount() decimal.Decimal {
	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}
