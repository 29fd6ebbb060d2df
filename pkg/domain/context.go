package domain

import (
	"github.com/shopspring/decimal"
)

// FinancialContext is the rolling-window spending picture derived from
// recent requests. It is computed on demand and never persisted.
type FinancialContext struct {
	RecentSpending       []SpendingRequest
	MonthlyTotal         decimal.Decimal
	WeeklyTotal          decimal.Decimal
	AverageRequestAmount decimal.Decimal

	// CategoryBreakdown always carries every category, zero-filled
	CategoryBreakdown map[Category]decimal.Decimal

	UrgentRequestsCount int
	AvailableFunds      *decimal.Decimal
	MonthlyBudget       *decimal.Decimal
}

// BudgetHealth is the coarse categorical summary of budget consumption.
type BudgetHealth string

const (
	BudgetHealthExcellent BudgetHealth = "excellent"
	BudgetHealthGood      BudgetHealth = "good"
	BudgetHealthWarning   BudgetHealth = "warning"
	BudgetHealthCritical  BudgetHealth = "critical"
)

// HealthForPercentage maps percentage of budget used onto the health
// scale. Boundaries sit exactly at 50, 75 and 90 percent.
func HealthForPercentage(percentageUsed float64) BudgetHealth {
	switch {
	case percentageUsed < 50:
		return BudgetHealthExcellent
	case percentageUsed < 75:
		return BudgetHealthGood
	case percentageUsed < 90:
		return BudgetHealthWarning
	default:
		return BudgetHealthCritical
	}
}

// BudgetStatus is the derived state of the monthly budget.
type BudgetStatus struct {
	MonthlyBudget   decimal.Decimal
	CurrentSpending decimal.Decimal
	RemainingBudget decimal.Decimal
	PercentageUsed  float64

	// ProjectedMonthlySpending extrapolates current spending linearly
	// over the full month
	ProjectedMonthlySpending decimal.Decimal

	// OnTrack is true when the projection stays within 105% of budget
	OnTrack bool

	BudgetHealth BudgetHealth
}
