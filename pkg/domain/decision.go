package domain

import (
	"github.com/shopspring/decimal"
)

// Trend classifies how category spending moved between two periods.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// FinancialHealth is the 0-100 composite heuristic with its audit
// trail. Factors record what is going well; Concerns record what drove
// penalties. The trail is a hard requirement: every adjustment must be
// explainable to a human reviewer.
type FinancialHealth struct {
	Score    float64
	Factors  []string
	Concerns []string
}

// SimilarRequest pairs a past decided request with its similarity to
// the one under review.
type SimilarRequest struct {
	Request    SpendingRequest
	Similarity float64
}

// SpendingPatterns summarizes how the request's category has behaved
// recently.
type SpendingPatterns struct {
	RecentSimilar             []SimilarRequest
	CategoryTrend             Trend
	CategorySpendingThisMonth decimal.Decimal
	AverageCategoryAmount     decimal.Decimal
}

// GoalsOverview summarizes active goals relative to the request.
type GoalsOverview struct {
	ActiveGoals      []FinancialGoal
	ConflictingGoals []FinancialGoal
	ImpactedGoals    []FinancialGoal
}

// DebtOverview summarizes the debt position.
type DebtOverview struct {
	TotalDebt           decimal.Decimal
	MonthlyDebtPayments decimal.Decimal
	HighPriorityDebts   []DebtInfo
}

// Recommendation is the engine's approve/deny verdict. Confidence is a
// bounded rule-weighted measure, not a statistical probability.
type Recommendation struct {
	ShouldApprove bool
	Confidence    float64
	Reasoning     []string
	Conditions    []string
	Alternatives  []string
}

// DecisionContext is everything a reviewer needs to decide one spending
// request. It is ephemeral: built per request, never stored.
type DecisionContext struct {
	Request         SpendingRequest
	FinancialHealth FinancialHealth
	BudgetContext   BudgetStatus
	Patterns        SpendingPatterns
	Goals           GoalsOverview
	Debts           DebtOverview
	Recommendation  Recommendation
}
