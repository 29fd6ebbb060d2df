package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"spendpilot/pkg/domain"
)

// HealthInputs carries everything the health score reads. All fields
// are optional in the sense that zero values simply contribute no
// penalty for the signals they feed.
type HealthInputs struct {
	Budget  *domain.BudgetStatus
	Context *domain.FinancialContext
	Goals   []domain.FinancialGoal
	Debts   []domain.DebtInfo
}

var (
	emergencyShareLimit     = decimal.NewFromFloat(0.30)
	concentrationShareLimit = decimal.NewFromFloat(0.60)
	debtLoadShareLimit      = decimal.NewFromFloat(0.30)
)

const urgentRequestLimit = 5

// ScoreHealth computes the 0-100 financial-health heuristic. Penalties
// are independent and additive; positive observations are recorded as
// narrative factors without changing the score. The returned score is
// clamped to [0,100].
func ScoreHealth(inputs HealthInputs) domain.FinancialHealth {
	health := domain.FinancialHealth{Score: 100}

	scoreBudget(&health, inputs.Budget)
	scoreSpending(&health, inputs.Context)
	scoreDebts(&health, inputs.Budget, inputs.Debts)
	scoreGoals(&health, inputs.Goals)

	if health.Score < 0 {
		health.Score = 0
	}
	if health.Score > 100 {
		health.Score = 100
	}
	return health
}

func scoreBudget(health *domain.FinancialHealth, budget *domain.BudgetStatus) {
	if budget == nil {
		return
	}
	switch {
	case budget.PercentageUsed >= 90:
		health.Score -= 20
		health.Concerns = append(health.Concerns,
			fmt.Sprintf("budget utilization is critical at %.0f%%", budget.PercentageUsed))
	case budget.PercentageUsed >= 75:
		health.Score -= 10
		health.Concerns = append(health.Concerns,
			fmt.Sprintf("budget utilization is elevated at %.0f%%", budget.PercentageUsed))
	default:
		health.Factors = append(health.Factors,
			fmt.Sprintf("budget utilization is healthy at %.0f%%", budget.PercentageUsed))
	}

	if budget.ProjectedMonthlySpending.GreaterThan(budget.MonthlyBudget) {
		health.Score -= 15
		health.Concerns = append(health.Concerns,
			fmt.Sprintf("projected monthly spending %s exceeds the %s budget",
				budget.ProjectedMonthlySpending.StringFixed(2), budget.MonthlyBudget.StringFixed(2)))
	}
}

func scoreSpending(health *domain.FinancialHealth, fc *domain.FinancialContext) {
	if fc == nil {
		return
	}

	if fc.MonthlyTotal.GreaterThan(decimal.Zero) {
		emergency := fc.CategoryBreakdown[domain.CategoryEmergency]
		if emergency.GreaterThan(fc.MonthlyTotal.Mul(emergencyShareLimit)) {
			health.Score -= 15
			health.Concerns = append(health.Concerns,
				"emergency spending exceeds 30% of monthly total")
		}

		topCategory, topAmount := dominantCategory(fc.CategoryBreakdown)
		if topAmount.GreaterThan(fc.MonthlyTotal.Mul(concentrationShareLimit)) {
			health.Score -= 10
			health.Concerns = append(health.Concerns,
				fmt.Sprintf("spending is concentrated in %s (over 60%% of monthly total)", topCategory))
		}
	}

	if fc.UrgentRequestsCount > urgentRequestLimit {
		health.Score -= 10
		health.Concerns = append(health.Concerns,
			fmt.Sprintf("%d urgent requests in the window suggests reactive spending", fc.UrgentRequestsCount))
	} else if fc.UrgentRequestsCount == 0 {
		health.Factors = append(health.Factors, "no urgent requests in the recent window")
	}
}

func scoreDebts(health *domain.FinancialHealth, budget *domain.BudgetStatus, debts []domain.DebtInfo) {
	payments := decimal.Zero
	active := 0
	for i := range debts {
		if debts[i].Status == domain.DebtStatusPaidOff {
			continue
		}
		payments = payments.Add(debts[i].MinimumPayment)
		active++
	}

	if active == 0 {
		health.Factors = append(health.Factors, "no outstanding debt")
		return
	}

	if budget != nil && budget.MonthlyBudget.GreaterThan(decimal.Zero) &&
		payments.GreaterThan(budget.MonthlyBudget.Mul(debtLoadShareLimit)) {
		health.Score -= 20
		health.Concerns = append(health.Concerns,
			fmt.Sprintf("minimum debt payments %s consume over 30%% of the monthly budget", payments.StringFixed(2)))
	}
}

func scoreGoals(health *domain.FinancialHealth, goals []domain.FinancialGoal) {
	active := 0
	for i := range goals {
		if goals[i].Status == domain.GoalStatusActive {
			active++
		}
	}
	if active == 0 {
		health.Score -= 10
		health.Concerns = append(health.Concerns, "no active financial goal is set")
		return
	}
	health.Factors = append(health.Factors,
		fmt.Sprintf("%d active financial goal(s) in progress", active))
}

func dominantCategory(breakdown map[domain.Category]decimal.Decimal) (domain.Category, decimal.Decimal) {
	var top domain.Category
	topAmount := decimal.Zero
	// iterate the stable enum order so ties resolve deterministically
	for _, category := range domain.AllCategories() {
		amount := breakdown[category]
		if amount.GreaterThan(topAmount) {
			top, topAmount = category, amount
		}
	}
	return top, topAmount
}
