package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"spendpilot/pkg/domain"
)

// RecommendInputs carries the signals the recommendation weighs.
type RecommendInputs struct {
	Request  *domain.SpendingRequest
	Budget   *domain.BudgetStatus
	Health   domain.FinancialHealth
	Patterns domain.SpendingPatterns
	Goals    domain.GoalsOverview
	Debts    domain.DebtOverview
}

var (
	halfBudget        = decimal.NewFromFloat(0.5)
	largeDiscretional = decimal.NewFromInt(200)
	goalImpactShare   = decimal.NewFromFloat(0.25)
)

// discretionary categories that trade off directly against savings and
// debt-payoff goals
func isDiscretionary(category domain.Category) bool {
	switch category {
	case domain.CategoryEntertainment, domain.CategoryShopping, domain.CategoryTravel:
		return true
	default:
		return false
	}
}

func isObligation(category domain.Category) bool {
	return category == domain.CategoryEmergency || category == domain.CategoryBills
}

// Recommend synthesizes the approve/deny verdict. It starts from
// approval at confidence 80 and applies additive adjustments, except
// for the hard budget breach which forces denial outright and pins
// confidence at 90 before the remaining adjustments apply. A forced
// denial is never flipped back. Confidence is clamped to [0,100] and
// at least one reasoning string is always returned.
func Recommend(inputs RecommendInputs) domain.Recommendation {
	rec := domain.Recommendation{
		ShouldApprove: true,
		Confidence:    80,
	}
	request := inputs.Request

	// forced denial pins the confidence: later rules still contribute
	// reasoning but no longer move the number
	forced := false
	adjust := func(delta float64) {
		if !forced {
			rec.Confidence += delta
		}
	}

	if inputs.Budget != nil {
		remaining := inputs.Budget.RemainingBudget
		switch {
		case request.Amount.GreaterThan(remaining):
			forced = true
			rec.ShouldApprove = false
			rec.Confidence = 90
			rec.Reasoning = append(rec.Reasoning,
				fmt.Sprintf("amount %s exceeds the remaining monthly budget of %s",
					request.Amount.StringFixed(2), remaining.StringFixed(2)))
			rec.Alternatives = append(rec.Alternatives,
				"defer the purchase to next month or reduce the amount to fit the remaining budget")
		case request.Amount.GreaterThan(remaining.Mul(halfBudget)):
			adjust(-15)
			rec.Reasoning = append(rec.Reasoning,
				"amount consumes more than half of the remaining monthly budget")
			rec.Conditions = append(rec.Conditions,
				"monitor remaining budget closely for the rest of the month")
		}
	}

	if request.UrgencyLevel.AtLeast(domain.UrgencyHigh) {
		if request.Category == domain.CategoryEmergency {
			adjust(10)
			rec.Reasoning = append(rec.Reasoning,
				"high urgency is congruent with the emergency category")
		} else {
			adjust(-10)
			rec.Reasoning = append(rec.Reasoning,
				fmt.Sprintf("high urgency in the %s category is unusual and warrants scrutiny", request.Category))
		}
	}

	switch {
	case inputs.Health.Score < 50:
		adjust(-20)
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("overall financial health is poor (score %.0f)", inputs.Health.Score))
	case inputs.Health.Score > 80:
		adjust(10)
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("overall financial health is strong (score %.0f)", inputs.Health.Score))
	}

	if len(inputs.Goals.ConflictingGoals) > 0 {
		adjust(-15)
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("request conflicts with %d active goal(s), e.g. %q",
				len(inputs.Goals.ConflictingGoals), inputs.Goals.ConflictingGoals[0].Title))
		rec.Conditions = append(rec.Conditions,
			"reconsider whether this spending should wait until the conflicting goal is funded")
	}

	if len(inputs.Debts.HighPriorityDebts) > 0 && !isObligation(request.Category) {
		adjust(-10)
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("%d high-priority debt(s) outstanding while this request is discretionary",
				len(inputs.Debts.HighPriorityDebts)))
	}

	if isDiscretionary(request.Category) && request.Amount.GreaterThan(largeDiscretional) {
		adjust(-10)
		rec.Reasoning = append(rec.Reasoning,
			fmt.Sprintf("large %s expense of %s", request.Category, request.Amount.StringFixed(2)))
		rec.Conditions = append(rec.Conditions,
			"provide a justification for the size of this discretionary expense")
	}

	if rec.Confidence < 0 {
		rec.Confidence = 0
	}
	if rec.Confidence > 100 {
		rec.Confidence = 100
	}
	if len(rec.Reasoning) == 0 {
		rec.Reasoning = append(rec.Reasoning, "no negative signals against this request")
	}
	return rec
}

// AssessGoals splits active goals into conflicting and impacted sets
// relative to the request. A goal conflicts when the request is a large
// discretionary expense while an emergency-fund or debt-payoff goal is
// still unfunded; a goal is impacted when the amount is a substantial
// share (over 25%) of what the goal still needs.
func AssessGoals(request *domain.SpendingRequest, goals []domain.FinancialGoal) domain.GoalsOverview {
	overview := domain.GoalsOverview{}
	for i := range goals {
		goal := goals[i]
		if goal.Status != domain.GoalStatusActive {
			continue
		}
		overview.ActiveGoals = append(overview.ActiveGoals, goal)

		remaining := goal.RemainingAmount()
		if remaining.LessThanOrEqual(decimal.Zero) {
			continue
		}

		protective := goal.Category == domain.GoalCategoryEmergencyFund ||
			goal.Category == domain.GoalCategoryDebtPayoff
		if protective && isDiscretionary(request.Category) && request.Amount.GreaterThan(largeDiscretional) {
			overview.ConflictingGoals = append(overview.ConflictingGoals, goal)
		}
		if request.Amount.GreaterThan(remaining.Mul(goalImpactShare)) {
			overview.ImpactedGoals = append(overview.ImpactedGoals, goal)
		}
	}
	return overview
}

// AssessDebts summarizes outstanding obligations. Paid-off debts are
// excluded everywhere.
func AssessDebts(debts []domain.DebtInfo) domain.DebtOverview {
	overview := domain.DebtOverview{}
	for i := range debts {
		debt := debts[i]
		if debt.Status == domain.DebtStatusPaidOff {
			continue
		}
		overview.TotalDebt = overview.TotalDebt.Add(debt.RemainingAmount)
		overview.MonthlyDebtPayments = overview.MonthlyDebtPayments.Add(debt.MinimumPayment)
		if debt.Priority == domain.DebtPriorityHigh {
			overview.HighPriorityDebts = append(overview.HighPriorityDebts, debt)
		}
	}
	return overview
}
