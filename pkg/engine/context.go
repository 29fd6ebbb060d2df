package engine

import (
	"time"

	"spendpilot/pkg/domain"
)

// DecisionInputs is the raw material for one decision context: the
// request under review and the fetched financial state. Now anchors
// all period boundaries so the build is reproducible.
type DecisionInputs struct {
	Request *domain.SpendingRequest
	Recent  []domain.SpendingRequest
	Budget  *domain.BudgetStatus
	Context *domain.FinancialContext
	Goals   []domain.FinancialGoal
	Debts   []domain.DebtInfo

	// MaxSimilar caps the comparable requests surfaced:
	// DefaultMaxSimilar when zero, none when negative
	MaxSimilar int

	Now time.Time
}

// BuildDecision assembles the full decision context for one request:
// patterns, health, goal and debt overviews, and the final
// recommendation. It is pure; all fetching happens upstream.
func BuildDecision(inputs DecisionInputs) *domain.DecisionContext {
	patterns := AnalyzePatterns(inputs.Request, inputs.Recent, inputs.MaxSimilar, inputs.Now)
	goals := AssessGoals(inputs.Request, inputs.Goals)
	debts := AssessDebts(inputs.Debts)
	health := ScoreHealth(HealthInputs{
		Budget:  inputs.Budget,
		Context: inputs.Context,
		Goals:   inputs.Goals,
		Debts:   inputs.Debts,
	})

	dc := &domain.DecisionContext{
		Request:         *inputs.Request,
		FinancialHealth: health,
		Patterns:        patterns,
		Goals:           goals,
		Debts:           debts,
	}
	if inputs.Budget != nil {
		dc.BudgetContext = *inputs.Budget
	}
	dc.Recommendation = Recommend(RecommendInputs{
		Request:  inputs.Request,
		Budget:   inputs.Budget,
		Health:   health,
		Patterns: patterns,
		Goals:    goals,
		Debts:    debts,
	})
	return dc
}
