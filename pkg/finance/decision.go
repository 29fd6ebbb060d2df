package finance

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"spendpilot/pkg/domain"
	"spendpilot/pkg/engine"
)

// DecisionOptions tunes a decision-context build.
type DecisionOptions struct {
	// LookbackDays bounds the request history considered;
	// DefaultLookbackDays when zero
	LookbackDays int

	// SkipComparisons drops the similar-request search entirely
	SkipComparisons bool

	// MaxComparisons caps the similar requests returned;
	// engine.DefaultMaxSimilar when zero
	MaxComparisons int
}

// BuildDecisionContext gathers everything needed to decide one pending
// request and runs the scoring engine over it. The request fetch and
// the budget computation must succeed; the goal, debt and account
// fetches each degrade to empty on failure so one broken data source
// cannot block a decision.
func (s *Service) BuildDecisionContext(ctx context.Context, requestID string, opts DecisionOptions) (*domain.DecisionContext, error) {
	days := opts.LookbackDays
	if days <= 0 {
		days = DefaultLookbackDays
	}

	request, err := s.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	var (
		fc     *domain.FinancialContext
		budget *domain.BudgetStatus
		goals  []domain.FinancialGoal
		debts  []domain.DebtInfo
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		built, err := s.BuildSpendingContext(groupCtx, days)
		if err != nil {
			return err
		}
		fc = built
		return nil
	})
	group.Go(func() error {
		goals = s.degradeGoals(groupCtx)
		return nil
	})
	group.Go(func() error {
		debts = s.degradeDebts(groupCtx)
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	// budget status reuses the monthly figures already in the context;
	// a service without a configured budget decides without one
	if fc.MonthlyBudget != nil {
		status, err := s.GetMonthlyBudgetStatus(ctx, fc.MonthlyBudget, time.Time{})
		if err != nil {
			return nil, err
		}
		budget = status
	} else {
		s.logger.Debug("no monthly budget configured, deciding without budget signals",
			zap.String("request_id", requestID))
	}

	// trend detection needs the prior month too, so widen the history
	// the engine sees beyond the caller's window
	history := s.degradeRequests(func() ([]domain.SpendingRequest, error) {
		return s.GetRecentSpending(ctx, trendHistoryDays(days))
	}, "request history")

	maxSimilar := opts.MaxComparisons
	if opts.SkipComparisons {
		maxSimilar = -1
	}

	return engine.BuildDecision(engine.DecisionInputs{
		Request:    request,
		Recent:     history,
		Budget:     budget,
		Context:    fc,
		Goals:      goals,
		Debts:      debts,
		MaxSimilar: maxSimilar,
		Now:        s.now(),
	}), nil
}

// trendHistoryDays widens a lookback so it always covers the current
// and the full prior calendar month.
func trendHistoryDays(days int) int {
	const twoMonths = 62
	if days > twoMonths {
		return days
	}
	return twoMonths
}
