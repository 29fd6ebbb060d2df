package finance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"spendpilot/pkg/domain"
	"spendpilot/pkg/store"
)

// DefaultLookbackDays is the rolling window for spending context when
// the caller gives none.
const DefaultLookbackDays = 30

var decimal105 = decimal.NewFromFloat(1.05)

// BuildSpendingContext derives the rolling-window spending picture.
// Monthly and weekly totals follow the calendar month and the ISO week
// containing now, and the fetch window is widened to cover both fully
// regardless of the requested lookback. Account data degrades to
// absent funds on failure.
func (s *Service) BuildSpendingContext(ctx context.Context, days int) (*domain.FinancialContext, error) {
	if days <= 0 {
		days = DefaultLookbackDays
	}

	now := s.now()
	weekStart := startOfISOWeek(now)
	fetchDays := days
	if elapsed := now.Day(); elapsed > fetchDays {
		fetchDays = elapsed
	}
	// an ISO week can reach into the prior month, so it widens the
	// window independently of the month
	if elapsed := int(now.Sub(weekStart).Hours()/24) + 1; elapsed > fetchDays {
		fetchDays = elapsed
	}

	var (
		requests []domain.SpendingRequest
		accounts []domain.AccountBalance
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		fetched, err := s.GetRecentSpending(groupCtx, fetchDays)
		if err != nil {
			return err
		}
		requests = fetched
		return nil
	})
	group.Go(func() error {
		accounts = s.degradeAccounts(groupCtx)
		return nil
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	fc := &domain.FinancialContext{
		RecentSpending:    windowRequests(requests, now.AddDate(0, 0, -days)),
		CategoryBreakdown: zeroBreakdown(),
		MonthlyBudget:     s.budget,
	}

	monthStart := startOfMonth(now)

	var counted int64
	for i := range requests {
		request := &requests[i]
		if request.Status == domain.StatusDenied {
			continue
		}
		if !request.RequestDate.Before(monthStart) {
			fc.MonthlyTotal = fc.MonthlyTotal.Add(request.Amount)
		}
		if !request.RequestDate.Before(weekStart) {
			fc.WeeklyTotal = fc.WeeklyTotal.Add(request.Amount)
		}
		fc.CategoryBreakdown[request.Category] = fc.CategoryBreakdown[request.Category].Add(request.Amount)
		fc.AverageRequestAmount = fc.AverageRequestAmount.Add(request.Amount)
		counted++
		if request.UrgencyLevel.AtLeast(domain.UrgencyHigh) {
			fc.UrgentRequestsCount++
		}
	}
	if counted > 0 {
		fc.AverageRequestAmount = fc.AverageRequestAmount.Div(decimal.NewFromInt(counted))
	}

	if funds := liquidFunds(accounts); funds != nil {
		fc.AvailableFunds = funds
	}
	return fc, nil
}

// GetMonthlyBudgetStatus derives the budget state for one calendar
// month. budget overrides the service default when non-nil; a zero
// month means the month containing now, and a past month yields its
// final figures (the projection is just the recorded spending).
func (s *Service) GetMonthlyBudgetStatus(ctx context.Context, budget *decimal.Decimal, month time.Time) (*domain.BudgetStatus, error) {
	if budget == nil {
		budget = s.budget
	}
	if budget == nil || budget.LessThanOrEqual(decimal.Zero) {
		return nil, store.NewError(store.CodeValidation, "a positive monthly budget is required")
	}

	now := s.now()
	if month.IsZero() {
		month = now
	}
	monthStart := startOfMonth(month)
	if monthStart.After(now) {
		return nil, store.NewError(store.CodeValidation, "budget status cannot be computed for a future month")
	}
	monthEnd := monthStart.AddDate(0, 1, 0)

	days := int(now.Sub(monthStart).Hours()/24) + 1
	requests, err := s.GetRecentSpending(ctx, days)
	if err != nil {
		return nil, err
	}

	spending := decimal.Zero
	for i := range requests {
		request := &requests[i]
		if request.Status == domain.StatusDenied {
			continue
		}
		if !request.RequestDate.Before(monthStart) && request.RequestDate.Before(monthEnd) {
			spending = spending.Add(request.Amount)
		}
	}

	status := &domain.BudgetStatus{
		MonthlyBudget:            *budget,
		CurrentSpending:          spending,
		RemainingBudget:          budget.Sub(spending),
		ProjectedMonthlySpending: projectMonthly(spending, monthStart, now),
	}
	percentage, _ := spending.Div(*budget).Mul(decimal.NewFromInt(100)).Float64()
	status.PercentageUsed = percentage
	status.OnTrack = status.ProjectedMonthlySpending.LessThanOrEqual(budget.Mul(decimal105))
	status.BudgetHealth = domain.HealthForPercentage(percentage)

	s.logger.Debug("budget status computed",
		zap.String("spending", spending.String()),
		zap.Float64("percentage_used", percentage),
		zap.String("health", string(status.BudgetHealth)),
	)
	return status, nil
}

// NetWorth sums account balances into assets, liabilities and net
// position. Closed accounts are excluded.
func (s *Service) NetWorth(ctx context.Context) (assets, liabilities, net decimal.Decimal, err error) {
	accounts, err := s.GetAccountBalances(ctx)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, err
	}
	for i := range accounts {
		account := &accounts[i]
		if account.Status == domain.AccountStatusClosed {
			continue
		}
		if account.IsLiability() {
			liabilities = liabilities.Add(account.CurrentBalance.Abs())
		} else {
			assets = assets.Add(account.CurrentBalance)
		}
	}
	return assets, liabilities, assets.Sub(liabilities), nil
}

// projectMonthly extrapolates month-to-date spending linearly over the
// full month. A completed month projects as its recorded spending, and
// on day one there is no run rate yet, so the projection is the
// spending itself.
func projectMonthly(spending decimal.Decimal, monthStart, now time.Time) decimal.Decimal {
	if !monthStart.AddDate(0, 1, 0).After(now) {
		return spending
	}
	elapsed := now.Day()
	if elapsed <= 1 {
		return spending
	}
	total := daysInMonth(monthStart)
	return spending.Div(decimal.NewFromInt(int64(elapsed))).Mul(decimal.NewFromInt(int64(total)))
}

func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// startOfISOWeek returns Monday 00:00 of the ISO week containing t.
func startOfISOWeek(t time.Time) time.Time {
	weekday := int(t.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, 1-weekday)
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// windowRequests trims the fetched (possibly month-widened) request set
// back to the caller's lookback window.
func windowRequests(requests []domain.SpendingRequest, since time.Time) []domain.SpendingRequest {
	out := make([]domain.SpendingRequest, 0, len(requests))
	for i := range requests {
		if !requests[i].RequestDate.Before(since) {
			out = append(out, requests[i])
		}
	}
	return out
}

func zeroBreakdown() map[domain.Category]decimal.Decimal {
	breakdown := make(map[domain.Category]decimal.Decimal, len(domain.AllCategories()))
	for _, category := range domain.AllCategories() {
		breakdown[category] = decimal.Zero
	}
	return breakdown
}

// liquidFunds sums available balances of active liquid accounts. Nil
// means no account data was available at all.
func liquidFunds(accounts []domain.AccountBalance) *decimal.Decimal {
	if len(accounts) == 0 {
		return nil
	}
	total := decimal.Zero
	for i := range accounts {
		account := &accounts[i]
		if account.Status != domain.AccountStatusActive || !account.IsLiquid() {
			continue
		}
		total = total.Add(account.AvailableBalance)
	}
	return &total
}
