package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"spendpilot/pkg/domain"
)

var (
	trendUpperBand = decimal.NewFromFloat(1.1)
	trendLowerBand = decimal.NewFromFloat(0.9)
)

// ClassifyTrend compares current-period category spend against the
// prior period. A ±10% dead-band absorbs noise: only moves beyond it
// count as a trend.
func ClassifyTrend(current, prior decimal.Decimal) domain.Trend {
	switch {
	case current.GreaterThan(prior.Mul(trendUpperBand)):
		return domain.TrendIncreasing
	case current.LessThan(prior.Mul(trendLowerBand)):
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

// AnalyzePatterns derives the spending-pattern view for one request
// from the recent request history: comparable decided requests, the
// category's month-over-month trend, and category spend figures.
// maxSimilar caps the comparables (DefaultMaxSimilar when zero, none
// when negative). Denied requests are excluded from spend sums but
// remain candidates for similarity, since a past denial is exactly the
// precedent a reviewer wants to see.
func AnalyzePatterns(target *domain.SpendingRequest, recent []domain.SpendingRequest, maxSimilar int, now time.Time) domain.SpendingPatterns {
	if maxSimilar == 0 {
		maxSimilar = DefaultMaxSimilar
	}
	var patterns domain.SpendingPatterns
	if maxSimilar > 0 {
		patterns.RecentSimilar = FindSimilar(target, recent, maxSimilar)
	}

	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	priorStart := monthStart.AddDate(0, -1, 0)

	var current, prior decimal.Decimal
	var count int64
	for i := range recent {
		request := &recent[i]
		if request.Category != target.Category || request.Status == domain.StatusDenied {
			continue
		}
		switch {
		case !request.RequestDate.Before(monthStart):
			current = current.Add(request.Amount)
		case !request.RequestDate.Before(priorStart):
			prior = prior.Add(request.Amount)
		}
		patterns.AverageCategoryAmount = patterns.AverageCategoryAmount.Add(request.Amount)
		count++
	}

	patterns.CategorySpendingThisMonth = current
	patterns.CategoryTrend = ClassifyTrend(current, prior)
	if count > 0 {
		patterns.AverageCategoryAmount = patterns.AverageCategoryAmount.Div(decimal.NewFromInt(count))
	}
	return patterns
}
