package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthForPercentageBoundaries(t *testing.T) {
	tests := []struct {
		percentage float64
		want       BudgetHealth
	}{
		{0, BudgetHealthExcellent},
		{49.9, BudgetHealthExcellent},
		{50, BudgetHealthGood},
		{50.1, BudgetHealthGood},
		{74.9, BudgetHealthGood},
		{75, BudgetHealthWarning},
		{89.9, BudgetHealthWarning},
		{90, BudgetHealthCritical},
		{150, BudgetHealthCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HealthForPercentage(tt.percentage), "percentage %v", tt.percentage)
	}
}

func TestUrgencyOrdinalScale(t *testing.T) {
	assert.Equal(t, 0, UrgencyLow.Ordinal())
	assert.Equal(t, 1, UrgencyMedium.Ordinal())
	assert.Equal(t, 2, UrgencyHigh.Ordinal())
	assert.Equal(t, 3, UrgencyCritical.Ordinal())
	assert.Equal(t, 0, UrgencyLevel("unknown").Ordinal())

	assert.True(t, UrgencyCritical.AtLeast(UrgencyHigh))
	assert.True(t, UrgencyHigh.AtLeast(UrgencyHigh))
	assert.False(t, UrgencyMedium.AtLeast(UrgencyHigh))
}

func TestSpendingRequestValidate(t *testing.T) {
	decided := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	base := func() SpendingRequest {
		return SpendingRequest{
			ID:          "rec-1",
			Title:       "Groceries",
			Amount:      decimal.NewFromInt(50),
			Category:    CategoryFood,
			Status:      StatusPending,
			RequestDate: decided.AddDate(0, 0, -1),
		}
	}

	t.Run("valid pending", func(t *testing.T) {
		r := base()
		require.NoError(t, r.Validate())
		assert.False(t, r.IsDecided())
	})

	t.Run("pending with decision fields", func(t *testing.T) {
		r := base()
		r.Reasoning = "should not be here"
		assert.Error(t, r.Validate())
	})

	t.Run("approved without decision fields", func(t *testing.T) {
		r := base()
		r.Status = StatusApproved
		assert.Error(t, r.Validate())
	})

	t.Run("approved complete", func(t *testing.T) {
		r := base()
		r.Status = StatusApproved
		r.Reasoning = "fits budget"
		r.DecidedDate = &decided
		require.NoError(t, r.Validate())
		assert.True(t, r.IsDecided())
	})

	t.Run("non-positive amount", func(t *testing.T) {
		r := base()
		r.Amount = decimal.Zero
		assert.Error(t, r.Validate())
	})

	t.Run("unknown category", func(t *testing.T) {
		r := base()
		r.Category = "Gadgets"
		assert.Error(t, r.Validate())
	})
}

func TestGoalProgressClamps(t *testing.T) {
	goal := FinancialGoal{
		ID:            "g1",
		Title:         "Fund",
		TargetAmount:  decimal.NewFromInt(1000),
		CurrentAmount: decimal.NewFromInt(250),
	}
	assert.InDelta(t, 0.25, goal.Progress(), 1e-9)
	assert.True(t, goal.RemainingAmount().Equal(decimal.NewFromInt(750)))

	goal.CurrentAmount = decimal.NewFromInt(1500)
	assert.Equal(t, 1.0, goal.Progress())
	assert.True(t, goal.RemainingAmount().IsZero())
}

func TestDebtPaidFraction(t *testing.T) {
	debt := DebtInfo{
		TotalAmount:     decimal.NewFromInt(1000),
		RemainingAmount: decimal.NewFromInt(400),
	}
	assert.InDelta(t, 0.6, debt.PaidFraction(), 1e-9)

	debt.RemainingAmount = decimal.NewFromInt(1200)
	assert.Equal(t, 0.0, debt.PaidFraction())
}

func TestAccountClassification(t *testing.T) {
	tests := []struct {
		accountType AccountType
		liability   bool
		liquid      bool
	}{
		{AccountTypeChecking, false, true},
		{AccountTypeSavings, false, true},
		{AccountTypeMoneyMarket, false, true},
		{AccountTypeInvestment, false, false},
		{AccountTypeCreditCard, true, false},
		{AccountTypeLoan, true, false},
	}

	for _, tt := range tests {
		account := AccountBalance{AccountType: tt.accountType}
		assert.Equal(t, tt.liability, account.IsLiability(), "%s liability", tt.accountType)
		assert.Equal(t, tt.liquid, account.IsLiquid(), "%s liquid", tt.accountType)
	}
}

func TestAllCategoriesClosedSet(t *testing.T) {
	categories := AllCategories()
	assert.Len(t, categories, 12)
	for _, category := range categories {
		assert.True(t, category.Valid())
	}
	assert.False(t, Category("Crypto").Valid())
}
