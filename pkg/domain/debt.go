package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DebtPriority orders debts by payoff importance.
type DebtPriority string

const (
	DebtPriorityLow    DebtPriority = "low"
	DebtPriorityMedium DebtPriority = "medium"
	DebtPriorityHigh   DebtPriority = "high"
)

// DebtType classifies the kind of obligation.
type DebtType string

const (
	DebtTypeCreditCard   DebtType = "credit_card"
	DebtTypeStudentLoan  DebtType = "student_loan"
	DebtTypeMortgage     DebtType = "mortgage"
	DebtTypeAutoLoan     DebtType = "auto_loan"
	DebtTypePersonalLoan DebtType = "personal_loan"
	DebtTypeMedical      DebtType = "medical"
	DebtTypeOther        DebtType = "other"
)

// DebtStatus is a debt's lifecycle state.
type DebtStatus string

const (
	DebtStatusActive        DebtStatus = "active"
	DebtStatusPaidOff       DebtStatus = "paid_off"
	DebtStatusInCollections DebtStatus = "in_collections"
	DebtStatusDeferred      DebtStatus = "deferred"
)

// DebtInfo is one outstanding obligation parsed from an external record.
type DebtInfo struct {
	ID              string
	Creditor        string
	TotalAmount     decimal.Decimal
	RemainingAmount decimal.Decimal
	MinimumPayment  decimal.Decimal
	InterestRate    float64
	DueDate         time.Time
	Priority        DebtPriority
	DebtType        DebtType
	Status          DebtStatus
}

// Validate checks the debt's invariants.
func (d *DebtInfo) Validate() error {
	if d.ID == "" {
		return errors.New("debt id is required")
	}
	if d.Creditor == "" {
		return errors.New("debt creditor is required")
	}
	if d.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return errors.New("debt total amount must be positive")
	}
	if d.RemainingAmount.IsNegative() {
		return errors.New("debt remaining amount must not be negative")
	}
	if d.MinimumPayment.LessThanOrEqual(decimal.Zero) {
		return errors.New("debt minimum payment must be positive")
	}
	if d.InterestRate < 0 || d.InterestRate > 100 {
		return errors.New("debt interest rate must be between 0 and 100")
	}
	return nil
}

// PaidFraction returns how much of the debt has been paid off, in [0,1].
func (d *DebtInfo) PaidFraction() float64 {
	if d.TotalAmount.LessThanOrEqual(decimal.Zero) {
		return 0
	}
	paid := d.TotalAmount.Sub(d.RemainingAmount)
	fraction, _ := paid.Div(d.TotalAmount).Float64()
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}
