package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account. Checking, savings and money market
// accounts are liquid; credit cards and loans are liabilities.
type AccountType string

const (
	AccountTypeChecking    AccountType = "checking"
	AccountTypeSavings     AccountType = "savings"
	AccountTypeMoneyMarket AccountType = "money_market"
	AccountTypeInvestment  AccountType = "investment"
	AccountTypeCreditCard  AccountType = "credit_card"
	AccountTypeLoan        AccountType = "loan"
)

// AccountStatus is an account's lifecycle state.
type AccountStatus string

const (
	AccountStatusActive  AccountStatus = "active"
	AccountStatusClosed  AccountStatus = "closed"
	AccountStatusFrozen  AccountStatus = "frozen"
	AccountStatusPending AccountStatus = "pending"
)

// AccountBalance is one account's current state parsed from an external
// record.
type AccountBalance struct {
	ID               string
	AccountName      string
	AccountType      AccountType
	CurrentBalance   decimal.Decimal
	AvailableBalance decimal.Decimal
	Status           AccountStatus
}

// Validate checks the account's invariants.
func (a *AccountBalance) Validate() error {
	if a.ID == "" {
		return errors.New("account id is required")
	}
	if a.AccountName == "" {
		return errors.New("account name is required")
	}
	return nil
}

// IsLiability reports whether the account counts against net worth.
func (a *AccountBalance) IsLiability() bool {
	return a.AccountType == AccountTypeCreditCard || a.AccountType == AccountTypeLoan
}

// IsLiquid reports whether the account's funds are readily spendable.
func (a *AccountBalance) IsLiquid() bool {
	switch a.AccountType {
	case AccountTypeChecking, AccountTypeSavings, AccountTypeMoneyMarket:
		return true
	default:
		return false
	}
}
