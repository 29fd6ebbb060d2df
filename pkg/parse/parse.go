// Package parse converts raw external records into validated domain
// entities. The external store does not enforce its own schema, so a
// record missing required fields is an expected outcome: parsers report
// it with a false second return, never an error, and batch helpers
// filter such records out so one bad record never fails a whole fetch.
package parse

import (
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"spendpilot/pkg/domain"
	"spendpilot/pkg/logging"
	"spendpilot/pkg/store"
)

// Property names used in the external collections.
const (
	PropTitle            = "Title"
	PropAmount           = "Amount"
	PropCategory         = "Category"
	PropStatus           = "Status"
	PropRequestDate      = "Request Date"
	PropDecidedDate      = "Decided Date"
	PropReasoning        = "Reasoning"
	PropUrgency          = "Urgency Level"
	PropTags             = "Tags"
	PropAccount          = "Account"
	PropTargetAmount     = "Target Amount"
	PropCurrentAmount    = "Current Amount"
	PropDeadline         = "Deadline"
	PropPriority         = "Priority"
	PropCreditor         = "Creditor"
	PropTotalAmount      = "Total Amount"
	PropRemainingAmount  = "Remaining Amount"
	PropMinimumPayment   = "Minimum Payment"
	PropInterestRate     = "Interest Rate"
	PropDueDate          = "Due Date"
	PropDebtType         = "Debt Type"
	PropAccountName      = "Account Name"
	PropAccountType      = "Account Type"
	PropCurrentBalance   = "Current Balance"
	PropAvailableBalance = "Available Balance"
)

// SpendingRequest parses a record into a spending request. Required:
// title, positive amount, known category, request date.
func SpendingRequest(record *store.Record) (*domain.SpendingRequest, bool) {
	title := record.Property(PropTitle).PlainText()
	if title == "" {
		return nil, false
	}

	amount, ok := record.Property(PropAmount).NumberValue()
	if !ok || amount <= 0 {
		return nil, false
	}

	category := domain.Category(record.Property(PropCategory).SelectValue())
	if !category.Valid() {
		return nil, false
	}

	requestDate, ok := record.Property(PropRequestDate).DateTime()
	if !ok {
		return nil, false
	}

	request := &domain.SpendingRequest{
		ID:           record.ID,
		Title:        title,
		Amount:       decimal.NewFromFloat(amount),
		Category:     category,
		Status:       domain.StatusPending,
		RequestDate:  requestDate,
		Reasoning:    record.Property(PropReasoning).PlainText(),
		UrgencyLevel: domain.UrgencyLow,
		Tags:         record.Property(PropTags).MultiSelectValues(),
		Account:      record.Property(PropAccount).SelectValue(),
	}

	// unknown select values keep the defaults rather than smuggling an
	// out-of-set member into the domain
	if status := domain.RequestStatus(normalize(record.Property(PropStatus).SelectValue())); status.Valid() {
		request.Status = status
	}
	urgency := normalize(record.Property(PropUrgency).SelectValue())
	// "urgent" is an accepted alias for the top of the scale
	if urgency == "urgent" {
		urgency = string(domain.UrgencyCritical)
	}
	if level := domain.UrgencyLevel(urgency); level.Valid() {
		request.UrgencyLevel = level
	}
	if decided, ok := record.Property(PropDecidedDate).DateTime(); ok {
		request.DecidedDate = &decided
	}

	return request, true
}

// Goal parses a record into a financial goal. Required: title, positive
// target amount.
func Goal(record *store.Record) (*domain.FinancialGoal, bool) {
	title := record.Property(PropTitle).PlainText()
	if title == "" {
		return nil, false
	}

	target, ok := record.Property(PropTargetAmount).NumberValue()
	if !ok || target <= 0 {
		return nil, false
	}

	goal := &domain.FinancialGoal{
		ID:           record.ID,
		Title:        title,
		TargetAmount: decimal.NewFromFloat(target),
		Priority:     domain.GoalPriorityMedium,
		Category:     domain.GoalCategoryOther,
		Status:       domain.GoalStatusActive,
	}

	if current, ok := record.Property(PropCurrentAmount).NumberValue(); ok && current >= 0 {
		goal.CurrentAmount = decimal.NewFromFloat(current)
	}
	if deadline, ok := record.Property(PropDeadline).DateTime(); ok {
		goal.Deadline = &deadline
	}
	if priority := normalize(record.Property(PropPriority).SelectValue()); priority != "" {
		goal.Priority = domain.GoalPriority(priority)
	}
	if category := normalize(record.Property(PropCategory).SelectValue()); category != "" {
		goal.Category = domain.GoalCategory(category)
	}
	if status := normalize(record.Property(PropStatus).SelectValue()); status != "" {
		goal.Status = domain.GoalStatus(status)
	}

	return goal, true
}

// Debt parses a record into a debt. Required: creditor, positive total
// amount, positive minimum payment.
func Debt(record *store.Record) (*domain.DebtInfo, bool) {
	creditor := record.Property(PropCreditor).PlainText()
	if creditor == "" {
		creditor = record.Property(PropTitle).PlainText()
	}
	if creditor == "" {
		return nil, false
	}

	total, ok := record.Property(PropTotalAmount).NumberValue()
	if !ok || total <= 0 {
		return nil, false
	}

	minimum, ok := record.Property(PropMinimumPayment).NumberValue()
	if !ok || minimum <= 0 {
		return nil, false
	}

	debt := &domain.DebtInfo{
		ID:             record.ID,
		Creditor:       creditor,
		TotalAmount:    decimal.NewFromFloat(total),
		MinimumPayment: decimal.NewFromFloat(minimum),
		Priority:       domain.DebtPriorityMedium,
		DebtType:       domain.DebtTypeOther,
		Status:         domain.DebtStatusActive,
	}

	if remaining, ok := record.Property(PropRemainingAmount).NumberValue(); ok && remaining >= 0 {
		debt.RemainingAmount = decimal.NewFromFloat(remaining)
	} else {
		debt.RemainingAmount = debt.TotalAmount
	}
	if rate, ok := record.Property(PropInterestRate).NumberValue(); ok && rate >= 0 && rate <= 100 {
		debt.InterestRate = rate
	}
	if due, ok := record.Property(PropDueDate).DateTime(); ok {
		debt.DueDate = due
	}
	if priority := normalize(record.Property(PropPriority).SelectValue()); priority != "" {
		debt.Priority = domain.DebtPriority(priority)
	}
	if debtType := normalize(record.Property(PropDebtType).SelectValue()); debtType != "" {
		debt.DebtType = domain.DebtType(debtType)
	}
	if status := normalize(record.Property(PropStatus).SelectValue()); status != "" {
		debt.Status = domain.DebtStatus(status)
	}

	return debt, true
}

// Account parses a record into an account balance. Required: account
// name, account type.
func Account(record *store.Record) (*domain.AccountBalance, bool) {
	name := record.Property(PropAccountName).PlainText()
	if name == "" {
		name = record.Property(PropTitle).PlainText()
	}
	if name == "" {
		return nil, false
	}

	accountType := normalize(record.Property(PropAccountType).SelectValue())
	if accountType == "" {
		return nil, false
	}

	account := &domain.AccountBalance{
		ID:          record.ID,
		AccountName: name,
		AccountType: domain.AccountType(accountType),
		Status:      domain.AccountStatusActive,
	}

	if current, ok := record.Property(PropCurrentBalance).NumberValue(); ok {
		account.CurrentBalance = decimal.NewFromFloat(current)
	}
	if available, ok := record.Property(PropAvailableBalance).NumberValue(); ok {
		account.AvailableBalance = decimal.NewFromFloat(available)
	} else {
		account.AvailableBalance = account.CurrentBalance
	}
	if status := normalize(record.Property(PropStatus).SelectValue()); status != "" {
		account.Status = domain.AccountStatus(status)
	}

	return account, true
}

// SpendingRequests parses a batch, dropping invalid records.
func SpendingRequests(records []store.Record) []domain.SpendingRequest {
	out := make([]domain.SpendingRequest, 0, len(records))
	for i := range records {
		if request, ok := SpendingRequest(&records[i]); ok {
			out = append(out, *request)
		} else {
			logSkip("spending request", records[i].ID)
		}
	}
	return out
}

// Goals parses a batch, dropping invalid records.
func Goals(records []store.Record) []domain.FinancialGoal {
	out := make([]domain.FinancialGoal, 0, len(records))
	for i := range records {
		if goal, ok := Goal(&records[i]); ok {
			out = append(out, *goal)
		} else {
			logSkip("goal", records[i].ID)
		}
	}
	return out
}

// Debts parses a batch, dropping invalid records.
func Debts(records []store.Record) []domain.DebtInfo {
	out := make([]domain.DebtInfo, 0, len(records))
	for i := range records {
		if debt, ok := Debt(&records[i]); ok {
			out = append(out, *debt)
		} else {
			logSkip("debt", records[i].ID)
		}
	}
	return out
}

// Accounts parses a batch, dropping invalid records.
func Accounts(records []store.Record) []domain.AccountBalance {
	out := make([]domain.AccountBalance, 0, len(records))
	for i := range records {
		if account, ok := Account(&records[i]); ok {
			out = append(out, *account)
		} else {
			logSkip("account", records[i].ID)
		}
	}
	return out
}

func logSkip(entity, recordID string) {
	logging.Global().Named("parse").Debug("record skipped: required fields missing",
		zap.String("entity", entity),
		zap.String("record_id", recordID),
	)
}

// normalize lowercases a select value and joins words with underscores
// so "Paid Off" and "paid_off" compare equal.
func normalize(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	return strings.ReplaceAll(value, " ", "_")
}
