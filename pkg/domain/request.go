// Package domain holds the validated financial entities the system
// builds from external records, and the derived context types the
// scoring engine consumes. Entities are immutable value records once
// constructed; the only mutation path is replacing the external record
// and re-parsing.
package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Category is the closed set of spending categories.
type Category string

const (
	CategoryHousing        Category = "Housing"
	CategoryFood           Category = "Food"
	CategoryTransportation Category = "Transportation"
	CategoryUtilities      Category = "Utilities"
	CategoryHealthcare     Category = "Healthcare"
	CategoryEntertainment  Category = "Entertainment"
	CategoryShopping       Category = "Shopping"
	CategoryEducation      Category = "Education"
	CategoryTravel         Category = "Travel"
	CategoryBills          Category = "Bills"
	CategoryEmergency      Category = "Emergency"
	CategoryOther          Category = "Other"
)

// AllCategories lists every category in a stable order. Aggregations
// zero-fill over this list so consumers never handle missing keys.
func AllCategories() []Category {
	return []Category{
		CategoryHousing,
		CategoryFood,
		CategoryTransportation,
		CategoryUtilities,
		CategoryHealthcare,
		CategoryEntertainment,
		CategoryShopping,
		CategoryEducation,
		CategoryTravel,
		CategoryBills,
		CategoryEmergency,
		CategoryOther,
	}
}

// Valid reports whether the category is a member of the closed set.
func (c Category) Valid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// RequestStatus is a spending request's lifecycle state.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusDenied   RequestStatus = "denied"
)

// Valid reports whether the status is a member of the closed set.
func (s RequestStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusDenied
}

// Decision is the outcome applied to a pending request. The transition
// pending -> {approved, denied} is one-way; there is no revert path.
type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionDenied   Decision = "denied"
)

// Valid reports whether the decision is approved or denied.
func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionDenied
}

// UrgencyLevel is the ordinal time-sensitivity of a request.
type UrgencyLevel string

const (
	UrgencyLow      UrgencyLevel = "low"
	UrgencyMedium   UrgencyLevel = "medium"
	UrgencyHigh     UrgencyLevel = "high"
	UrgencyCritical UrgencyLevel = "critical"
)

// Valid reports whether the urgency is a member of the closed set.
func (u UrgencyLevel) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

// Ordinal maps the urgency onto the 4-point scale: low=0 .. critical=3.
// Unknown levels map to 0.
func (u UrgencyLevel) Ordinal() int {
	switch u {
	case UrgencyMedium:
		return 1
	case UrgencyHigh:
		return 2
	case UrgencyCritical:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether the urgency is at or above the given level.
func (u UrgencyLevel) AtLeast(other UrgencyLevel) bool {
	return u.Ordinal() >= other.Ordinal()
}

// SpendingRequest is one discretionary spending request parsed from an
// external record.
type SpendingRequest struct {
	ID           string
	Title        string
	Amount       decimal.Decimal
	Category     Category
	Status       RequestStatus
	RequestDate  time.Time
	DecidedDate  *time.Time
	Reasoning    string
	UrgencyLevel UrgencyLevel
	Tags         []string
	Account      string
}

// Validate checks the request's invariants: positive amount, known
// category, and decided fields present exactly when the status is not
// pending.
func (r *SpendingRequest) Validate() error {
	if r.ID == "" {
		return errors.New("spending request id is required")
	}
	if r.Title == "" {
		return errors.New("spending request title is required")
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return errors.New("spending request amount must be positive")
	}
	if !r.Category.Valid() {
		return errors.New("spending request category is unknown")
	}
	switch r.Status {
	case StatusPending:
		if r.DecidedDate != nil || r.Reasoning != "" {
			return errors.New("pending request must not carry a decision")
		}
	case StatusApproved, StatusDenied:
		if r.DecidedDate == nil || r.Reasoning == "" {
			return errors.New("decided request must carry decided date and reasoning")
		}
	default:
		return errors.New("spending request status is unknown")
	}
	return nil
}

// IsDecided reports whether the request has left the pending state.
func (r *SpendingRequest) IsDecided() bool {
	return r.Status == StatusApproved || r.Status == StatusDenied
}
