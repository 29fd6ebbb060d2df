// Package finance exposes the typed operations of the system: fetching
// validated entities from the external record store, the one-way
// decision transition on spending requests, and the aggregation and
// context building the scoring engine consumes.
package finance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"spendpilot/pkg/codec"
	"spendpilot/pkg/domain"
	"spendpilot/pkg/logging"
	"spendpilot/pkg/parse"
	"spendpilot/pkg/store"
)

// Collections holds the external collection ids. Requests is required;
// the others are optional. An absent id means that entity type always
// returns empty, never an error.
type Collections struct {
	Requests string
	Goals    string
	Debts    string
	Accounts string
}

// Config configures the finance service.
type Config struct {
	Collections Collections

	// MonthlyBudget is the default budget when the caller supplies none
	MonthlyBudget *decimal.Decimal

	// Logger for structured service logs; nil uses the global logger
	Logger *logging.Logger
}

// Service is the typed facade over the record-store client.
type Service struct {
	client      *store.Client
	collections Collections
	budget      *decimal.Decimal
	logger      *logging.Logger

	// now is injectable for tests
	now func() time.Time
}

// NewService creates a finance service over the given client.
func NewService(client *store.Client, config Config) (*Service, error) {
	if config.Collections.Requests == "" {
		return nil, store.NewError(store.CodeValidation, "spending requests collection id is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = logging.Global()
	}

	return &Service{
		client:      client,
		collections: config.Collections,
		budget:      config.MonthlyBudget,
		logger:      logger.Named("finance"),
		now:         time.Now,
	}, nil
}

// GetPendingRequests returns pending spending requests, optionally
// restricted to amounts at or above minAmount, newest first.
func (s *Service) GetPendingRequests(ctx context.Context, minAmount *decimal.Decimal) ([]domain.SpendingRequest, error) {
	filter := store.SelectEquals(parse.PropStatus, string(domain.StatusPending))
	if minAmount != nil {
		min, _ := minAmount.Float64()
		filter = store.And(filter, store.NumberAtLeast(parse.PropAmount, min))
	}
	sorts := []store.Sort{{Property: parse.PropRequestDate, Direction: store.Descending}}

	records, err := s.client.QueryRecords(ctx, s.collections.Requests, filter, sorts)
	if err != nil {
		return nil, err
	}
	return parse.SpendingRequests(records), nil
}

// GetRecentSpending returns requests whose request date falls within
// the last `days` days, newest first.
func (s *Service) GetRecentSpending(ctx context.Context, days int) ([]domain.SpendingRequest, error) {
	if days <= 0 {
		return nil, store.NewError(store.CodeValidation, "days must be positive")
	}

	since := s.now().AddDate(0, 0, -days)
	filter := store.DateOnOrAfter(parse.PropRequestDate, since)
	sorts := []store.Sort{{Property: parse.PropRequestDate, Direction: store.Descending}}

	records, err := s.client.QueryRecords(ctx, s.collections.Requests, filter, sorts)
	if err != nil {
		return nil, err
	}
	return parse.SpendingRequests(records), nil
}

// GetRequest returns one spending request by record id.
func (s *Service) GetRequest(ctx context.Context, requestID string) (*domain.SpendingRequest, error) {
	record, err := s.client.GetRecord(ctx, requestID)
	if err != nil {
		return nil, err
	}
	request, ok := parse.SpendingRequest(record)
	if !ok {
		return nil, store.Errorf(store.CodeNotFound, "record %s is not a valid spending request", requestID)
	}
	return request, nil
}

// CreateRequest creates a new pending spending request.
func (s *Service) CreateRequest(ctx context.Context, request *domain.SpendingRequest) (*domain.SpendingRequest, error) {
	request.Status = domain.StatusPending
	if request.RequestDate.IsZero() {
		request.RequestDate = s.now()
	}
	if request.UrgencyLevel == "" {
		request.UrgencyLevel = domain.UrgencyLow
	}
	if err := validateNewRequest(request); err != nil {
		return nil, err
	}

	amount, _ := request.Amount.Float64()
	properties := map[string]codec.Property{
		parse.PropTitle:       codec.NewTitle(request.Title),
		parse.PropAmount:      codec.NewNumber(amount),
		parse.PropCategory:    codec.NewSelect(string(request.Category)),
		parse.PropStatus:      codec.NewSelect(string(domain.StatusPending)),
		parse.PropRequestDate: codec.NewDate(request.RequestDate, true),
		parse.PropUrgency:     codec.NewSelect(string(request.UrgencyLevel)),
	}
	if len(request.Tags) > 0 {
		properties[parse.PropTags] = codec.NewMultiSelect(request.Tags)
	}
	if request.Account != "" {
		properties[parse.PropAccount] = codec.NewSelect(request.Account)
	}

	record, err := s.client.CreateRecord(ctx, s.collections.Requests, properties)
	if err != nil {
		return nil, err
	}

	created, ok := parse.SpendingRequest(record)
	if !ok {
		return nil, store.NewError(store.CodeServer, "store returned an unparsable created record")
	}
	return created, nil
}

func validateNewRequest(request *domain.SpendingRequest) error {
	if request.Title == "" {
		return store.NewError(store.CodeValidation, "request title is required")
	}
	if request.Amount.LessThanOrEqual(decimal.Zero) {
		return store.NewError(store.CodeValidation, "request amount must be positive")
	}
	if !request.Category.Valid() {
		return store.Errorf(store.CodeValidation, "unknown category %q", request.Category)
	}
	return nil
}

// UpdateDecision applies the one-way pending -> {approved, denied}
// transition. The precondition is checked against a fresh, uncached
// read so a stale cache can never mask a conflict; a request not in the
// pending state fails with a conflict error before any write is issued.
// Status, reasoning and decided date go to the store in one call so a
// failure cannot leave the record half-updated.
func (s *Service) UpdateDecision(ctx context.Context, requestID string, decision domain.Decision, reasoning string) error {
	if !decision.Valid() {
		return store.Errorf(store.CodeValidation, "unknown decision %q", decision)
	}
	if reasoning == "" {
		return store.NewError(store.CodeValidation, "decision reasoning is required")
	}

	record, err := s.client.GetRecordFresh(ctx, requestID)
	if err != nil {
		return err
	}
	request, ok := parse.SpendingRequest(record)
	if !ok {
		return store.Errorf(store.CodeNotFound, "record %s is not a valid spending request", requestID)
	}
	if request.Status != domain.StatusPending {
		return store.Errorf(store.CodeConflict, "request %s is already %s", requestID, request.Status).
			WithDetail("status", string(request.Status))
	}

	properties := map[string]codec.Property{
		parse.PropStatus:      codec.NewSelect(string(decision)),
		parse.PropReasoning:   codec.NewRichText(reasoning),
		parse.PropDecidedDate: codec.NewDate(s.now(), true),
	}

	if _, err := s.client.UpdateRecord(ctx, requestID, properties); err != nil {
		return err
	}

	s.logger.Info("decision recorded",
		zap.String("request_id", requestID),
		zap.String("decision", string(decision)),
	)
	return nil
}

// GetActiveGoals returns active financial goals, or empty when no goal
// collection is configured.
func (s *Service) GetActiveGoals(ctx context.Context) ([]domain.FinancialGoal, error) {
	if s.collections.Goals == "" {
		return nil, nil
	}
	filter := store.SelectEquals(parse.PropStatus, string(domain.GoalStatusActive))
	records, err := s.client.QueryRecords(ctx, s.collections.Goals, filter, nil)
	if err != nil {
		return nil, err
	}
	return parse.Goals(records), nil
}

// GetAllDebts returns all debts, or empty when no debt collection is
// configured.
func (s *Service) GetAllDebts(ctx context.Context) ([]domain.DebtInfo, error) {
	if s.collections.Debts == "" {
		return nil, nil
	}
	records, err := s.client.QueryRecords(ctx, s.collections.Debts, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse.Debts(records), nil
}

// GetAccountBalances returns all account balances, or empty when no
// account collection is configured.
func (s *Service) GetAccountBalances(ctx context.Context) ([]domain.AccountBalance, error) {
	if s.collections.Accounts == "" {
		return nil, nil
	}
	records, err := s.client.QueryRecords(ctx, s.collections.Accounts, nil, nil)
	if err != nil {
		return nil, err
	}
	return parse.Accounts(records), nil
}

// degradeRequests wraps a request fetch so a failing data source yields
// an empty slice instead of aborting the caller. The failure is logged,
// never re-thrown.
func (s *Service) degradeRequests(fetch func() ([]domain.SpendingRequest, error), what string) []domain.SpendingRequest {
	out, err := fetch()
	if err != nil {
		s.logger.Warn("fetch degraded to empty result",
			zap.String("what", what),
			zap.String("code", string(store.Classify(err))),
			zap.Error(err),
		)
		return nil
	}
	return out
}

func (s *Service) degradeGoals(ctx context.Context) []domain.FinancialGoal {
	goals, err := s.GetActiveGoals(ctx)
	if err != nil {
		s.logger.Warn("goal fetch degraded to empty result", zap.Error(err))
		return nil
	}
	return goals
}

func (s *Service) degradeDebts(ctx context.Context) []domain.DebtInfo {
	debts, err := s.GetAllDebts(ctx)
	if err != nil {
		s.logger.Warn("debt fetch degraded to empty result", zap.Error(err))
		return nil
	}
	return debts
}

func (s *Service) degradeAccounts(ctx context.Context) []domain.AccountBalance {
	accounts, err := s.GetAccountBalances(ctx)
	if err != nil {
		s.logger.Warn("account fetch degraded to empty result", zap.Error(err))
		return nil
	}
	return accounts
}
