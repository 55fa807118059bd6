package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	registry AccountRegistry
	idGen    IDGenerator
	clock    domain.Clock
	loc      *time.Location
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase. loc is the reference zone
// for due dates of the accounts it opens.
func NewAccountUseCase(
	registry AccountRegistry,
	idGen IDGenerator,
	clock domain.Clock,
	loc *time.Location,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		registry: registry,
		idGen:    idGen,
		clock:    clock,
		loc:      loc,
		logger:   logger,
		metrics:  metrics,
	}
}

// AccountDetails is an account snapshot together with its registry status.
type AccountDetails struct {
	domain.AccountSnapshot
	Active bool
}

// OpenAccountInput represents input for opening an account.
type OpenAccountInput struct {
	MaxWithdrawalLimit *decimal.Decimal
	MaxDepositLimit    *decimal.Decimal
	Kind               domain.AccountKind
	Category           domain.Category
	InitialBalance     decimal.Decimal
}

// OpenAccount creates and registers a new active account.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (AccountDetails, error) {
	account, err := domain.NewAccount(domain.NewAccountParams{
		ID:                 uc.idGen.Generate(),
		NewID:              uc.idGen.Generate,
		Clock:              uc.clock,
		Location:           uc.loc,
		Kind:               input.Kind,
		Category:           input.Category,
		InitialBalance:     input.InitialBalance,
		MaxWithdrawalLimit: input.MaxWithdrawalLimit,
		MaxDepositLimit:    input.MaxDepositLimit,
	})
	if err != nil {
		return AccountDetails{}, err
	}

	if err := uc.registry.Register(ctx, account); err != nil {
		return AccountDetails{}, err
	}

	if uc.metrics != nil {
		uc.metrics.AccountsOpened.WithLabelValues(string(account.Kind()), string(account.Category())).Inc()
	}

	uc.logger.Info().
		Str("account_id", account.ID()).
		Str("kind", string(account.Kind())).
		Str("category", string(account.Category())).
		Msg("account opened")

	return AccountDetails{AccountSnapshot: account.Snapshot(), Active: true}, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (AccountDetails, error) {
	account, err := uc.registry.Lookup(ctx, id)
	if err != nil {
		return AccountDetails{}, err
	}

	return uc.details(ctx, account)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts ordered by ID with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]AccountDetails, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	accounts, err := uc.registry.AllAccounts(ctx)
	if err != nil {
		return nil, err
	}

	if offset >= len(accounts) {
		return []AccountDetails{}, nil
	}
	accounts = accounts[offset:min(offset+limit, len(accounts))]

	out := make([]AccountDetails, 0, len(accounts))
	for _, account := range accounts {
		d, err := uc.details(ctx, account)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}

	return out, nil
}

// Counts returns registry totals.
func (uc *AccountUseCase) Counts(ctx context.Context) (RegistryCounts, error) {
	return uc.registry.Counts(ctx)
}

// Freeze marks an account inactive. Frozen accounts reject balance operations
// and are skipped by the background jobs.
func (uc *AccountUseCase) Freeze(ctx context.Context, id string) error {
	return uc.setActive(ctx, id, false)
}

// Unfreeze reactivates an account.
func (uc *AccountUseCase) Unfreeze(ctx context.Context, id string) error {
	return uc.setActive(ctx, id, true)
}

func (uc *AccountUseCase) setActive(ctx context.Context, id string, active bool) error {
	if err := uc.registry.SetActive(ctx, id, active); err != nil {
		return err
	}

	status := "frozen"
	if active {
		status = "active"
	}

	if uc.metrics != nil {
		uc.metrics.AccountStatusChanges.WithLabelValues(status).Inc()
	}

	uc.logger.Info().Str("account_id", id).Str("status", status).Msg("account status changed")

	return nil
}

// UpdateLimitsInput carries the limits to change. Nil leaves a limit as is.
type UpdateLimitsInput struct {
	MaxWithdrawalLimit *decimal.Decimal
	MaxDepositLimit    *decimal.Decimal
}

// UpdateLimits replaces the requested limits. Both are validated before either is applied.
func (uc *AccountUseCase) UpdateLimits(ctx context.Context, id string, input UpdateLimitsInput) (AccountDetails, error) {
	for _, limit := range []*decimal.Decimal{input.MaxWithdrawalLimit, input.MaxDepositLimit} {
		if limit != nil && limit.IsNegative() {
			return AccountDetails{}, domain.ErrInvalidLimit
		}
	}

	account, err := uc.registry.Lookup(ctx, id)
	if err != nil {
		return AccountDetails{}, err
	}

	if input.MaxWithdrawalLimit != nil {
		if err := account.SetMaxWithdrawalLimit(*input.MaxWithdrawalLimit); err != nil {
			return AccountDetails{}, err
		}
		uc.recordLimitChange()
	}

	if input.MaxDepositLimit != nil {
		if err := account.SetMaxDepositLimit(*input.MaxDepositLimit); err != nil {
			return AccountDetails{}, err
		}
		uc.recordLimitChange()
	}

	return uc.details(ctx, account)
}

func (uc *AccountUseCase) recordLimitChange() {
	if uc.metrics != nil {
		uc.metrics.AccountOperations.WithLabelValues(opLimitChange, metrics.OutcomeSuccess).Inc()
	}
}

// History returns the account journal, optionally filtered by type.
func (uc *AccountUseCase) History(ctx context.Context, id string, filter ...domain.TransactionType) ([]domain.Transaction, error) {
	account, err := uc.registry.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	return account.TransactionHistory(filter...), nil
}

// ClearHistory drops the account journal, leaving a single ADMIN entry.
func (uc *AccountUseCase) ClearHistory(ctx context.Context, id string) error {
	account, err := uc.registry.Lookup(ctx, id)
	if err != nil {
		return err
	}

	account.ClearTransactionHistory()

	uc.logger.Warn().Str("account_id", id).Msg("transaction history cleared")

	return nil
}

func (uc *AccountUseCase) details(ctx context.Context, account *domain.Account) (AccountDetails, error) {
	active, err := uc.registry.IsActive(ctx, account.ID())
	if err != nil {
		return AccountDetails{}, err
	}

	return AccountDetails{AccountSnapshot: account.Snapshot(), Active: active}, nil
}
