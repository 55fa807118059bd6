package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
)

// LedgerUseCase handles balance operations and ledger-wide checks.
type LedgerUseCase struct {
	registry AccountRegistry
	clock    domain.Clock
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(registry AccountRegistry, clock domain.Clock, logger zerolog.Logger, metrics *metrics.Metrics) *LedgerUseCase {
	return &LedgerUseCase{
		registry: registry,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// DepositInput represents input for a deposit.
type DepositInput struct {
	AccountID string
	Amount    decimal.Decimal
}

// Deposit credits an active account and returns the new balance.
func (uc *LedgerUseCase) Deposit(ctx context.Context, input DepositInput) (decimal.Decimal, error) {
	account, err := uc.activeAccount(ctx, input.AccountID)
	if err != nil {
		return decimal.Zero, err
	}

	if err := account.Deposit(input.Amount); err != nil {
		uc.record(opDeposit, metrics.OutcomeRejected, input.Amount)
		return decimal.Zero, err
	}

	uc.record(opDeposit, metrics.OutcomeSuccess, input.Amount)

	return account.Balance(), nil
}

// WithdrawInput represents input for a withdrawal.
type WithdrawInput struct {
	AccountID string
	Amount    decimal.Decimal
}

// WithdrawResult reports whether the balance covered the withdrawal.
type WithdrawResult struct {
	Balance decimal.Decimal
	Success bool
}

// Withdraw debits an active account. Insufficient funds is reported through
// Success, not as an error.
func (uc *LedgerUseCase) Withdraw(ctx context.Context, input WithdrawInput) (WithdrawResult, error) {
	account, err := uc.activeAccount(ctx, input.AccountID)
	if err != nil {
		return WithdrawResult{}, err
	}

	ok, err := account.Withdraw(input.Amount)
	if err != nil {
		uc.record(opWithdraw, metrics.OutcomeRejected, input.Amount)
		return WithdrawResult{}, err
	}

	if ok {
		uc.record(opWithdraw, metrics.OutcomeSuccess, input.Amount)
	} else {
		uc.record(opWithdraw, metrics.OutcomeFailed, input.Amount)
	}

	return WithdrawResult{Success: ok, Balance: account.Balance()}, nil
}

// TransferInput represents input for a transfer.
type TransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
}

// Transfer moves funds between two active accounts.
func (uc *LedgerUseCase) Transfer(ctx context.Context, input TransferInput) (bool, error) {
	if input.FromAccountID == input.ToAccountID {
		return false, domain.ErrSameAccount
	}

	from, err := uc.activeAccount(ctx, input.FromAccountID)
	if err != nil {
		return false, err
	}

	to, err := uc.activeAccount(ctx, input.ToAccountID)
	if err != nil {
		return false, err
	}

	start := time.Now()
	ok, err := from.Transfer(to, input.Amount)
	if uc.metrics != nil {
		uc.metrics.TransferDuration.Observe(time.Since(start).Seconds())
	}

	switch {
	case errors.Is(err, domain.ErrTransferInconsistency):
		uc.logger.Error().
			Err(err).
			Str("from_account_id", from.ID()).
			Str("to_account_id", to.ID()).
			Str("amount", input.Amount.String()).
			Msg("transfer left ledger inconsistent")
		if uc.metrics != nil {
			uc.metrics.TransferInconsistencies.Inc()
		}
		uc.record(opTransfer, metrics.OutcomeFailed, input.Amount)
		return false, err
	case err != nil:
		uc.record(opTransfer, metrics.OutcomeRejected, input.Amount)
		return false, err
	case !ok:
		uc.record(opTransfer, metrics.OutcomeFailed, input.Amount)
		return false, nil
	}

	uc.record(opTransfer, metrics.OutcomeSuccess, input.Amount)

	return true, nil
}

// ConsistencyIssue describes one journal entry that does not follow from its predecessor.
type ConsistencyIssue struct {
	AccountID string
	Reason    string
	Sequence  int64
	Expected  decimal.Decimal
	Actual    decimal.Decimal
}

// ConsistencyReport is the result of replaying every account journal.
type ConsistencyReport struct {
	CheckedAt       time.Time
	Issues          []ConsistencyIssue
	TotalBalance    decimal.Decimal
	AccountsChecked int
	EntriesChecked  int
	Consistent      bool
}

// CheckConsistency replays each journal: every entry's balance must equal the
// previous balance plus its delta, and the last entry must match the live
// balance. Journals may have been cleared, so replay starts from the balance
// implied by the first remaining entry.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	accounts, err := uc.registry.AllAccounts(ctx)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{
		CheckedAt:    uc.clock.Now(),
		TotalBalance: decimal.Zero,
	}

	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		balance, history := account.Statement()

		report.AccountsChecked++
		report.EntriesChecked += len(history)
		report.TotalBalance = report.TotalBalance.Add(balance)
		report.Issues = append(report.Issues, replayJournal(account.ID(), history, balance)...)
	}

	report.Consistent = len(report.Issues) == 0

	if !report.Consistent {
		uc.logger.Error().
			Int("issues", len(report.Issues)).
			Int("accounts", report.AccountsChecked).
			Msg("ledger consistency check failed")
	}

	return report, nil
}

func replayJournal(accountID string, history []domain.Transaction, balance decimal.Decimal) []ConsistencyIssue {
	if len(history) == 0 {
		return nil
	}

	var issues []ConsistencyIssue

	running := history[0].BalanceAfter.Sub(history[0].Delta)
	if running.IsNegative() {
		issues = append(issues, ConsistencyIssue{
			AccountID: accountID,
			Sequence:  history[0].Sequence,
			Expected:  decimal.Zero,
			Actual:    running,
			Reason:    "opening balance is negative",
		})
	}

	for _, tx := range history {
		expected := running.Add(tx.Delta)
		if !expected.Equal(tx.BalanceAfter) {
			issues = append(issues, ConsistencyIssue{
				AccountID: accountID,
				Sequence:  tx.Sequence,
				Expected:  expected,
				Actual:    tx.BalanceAfter,
				Reason:    fmt.Sprintf("%s entry does not follow from previous balance", tx.Type),
			})
		}
		if tx.BalanceAfter.IsNegative() {
			issues = append(issues, ConsistencyIssue{
				AccountID: accountID,
				Sequence:  tx.Sequence,
				Expected:  decimal.Zero,
				Actual:    tx.BalanceAfter,
				Reason:    "negative balance",
			})
		}
		running = tx.BalanceAfter
	}

	if last := history[len(history)-1]; !last.BalanceAfter.Equal(balance) {
		issues = append(issues, ConsistencyIssue{
			AccountID: accountID,
			Sequence:  last.Sequence,
			Expected:  balance,
			Actual:    last.BalanceAfter,
			Reason:    "journal does not end at the account balance",
		})
	}

	return issues
}

func (uc *LedgerUseCase) activeAccount(ctx context.Context, id string) (*domain.Account, error) {
	return activeAccount(ctx, uc.registry, id)
}

func (uc *LedgerUseCase) record(operation, outcome string, amount decimal.Decimal) {
	if uc.metrics == nil {
		return
	}

	uc.metrics.AccountOperations.WithLabelValues(operation, outcome).Inc()
	if outcome == metrics.OutcomeSuccess {
		uc.metrics.OperationAmount.WithLabelValues(operation).Observe(amount.InexactFloat64())
	}
}

// activeAccount looks up an account and rejects frozen ones.
func activeAccount(ctx context.Context, registry AccountReader, id string) (*domain.Account, error) {
	account, err := registry.Lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	active, err := registry.IsActive(ctx, id)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountFrozen, id)
	}

	return account, nil
}
