package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
)

// PaymentUseCase handles recurring payments and scheduled transfers.
type PaymentUseCase struct {
	registry  AccountRegistry
	transfers ScheduledTransferStore
	idGen     IDGenerator
	clock     domain.Clock
	loc       *time.Location
	logger    zerolog.Logger
	metrics   *metrics.Metrics

	// serializes scheduled transfer passes so a transfer runs at most once
	transferMu sync.Mutex
}

// NewPaymentUseCase creates a new PaymentUseCase.
func NewPaymentUseCase(
	registry AccountRegistry,
	transfers ScheduledTransferStore,
	idGen IDGenerator,
	clock domain.Clock,
	loc *time.Location,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *PaymentUseCase {
	if loc == nil {
		loc = time.UTC
	}

	return &PaymentUseCase{
		registry:  registry,
		transfers: transfers,
		idGen:     idGen,
		clock:     clock,
		loc:       loc,
		logger:    logger,
		metrics:   metrics,
	}
}

// SchedulePaymentInput represents input for scheduling a recurring payment.
type SchedulePaymentInput struct {
	StartDate   time.Time
	AccountID   string
	Description string
	RecipientID string
	Frequency   domain.Frequency
	Amount      decimal.Decimal
}

// SchedulePayment attaches a recurring payment to an active account.
func (uc *PaymentUseCase) SchedulePayment(ctx context.Context, input SchedulePaymentInput) (domain.RecurringPayment, error) {
	account, err := activeAccount(ctx, uc.registry, input.AccountID)
	if err != nil {
		return domain.RecurringPayment{}, err
	}

	payment, err := account.ScheduleRecurringPayment(domain.ScheduleInput{
		Amount:      input.Amount,
		Description: input.Description,
		RecipientID: input.RecipientID,
		Frequency:   input.Frequency,
		StartDate:   input.StartDate,
	})
	if err != nil {
		return domain.RecurringPayment{}, err
	}

	if uc.metrics != nil {
		uc.metrics.RecurringPaymentsScheduled.Inc()
	}

	uc.logger.Info().
		Str("account_id", account.ID()).
		Str("payment_id", payment.ID).
		Str("frequency", string(payment.Frequency)).
		Time("next_due", payment.NextDueDate).
		Msg("recurring payment scheduled")

	return payment, nil
}

// CancelPayment deactivates a recurring payment. Cancelling is allowed on frozen accounts.
func (uc *PaymentUseCase) CancelPayment(ctx context.Context, accountID, paymentID string) error {
	account, err := uc.registry.Lookup(ctx, accountID)
	if err != nil {
		return err
	}

	if err := account.CancelRecurringPayment(paymentID); err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.RecurringPaymentsCancelled.Inc()
	}

	uc.logger.Info().Str("account_id", accountID).Str("payment_id", paymentID).Msg("recurring payment cancelled")

	return nil
}

// ListPayments returns every recurring payment of the account, cancelled ones included.
func (uc *PaymentUseCase) ListPayments(ctx context.Context, accountID string) ([]domain.RecurringPayment, error) {
	account, err := uc.registry.Lookup(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return account.RecurringPayments(), nil
}

// ProcessAccount runs the due recurring payments of one active account.
func (uc *PaymentUseCase) ProcessAccount(ctx context.Context, accountID string) (int, error) {
	account, err := activeAccount(ctx, uc.registry, accountID)
	if err != nil {
		return 0, err
	}

	executed := account.ProcessDueRecurringPayments(uc.clock.Now())
	uc.recordExecuted(executed)

	return executed, nil
}

// ProcessResult summarizes a processing pass over all accounts.
type ProcessResult struct {
	AccountsProcessed int
	PaymentsExecuted  int
}

// ProcessAll runs due recurring payments on every active account against a
// single now snapshot. Frozen accounts are skipped.
func (uc *PaymentUseCase) ProcessAll(ctx context.Context) (ProcessResult, error) {
	accounts, err := uc.registry.AllAccounts(ctx)
	if err != nil {
		return ProcessResult{}, err
	}

	now := uc.clock.Now()
	var result ProcessResult

	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		active, err := uc.registry.IsActive(ctx, account.ID())
		if err != nil {
			if errors.Is(err, domain.ErrAccountNotFound) {
				continue
			}
			return result, err
		}
		if !active {
			continue
		}

		result.AccountsProcessed++
		result.PaymentsExecuted += account.ProcessDueRecurringPayments(now)
	}

	uc.recordExecuted(result.PaymentsExecuted)

	if result.PaymentsExecuted > 0 {
		uc.logger.Info().
			Int("accounts", result.AccountsProcessed).
			Int("executed", result.PaymentsExecuted).
			Msg("recurring payments processed")
	}

	return result, nil
}

func (uc *PaymentUseCase) recordExecuted(n int) {
	if uc.metrics != nil && n > 0 {
		uc.metrics.RecurringPaymentsExecuted.Add(float64(n))
	}
}

// ScheduleTransferInput represents input for a one-shot scheduled transfer.
type ScheduleTransferInput struct {
	ExecuteOn     time.Time
	FromAccountID string
	ToAccountID   string
	Description   string
	Amount        decimal.Decimal
}

// ScheduleTransfer registers a transfer to run on or after ExecuteOn's calendar day.
func (uc *PaymentUseCase) ScheduleTransfer(ctx context.Context, input ScheduleTransferInput) (domain.ScheduledTransfer, error) {
	transfer, err := domain.NewScheduledTransfer(domain.NewScheduledTransferParams{
		ID:            uc.idGen.Generate(),
		SourceID:      input.FromAccountID,
		DestinationID: input.ToAccountID,
		Amount:        input.Amount,
		Description:   input.Description,
		ExecuteOn:     input.ExecuteOn,
		CreatedAt:     uc.clock.Now(),
		Location:      uc.loc,
	})
	if err != nil {
		return domain.ScheduledTransfer{}, err
	}

	source, err := activeAccount(ctx, uc.registry, transfer.SourceID)
	if err != nil {
		return domain.ScheduledTransfer{}, err
	}
	if _, err := uc.registry.Lookup(ctx, transfer.DestinationID); err != nil {
		return domain.ScheduledTransfer{}, err
	}

	if limit := source.MaxWithdrawalLimit(); transfer.Amount.GreaterThan(limit) {
		return domain.ScheduledTransfer{}, fmt.Errorf("%w: scheduled amount %s above withdrawal limit %s",
			domain.ErrLimitExceeded, transfer.Amount.StringFixed(2), limit.StringFixed(2))
	}

	if err := uc.transfers.Create(ctx, *transfer); err != nil {
		return domain.ScheduledTransfer{}, err
	}

	if uc.metrics != nil {
		uc.metrics.ScheduledTransfersCreated.Inc()
	}

	uc.logger.Info().
		Str("transfer_id", transfer.ID).
		Str("from_account_id", transfer.SourceID).
		Str("to_account_id", transfer.DestinationID).
		Time("execute_on", transfer.ExecuteOn).
		Msg("transfer scheduled")

	return *transfer, nil
}

// ListScheduledTransfers returns all scheduled transfers, executed ones included.
func (uc *PaymentUseCase) ListScheduledTransfers(ctx context.Context) ([]domain.ScheduledTransfer, error) {
	return uc.transfers.List(ctx)
}

// GetScheduledTransfer returns one scheduled transfer.
func (uc *PaymentUseCase) GetScheduledTransfer(ctx context.Context, id string) (domain.ScheduledTransfer, error) {
	return uc.transfers.GetByID(ctx, id)
}

// ProcessScheduledTransfers executes every ready transfer whose accounts are
// both active and returns how many went through. Failed attempts stay pending.
func (uc *PaymentUseCase) ProcessScheduledTransfers(ctx context.Context) (int, error) {
	uc.transferMu.Lock()
	defer uc.transferMu.Unlock()

	transfers, err := uc.transfers.List(ctx)
	if err != nil {
		return 0, err
	}

	now := uc.clock.Now()
	executed := 0

	for _, st := range transfers {
		if err := ctx.Err(); err != nil {
			return executed, err
		}
		if !st.IsReady(now) {
			continue
		}

		source, err := activeAccount(ctx, uc.registry, st.SourceID)
		if err != nil {
			uc.logger.Warn().Err(err).Str("transfer_id", st.ID).Msg("scheduled transfer source unavailable")
			continue
		}
		destination, err := activeAccount(ctx, uc.registry, st.DestinationID)
		if err != nil {
			uc.logger.Warn().Err(err).Str("transfer_id", st.ID).Msg("scheduled transfer destination unavailable")
			continue
		}

		ok, execErr := st.Execute(source, destination, now)
		if err := uc.transfers.Update(ctx, st); err != nil {
			return executed, err
		}

		switch {
		case errors.Is(execErr, domain.ErrTransferInconsistency):
			uc.logger.Error().Err(execErr).Str("transfer_id", st.ID).Msg("scheduled transfer left ledger inconsistent")
			if uc.metrics != nil {
				uc.metrics.TransferInconsistencies.Inc()
			}
		case execErr != nil:
			uc.logger.Warn().Err(execErr).Str("transfer_id", st.ID).Int("attempts", st.Attempts).Msg("scheduled transfer rejected")
		case !ok:
			uc.logger.Warn().Str("transfer_id", st.ID).Int("attempts", st.Attempts).Msg("scheduled transfer not funded")
		default:
			executed++
		}
	}

	if uc.metrics != nil && executed > 0 {
		uc.metrics.ScheduledTransfersExecuted.Add(float64(executed))
	}

	return executed, nil
}
