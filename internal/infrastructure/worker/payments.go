package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/bankledger/internal/infrastructure/clock"
	"github.com/iho/bankledger/internal/usecase"
)

// PaymentProcessor runs recurring payments and scheduled transfers.
type PaymentProcessor interface {
	ProcessAll(ctx context.Context) (usecase.ProcessResult, error)
	ProcessScheduledTransfers(ctx context.Context) (int, error)
}

// PaymentRunnerConfig configures a PaymentRunner.
type PaymentRunnerConfig struct {
	Processor PaymentProcessor
	Clock     Clock
	Logger    zerolog.Logger
	Interval  time.Duration
}

// PaymentRunner periodically processes due payments of all active accounts.
type PaymentRunner struct {
	processor PaymentProcessor
	clock     Clock
	logger    zerolog.Logger
	interval  time.Duration

	mu      sync.Mutex
	running bool
}

// NewPaymentRunner creates a new PaymentRunner.
func NewPaymentRunner(cfg PaymentRunnerConfig) *PaymentRunner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	return &PaymentRunner{
		processor: cfg.Processor,
		clock:     cfg.Clock,
		logger:    cfg.Logger.With().Str("job", "payments").Logger(),
		interval:  cfg.Interval,
	}
}

// Start processes immediately, then once per interval until ctx is cancelled.
func (r *PaymentRunner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrJobRunning
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	r.logger.Info().Dur("interval", r.interval).Msg("payment runner started")

	for {
		if err := ctx.Err(); err != nil {
			r.logger.Info().Msg("payment runner shutting down")
			return err
		}

		r.RunOnce(ctx)

		select {
		case <-ctx.Done():
			r.logger.Info().Msg("payment runner shutting down")
			return ctx.Err()
		case <-r.clock.After(r.interval):
		}
	}
}

// RunOnce performs one pass over recurring payments and scheduled transfers.
// Errors are logged; the second step runs even if the first fails.
func (r *PaymentRunner) RunOnce(ctx context.Context) (usecase.ProcessResult, int) {
	result, err := r.processor.ProcessAll(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("recurring payment pass failed")
	}

	transfers, err := r.processor.ProcessScheduledTransfers(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("scheduled transfer pass failed")
	}

	r.logger.Debug().
		Int("accounts", result.AccountsProcessed).
		Int("payments", result.PaymentsExecuted).
		Int("transfers", transfers).
		Msg("payment pass completed")

	return result, transfers
}
