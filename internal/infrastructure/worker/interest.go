package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/clock"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
	"github.com/iho/bankledger/internal/usecase"
)

// ErrJobRunning is returned by Start when the job loop is already running.
var ErrJobRunning = errors.New("job already running")

// Clock is the time source of the background jobs.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// InterestConfig configures an InterestJob.
type InterestConfig struct {
	Accounts usecase.AccountReader
	Clock    Clock
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
	Rate     decimal.Decimal // fraction of the balance credited per tick
	Interval time.Duration
}

// TickResult summarizes one interest tick.
type TickResult struct {
	StartedAt time.Time
	Credited  decimal.Decimal
	Accounts  int
	Skipped   int
	Failed    int
}

// InterestJob periodically credits interest to every active savings account.
type InterestJob struct {
	accounts usecase.AccountReader
	clock    Clock
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	rate     decimal.Decimal
	interval time.Duration

	tickMu  sync.Mutex
	startMu sync.Mutex
	running bool
}

// NewInterestJob creates a new InterestJob.
func NewInterestJob(cfg InterestConfig) *InterestJob {
	if cfg.Interval <= 0 {
		cfg.Interval = 24 * time.Hour
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}

	return &InterestJob{
		accounts: cfg.Accounts,
		clock:    cfg.Clock,
		logger:   cfg.Logger.With().Str("job", "interest").Logger(),
		metrics:  cfg.Metrics,
		rate:     cfg.Rate,
		interval: cfg.Interval,
	}
}

// Start runs a tick immediately, then one tick per interval until ctx is cancelled.
func (j *InterestJob) Start(ctx context.Context) error {
	j.startMu.Lock()
	if j.running {
		j.startMu.Unlock()
		return ErrJobRunning
	}
	j.running = true
	j.startMu.Unlock()

	defer func() {
		j.startMu.Lock()
		j.running = false
		j.startMu.Unlock()
	}()

	j.logger.Info().
		Str("rate", j.rate.String()).
		Dur("interval", j.interval).
		Msg("interest job started")

	for {
		if err := ctx.Err(); err != nil {
			j.logger.Info().Msg("interest job shutting down")
			return err
		}

		if _, err := j.Tick(ctx); err != nil && !errors.Is(err, context.Canceled) {
			j.logger.Error().Err(err).Msg("interest tick failed")
		}

		select {
		case <-ctx.Done():
			j.logger.Info().Msg("interest job shutting down")
			return ctx.Err()
		case <-j.clock.After(j.interval):
		}
	}
}

// Tick credits interest once to every active SAVINGS account. Concurrent calls
// are serialized. A rejected deposit is logged and counted but does not stop
// the tick.
func (j *InterestJob) Tick(ctx context.Context) (TickResult, error) {
	j.tickMu.Lock()
	defer j.tickMu.Unlock()

	result := TickResult{StartedAt: j.clock.Now(), Credited: decimal.Zero}
	start := time.Now()

	accounts, err := j.accounts.AllAccounts(ctx)
	if err != nil {
		return result, err
	}

	for _, account := range accounts {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if account.Category() != domain.CategorySavings {
			continue
		}

		active, err := j.accounts.IsActive(ctx, account.ID())
		if err != nil || !active {
			result.Skipped++
			continue
		}

		interest, err := account.AccrueInterest(j.rate)
		if err != nil {
			result.Failed++
			j.logger.Warn().Err(err).Str("account_id", account.ID()).Msg("interest deposit rejected")
			continue
		}

		result.Accounts++
		result.Credited = result.Credited.Add(interest)
	}

	if j.metrics != nil {
		j.metrics.InterestTicks.Inc()
		j.metrics.InterestCredited.Add(result.Credited.InexactFloat64())
		j.metrics.InterestFailures.Add(float64(result.Failed))
		j.metrics.InterestTickDuration.Observe(time.Since(start).Seconds())
	}

	j.logger.Info().
		Int("accounts", result.Accounts).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Str("credited", result.Credited.StringFixed(2)).
		Msg("interest tick completed")

	return result, nil
}
