package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/bankledger/internal/adapter/http"
	"github.com/iho/bankledger/internal/adapter/http/handler"
	"github.com/iho/bankledger/internal/adapter/http/middleware"
	"github.com/iho/bankledger/internal/adapter/repository/memory"
	redisRepo "github.com/iho/bankledger/internal/adapter/repository/redis"
	"github.com/iho/bankledger/internal/infrastructure/clock"
	"github.com/iho/bankledger/internal/infrastructure/config"
	"github.com/iho/bankledger/internal/infrastructure/logger"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
	"github.com/iho/bankledger/internal/infrastructure/redis"
	"github.com/iho/bankledger/internal/infrastructure/worker"
	"github.com/iho/bankledger/internal/usecase"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterIdleTimeout     = 10 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	app, err := newApp(ctx, cfg, appDeps{
		Logger:         log,
		Registerer:     prometheus.DefaultRegisterer,
		MetricsHandler: promhttp.Handler(),
		Clock:          clock.New(),
	})
	if err != nil {
		return err
	}
	defer app.Close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      app.Handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	bgCtx, cancelBackground := context.WithCancel(ctx)
	defer cancelBackground()
	background := app.StartBackground(bgCtx)

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	cancelBackground()
	background.Wait()

	log.Info().Msg("server stopped")
	return nil
}

// appDeps carries the process-wide dependencies that tests replace.
type appDeps struct {
	Logger         zerolog.Logger
	Registerer     prometheus.Registerer
	MetricsHandler http.Handler
	Clock          worker.Clock
}

type app struct {
	Handler  http.Handler
	Interest *worker.InterestJob
	Payments *worker.PaymentRunner
	Limiter  *middleware.RateLimiter

	clock       worker.Clock
	logger      zerolog.Logger
	redisClient *goredis.Client
}

func newApp(ctx context.Context, cfg *config.Config, deps appDeps) (*app, error) {
	log := deps.Logger
	clk := deps.Clock
	if clk == nil {
		clk = clock.New()
	}

	m := metrics.New(deps.Registerer)

	registry := memory.NewRegistry()
	transfers := memory.NewScheduledTransferStore()
	idGen := memory.NewULIDGenerator()

	accountUC := usecase.NewAccountUseCase(registry, idGen, clk, cfg.Location, log, m)
	ledgerUC := usecase.NewLedgerUseCase(registry, clk, log, m)
	paymentUC := usecase.NewPaymentUseCase(registry, transfers, idGen, clk, cfg.Location, log, m)

	var (
		redisClient      *goredis.Client
		idempotencyStore usecase.IdempotencyStore
	)
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, redis.Config{URL: cfg.RedisURL, Logger: log})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		log.Info().Msg("connected to redis")
		redisClient = client
		idempotencyStore = redisRepo.NewIdempotencyStore(client, m)
	} else {
		log.Warn().Msg("REDIS_URL not set, idempotency keys disabled")
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m.RateLimitHits)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:   handler.NewAccountHandler(accountUC),
		LedgerHandler:    handler.NewLedgerHandler(ledgerUC),
		PaymentHandler:   handler.NewPaymentHandler(paymentUC, cfg.Location),
		HealthHandler:    handler.NewHealthHandler(redisClient),
		MetricsHandler:   deps.MetricsHandler,
		IdempotencyStore: idempotencyStore,
		RateLimiter:      limiter,
		Logger:           log,
		IdempotencyTTL:   cfg.IdempotencyTTL,
	})

	return &app{
		Handler: router,
		Interest: worker.NewInterestJob(worker.InterestConfig{
			Accounts: registry,
			Clock:    clk,
			Logger:   log,
			Metrics:  m,
			Rate:     cfg.InterestRate,
			Interval: cfg.InterestInterval,
		}),
		Payments: worker.NewPaymentRunner(worker.PaymentRunnerConfig{
			Processor: paymentUC,
			Clock:     clk,
			Logger:    log,
			Interval:  cfg.PaymentInterval,
		}),
		Limiter:     limiter,
		clock:       clk,
		logger:      log,
		redisClient: redisClient,
	}, nil
}

// StartBackground runs the interest job, the payment runner and the rate
// limiter cleanup until ctx is cancelled.
func (a *app) StartBackground(ctx context.Context) *sync.WaitGroup {
	var wg sync.WaitGroup

	jobs := map[string]func(context.Context) error{
		"interest": a.Interest.Start,
		"payments": a.Payments.Start,
	}
	for name, start := range jobs {
		wg.Add(1)
		go func(name string, start func(context.Context) error) {
			defer wg.Done()
			if err := start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error().Err(err).Str("job", name).Msg("background job stopped")
			}
		}(name, start)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		cleanupLimiters(ctx, a.Limiter, a.clock, a.logger)
	}()

	return &wg
}

// Close releases external connections.
func (a *app) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}

func cleanupLimiters(ctx context.Context, limiter *middleware.RateLimiter, clk worker.Clock, log zerolog.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-clk.After(limiterCleanupInterval):
			if removed := limiter.CleanupLimiters(limiterIdleTimeout); removed > 0 {
				log.Debug().Int("removed", removed).Msg("cleaned up idle rate limiters")
			}
		}
	}
}
