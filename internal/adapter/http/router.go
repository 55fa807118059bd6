package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/bankledger/internal/adapter/http/handler"
	"github.com/iho/bankledger/internal/adapter/http/middleware"
	"github.com/iho/bankledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	AccountHandler   *handler.AccountHandler
	LedgerHandler    *handler.LedgerHandler
	PaymentHandler   *handler.PaymentHandler
	HealthHandler    *handler.HealthHandler
	MetricsHandler   http.Handler
	IdempotencyStore usecase.IdempotencyStore
	RateLimiter      *middleware.RateLimiter
	Logger           zerolog.Logger
	IdempotencyTTL   time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			idempotency := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotency.Wrap)
		}

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", cfg.AccountHandler.Get)
				r.Post("/freeze", cfg.AccountHandler.Freeze)
				r.Post("/unfreeze", cfg.AccountHandler.Unfreeze)
				r.Put("/limits", cfg.AccountHandler.UpdateLimits)
				r.Get("/transactions", cfg.AccountHandler.History)
				r.Delete("/transactions", cfg.AccountHandler.ClearHistory)

				r.Post("/deposit", cfg.LedgerHandler.Deposit)
				r.Post("/withdraw", cfg.LedgerHandler.Withdraw)

				r.Route("/recurring-payments", func(r chi.Router) {
					r.Post("/", cfg.PaymentHandler.Schedule)
					r.Get("/", cfg.PaymentHandler.List)
					r.Post("/process", cfg.PaymentHandler.Process)
					r.Delete("/{paymentID}", cfg.PaymentHandler.Cancel)
				})
			})
		})

		r.Post("/transfers", cfg.LedgerHandler.Transfer)

		r.Route("/scheduled-transfers", func(r chi.Router) {
			r.Post("/", cfg.PaymentHandler.ScheduleTransfer)
			r.Get("/", cfg.PaymentHandler.ListScheduledTransfers)
			r.Post("/process", cfg.PaymentHandler.ProcessScheduledTransfers)
			r.Get("/{id}", cfg.PaymentHandler.GetScheduledTransfer)
		})

		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
	})

	return r
}
