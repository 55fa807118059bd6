package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation outcomes used as label values.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Account metrics
	AccountsOpened       *prometheus.CounterVec
	AccountStatusChanges *prometheus.CounterVec
	AccountOperations    *prometheus.CounterVec
	OperationAmount      *prometheus.HistogramVec

	// Transfer metrics
	TransferDuration        prometheus.Histogram
	TransferInconsistencies prometheus.Counter

	// Scheduling metrics
	RecurringPaymentsScheduled prometheus.Counter
	RecurringPaymentsCancelled prometheus.Counter
	RecurringPaymentsExecuted  prometheus.Counter
	ScheduledTransfersCreated  prometheus.Counter
	ScheduledTransfersExecuted prometheus.Counter

	// Interest metrics
	InterestTicks        prometheus.Counter
	InterestCredited     prometheus.Counter
	InterestFailures     prometheus.Counter
	InterestTickDuration prometheus.Histogram

	// Redis metrics
	RedisOperations *prometheus.CounterVec
	RedisErrors     *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Account metrics
		AccountsOpened: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_accounts_opened_total",
				Help: "Total number of accounts opened",
			},
			[]string{"kind", "category"},
		),
		AccountStatusChanges: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_account_status_changes_total",
				Help: "Total account freeze and unfreeze actions",
			},
			[]string{"status"},
		),
		AccountOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_account_operations_total",
				Help: "Total account operations by type and outcome",
			},
			[]string{"operation", "outcome"},
		),
		OperationAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bankledger_operation_amount",
				Help:    "Amounts of successful balance operations",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
			},
			[]string{"operation"},
		),

		// Transfer metrics
		TransferDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bankledger_transfer_duration_seconds",
			Help:    "Duration of transfer operations",
			Buckets: prometheus.DefBuckets,
		}),
		TransferInconsistencies: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_transfer_inconsistencies_total",
			Help: "Transfers whose refund to the source account failed",
		}),

		// Scheduling metrics
		RecurringPaymentsScheduled: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_recurring_payments_scheduled_total",
			Help: "Total recurring payments scheduled",
		}),
		RecurringPaymentsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_recurring_payments_cancelled_total",
			Help: "Total recurring payments cancelled",
		}),
		RecurringPaymentsExecuted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_recurring_payments_executed_total",
			Help: "Total recurring payment executions",
		}),
		ScheduledTransfersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_scheduled_transfers_created_total",
			Help: "Total scheduled transfers created",
		}),
		ScheduledTransfersExecuted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_scheduled_transfers_executed_total",
			Help: "Total scheduled transfers executed",
		}),

		// Interest metrics
		InterestTicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_interest_ticks_total",
			Help: "Total interest accrual ticks",
		}),
		InterestCredited: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_interest_credited_total",
			Help: "Sum of interest credited to savings accounts",
		}),
		InterestFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_interest_failures_total",
			Help: "Interest deposits rejected by account limits",
		}),
		InterestTickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bankledger_interest_tick_duration_seconds",
			Help:    "Duration of interest accrual ticks",
			Buckets: prometheus.DefBuckets,
		}),

		// Redis metrics
		RedisOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation"},
		),
		RedisErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_redis_errors_total",
				Help: "Total Redis errors",
			},
			[]string{"operation"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_rate_limit_hits_total",
			Help: "Total requests rejected by the rate limiter",
		}),
	}
}
