package usecase

import "time"

const (
	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// operation label values
	opDeposit     = "deposit"
	opWithdraw    = "withdraw"
	opTransfer    = "transfer"
	opLimitChange = "limit_change"
)
