package usecase

import (
	"context"
	"time"

	"github.com/iho/bankledger/internal/domain"
)

// AccountReader is the read side of the account registry used by background jobs.
type AccountReader interface {
	// Lookup returns the account or domain.ErrAccountNotFound.
	Lookup(ctx context.Context, id string) (*domain.Account, error)
	// IsActive reports whether the account is not frozen.
	IsActive(ctx context.Context, id string) (bool, error)
	// AllAccounts returns every registered account ordered by ID.
	AllAccounts(ctx context.Context) ([]*domain.Account, error)
}

// AccountRegistry stores accounts together with their active/frozen status.
type AccountRegistry interface {
	AccountReader

	Register(ctx context.Context, account *domain.Account) error
	SetActive(ctx context.Context, id string, active bool) error
	Counts(ctx context.Context) (RegistryCounts, error)
}

// RegistryCounts summarizes the registry.
type RegistryCounts struct {
	Total  int
	Active int
	Frozen int
}

// ScheduledTransferStore keeps one-shot scheduled transfers. Implementations
// return copies; callers persist changes with Update.
type ScheduledTransferStore interface {
	Create(ctx context.Context, transfer domain.ScheduledTransfer) error
	Update(ctx context.Context, transfer domain.ScheduledTransfer) error
	GetByID(ctx context.Context, id string) (domain.ScheduledTransfer, error)
	// List returns transfers ordered by execution day, then ID.
	List(ctx context.Context) ([]domain.ScheduledTransfer, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release removes a key so the request can be retried.
	Release(ctx context.Context, key string) error
}
