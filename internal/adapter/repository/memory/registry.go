package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// ErrAccountExists is returned when registering an ID twice.
var ErrAccountExists = errors.New("account already registered")

type registryEntry struct {
	account *domain.Account
	active  bool
}

var _ usecase.AccountRegistry = (*Registry)(nil)

// Registry implements usecase.AccountRegistry in process memory. Its lock
// guards only the index; account state is protected by each account's own mutex.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*registryEntry)}
}

// Register adds an active account.
func (r *Registry) Register(ctx context.Context, account *domain.Account) error {
	if account == nil {
		return errors.New("account is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[account.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrAccountExists, account.ID())
	}

	r.entries[account.ID()] = &registryEntry{account: account, active: true}

	return nil
}

// Lookup returns the account with the given ID.
func (r *Registry) Lookup(ctx context.Context, id string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}

	return e.account, nil
}

// IsActive reports whether the account is not frozen.
func (r *Registry) IsActive(ctx context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}

	return e.active, nil
}

// SetActive freezes (false) or unfreezes (true) an account.
func (r *Registry) SetActive(ctx context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}

	e.active = active

	return nil
}

// AllAccounts returns every account ordered by ID.
func (r *Registry) AllAccounts(ctx context.Context) ([]*domain.Account, error) {
	r.mu.RLock()
	accounts := make([]*domain.Account, 0, len(r.entries))
	for _, e := range r.entries {
		accounts = append(accounts, e.account)
	}
	r.mu.RUnlock()

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].ID() < accounts[j].ID()
	})

	return accounts, nil
}

// Counts returns total, active and frozen account counts.
func (r *Registry) Counts(ctx context.Context) (usecase.RegistryCounts, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := usecase.RegistryCounts{Total: len(r.entries)}
	for _, e := range r.entries {
		if e.active {
			counts.Active++
		} else {
			counts.Frozen++
		}
	}

	return counts, nil
}
