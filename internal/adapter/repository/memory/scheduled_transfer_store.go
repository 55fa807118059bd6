package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

var _ usecase.ScheduledTransferStore = (*ScheduledTransferStore)(nil)

// ScheduledTransferStore implements usecase.ScheduledTransferStore in process memory.
type ScheduledTransferStore struct {
	mu        sync.RWMutex
	transfers map[string]domain.ScheduledTransfer
}

// NewScheduledTransferStore creates an empty store.
func NewScheduledTransferStore() *ScheduledTransferStore {
	return &ScheduledTransferStore{transfers: make(map[string]domain.ScheduledTransfer)}
}

// Create stores a new transfer.
func (s *ScheduledTransferStore) Create(ctx context.Context, transfer domain.ScheduledTransfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transfers[transfer.ID]; ok {
		return fmt.Errorf("scheduled transfer %s already exists", transfer.ID)
	}

	s.transfers[transfer.ID] = transfer

	return nil
}

// Update replaces a stored transfer.
func (s *ScheduledTransferStore) Update(ctx context.Context, transfer domain.ScheduledTransfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transfers[transfer.ID]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrScheduledTransferNotFound, transfer.ID)
	}

	s.transfers[transfer.ID] = transfer

	return nil
}

// GetByID returns a copy of the transfer.
func (s *ScheduledTransferStore) GetByID(ctx context.Context, id string) (domain.ScheduledTransfer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	transfer, ok := s.transfers[id]
	if !ok {
		return domain.ScheduledTransfer{}, fmt.Errorf("%w: %s", domain.ErrScheduledTransferNotFound, id)
	}

	return transfer, nil
}

// List returns copies ordered by execution day, then ID.
func (s *ScheduledTransferStore) List(ctx context.Context) ([]domain.ScheduledTransfer, error) {
	s.mu.RLock()
	out := make([]domain.ScheduledTransfer, 0, len(s.transfers))
	for _, transfer := range s.transfers {
		out = append(out, transfer)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ExecuteOn.Equal(out[j].ExecuteOn) {
			return out[i].ExecuteOn.Before(out[j].ExecuteOn)
		}
		return out[i].ID < out[j].ID
	})

	return out, nil
}
