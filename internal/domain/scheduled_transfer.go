package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ScheduledTransfer is a one-shot transfer that becomes executable on a calendar day.
type ScheduledTransfer struct {
	ExecuteOn     time.Time
	CreatedAt     time.Time
	ExecutedAt    time.Time
	ID            string
	SourceID      string
	DestinationID string
	Description   string
	Amount        decimal.Decimal
	Attempts      int
	Executed      bool
}

// NewScheduledTransferParams holds the inputs for NewScheduledTransfer.
type NewScheduledTransferParams struct {
	ExecuteOn     time.Time
	CreatedAt     time.Time
	Location      *time.Location
	ID            string
	SourceID      string
	DestinationID string
	Description   string
	Amount        decimal.Decimal
}

// NewScheduledTransfer validates params and normalizes the execution date to midnight.
func NewScheduledTransfer(p NewScheduledTransferParams) (*ScheduledTransfer, error) {
	if !p.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: scheduled amount %s must be positive", ErrInvalidAmount, p.Amount)
	}
	if p.SourceID == "" || p.DestinationID == "" {
		return nil, ErrNilDestination
	}
	if p.SourceID == p.DestinationID {
		return nil, ErrSameAccount
	}
	if p.ExecuteOn.IsZero() {
		return nil, ErrInvalidStartDate
	}

	desc := strings.TrimSpace(p.Description)
	if desc == "" {
		desc = "Scheduled transfer"
	}

	return &ScheduledTransfer{
		ID:            p.ID,
		SourceID:      p.SourceID,
		DestinationID: p.DestinationID,
		Amount:        p.Amount,
		Description:   desc,
		ExecuteOn:     Midnight(p.ExecuteOn, p.Location),
		CreatedAt:     p.CreatedAt,
	}, nil
}

// IsReady reports whether the transfer is pending and its day has come.
func (s *ScheduledTransfer) IsReady(now time.Time) bool {
	if s.Executed {
		return false
	}
	return !Midnight(now, s.ExecuteOn.Location()).Before(s.ExecuteOn)
}

// Execute runs the transfer from src to dst. The debit leg is journaled as
// SCHEDULED. A transfer that does not go through stays pending.
func (s *ScheduledTransfer) Execute(src, dst *Account, now time.Time) (bool, error) {
	if s.Executed {
		return false, nil
	}
	if src == nil || src.ID() != s.SourceID {
		return false, fmt.Errorf("%w: source %s", ErrAccountNotFound, s.SourceID)
	}
	if dst == nil || dst.ID() != s.DestinationID {
		return false, fmt.Errorf("%w: destination %s", ErrAccountNotFound, s.DestinationID)
	}

	s.Attempts++

	ok, err := src.transfer(dst, s.Amount, TransactionTypeScheduled, s.Description)
	if ok {
		s.Executed = true
		s.ExecutedAt = now
	}

	return ok, err
}
