package domain

import (
	"errors"
	"fmt"
)

var (
	// Amount errors
	ErrInvalidAmount = errors.New("invalid amount")
	ErrLimitExceeded = errors.New("amount exceeds limit")
	ErrInvalidLimit  = fmt.Errorf("%w: limit must not be negative", ErrInvalidAmount)

	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountFrozen   = errors.New("account is frozen")
	ErrInvalidKind     = errors.New("invalid account kind")
	ErrInvalidCategory = errors.New("invalid account category")

	// Transfer errors
	ErrSameAccount           = fmt.Errorf("%w: cannot transfer to same account", ErrInvalidAmount)
	ErrNilDestination        = fmt.Errorf("%w: destination account is required", ErrInvalidAmount)
	ErrTransferInconsistency = errors.New("transfer refund failed, ledger is inconsistent")

	// Scheduling errors
	ErrInvalidDescription        = fmt.Errorf("%w: description must not be empty", ErrInvalidAmount)
	ErrInvalidRecipient          = fmt.Errorf("%w: recipient must not be empty", ErrInvalidAmount)
	ErrInvalidStartDate          = fmt.Errorf("%w: start date is required", ErrInvalidAmount)
	ErrInvalidFrequency          = fmt.Errorf("%w: unknown payment frequency", ErrInvalidAmount)
	ErrPaymentNotFound           = errors.New("recurring payment not found")
	ErrScheduledTransferNotFound = errors.New("scheduled transfer not found")
)
