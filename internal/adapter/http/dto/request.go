package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// OpenAccountRequest represents a request to open an account.
type OpenAccountRequest struct {
	MaxWithdrawalLimit *string `json:"max_withdrawal_limit,omitempty"`
	MaxDepositLimit    *string `json:"max_deposit_limit,omitempty"`
	Kind               string  `json:"kind"`
	Category           string  `json:"category"`
	InitialBalance     string  `json:"initial_balance"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenAccountRequest) ToUseCaseInput() (usecase.OpenAccountInput, error) {
	kind, err := domain.ParseKind(r.Kind)
	if err != nil {
		return usecase.OpenAccountInput{}, err
	}
	category, err := domain.ParseCategory(r.Category)
	if err != nil {
		return usecase.OpenAccountInput{}, err
	}

	input := usecase.OpenAccountInput{Kind: kind, Category: category}

	if r.InitialBalance != "" {
		balance, err := parseAmount("initial_balance", r.InitialBalance)
		if err != nil {
			return usecase.OpenAccountInput{}, err
		}
		input.InitialBalance = balance
	}

	if input.MaxWithdrawalLimit, err = parseOptionalAmount("max_withdrawal_limit", r.MaxWithdrawalLimit); err != nil {
		return usecase.OpenAccountInput{}, err
	}
	if input.MaxDepositLimit, err = parseOptionalAmount("max_deposit_limit", r.MaxDepositLimit); err != nil {
		return usecase.OpenAccountInput{}, err
	}

	return input, nil
}

// UpdateLimitsRequest represents a request to change account limits.
type UpdateLimitsRequest struct {
	MaxWithdrawalLimit *string `json:"max_withdrawal_limit,omitempty"`
	MaxDepositLimit    *string `json:"max_deposit_limit,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *UpdateLimitsRequest) ToUseCaseInput() (usecase.UpdateLimitsInput, error) {
	withdrawal, err := parseOptionalAmount("max_withdrawal_limit", r.MaxWithdrawalLimit)
	if err != nil {
		return usecase.UpdateLimitsInput{}, err
	}
	deposit, err := parseOptionalAmount("max_deposit_limit", r.MaxDepositLimit)
	if err != nil {
		return usecase.UpdateLimitsInput{}, err
	}
	return usecase.UpdateLimitsInput{MaxWithdrawalLimit: withdrawal, MaxDepositLimit: deposit}, nil
}

// AmountRequest is the body of deposit and withdraw requests.
type AmountRequest struct {
	Amount string `json:"amount"`
}

// ToDepositInput converts to use case input.
func (r *AmountRequest) ToDepositInput(accountID string) (usecase.DepositInput, error) {
	amount, err := parseAmount("amount", r.Amount)
	if err != nil {
		return usecase.DepositInput{}, err
	}
	return usecase.DepositInput{AccountID: accountID, Amount: amount}, nil
}

// ToWithdrawInput converts to use case input.
func (r *AmountRequest) ToWithdrawInput(accountID string) (usecase.WithdrawInput, error) {
	amount, err := parseAmount("amount", r.Amount)
	if err != nil {
		return usecase.WithdrawInput{}, err
	}
	return usecase.WithdrawInput{AccountID: accountID, Amount: amount}, nil
}

// TransferRequest represents a request to move money between accounts.
type TransferRequest struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Amount        string `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *TransferRequest) ToUseCaseInput() (usecase.TransferInput, error) {
	amount, err := parseAmount("amount", r.Amount)
	if err != nil {
		return usecase.TransferInput{}, err
	}
	return usecase.TransferInput{
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Amount:        amount,
	}, nil
}

// SchedulePaymentRequest represents a request to schedule a recurring payment.
type SchedulePaymentRequest struct {
	Amount      string `json:"amount"`
	RecipientID string `json:"recipient_id"`
	Description string `json:"description"`
	Frequency   string `json:"frequency"`
	StartDate   string `json:"start_date"`
}

// ToUseCaseInput converts to use case input. Dates without a zone are read in loc.
func (r *SchedulePaymentRequest) ToUseCaseInput(accountID string, loc *time.Location) (usecase.SchedulePaymentInput, error) {
	amount, err := parseAmount("amount", r.Amount)
	if err != nil {
		return usecase.SchedulePaymentInput{}, err
	}
	frequency, err := domain.ParseFrequency(r.Frequency)
	if err != nil {
		return usecase.SchedulePaymentInput{}, err
	}
	start, err := ParseDate("start_date", r.StartDate, loc)
	if err != nil {
		return usecase.SchedulePaymentInput{}, err
	}

	return usecase.SchedulePaymentInput{
		StartDate:   start,
		AccountID:   accountID,
		Description: r.Description,
		RecipientID: r.RecipientID,
		Frequency:   frequency,
		Amount:      amount,
	}, nil
}

// ScheduleTransferRequest represents a request for a one-shot future transfer.
type ScheduleTransferRequest struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Amount        string `json:"amount"`
	Description   string `json:"description"`
	ExecuteOn     string `json:"execute_on"`
}

// ToUseCaseInput converts to use case input. Dates without a zone are read in loc.
func (r *ScheduleTransferRequest) ToUseCaseInput(loc *time.Location) (usecase.ScheduleTransferInput, error) {
	amount, err := parseAmount("amount", r.Amount)
	if err != nil {
		return usecase.ScheduleTransferInput{}, err
	}
	executeOn, err := ParseDate("execute_on", r.ExecuteOn, loc)
	if err != nil {
		return usecase.ScheduleTransferInput{}, err
	}

	return usecase.ScheduleTransferInput{
		ExecuteOn:     executeOn,
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		Description:   r.Description,
		Amount:        amount,
	}, nil
}

// ParseDate accepts YYYY-MM-DD (read in loc) or RFC 3339.
func ParseDate(field, value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", domain.ErrInvalidStartDate, field)
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(DateLayout, value, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q is not a date", domain.ErrInvalidAmount, field, value)
	}
	return t, nil
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	amount, err := domain.ParseAmount(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", field, err)
	}
	return amount, nil
}

func parseOptionalAmount(field string, value *string) (*decimal.Decimal, error) {
	if value == nil {
		return nil, nil
	}
	amount, err := parseAmount(field, *value)
	if err != nil {
		return nil, err
	}
	return &amount, nil
}
