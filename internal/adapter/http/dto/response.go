package dto

import (
	"time"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	CreatedAt               time.Time `json:"created_at"`
	ID                      string    `json:"id"`
	Kind                    string    `json:"kind"`
	Category                string    `json:"category"`
	Balance                 string    `json:"balance"`
	MaxWithdrawalLimit      string    `json:"max_withdrawal_limit"`
	MaxDepositLimit         string    `json:"max_deposit_limit"`
	TransactionCount        int       `json:"transaction_count"`
	ActiveRecurringPayments int       `json:"active_recurring_payments"`
	Active                  bool      `json:"active"`
}

// AccountFromDetails converts account details to response.
func AccountFromDetails(a usecase.AccountDetails) *AccountResponse {
	return &AccountResponse{
		CreatedAt:               a.CreatedAt,
		ID:                      a.ID,
		Kind:                    string(a.Kind),
		Category:                string(a.Category),
		Balance:                 a.Balance.StringFixed(2),
		MaxWithdrawalLimit:      a.MaxWithdrawalLimit.StringFixed(2),
		MaxDepositLimit:         a.MaxDepositLimit.StringFixed(2),
		TransactionCount:        a.TransactionCount,
		ActiveRecurringPayments: a.ActiveRecurringPayment,
		Active:                  a.Active,
	}
}

// AccountsFromDetails converts account details to responses.
func AccountsFromDetails(accounts []usecase.AccountDetails) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDetails(a)
	}
	return result
}

// ListAccountsResponse is a page of accounts plus registry counts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int                `json:"total"`
	Active   int                `json:"active"`
	Frozen   int                `json:"frozen"`
}

// BalanceResponse is returned by deposit.
type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
}

// WithdrawResponse is returned by withdraw. Success is false on insufficient funds.
type WithdrawResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
	Success   bool   `json:"success"`
}

// TransferResponse is returned by transfer. Success is false on insufficient funds.
type TransferResponse struct {
	Success bool `json:"success"`
}

// TransactionResponse represents a journal entry in API responses.
type TransactionResponse struct {
	Timestamp    time.Time `json:"timestamp"`
	Type         string    `json:"type"`
	TypeName     string    `json:"type_name"`
	Description  string    `json:"description"`
	Amount       string    `json:"amount"`
	BalanceAfter string    `json:"balance_after"`
	Sequence     int64     `json:"sequence"`
}

// TransactionsFromDomain converts journal entries to responses.
func TransactionsFromDomain(txs []domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(txs))
	for i, tx := range txs {
		result[i] = &TransactionResponse{
			Timestamp:    tx.Timestamp,
			Type:         string(tx.Type),
			TypeName:     tx.Type.DisplayName(),
			Description:  tx.Description,
			Amount:       tx.Amount.StringFixed(2),
			BalanceAfter: tx.BalanceAfter.StringFixed(2),
			Sequence:     tx.Sequence,
		}
	}
	return result
}

// RecurringPaymentResponse represents a recurring payment in API responses.
type RecurringPaymentResponse struct {
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	ID          string     `json:"id"`
	Description string     `json:"description"`
	RecipientID string     `json:"recipient_id"`
	Frequency   string     `json:"frequency"`
	Amount      string     `json:"amount"`
	StartDate   string     `json:"start_date"`
	NextDueDate string     `json:"next_due_date"`
	Active      bool       `json:"active"`
}

// RecurringPaymentFromDomain converts a recurring payment to response.
func RecurringPaymentFromDomain(p domain.RecurringPayment) *RecurringPaymentResponse {
	resp := &RecurringPaymentResponse{
		ID:          p.ID,
		Description: p.Description,
		RecipientID: p.RecipientID,
		Frequency:   string(p.Frequency),
		Amount:      p.Amount.StringFixed(2),
		StartDate:   p.StartDate.Format(DateLayout),
		NextDueDate: p.NextDueDate.Format(DateLayout),
		Active:      p.Active,
	}
	if !p.LastRunAt.IsZero() {
		last := p.LastRunAt
		resp.LastRunAt = &last
	}
	return resp
}

// RecurringPaymentsFromDomain converts recurring payments to responses.
func RecurringPaymentsFromDomain(payments []domain.RecurringPayment) []*RecurringPaymentResponse {
	result := make([]*RecurringPaymentResponse, len(payments))
	for i, p := range payments {
		result[i] = RecurringPaymentFromDomain(p)
	}
	return result
}

// ScheduledTransferResponse represents a scheduled transfer in API responses.
type ScheduledTransferResponse struct {
	CreatedAt     time.Time  `json:"created_at"`
	ExecutedAt    *time.Time `json:"executed_at,omitempty"`
	ID            string     `json:"id"`
	FromAccountID string     `json:"from_account_id"`
	ToAccountID   string     `json:"to_account_id"`
	Description   string     `json:"description"`
	Amount        string     `json:"amount"`
	ExecuteOn     string     `json:"execute_on"`
	Attempts      int        `json:"attempts"`
	Executed      bool       `json:"executed"`
}

// ScheduledTransferFromDomain converts a scheduled transfer to response.
func ScheduledTransferFromDomain(s domain.ScheduledTransfer) *ScheduledTransferResponse {
	resp := &ScheduledTransferResponse{
		CreatedAt:     s.CreatedAt,
		ID:            s.ID,
		FromAccountID: s.SourceID,
		ToAccountID:   s.DestinationID,
		Description:   s.Description,
		Amount:        s.Amount.StringFixed(2),
		ExecuteOn:     s.ExecuteOn.Format(DateLayout),
		Attempts:      s.Attempts,
		Executed:      s.Executed,
	}
	if s.Executed {
		executed := s.ExecutedAt
		resp.ExecutedAt = &executed
	}
	return resp
}

// ScheduledTransfersFromDomain converts scheduled transfers to responses.
func ScheduledTransfersFromDomain(transfers []domain.ScheduledTransfer) []*ScheduledTransferResponse {
	result := make([]*ScheduledTransferResponse, len(transfers))
	for i, s := range transfers {
		result[i] = ScheduledTransferFromDomain(s)
	}
	return result
}

// ProcessResponse reports how many payments or transfers were executed.
type ProcessResponse struct {
	AccountsProcessed int `json:"accounts_processed,omitempty"`
	Executed          int `json:"executed"`
}

// ConsistencyIssueResponse describes one journal defect.
type ConsistencyIssueResponse struct {
	AccountID string `json:"account_id"`
	Reason    string `json:"reason"`
	Sequence  int64  `json:"sequence"`
	Expected  string `json:"expected"`
	Actual    string `json:"actual"`
}

// ConsistencyResponse is the result of a ledger consistency check.
type ConsistencyResponse struct {
	CheckedAt       time.Time                   `json:"checked_at"`
	Status          string                      `json:"status"`
	TotalBalance    string                      `json:"total_balance"`
	Issues          []*ConsistencyIssueResponse `json:"issues,omitempty"`
	AccountsChecked int                         `json:"accounts_checked"`
	EntriesChecked  int                         `json:"entries_checked"`
	Consistent      bool                        `json:"consistent"`
}

// ConsistencyFromReport converts a consistency report to response.
func ConsistencyFromReport(r *usecase.ConsistencyReport) *ConsistencyResponse {
	resp := &ConsistencyResponse{
		CheckedAt:       r.CheckedAt,
		Status:          "consistent",
		TotalBalance:    r.TotalBalance.StringFixed(2),
		AccountsChecked: r.AccountsChecked,
		EntriesChecked:  r.EntriesChecked,
		Consistent:      r.Consistent,
	}
	if !r.Consistent {
		resp.Status = "inconsistent"
	}
	for _, issue := range r.Issues {
		resp.Issues = append(resp.Issues, &ConsistencyIssueResponse{
			AccountID: issue.AccountID,
			Reason:    issue.Reason,
			Sequence:  issue.Sequence,
			Expected:  issue.Expected.StringFixed(2),
			Actual:    issue.Actual.StringFixed(2),
		})
	}
	return resp
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
