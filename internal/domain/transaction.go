package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a journal entry.
type TransactionType string

const (
	TransactionTypeDeposit          TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal       TransactionType = "WITHDRAWAL"
	TransactionTypeTransfer         TransactionType = "TRANSFER"
	TransactionTypeLimitChange      TransactionType = "LIMIT_CHANGE"
	TransactionTypeFailed           TransactionType = "FAILED"
	TransactionTypeAdmin            TransactionType = "ADMIN"
	TransactionTypeScheduled        TransactionType = "SCHEDULED"
	TransactionTypeRecurringPayment TransactionType = "RECURRING_PAYMENT"
)

var transactionTypeNames = map[TransactionType]string{
	TransactionTypeDeposit:          "Deposit",
	TransactionTypeWithdrawal:       "Withdrawal",
	TransactionTypeTransfer:         "Transfer",
	TransactionTypeLimitChange:      "Limit Change",
	TransactionTypeFailed:           "Failed Transaction",
	TransactionTypeAdmin:            "Administrative Action",
	TransactionTypeScheduled:        "Scheduled",
	TransactionTypeRecurringPayment: "Recurring Payment",
}

// DisplayName returns the human readable name of the type.
func (t TransactionType) DisplayName() string {
	if name, ok := transactionTypeNames[t]; ok {
		return name
	}
	return string(t)
}

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	_, ok := transactionTypeNames[t]
	return ok
}

// ParseTransactionType parses a wire name such as "deposit" or "RECURRING_PAYMENT".
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown transaction type %q", s)
	}
	return t, nil
}

// Transaction is an immutable journal entry.
type Transaction struct {
	Timestamp    time.Time
	Type         TransactionType
	Description  string
	Sequence     int64
	Amount       decimal.Decimal
	Delta        decimal.Decimal // signed balance change, zero for non-monetary entries
	BalanceAfter decimal.Decimal
}

func (t Transaction) String() string {
	return fmt.Sprintf("[%s] %s: $%s - %s (Balance $%s)",
		t.Timestamp.Format(time.RFC3339),
		t.Type.DisplayName(),
		t.Amount.StringFixed(2),
		t.Description,
		t.BalanceAfter.StringFixed(2),
	)
}

// journal is the append-only log owned by an Account. Not safe for concurrent use.
type journal struct {
	entries []Transaction
	seq     int64
}

func (j *journal) append(at time.Time, typ TransactionType, amount, delta, balanceAfter decimal.Decimal, description string) Transaction {
	j.seq++
	tx := Transaction{
		Sequence:     j.seq,
		Type:         typ,
		Amount:       amount,
		Delta:        delta,
		Description:  description,
		Timestamp:    at,
		BalanceAfter: balanceAfter,
	}
	j.entries = append(j.entries, tx)
	return tx
}

func (j *journal) snapshot(filter []TransactionType) []Transaction {
	out := make([]Transaction, 0, len(j.entries))
	for _, tx := range j.entries {
		if matchesType(tx.Type, filter) {
			out = append(out, tx)
		}
	}
	return out
}

func (j *journal) clear() {
	j.entries = nil
}

func matchesType(t TransactionType, filter []TransactionType) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		if f == t {
			return true
		}
	}
	return false
}
