package dto

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/usecase"
)

func TestAccountFromDetails(t *testing.T) {
	details := usecase.AccountDetails{
		AccountSnapshot: domain.AccountSnapshot{
			ID:                 "acc-1",
			Kind:               domain.AccountKindStandard,
			Category:           domain.CategorySavings,
			Balance:            decimal.RequireFromString("123.4"),
			MaxWithdrawalLimit: decimal.NewFromInt(1000),
			MaxDepositLimit:    decimal.NewFromInt(10000),
			TransactionCount:   3,
		},
		Active: true,
	}

	resp := AccountFromDetails(details)
	if resp.ID != "acc-1" || resp.Balance != "123.40" || resp.Category != "SAVINGS" || !resp.Active {
		t.Fatalf("unexpected account response: %+v", resp)
	}
	if resp.MaxWithdrawalLimit != "1000.00" || resp.TransactionCount != 3 {
		t.Fatalf("unexpected limits: %+v", resp)
	}

	list := AccountsFromDetails([]usecase.AccountDetails{details})
	if len(list) != 1 || list[0].ID != "acc-1" {
		t.Fatalf("AccountsFromDetails returned %+v", list)
	}
}

func TestTransactionsFromDomain(t *testing.T) {
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	txs := []domain.Transaction{{
		Timestamp:    now,
		Type:         domain.TransactionTypeRecurringPayment,
		Description:  "rent",
		Sequence:     4,
		Amount:       decimal.NewFromInt(50),
		BalanceAfter: decimal.NewFromInt(150),
	}}

	resp := TransactionsFromDomain(txs)
	if len(resp) != 1 {
		t.Fatalf("expected one transaction, got %d", len(resp))
	}
	if resp[0].Type != "RECURRING_PAYMENT" || resp[0].TypeName != "Recurring Payment" {
		t.Fatalf("unexpected type fields: %+v", resp[0])
	}
	if resp[0].Amount != "50.00" || resp[0].BalanceAfter != "150.00" || resp[0].Sequence != 4 {
		t.Fatalf("unexpected amounts: %+v", resp[0])
	}
}

func TestRecurringPaymentFromDomain(t *testing.T) {
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	p := domain.RecurringPayment{
		StartDate:   start,
		NextDueDate: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC),
		ID:          "pay-1",
		Frequency:   domain.FrequencyMonthly,
		Amount:      decimal.NewFromInt(10),
		Active:      true,
	}

	resp := RecurringPaymentFromDomain(p)
	if resp.StartDate != "2024-01-31" || resp.NextDueDate != "2024-02-29" {
		t.Fatalf("unexpected dates: %+v", resp)
	}
	if resp.LastRunAt != nil {
		t.Fatalf("expected no last run, got %v", resp.LastRunAt)
	}

	p.LastRunAt = start
	if resp := RecurringPaymentFromDomain(p); resp.LastRunAt == nil || !resp.LastRunAt.Equal(start) {
		t.Fatalf("expected last run %v, got %v", start, resp.LastRunAt)
	}
}

func TestScheduledTransferFromDomain(t *testing.T) {
	s := domain.ScheduledTransfer{
		ExecuteOn:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		ID:            "st-1",
		SourceID:      "a",
		DestinationID: "b",
		Amount:        decimal.NewFromInt(5),
	}

	resp := ScheduledTransferFromDomain(s)
	if resp.FromAccountID != "a" || resp.ToAccountID != "b" || resp.ExecuteOn != "2024-05-01" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.ExecutedAt != nil {
		t.Fatalf("pending transfer must not report executed_at")
	}
}

func TestConsistencyFromReport(t *testing.T) {
	report := &usecase.ConsistencyReport{
		TotalBalance: decimal.NewFromInt(300),
		Issues: []usecase.ConsistencyIssue{{
			AccountID: "acc-1",
			Reason:    "balance mismatch",
			Sequence:  2,
			Expected:  decimal.NewFromInt(100),
			Actual:    decimal.NewFromInt(90),
		}},
		AccountsChecked: 2,
	}

	resp := ConsistencyFromReport(report)
	if resp.Status != "inconsistent" || resp.Consistent {
		t.Fatalf("expected inconsistent status, got %+v", resp)
	}
	if len(resp.Issues) != 1 || resp.Issues[0].Expected != "100.00" || resp.Issues[0].Actual != "90.00" {
		t.Fatalf("unexpected issues: %+v", resp.Issues)
	}

	report.Consistent = true
	report.Issues = nil
	if resp := ConsistencyFromReport(report); resp.Status != "consistent" || resp.TotalBalance != "300.00" {
		t.Fatalf("unexpected consistent response: %+v", resp)
	}
}
