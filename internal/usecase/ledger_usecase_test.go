package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"go.uber.org/mock/gomock"

	"github.com/iho/bankledger/internal/domain"
	"github.com/iho/bankledger/internal/infrastructure/clock"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
	"github.com/iho/bankledger/internal/usecase"
	"github.com/iho/bankledger/internal/usecase/mocks"
)

func expectActive(registry *mocks.MockAccountRegistry, accounts ...*domain.Account) {
	for _, acc := range accounts {
		registry.EXPECT().Lookup(gomock.Any(), acc.ID()).Return(acc, nil).AnyTimes()
		registry.EXPECT().IsActive(gomock.Any(), acc.ID()).Return(true, nil).AnyTimes()
	}
}

func newLedgerUseCase(registry usecase.AccountRegistry, m *metrics.Metrics) *usecase.LedgerUseCase {
	return usecase.NewLedgerUseCase(registry, clock.NewFake(testNow), zerolog.Nop(), m)
}

func TestLedgerUseCase_Deposit(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		active      bool
		expectError error
		wantBalance string
	}{
		{name: "credits active account", amount: "50", active: true, wantBalance: "150"},
		{name: "rejects frozen account", amount: "50", active: false, expectError: domain.ErrAccountFrozen, wantBalance: "100"},
		{name: "rejects above limit", amount: "10000.01", active: true, expectError: domain.ErrLimitExceeded, wantBalance: "100"},
		{name: "rejects negative", amount: "-1", active: true, expectError: domain.ErrInvalidAmount, wantBalance: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			acc := newAccount(t, "acc-1", "100", domain.CategoryChecking)
			registry := mocks.NewMockAccountRegistry(ctrl)
			registry.EXPECT().Lookup(gomock.Any(), "acc-1").Return(acc, nil)
			registry.EXPECT().IsActive(gomock.Any(), "acc-1").Return(tt.active, nil)

			uc := newLedgerUseCase(registry, nil)

			balance, err := uc.Deposit(context.Background(), usecase.DepositInput{AccountID: "acc-1", Amount: amount(tt.amount)})

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Fatalf("expected %v, got %v", tt.expectError, err)
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !balance.Equal(amount(tt.wantBalance)) {
					t.Errorf("expected returned balance %s, got %s", tt.wantBalance, balance)
				}
			}

			if !acc.Balance().Equal(amount(tt.wantBalance)) {
				t.Errorf("expected account balance %s, got %s", tt.wantBalance, acc.Balance())
			}
		})
	}
}

func TestLedgerUseCase_Withdraw(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	acc := newAccount(t, "acc-1", "100", domain.CategoryChecking)
	registry := mocks.NewMockAccountRegistry(ctrl)
	expectActive(registry, acc)
	m := metrics.New(prometheus.NewRegistry())

	uc := newLedgerUseCase(registry, m)

	result, err := uc.Withdraw(context.Background(), usecase.WithdrawInput{AccountID: "acc-1", Amount: amount("60")})
	if err != nil || !result.Success || !result.Balance.Equal(amount("40")) {
		t.Fatalf("expected success with balance 40, got %+v err=%v", result, err)
	}

	result, err = uc.Withdraw(context.Background(), usecase.WithdrawInput{AccountID: "acc-1", Amount: amount("60")})
	if err != nil {
		t.Fatalf("insufficient funds must not be an error, got %v", err)
	}
	if result.Success || !result.Balance.Equal(amount("40")) {
		t.Errorf("expected failed withdrawal with balance 40, got %+v", result)
	}

	if got := testutil.ToFloat64(m.AccountOperations.WithLabelValues("withdraw", metrics.OutcomeFailed)); got != 1 {
		t.Errorf("expected one failed withdrawal recorded, got %v", got)
	}
	if got := testutil.ToFloat64(m.AccountOperations.WithLabelValues("withdraw", metrics.OutcomeSuccess)); got != 1 {
		t.Errorf("expected one successful withdrawal recorded, got %v", got)
	}
}

func TestLedgerUseCase_Transfer(t *testing.T) {
	t.Run("moves funds", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		from := newAccount(t, "acc-1", "500", domain.CategoryChecking)
		to := newAccount(t, "acc-2", "0", domain.CategoryChecking)
		registry := mocks.NewMockAccountRegistry(ctrl)
		expectActive(registry, from, to)

		uc := newLedgerUseCase(registry, nil)

		ok, err := uc.Transfer(context.Background(), usecase.TransferInput{FromAccountID: "acc-1", ToAccountID: "acc-2", Amount: amount("200")})
		if err != nil || !ok {
			t.Fatalf("expected success, got ok=%v err=%v", ok, err)
		}
		if !from.Balance().Equal(amount("300")) || !to.Balance().Equal(amount("200")) {
			t.Errorf("unexpected balances from=%s to=%s", from.Balance(), to.Balance())
		}
	})

	t.Run("rejects same account before lookup", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		uc := newLedgerUseCase(mocks.NewMockAccountRegistry(ctrl), nil)

		_, err := uc.Transfer(context.Background(), usecase.TransferInput{FromAccountID: "acc-1", ToAccountID: "acc-1", Amount: amount("1")})
		if !errors.Is(err, domain.ErrSameAccount) {
			t.Errorf("expected ErrSameAccount, got %v", err)
		}
	})

	t.Run("rejects frozen destination", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		from := newAccount(t, "acc-1", "500", domain.CategoryChecking)
		to := newAccount(t, "acc-2", "0", domain.CategoryChecking)
		registry := mocks.NewMockAccountRegistry(ctrl)
		expectActive(registry, from)
		registry.EXPECT().Lookup(gomock.Any(), "acc-2").Return(to, nil)
		registry.EXPECT().IsActive(gomock.Any(), "acc-2").Return(false, nil)

		uc := newLedgerUseCase(registry, nil)

		_, err := uc.Transfer(context.Background(), usecase.TransferInput{FromAccountID: "acc-1", ToAccountID: "acc-2", Amount: amount("10")})
		if !errors.Is(err, domain.ErrAccountFrozen) {
			t.Errorf("expected ErrAccountFrozen, got %v", err)
		}
		if !from.Balance().Equal(amount("500")) {
			t.Errorf("source balance changed to %s", from.Balance())
		}
	})

	t.Run("counts inconsistencies", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		low := amount("5")
		from, err := domain.NewAccount(domain.NewAccountParams{ID: "acc-1", InitialBalance: amount("500"), MaxDepositLimit: &low})
		if err != nil {
			t.Fatal(err)
		}
		zero := amount("0")
		to, err := domain.NewAccount(domain.NewAccountParams{ID: "acc-2", MaxDepositLimit: &zero})
		if err != nil {
			t.Fatal(err)
		}

		registry := mocks.NewMockAccountRegistry(ctrl)
		expectActive(registry, from, to)
		m := metrics.New(prometheus.NewRegistry())

		uc := newLedgerUseCase(registry, m)

		ok, err := uc.Transfer(context.Background(), usecase.TransferInput{FromAccountID: "acc-1", ToAccountID: "acc-2", Amount: amount("100")})
		if ok || !errors.Is(err, domain.ErrTransferInconsistency) {
			t.Fatalf("expected ErrTransferInconsistency, got ok=%v err=%v", ok, err)
		}
		if got := testutil.ToFloat64(m.TransferInconsistencies); got != 1 {
			t.Errorf("expected inconsistency counter 1, got %v", got)
		}
	})
}

func TestLedgerUseCase_CheckConsistency(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	a := newAccount(t, "acc-1", "500", domain.CategoryChecking)
	b := newAccount(t, "acc-2", "0", domain.CategorySavings)
	_, _ = a.Transfer(b, amount("120"))
	_, _ = a.Withdraw(amount("10000"))
	_, _ = b.AccrueInterest(amount("0.1"))
	a.ClearTransactionHistory()
	_ = a.Deposit(amount("5"))

	registry := mocks.NewMockAccountRegistry(ctrl)
	registry.EXPECT().AllAccounts(gomock.Any()).Return([]*domain.Account{a, b}, nil)

	uc := newLedgerUseCase(registry, nil)

	report, err := uc.CheckConsistency(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !report.Consistent || len(report.Issues) != 0 {
		t.Fatalf("expected consistent ledger, got %+v", report.Issues)
	}
	if report.AccountsChecked != 2 {
		t.Errorf("expected 2 accounts, got %d", report.AccountsChecked)
	}
	if !report.TotalBalance.Equal(amount("517")) {
		t.Errorf("expected total 517, got %s", report.TotalBalance)
	}
	if !report.CheckedAt.Equal(testNow) {
		t.Errorf("expected check time from clock, got %s", report.CheckedAt)
	}
}

func TestLedgerUseCase_CheckConsistencyRegistryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	registry := mocks.NewMockAccountRegistry(ctrl)
	registry.EXPECT().AllAccounts(gomock.Any()).Return(nil, errors.New("boom"))

	uc := newLedgerUseCase(registry, nil)

	if _, err := uc.CheckConsistency(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
