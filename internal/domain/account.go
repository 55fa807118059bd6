package domain

import (
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
)

// AccountKind selects the default transaction limits of an account.
type AccountKind string

const (
	AccountKindStandard AccountKind = "standard"
	AccountKindBusiness AccountKind = "business"
)

// Category determines interest eligibility.
type Category string

const (
	CategoryChecking Category = "CHECKING"
	CategorySavings  Category = "SAVINGS"
)

// Default limits per account kind.
var (
	DefaultMaxWithdrawal         = decimal.NewFromInt(1000)
	DefaultMaxDeposit            = decimal.NewFromInt(10000)
	DefaultBusinessMaxWithdrawal = decimal.NewFromInt(5000)
	DefaultBusinessMaxDeposit    = decimal.NewFromInt(50000)
)

// Valid reports whether k is a known kind.
func (k AccountKind) Valid() bool {
	return k == AccountKindStandard || k == AccountKindBusiness
}

// DefaultLimits returns the withdrawal and deposit ceilings for the kind.
func (k AccountKind) DefaultLimits() (withdrawal, deposit decimal.Decimal) {
	if k == AccountKindBusiness {
		return DefaultBusinessMaxWithdrawal, DefaultBusinessMaxDeposit
	}
	return DefaultMaxWithdrawal, DefaultMaxDeposit
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	return c == CategoryChecking || c == CategorySavings
}

// NewAccountParams holds the inputs for NewAccount. Zero values select defaults.
type NewAccountParams struct {
	Clock              Clock
	Location           *time.Location // reference zone for due dates, UTC when nil
	NewID              func() string  // ID source for recurring payments
	MaxWithdrawalLimit *decimal.Decimal
	MaxDepositLimit    *decimal.Decimal
	ID                 string
	Kind               AccountKind
	Category           Category
	InitialBalance     decimal.Decimal
}

// Account is a balance-holding ledger with its own journal and recurring payments.
// All mutations run under the account mutex.
type Account struct {
	createdAt time.Time
	clock     Clock
	loc       *time.Location
	newID     func() string

	id       string
	kind     AccountKind
	category Category

	mu            sync.Mutex
	balance       decimal.Decimal
	maxWithdrawal decimal.Decimal
	maxDeposit    decimal.Decimal
	journal       journal
	payments      []*RecurringPayment
}

// AccountSnapshot is a consistent copy of an account's scalar state.
type AccountSnapshot struct {
	CreatedAt              time.Time
	ID                     string
	Kind                   AccountKind
	Category               Category
	Balance                decimal.Decimal
	MaxWithdrawalLimit     decimal.Decimal
	MaxDepositLimit        decimal.Decimal
	TransactionCount       int
	ActiveRecurringPayment int
}

// NewAccount creates an account. A positive initial balance is journaled as a DEPOSIT.
func NewAccount(p NewAccountParams) (*Account, error) {
	if p.Kind == "" {
		p.Kind = AccountKindStandard
	}
	if !p.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, p.Kind)
	}

	if p.Category == "" {
		p.Category = CategoryChecking
	}
	if !p.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, p.Category)
	}

	if p.InitialBalance.IsNegative() {
		return nil, fmt.Errorf("%w: initial balance %s is negative", ErrInvalidAmount, p.InitialBalance)
	}

	withdrawal, deposit := p.Kind.DefaultLimits()
	if p.MaxWithdrawalLimit != nil {
		if p.MaxWithdrawalLimit.IsNegative() {
			return nil, ErrInvalidLimit
		}
		withdrawal = *p.MaxWithdrawalLimit
	}
	if p.MaxDepositLimit != nil {
		if p.MaxDepositLimit.IsNegative() {
			return nil, ErrInvalidLimit
		}
		deposit = *p.MaxDepositLimit
	}

	if p.Clock == nil {
		p.Clock = systemClock{}
	}
	if p.Location == nil {
		p.Location = time.UTC
	}
	if p.NewID == nil {
		p.NewID = func() string { return ulid.Make().String() }
	}
	if p.ID == "" {
		p.ID = p.NewID()
	}

	a := &Account{
		createdAt:     p.Clock.Now(),
		clock:         p.Clock,
		loc:           p.Location,
		newID:         p.NewID,
		id:            p.ID,
		kind:          p.Kind,
		category:      p.Category,
		balance:       p.InitialBalance,
		maxWithdrawal: withdrawal,
		maxDeposit:    deposit,
	}

	if p.InitialBalance.IsPositive() {
		a.journal.append(a.createdAt, TransactionTypeDeposit, p.InitialBalance, p.InitialBalance, a.balance, "Initial deposit")
	}

	return a, nil
}

func (a *Account) ID() string               { return a.id }
func (a *Account) Kind() AccountKind        { return a.kind }
func (a *Account) Category() Category       { return a.category }
func (a *Account) CreatedAt() time.Time     { return a.createdAt }
func (a *Account) Location() *time.Location { return a.loc }

// Balance returns the current balance.
func (a *Account) Balance() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// MaxWithdrawalLimit returns the current withdrawal ceiling.
func (a *Account) MaxWithdrawalLimit() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maxWithdrawal
}

// MaxDepositLimit returns the current deposit ceiling.
func (a *Account) MaxDepositLimit() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.maxDeposit
}

// Snapshot returns the account state read under a single lock acquisition.
func (a *Account) Snapshot() AccountSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	active := 0
	for _, p := range a.payments {
		if p.Active {
			active++
		}
	}

	return AccountSnapshot{
		CreatedAt:              a.createdAt,
		ID:                     a.id,
		Kind:                   a.kind,
		Category:               a.category,
		Balance:                a.balance,
		MaxWithdrawalLimit:     a.maxWithdrawal,
		MaxDepositLimit:        a.maxDeposit,
		TransactionCount:       len(a.journal.entries),
		ActiveRecurringPayment: active,
	}
}

// Deposit credits amount to the account.
func (a *Account) Deposit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: deposit amount %s is negative", ErrInvalidAmount, amount)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	return a.depositLocked(amount, TransactionTypeDeposit, "Deposit")
}

// Withdraw debits amount from the account. It returns false, with a FAILED
// journal entry, when the balance does not cover the amount.
func (a *Account) Withdraw(amount decimal.Decimal) (bool, error) {
	if amount.IsNegative() {
		return false, fmt.Errorf("%w: withdrawal amount %s is negative", ErrInvalidAmount, amount)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	return a.withdrawLocked(amount, TransactionTypeWithdrawal, "Withdrawal", true)
}

// Transfer moves amount from a to dst. The source and destination locks are
// taken one after the other, never together. If dst rejects the deposit the
// amount is credited back to a and the destination error is returned.
func (a *Account) Transfer(dst *Account, amount decimal.Decimal) (bool, error) {
	return a.transfer(dst, amount, TransactionTypeTransfer, "Transfer")
}

func (a *Account) transfer(dst *Account, amount decimal.Decimal, debitType TransactionType, label string) (bool, error) {
	if dst == nil {
		return false, ErrNilDestination
	}
	if dst == a || dst.id == a.id {
		return false, ErrSameAccount
	}
	if amount.IsNegative() {
		return false, fmt.Errorf("%w: transfer amount %s is negative", ErrInvalidAmount, amount)
	}

	a.mu.Lock()
	ok, err := a.withdrawLocked(amount, debitType, label+" to "+dst.id, true)
	a.mu.Unlock()
	if err != nil || !ok {
		return false, err
	}

	dst.mu.Lock()
	depositErr := dst.depositLocked(amount, TransactionTypeTransfer, label+" from "+a.id)
	dst.mu.Unlock()
	if depositErr == nil {
		return true, nil
	}

	a.mu.Lock()
	refundErr := a.refundLocked(amount, dst.id)
	a.mu.Unlock()
	if refundErr != nil {
		return false, fmt.Errorf("%w: %s of %s to %s lost: %v (deposit: %v)",
			ErrTransferInconsistency, label, amount, dst.id, refundErr, depositErr)
	}

	return false, fmt.Errorf("deposit to %s: %w", dst.id, depositErr)
}

// SetMaxWithdrawalLimit replaces the withdrawal ceiling.
func (a *Account) SetMaxWithdrawalLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return ErrInvalidLimit
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	old := a.maxWithdrawal
	a.maxWithdrawal = limit
	a.journal.append(a.clock.Now(), TransactionTypeLimitChange, limit, decimal.Zero, a.balance,
		fmt.Sprintf("Maximum withdrawal limit changed from %s to %s", old.StringFixed(2), limit.StringFixed(2)))

	return nil
}

// SetMaxDepositLimit replaces the deposit ceiling.
func (a *Account) SetMaxDepositLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return ErrInvalidLimit
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	old := a.maxDeposit
	a.maxDeposit = limit
	a.journal.append(a.clock.Now(), TransactionTypeLimitChange, limit, decimal.Zero, a.balance,
		fmt.Sprintf("Maximum deposit limit changed from %s to %s", old.StringFixed(2), limit.StringFixed(2)))

	return nil
}

// AccrueInterest deposits balance*rate, rounded to cents, through the deposit
// path. The balance read and the credit happen under one lock acquisition.
func (a *Account) AccrueInterest(rate decimal.Decimal) (decimal.Decimal, error) {
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: interest rate %s is negative", ErrInvalidAmount, rate)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	interest := a.balance.Mul(rate).Round(2)
	if !interest.IsPositive() {
		return decimal.Zero, nil
	}

	desc := fmt.Sprintf("Interest at %s%%", rate.Mul(decimal.NewFromInt(100)).String())
	if err := a.depositLocked(interest, TransactionTypeDeposit, desc); err != nil {
		return decimal.Zero, err
	}

	return interest, nil
}

// TransactionHistory returns a copy of the journal, optionally restricted to the given types.
func (a *Account) TransactionHistory(filter ...TransactionType) []Transaction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.journal.snapshot(filter)
}

// Statement returns the balance and a copy of the full journal read under one
// lock acquisition, so the last entry always matches the balance.
func (a *Account) Statement() (decimal.Decimal, []Transaction) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance, a.journal.snapshot(nil)
}

// ClearTransactionHistory drops all journal entries and records the clearing as ADMIN.
func (a *Account) ClearTransactionHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.journal.clear()
	a.journal.append(a.clock.Now(), TransactionTypeAdmin, decimal.Zero, decimal.Zero, a.balance, "Transaction history cleared")
}

func (a *Account) depositLocked(amount decimal.Decimal, typ TransactionType, desc string) error {
	if amount.GreaterThan(a.maxDeposit) {
		return fmt.Errorf("%w: deposit %s above maximum %s", ErrLimitExceeded, amount.StringFixed(2), a.maxDeposit.StringFixed(2))
	}

	a.balance = a.balance.Add(amount)
	a.journal.append(a.clock.Now(), typ, amount, amount, a.balance, desc)

	return nil
}

func (a *Account) withdrawLocked(amount decimal.Decimal, typ TransactionType, desc string, checkLimit bool) (bool, error) {
	if checkLimit && amount.GreaterThan(a.maxWithdrawal) {
		return false, fmt.Errorf("%w: withdrawal %s above maximum %s", ErrLimitExceeded, amount.StringFixed(2), a.maxWithdrawal.StringFixed(2))
	}

	if amount.GreaterThan(a.balance) {
		a.journal.append(a.clock.Now(), TransactionTypeFailed, amount, decimal.Zero, a.balance, "Insufficient funds: "+desc)
		return false, nil
	}

	a.balance = a.balance.Sub(amount)
	a.journal.append(a.clock.Now(), typ, amount, amount.Neg(), a.balance, desc)

	return true, nil
}

func (a *Account) refundLocked(amount decimal.Decimal, dstID string) error {
	if amount.GreaterThan(a.maxDeposit) {
		return fmt.Errorf("%w: refund %s above maximum deposit %s", ErrLimitExceeded, amount.StringFixed(2), a.maxDeposit.StringFixed(2))
	}

	a.balance = a.balance.Add(amount)
	a.journal.append(a.clock.Now(), TransactionTypeFailed, amount, amount, a.balance, "Refund of failed transfer to "+dstID)

	return nil
}
