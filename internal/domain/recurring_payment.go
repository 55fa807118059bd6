package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the period of a recurring payment.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
		return true
	}
	return false
}

// ParseFrequency parses a frequency name case-insensitively.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidFrequency, s)
	}
	return f, nil
}

// occurrence returns the n-th occurrence after start. Month and year steps
// clamp to the last day of the target month and are always computed from
// start, so a schedule anchored on the 31st does not drift.
func (f Frequency) occurrence(start time.Time, n int) time.Time {
	switch f {
	case FrequencyDaily:
		return start.AddDate(0, 0, n)
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7*n)
	case FrequencyMonthly:
		return addMonthsClamped(start, n)
	case FrequencyYearly:
		return addMonthsClamped(start, 12*n)
	}
	return start
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + months
	year := y + total/12
	month := time.Month(total%12 + 1)

	if last := daysIn(year, month, t.Location()); d > last {
		d = last
	}

	return time.Date(year, month, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// RecurringPayment is a repeating withdrawal instruction with a due-date cursor.
type RecurringPayment struct {
	StartDate   time.Time
	NextDueDate time.Time
	LastRunAt   time.Time
	ID          string
	Description string
	RecipientID string
	Frequency   Frequency
	Amount      decimal.Decimal
	Active      bool

	// index of NextDueDate counted from StartDate
	period int
}

// IsDue reports whether the payment is active and its due date is on or before now's calendar day.
func (p *RecurringPayment) IsDue(now time.Time) bool {
	if !p.Active {
		return false
	}
	today := Midnight(now, p.NextDueDate.Location())
	return !today.Before(p.NextDueDate)
}

// AdvanceDueDate moves NextDueDate to the first occurrence strictly after now.
// Missed periods are skipped, not replayed.
func (p *RecurringPayment) AdvanceDueDate(now time.Time) {
	if !p.Frequency.Valid() {
		return
	}
	for {
		p.period++
		next := p.Frequency.occurrence(p.StartDate, p.period)
		if next.After(now) {
			p.NextDueDate = next
			return
		}
	}
}

// ScheduleInput describes a new recurring payment.
type ScheduleInput struct {
	StartDate   time.Time
	Description string
	RecipientID string
	Frequency   Frequency
	Amount      decimal.Decimal
}

// Validate checks the input independently of any account.
func (in ScheduleInput) Validate() error {
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: recurring amount %s must be positive", ErrInvalidAmount, in.Amount)
	}
	if strings.TrimSpace(in.Description) == "" {
		return ErrInvalidDescription
	}
	if strings.TrimSpace(in.RecipientID) == "" {
		return ErrInvalidRecipient
	}
	if in.StartDate.IsZero() {
		return ErrInvalidStartDate
	}
	if !in.Frequency.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidFrequency, in.Frequency)
	}
	return nil
}

// ScheduleRecurringPayment attaches a new active schedule to the account and
// returns a copy of it. The amount may not exceed the current withdrawal limit.
func (a *Account) ScheduleRecurringPayment(in ScheduleInput) (RecurringPayment, error) {
	if err := in.Validate(); err != nil {
		return RecurringPayment{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if in.Amount.GreaterThan(a.maxWithdrawal) {
		return RecurringPayment{}, fmt.Errorf("%w: %w: recurring amount %s above withdrawal limit %s",
			ErrInvalidAmount, ErrLimitExceeded, in.Amount.StringFixed(2), a.maxWithdrawal.StringFixed(2))
	}

	start := Midnight(in.StartDate, a.loc)
	p := &RecurringPayment{
		ID:          a.newID(),
		Amount:      in.Amount,
		Description: strings.TrimSpace(in.Description),
		RecipientID: strings.TrimSpace(in.RecipientID),
		Frequency:   in.Frequency,
		StartDate:   start,
		NextDueDate: start,
		Active:      true,
	}
	a.payments = append(a.payments, p)

	return *p, nil
}

// ProcessRecurringPayments runs ProcessDueRecurringPayments at the account clock's now.
func (a *Account) ProcessRecurringPayments() int {
	return a.ProcessDueRecurringPayments(a.clock.Now())
}

// ProcessDueRecurringPayments executes every due schedule against one now
// snapshot and returns how many were paid. A schedule the balance cannot
// cover is journaled as FAILED and keeps its due date for the next pass.
func (a *Account) ProcessDueRecurringPayments(now time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	executed := 0
	for _, p := range a.payments {
		if !p.IsDue(now) {
			continue
		}

		desc := fmt.Sprintf("%s to %s", p.Description, p.RecipientID)
		// limit was checked at scheduling time
		ok, err := a.withdrawLocked(p.Amount, TransactionTypeRecurringPayment, desc, false)
		if err != nil || !ok {
			continue
		}

		p.LastRunAt = now
		p.AdvanceDueDate(now)
		executed++
	}

	return executed
}

// CancelRecurringPayment deactivates a schedule. It stays visible for inspection.
func (a *Account) CancelRecurringPayment(id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, p := range a.payments {
		if p.ID == id {
			p.Active = false
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrPaymentNotFound, id)
}

// RecurringPayments returns copies of every schedule, including cancelled ones.
func (a *Account) RecurringPayments() []RecurringPayment {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]RecurringPayment, len(a.payments))
	for i, p := range a.payments {
		out[i] = *p
	}

	return out
}
