package library

import (
	"math"
	"time"
)

const (
	DefaultLoanPeriod = 14 * 24 * time.Hour
	DefaultFinePerDay = 1
)

// DefaultLedger lends for two weeks and charges one unit per late day.
func DefaultLedger() Ledger {
	return Ledger{LoanPeriod: DefaultLoanPeriod, FinePerDay: DefaultFinePerDay}
}

// Ledger computes due dates and late fees. A zero LoanPeriod falls back to
// DefaultLoanPeriod; a zero FinePerDay makes late returns free.
type Ledger struct {
	LoanPeriod time.Duration
	FinePerDay int
}

func (l Ledger) loanPeriod() time.Duration {
	if l.LoanPeriod <= 0 {
		return DefaultLoanPeriod
	}
	return l.LoanPeriod
}

// DueDate returns the loan deadline for a copy lent at lentAt.
func (l Ledger) DueDate(lentAt time.Time) time.Time {
	return lentAt.Add(l.loanPeriod())
}

// LateFee counts whole calendar days between the due date and returnedAt,
// in the due date's location. Returns on or before the due day cost nothing.
func (l Ledger) LateFee(due, returnedAt time.Time) (daysLate, fine int) {
	if due.IsZero() {
		return 0, 0
	}
	loc := due.Location()
	dueDay := day(due, loc)
	returnDay := day(returnedAt, loc)
	if !returnDay.After(dueDay) {
		return 0, 0
	}
	// Round to absorb DST shifts between the two midnights.
	daysLate = int(math.Round(returnDay.Sub(dueDay).Hours() / 24))
	return daysLate, daysLate * max(l.FinePerDay, 0)
}

func day(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
