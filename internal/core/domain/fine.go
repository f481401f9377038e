package domain

import (
	"math"
	"time"
)

// FinePolicy holds the lending policy constants. Both the per-day and the
// fast-cycle (10-minute) fine schemes are expressed through the same fields,
// so switching policy is a configuration change only.
type FinePolicy struct {
	BlockMinutes int           // size of one fine block in minutes
	PerBlock     float64       // fine charged per started block
	LoanPeriod   time.Duration // default loan duration when no due date is given
	ReminderLead time.Duration // how long before the due date a reminder goes out
}

// DailyPolicy charges per started day, the classic library scheme.
func DailyPolicy() FinePolicy {
	return FinePolicy{
		BlockMinutes: 24 * 60,
		PerBlock:     15,
		LoanPeriod:   24 * time.Hour,
		ReminderLead: time.Hour,
	}
}

// FastPolicy charges per started 10-minute block with a 4-minute loan period.
// Used for demos and short-cycle testing.
func FastPolicy() FinePolicy {
	return FinePolicy{
		BlockMinutes: 10,
		PerBlock:     5,
		LoanPeriod:   4 * time.Minute,
		ReminderLead: time.Minute,
	}
}

// ComputeFine returns the fine for returning at returnDate a loan due at
// dueDate. Returns 0 when the return is on time. Lateness is measured in
// whole elapsed minutes rounded up, then quantized into started blocks.
func (p FinePolicy) ComputeFine(dueDate, returnDate time.Time) float64 {
	if !returnDate.After(dueDate) {
		return 0
	}
	minutesLate := math.Ceil(returnDate.Sub(dueDate).Minutes())
	blocks := math.Ceil(minutesLate / float64(p.BlockMinutes))
	return blocks * p.PerBlock
}

// DueDate resolves the effective due date for a loan: the explicit date if
// one was supplied, otherwise lendDate plus the default loan period.
func (p FinePolicy) DueDate(lendDate time.Time, explicit *time.Time) time.Time {
	if explicit != nil && !explicit.IsZero() {
		return *explicit
	}
	return lendDate.Add(p.LoanPeriod)
}
