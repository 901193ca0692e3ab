package valueobject

import (
	"fmt"
	"math"
	"time"
)

// PaymentInterval is the repayment frequency of a loan.
type PaymentInterval struct {
	value string
}

const (
	intervalMonthly     = "monthly"
	intervalSemiMonthly = "semi_monthly"
	intervalWeekly      = "weekly"
)

var (
	PaymentIntervalMonthly     = PaymentInterval{value: intervalMonthly}
	PaymentIntervalSemiMonthly = PaymentInterval{value: intervalSemiMonthly}
	PaymentIntervalWeekly      = PaymentInterval{value: intervalWeekly}
)

var validPaymentIntervals = map[string]PaymentInterval{
	intervalMonthly:     PaymentIntervalMonthly,
	intervalSemiMonthly: PaymentIntervalSemiMonthly,
	intervalWeekly:      PaymentIntervalWeekly,
}

// weeksPerMonth is the conversion used for weekly schedules.
const weeksPerMonth = 4.33

// NewPaymentInterval creates a PaymentInterval from a raw string.
func NewPaymentInterval(s string) (PaymentInterval, error) {
	v, ok := validPaymentIntervals[s]
	if !ok {
		return PaymentInterval{}, fmt.Errorf("invalid payment interval: %q", s)
	}
	return v, nil
}

func (p PaymentInterval) String() string { return p.value }
func (p PaymentInterval) IsZero() bool   { return p.value == "" }

// Equal returns true when both intervals match.
func (p PaymentInterval) Equal(other PaymentInterval) bool { return p.value == other.value }

// Periods returns the number of installments for a term of termMonths.
func (p PaymentInterval) Periods(termMonths int) int {
	switch p.value {
	case intervalSemiMonthly:
		return termMonths * 2
	case intervalWeekly:
		return termMonths * 4
	default:
		return termMonths
	}
}

// PeriodicRate converts a monthly rate to the equivalent rate per installment.
func (p PaymentInterval) PeriodicRate(monthlyRate float64) float64 {
	switch p.value {
	case intervalSemiMonthly:
		return math.Pow(1+monthlyRate, 1.0/2.0) - 1
	case intervalWeekly:
		return math.Pow(1+monthlyRate, 1.0/weeksPerMonth) - 1
	default:
		return monthlyRate
	}
}

// DueDate returns the due date of installment k (1-based) given the first
// due date. Monthly steps clamp to the last day of shorter months instead of
// overflowing into the next one.
func (p PaymentInterval) DueDate(first time.Time, k int) time.Time {
	steps := k - 1
	switch p.value {
	case intervalSemiMonthly:
		return first.AddDate(0, 0, 15*steps)
	case intervalWeekly:
		return first.AddDate(0, 0, 7*steps)
	default:
		return addMonthsNoOverflow(first, steps)
	}
}

// Next returns the date one installment after d.
func (p PaymentInterval) Next(d time.Time) time.Time {
	return p.DueDate(d, 2)
}

func addMonthsNoOverflow(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	lastDay := target.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(target.Year(), target.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
