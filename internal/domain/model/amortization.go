package model

import (
	"math"
	"time"

	"github.com/jehnsen/coopledger/internal/domain/valueobject"
	"github.com/jehnsen/coopledger/pkg/money"
)

// AmortizationRow is one installment of a computed schedule.
type AmortizationRow struct {
	DueDate          time.Time
	BeginningBalance money.Money
	PrincipalDue     money.Money
	InterestDue      money.Money
	TotalDue         money.Money
	EndingBalance    money.Money
	PaymentNumber    int
}

// Amortization is the output of ComputeSchedule.
type Amortization struct {
	Rows          []AmortizationRow
	Installment   money.Money // the fixed periodic payment (EMI)
	TotalInterest money.Money
	TotalPayable  money.Money
	PeriodicRate  float64
	Periods       int
}

// ComputeSchedule builds a diminishing-balance repayment schedule.
//
//	r   = periodic rate derived from monthlyRate for the interval
//	n   = number of installments for termMonths
//	EMI = ceil(P * r(1+r)^n / ((1+r)^n - 1))          in centavos
//
// Each row charges interest = round(balance * r) and applies EMI - interest to
// principal. The final row absorbs whatever principal is left so the ending
// balance is exactly zero, and its total is recomputed.
func ComputeSchedule(
	principal money.Money,
	monthlyRate float64,
	termMonths int,
	firstPaymentDate time.Time,
	interval valueobject.PaymentInterval,
) (Amortization, error) {
	if !principal.IsPositive() {
		return Amortization{}, NewValidationError("principal must be positive, got %d centavos", principal.Centavos())
	}
	if monthlyRate <= 0 || math.IsNaN(monthlyRate) || math.IsInf(monthlyRate, 0) {
		return Amortization{}, NewValidationError("monthly interest rate must be positive, got %v", monthlyRate)
	}
	if termMonths <= 0 {
		return Amortization{}, NewValidationError("term must be at least one month, got %d", termMonths)
	}
	if interval.IsZero() {
		return Amortization{}, NewValidationError("payment interval is required")
	}
	if firstPaymentDate.IsZero() {
		return Amortization{}, NewValidationError("first payment date is required")
	}

	r := interval.PeriodicRate(monthlyRate)
	n := interval.Periods(termMonths)

	factor := math.Pow(1+r, float64(n))
	emi := money.New(int64(math.Ceil(float64(principal.Centavos()) * r * factor / (factor - 1))))

	rows := make([]AmortizationRow, 0, n)
	balance := principal
	totalInterest := money.Zero

	for k := 1; k <= n; k++ {
		interest := balance.MulRound(r)
		principalPart := emi.Sub(interest)

		if k == n || principalPart.GreaterThan(balance) {
			principalPart = balance
		}
		if principalPart.IsNegative() {
			principalPart = money.Zero
		}

		ending := balance.Sub(principalPart)
		rows = append(rows, AmortizationRow{
			PaymentNumber:    k,
			DueDate:          interval.DueDate(firstPaymentDate, k),
			BeginningBalance: balance,
			PrincipalDue:     principalPart,
			InterestDue:      interest,
			TotalDue:         principalPart.Add(interest),
			EndingBalance:    ending,
		})

		totalInterest = totalInterest.Add(interest)
		balance = ending
	}

	return Amortization{
		Rows:          rows,
		Installment:   emi,
		TotalInterest: totalInterest,
		TotalPayable:  principal.Add(totalInterest),
		PeriodicRate:  r,
		Periods:       n,
	}, nil
}

// ValidateSchedule checks that principal due across rows adds back to the
// loan principal within one centavo and that the last row closes at zero.
func ValidateSchedule(principal money.Money, rows []AmortizationRow) error {
	if len(rows) == 0 {
		return NewValidationError("schedule has no rows")
	}
	sum := money.Zero
	for _, row := range rows {
		if !row.TotalDue.Equal(row.PrincipalDue.Add(row.InterestDue)) {
			return NewValidationError("row %d: total due %s != principal %s + interest %s",
				row.PaymentNumber, row.TotalDue, row.PrincipalDue, row.InterestDue)
		}
		sum = sum.Add(row.PrincipalDue)
	}
	diff := sum.Sub(principal).Centavos()
	if diff > 1 || diff < -1 {
		return NewValidationError("schedule principal %s differs from loan principal %s", sum, principal)
	}
	if last := rows[len(rows)-1]; !last.EndingBalance.IsZero() {
		return NewValidationError("final ending balance is %s, expected zero", last.EndingBalance)
	}
	return nil
}

// RescheduleDueDates returns a copy of entries with due dates recomputed from
// a new first payment date, together with the new maturity date.
func RescheduleDueDates(entries []ScheduleEntry, first time.Time, interval valueobject.PaymentInterval) ([]ScheduleEntry, time.Time) {
	out := make([]ScheduleEntry, len(entries))
	var maturity time.Time
	for i, e := range entries {
		e.DueDate = interval.DueDate(first, e.PaymentNumber)
		if e.DueDate.After(maturity) {
			maturity = e.DueDate
		}
		out[i] = e
	}
	return out, maturity
}
