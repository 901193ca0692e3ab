package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/pkg/money"
)

// daysPerPenaltyMonth prorates the monthly penalty rate by days overdue.
var daysPerPenaltyMonth = decimal.NewFromInt(30)

// PenaltyAccrual is the result of one accrual run.
type PenaltyAccrual struct {
	Penalties []model.Penalty
	// Entries are the schedule entries flagged overdue by this run.
	Entries []model.ScheduleEntry
}

// Total is the sum of the new penalties.
func (a PenaltyAccrual) Total() money.Money {
	total := money.Zero
	for _, p := range a.Penalties {
		total = total.Add(p.NetPenalty)
	}
	return total
}

// PenaltyEngine assesses late charges on overdue installments.
type PenaltyEngine struct{}

// NewPenaltyEngine returns a new engine.
func NewPenaltyEngine() *PenaltyEngine {
	return &PenaltyEngine{}
}

// Accrue creates a penalty for every unpaid installment due before asOf:
//
//	penalty = round(overdue × rate × daysOverdue / 30)
//
// Each run adds new rows; earlier penalties are never replaced. Penalties that
// round to zero centavos are not recorded.
func (e *PenaltyEngine) Accrue(
	loan model.Loan,
	entries []model.ScheduleEntry,
	asOf time.Time,
	rate decimal.Decimal,
	now time.Time,
) (PenaltyAccrual, error) {
	if !rate.IsPositive() {
		return PenaltyAccrual{}, model.NewValidationError("penalty rate must be positive, got %s", rate)
	}
	if err := loan.CanAcceptPayment(); err != nil {
		return PenaltyAccrual{}, model.NewStateError("cannot compute penalties for loan %s in status %s", loan.LoanNumber(), loan.Status())
	}

	asOfDay := truncateDay(asOf)
	var out PenaltyAccrual

	for _, entry := range orderEntries(entries) {
		if entry.LoanID != loan.ID() {
			continue
		}
		due := truncateDay(entry.DueDate)
		if !due.Before(asOfDay) {
			continue
		}
		days := int(asOfDay.Sub(due).Hours() / 24)
		overdue := entry.Remaining()
		if days <= 0 || !overdue.IsPositive() {
			continue
		}

		out.Entries = append(out.Entries, entry.MarkOverdue(now))

		amount := decimal.NewFromInt(overdue.Centavos()).
			Mul(rate).
			Mul(decimal.NewFromInt(int64(days))).
			Div(daysPerPenaltyMonth).
			Round(0)
		if !amount.IsPositive() {
			continue
		}
		out.Penalties = append(out.Penalties, model.NewPenalty(
			loan.ID(), entry, overdue, days, rate, money.New(amount.IntPart()), asOfDay, now,
		))
	}
	return out, nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
