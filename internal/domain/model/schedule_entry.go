package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/jehnsen/coopledger/internal/domain/valueobject"
	"github.com/jehnsen/coopledger/pkg/money"
)

// ScheduleEntry is one installment of a loan's repayment schedule. Amounts
// due are fixed at application time; only the paid columns, status and due
// date change afterwards.
type ScheduleEntry struct {
	DueDate          time.Time
	PaidDate         time.Time
	UpdatedAt        time.Time
	Status           valueobject.ScheduleStatus
	ID               string
	LoanID           string
	BeginningBalance money.Money
	PrincipalDue     money.Money
	InterestDue      money.Money
	TotalDue         money.Money
	PrincipalPaid    money.Money
	InterestPaid     money.Money
	TotalPaid        money.Money
	EndingBalance    money.Money
	PaymentNumber    int
}

// NewScheduleEntries materialises amortization rows for a loan.
func NewScheduleEntries(loanID string, rows []AmortizationRow, now time.Time) []ScheduleEntry {
	entries := make([]ScheduleEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, ScheduleEntry{
			ID:               uuid.New().String(),
			LoanID:           loanID,
			PaymentNumber:    row.PaymentNumber,
			DueDate:          row.DueDate,
			BeginningBalance: row.BeginningBalance,
			PrincipalDue:     row.PrincipalDue,
			InterestDue:      row.InterestDue,
			TotalDue:         row.TotalDue,
			EndingBalance:    row.EndingBalance,
			Status:           valueobject.ScheduleStatusPending,
			UpdatedAt:        now,
		})
	}
	return entries
}

// Remaining is the unpaid part of the installment.
func (e ScheduleEntry) Remaining() money.Money { return e.TotalDue.SubFloor(e.TotalPaid) }

// InterestRemaining is the unpaid interest of the installment.
func (e ScheduleEntry) InterestRemaining() money.Money { return e.InterestDue.SubFloor(e.InterestPaid) }

// IsOpen reports whether the installment can still receive money.
func (e ScheduleEntry) IsOpen() bool { return e.Status.IsOpen() }

// Apply allocates up to amount to the installment, interest first. It returns
// the updated entry and the interest and principal actually applied.
func (e ScheduleEntry) Apply(amount money.Money, paidOn time.Time) (ScheduleEntry, money.Money, money.Money) {
	applied := money.Min(amount, e.Remaining())
	if !applied.IsPositive() {
		return e, money.Zero, money.Zero
	}

	interest := money.Min(applied, e.InterestRemaining())
	principal := applied.Sub(interest)

	next := e
	next.InterestPaid = e.InterestPaid.Add(interest)
	next.PrincipalPaid = e.PrincipalPaid.Add(principal)
	next.TotalPaid = e.TotalPaid.Add(applied)
	next.UpdatedAt = paidOn
	if next.TotalPaid.Cmp(next.TotalDue) >= 0 {
		next.Status = valueobject.ScheduleStatusPaid
		next.PaidDate = paidOn
	} else {
		next.Status = valueobject.ScheduleStatusPartial
	}
	return next, interest, principal
}

// MarkOverdue flags an unpaid installment as overdue.
func (e ScheduleEntry) MarkOverdue(now time.Time) ScheduleEntry {
	if e.Status.Equal(valueobject.ScheduleStatusPaid) {
		return e
	}
	next := e
	next.Status = valueobject.ScheduleStatusOverdue
	next.UpdatedAt = now
	return next
}
