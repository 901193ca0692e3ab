package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jehnsen/coopledger/pkg/money"
)

// Penalty is a late charge accrued against one overdue installment.
//
// NetPenalty is PenaltyAmount less WaivedAmount. AmountPaid tracks partial
// settlement so repeated partial payments never collect more than NetPenalty.
type Penalty struct {
	AppliedDate     time.Time
	PaidDate        time.Time
	WaivedAt        time.Time
	CreatedAt       time.Time
	PenaltyRate     decimal.Decimal
	ID              string
	LoanID          string
	ScheduleEntryID string
	WaivedBy        string
	WaiverReason    string
	OverdueAmount   money.Money
	PenaltyAmount   money.Money
	WaivedAmount    money.Money
	NetPenalty      money.Money
	AmountPaid      money.Money
	PaymentNumber   int
	DaysOverdue     int
	IsPaid          bool
}

// NewPenalty creates an unpaid penalty row.
func NewPenalty(
	loanID string, entry ScheduleEntry,
	overdue money.Money, days int, rate decimal.Decimal, amount money.Money,
	appliedDate, now time.Time,
) Penalty {
	return Penalty{
		ID:              uuid.New().String(),
		LoanID:          loanID,
		ScheduleEntryID: entry.ID,
		PaymentNumber:   entry.PaymentNumber,
		OverdueAmount:   overdue,
		DaysOverdue:     days,
		PenaltyRate:     rate,
		PenaltyAmount:   amount,
		NetPenalty:      amount,
		AppliedDate:     appliedDate,
		CreatedAt:       now,
	}
}

// Collectible is what a payment may still apply to this penalty.
func (p Penalty) Collectible() money.Money {
	if p.IsPaid {
		return money.Zero
	}
	return p.NetPenalty.SubFloor(p.AmountPaid)
}

// Apply settles up to amount of the penalty and returns the amount applied.
// The penalty is marked paid only when the whole collectible is covered.
func (p Penalty) Apply(amount money.Money, paidOn time.Time) (Penalty, money.Money) {
	applied := money.Min(amount, p.Collectible())
	if !applied.IsPositive() {
		return p, money.Zero
	}
	next := p
	next.AmountPaid = p.AmountPaid.Add(applied)
	if next.AmountPaid.Cmp(next.NetPenalty) >= 0 {
		next.IsPaid = true
		next.PaidDate = paidOn
	}
	return next, applied
}

// Waive forgives part of the penalty.
func (p Penalty) Waive(amount money.Money, reason string, by string, now time.Time) (Penalty, error) {
	if p.IsPaid {
		return p, NewStateError("penalty %s is already paid", p.ID)
	}
	if !amount.IsPositive() {
		return p, NewValidationError("waived amount must be positive")
	}
	if strings.TrimSpace(reason) == "" {
		return p, NewValidationError("waiver reason is required")
	}
	if amount.GreaterThan(p.Collectible()) {
		return p, NewValidationError("waived amount %s exceeds net penalty %s", amount, p.Collectible())
	}

	next := p
	next.WaivedAmount = p.WaivedAmount.Add(amount)
	next.NetPenalty = p.PenaltyAmount.Sub(next.WaivedAmount)
	next.WaivedBy = by
	next.WaiverReason = reason
	next.WaivedAt = now
	return next, nil
}
