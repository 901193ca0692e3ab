package service

import (
	"cmp"
	"slices"
	"time"

	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/pkg/money"
)

// ---------------------------------------------------------------------------
// PaymentAllocator – repayment waterfall
// ---------------------------------------------------------------------------

// Allocation is the outcome of running one payment through the waterfall.
// Penalties and Entries hold only the rows that received money, in the order
// they were paid.
type Allocation struct {
	Penalties []model.Penalty
	Entries   []model.ScheduleEntry
	Portions  model.PaymentPortions
}

// PaymentAllocator distributes a repayment across a loan's obligations:
//
//  1. unpaid penalties, oldest applied_date first (id breaks ties)
//  2. open schedule entries in payment_number order, interest before principal
//
// Whatever is left after every open obligation is covered stays unapplied.
// A loan with nothing open, such as one reopened by a reversal, keeps the whole
// tender unapplied.
type PaymentAllocator struct{}

// NewPaymentAllocator returns a new allocator.
func NewPaymentAllocator() *PaymentAllocator {
	return &PaymentAllocator{}
}

// Allocate computes the allocation of amount against the given penalties and
// schedule entries of loan. Inputs are not modified.
func (a *PaymentAllocator) Allocate(
	loan model.Loan,
	amount money.Money,
	penalties []model.Penalty,
	entries []model.ScheduleEntry,
	paidOn time.Time,
) (Allocation, error) {
	if err := loan.CanAcceptPayment(); err != nil {
		return Allocation{}, err
	}
	if !amount.IsPositive() {
		return Allocation{}, model.NewValidationError("payment amount must be positive, got %d centavos", amount.Centavos())
	}

	var out Allocation
	remaining := amount

	// Tier 1: penalties.
	for _, p := range orderPenalties(penalties) {
		if !remaining.IsPositive() {
			break
		}
		if p.LoanID != loan.ID() {
			continue
		}
		next, applied := p.Apply(remaining, paidOn)
		if applied.IsZero() {
			continue
		}
		remaining = remaining.Sub(applied)
		out.Portions.Penalty = out.Portions.Penalty.Add(applied)
		out.Penalties = append(out.Penalties, next)
	}

	// Tier 2: schedule entries, strict FIFO by payment number.
	for _, e := range orderEntries(entries) {
		if !remaining.IsPositive() {
			break
		}
		if e.LoanID != loan.ID() {
			continue
		}
		next, interest, principal := e.Apply(remaining, paidOn)
		applied := interest.Add(principal)
		if applied.IsZero() {
			continue
		}
		remaining = remaining.Sub(applied)
		out.Portions.Interest = out.Portions.Interest.Add(interest)
		out.Portions.Principal = out.Portions.Principal.Add(principal)
		out.Entries = append(out.Entries, next)
	}

	if out.Portions.Principal.GreaterThan(loan.OutstandingBalance()) {
		return Allocation{}, model.NewStateError(
			"schedule principal %s exceeds outstanding balance %s on loan %s",
			out.Portions.Principal, loan.OutstandingBalance(), loan.LoanNumber(),
		)
	}
	out.Portions.Unapplied = remaining
	return out, nil
}

// PayoffAmount is the cash that settles every open obligation: collectible
// penalties plus the unpaid remainder of each open schedule entry.
func PayoffAmount(penalties []model.Penalty, entries []model.ScheduleEntry) money.Money {
	total := money.Zero
	for _, p := range penalties {
		total = total.Add(p.Collectible())
	}
	for _, e := range entries {
		if e.IsOpen() {
			total = total.Add(e.Remaining())
		}
	}
	return total
}

func orderPenalties(in []model.Penalty) []model.Penalty {
	out := make([]model.Penalty, 0, len(in))
	for _, p := range in {
		if p.Collectible().IsPositive() {
			out = append(out, p)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Penalty) int {
		if c := a.AppliedDate.Compare(b.AppliedDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func orderEntries(in []model.ScheduleEntry) []model.ScheduleEntry {
	out := make([]model.ScheduleEntry, 0, len(in))
	for _, e := range in {
		if e.IsOpen() {
			out = append(out, e)
		}
	}
	slices.SortStableFunc(out, func(a, b model.ScheduleEntry) int {
		return cmp.Compare(a.PaymentNumber, b.PaymentNumber)
	})
	return out
}
