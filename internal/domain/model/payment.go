package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jehnsen/coopledger/internal/domain/valueobject"
	"github.com/jehnsen/coopledger/pkg/money"
)

// Payment is an append-only ledger record of one repayment. It is corrected
// only by flagging it reversed.
//
// Amount is the sum of the three portions. Cash tendered beyond every open
// obligation is kept in UnappliedAmount and is not part of Amount.
type Payment struct {
	PaymentDate      time.Time
	ReversedAt       time.Time
	CreatedAt        time.Time
	Method           valueobject.PaymentMethod
	ID               string
	PaymentNumber    string
	LoanID           string
	Reference        string
	ReceivedBy       string
	ReversedBy       string
	ReversalReason   string
	IdempotencyKey   string
	Amount           money.Money
	PrincipalPortion money.Money
	InterestPortion  money.Money
	PenaltyPortion   money.Money
	UnappliedAmount  money.Money
	BalanceBefore    money.Money
	BalanceAfter     money.Money
	IsReversed       bool
}

// PaymentPortions is the result of running a tendered amount through the
// allocation waterfall.
type PaymentPortions struct {
	Penalty   money.Money
	Interest  money.Money
	Principal money.Money
	Unapplied money.Money
}

// Applied is the total placed against obligations.
func (p PaymentPortions) Applied() money.Money {
	return money.Sum(p.Penalty, p.Interest, p.Principal)
}

// NewPaymentParams carries everything needed to build a Payment record.
type NewPaymentParams struct {
	PaymentDate    time.Time
	Method         valueobject.PaymentMethod
	LoanID         string
	PaymentNumber  string
	Reference      string
	IdempotencyKey string
	Operator       valueobject.Operator
	Portions       PaymentPortions
	BalanceBefore  money.Money
}

// NewPayment builds the ledger record for an allocated repayment.
func NewPayment(p NewPaymentParams, now time.Time) Payment {
	return Payment{
		ID:               uuid.New().String(),
		PaymentNumber:    p.PaymentNumber,
		LoanID:           p.LoanID,
		Amount:           p.Portions.Applied(),
		PrincipalPortion: p.Portions.Principal,
		InterestPortion:  p.Portions.Interest,
		PenaltyPortion:   p.Portions.Penalty,
		UnappliedAmount:  p.Portions.Unapplied,
		BalanceBefore:    p.BalanceBefore,
		BalanceAfter:     p.BalanceBefore.Sub(p.Portions.Principal),
		Method:           p.Method,
		PaymentDate:      p.PaymentDate,
		Reference:        p.Reference,
		IdempotencyKey:   p.IdempotencyKey,
		ReceivedBy:       p.Operator.ID.String(),
		CreatedAt:        now,
	}
}

// Portions returns the allocation recorded on the payment.
func (p Payment) Portions() PaymentPortions {
	return PaymentPortions{
		Penalty:   p.PenaltyPortion,
		Interest:  p.InterestPortion,
		Principal: p.PrincipalPortion,
		Unapplied: p.UnappliedAmount,
	}
}

// Tendered is the cash received, applied or not.
func (p Payment) Tendered() money.Money { return p.Amount.Add(p.UnappliedAmount) }

// MarkReversed flags the payment as voided.
func (p Payment) MarkReversed(op valueobject.Operator, reason string, now time.Time) (Payment, error) {
	if p.IsReversed {
		return p, NewStateError("payment %s is already reversed", p.PaymentNumber)
	}
	if strings.TrimSpace(reason) == "" {
		return p, NewValidationError("reversal reason is required")
	}
	next := p
	next.IsReversed = true
	next.ReversedAt = now
	next.ReversedBy = op.ID.String()
	next.ReversalReason = reason
	return next, nil
}
