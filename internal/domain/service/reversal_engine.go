package service

import (
	"time"

	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/valueobject"
)

// ReversalEngine voids a recorded payment. It is the inverse of allocation at
// the loan aggregate level only: schedule entries and penalties touched by the
// original allocation keep their paid amounts.
type ReversalEngine struct{}

// NewReversalEngine returns a new engine.
func NewReversalEngine() *ReversalEngine {
	return &ReversalEngine{}
}

// Reverse flags payment reversed and restores the loan totals it changed.
// A closed loan is reopened.
func (e *ReversalEngine) Reverse(
	loan model.Loan,
	payment model.Payment,
	op valueobject.Operator,
	reason string,
	now time.Time,
) (model.Loan, model.Payment, error) {
	if payment.LoanID != loan.ID() {
		return loan, payment, model.NewValidationError("payment %s does not belong to loan %s", payment.PaymentNumber, loan.LoanNumber())
	}
	reversed, err := payment.MarkReversed(op, reason, now)
	if err != nil {
		return loan, payment, err
	}
	restored, err := loan.ReversePayment(reversed, op, now)
	if err != nil {
		return loan, payment, err
	}
	return restored, reversed, nil
}
