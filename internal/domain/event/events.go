package event

import (
	"time"

	"github.com/jehnsen/coopledger/pkg/events"
	"github.com/jehnsen/coopledger/pkg/money"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

const aggregateLoan = "Loan"

// Event types published on the lending topic.
const (
	TypeLoanApplied            = "lending.loan.applied"
	TypeLoanSubmittedForReview = "lending.loan.submitted_for_review"
	TypeLoanApproved           = "lending.loan.approved"
	TypeLoanRejected           = "lending.loan.rejected"
	TypeLoanDisbursed          = "lending.loan.disbursed"
	TypeLoanClosed             = "lending.loan.closed"
	TypeLoanReopened           = "lending.loan.reopened"
	TypePaymentRecorded        = "lending.loan.payment_recorded"
	TypePaymentReversed        = "lending.loan.payment_reversed"
	TypePenaltiesAccrued       = "lending.loan.penalties_accrued"
	TypePenaltyWaived          = "lending.loan.penalty_waived"
)

// ---------------------------------------------------------------------------
// Origination
// ---------------------------------------------------------------------------

// LoanApplied is raised when a member files a loan application.
type LoanApplied struct {
	events.BaseEvent
	LoanNumber  string      `json:"loan_number"`
	CustomerID  string      `json:"customer_id"`
	ProductID   string      `json:"product_id"`
	Principal   money.Money `json:"principal_centavos"`
	TermMonths  int         `json:"term_months"`
	Interval    string      `json:"payment_interval"`
	Installment money.Money `json:"installment_centavos"`
	OperatorID  string      `json:"operator_id"`
}

func NewLoanApplied(
	loanID, loanNumber, customerID, productID string,
	principal money.Money, termMonths int, interval string,
	installment money.Money, operatorID string, at time.Time,
) LoanApplied {
	return LoanApplied{
		BaseEvent:   events.NewBaseEvent(TypeLoanApplied, loanID, aggregateLoan, at),
		LoanNumber:  loanNumber,
		CustomerID:  customerID,
		ProductID:   productID,
		Principal:   principal,
		TermMonths:  termMonths,
		Interval:    interval,
		Installment: installment,
		OperatorID:  operatorID,
	}
}

// LoanStatusChanged covers review, approval and rejection.
type LoanStatusChanged struct {
	events.BaseEvent
	LoanNumber string `json:"loan_number"`
	From       string `json:"from_status"`
	To         string `json:"to_status"`
	Reason     string `json:"reason,omitempty"`
	OperatorID string `json:"operator_id"`
}

func NewLoanStatusChanged(eventType, loanID, loanNumber, from, to, reason, operatorID string, at time.Time) LoanStatusChanged {
	return LoanStatusChanged{
		BaseEvent:  events.NewBaseEvent(eventType, loanID, aggregateLoan, at),
		LoanNumber: loanNumber,
		From:       from,
		To:         to,
		Reason:     reason,
		OperatorID: operatorID,
	}
}

// LoanDisbursed is raised when proceeds are released to the member.
type LoanDisbursed struct {
	events.BaseEvent
	LoanNumber       string      `json:"loan_number"`
	CustomerID       string      `json:"customer_id"`
	NetProceeds      money.Money `json:"net_proceeds_centavos"`
	Method           string      `json:"method"`
	Reference        string      `json:"reference,omitempty"`
	FirstPaymentDate time.Time   `json:"first_payment_date"`
	MaturityDate     time.Time   `json:"maturity_date"`
	OperatorID       string      `json:"operator_id"`
}

func NewLoanDisbursed(
	loanID, loanNumber, customerID string, netProceeds money.Money,
	method, reference string, firstPayment, maturity time.Time,
	operatorID string, at time.Time,
) LoanDisbursed {
	return LoanDisbursed{
		BaseEvent:        events.NewBaseEvent(TypeLoanDisbursed, loanID, aggregateLoan, at),
		LoanNumber:       loanNumber,
		CustomerID:       customerID,
		NetProceeds:      netProceeds,
		Method:           method,
		Reference:        reference,
		FirstPaymentDate: firstPayment,
		MaturityDate:     maturity,
		OperatorID:       operatorID,
	}
}

// ---------------------------------------------------------------------------
// Servicing
// ---------------------------------------------------------------------------

// PaymentRecorded is raised when a repayment is allocated to a loan.
type PaymentRecorded struct {
	events.BaseEvent
	PaymentID          string      `json:"payment_id"`
	PaymentNumber      string      `json:"payment_number"`
	Amount             money.Money `json:"amount_centavos"`
	PrincipalPortion   money.Money `json:"principal_portion_centavos"`
	InterestPortion    money.Money `json:"interest_portion_centavos"`
	PenaltyPortion     money.Money `json:"penalty_portion_centavos"`
	Unapplied          money.Money `json:"unapplied_centavos"`
	OutstandingBalance money.Money `json:"outstanding_balance_centavos"`
}

func NewPaymentRecorded(
	loanID, paymentID, paymentNumber string,
	amount, principal, interest, penalty, unapplied, outstanding money.Money,
	at time.Time,
) PaymentRecorded {
	return PaymentRecorded{
		BaseEvent:          events.NewBaseEvent(TypePaymentRecorded, loanID, aggregateLoan, at),
		PaymentID:          paymentID,
		PaymentNumber:      paymentNumber,
		Amount:             amount,
		PrincipalPortion:   principal,
		InterestPortion:    interest,
		PenaltyPortion:     penalty,
		Unapplied:          unapplied,
		OutstandingBalance: outstanding,
	}
}

// PaymentReversed is raised when a recorded payment is voided.
type PaymentReversed struct {
	events.BaseEvent
	PaymentID          string      `json:"payment_id"`
	PaymentNumber      string      `json:"payment_number"`
	Amount             money.Money `json:"amount_centavos"`
	Reason             string      `json:"reason"`
	OutstandingBalance money.Money `json:"outstanding_balance_centavos"`
	OperatorID         string      `json:"operator_id"`
}

func NewPaymentReversed(
	loanID, paymentID, paymentNumber string, amount money.Money,
	reason string, outstanding money.Money, operatorID string, at time.Time,
) PaymentReversed {
	return PaymentReversed{
		BaseEvent:          events.NewBaseEvent(TypePaymentReversed, loanID, aggregateLoan, at),
		PaymentID:          paymentID,
		PaymentNumber:      paymentNumber,
		Amount:             amount,
		Reason:             reason,
		OutstandingBalance: outstanding,
		OperatorID:         operatorID,
	}
}

// LoanBalanceEvent marks the loan closing at zero balance or reopening.
type LoanBalanceEvent struct {
	events.BaseEvent
	LoanNumber         string      `json:"loan_number"`
	OutstandingBalance money.Money `json:"outstanding_balance_centavos"`
}

func NewLoanClosed(loanID, loanNumber string, at time.Time) LoanBalanceEvent {
	return LoanBalanceEvent{
		BaseEvent:  events.NewBaseEvent(TypeLoanClosed, loanID, aggregateLoan, at),
		LoanNumber: loanNumber,
	}
}

func NewLoanReopened(loanID, loanNumber string, outstanding money.Money, at time.Time) LoanBalanceEvent {
	return LoanBalanceEvent{
		BaseEvent:          events.NewBaseEvent(TypeLoanReopened, loanID, aggregateLoan, at),
		LoanNumber:         loanNumber,
		OutstandingBalance: outstanding,
	}
}

// PenaltiesAccrued is raised after a penalty run created at least one row.
type PenaltiesAccrued struct {
	events.BaseEvent
	AsOfDate         time.Time   `json:"as_of_date"`
	PenaltyCount     int         `json:"penalty_count"`
	Total            money.Money `json:"total_centavos"`
	TotalOutstanding money.Money `json:"total_penalties_outstanding_centavos"`
}

func NewPenaltiesAccrued(loanID string, asOf time.Time, count int, total, outstanding money.Money, at time.Time) PenaltiesAccrued {
	return PenaltiesAccrued{
		BaseEvent:        events.NewBaseEvent(TypePenaltiesAccrued, loanID, aggregateLoan, at),
		AsOfDate:         asOf,
		PenaltyCount:     count,
		Total:            total,
		TotalOutstanding: outstanding,
	}
}

// PenaltyWaived is raised when part of a penalty is forgiven.
type PenaltyWaived struct {
	events.BaseEvent
	PenaltyID  string      `json:"penalty_id"`
	Waived     money.Money `json:"waived_centavos"`
	NetPenalty money.Money `json:"net_penalty_centavos"`
	Reason     string      `json:"reason"`
	OperatorID string      `json:"operator_id"`
}

func NewPenaltyWaived(loanID, penaltyID string, waived, net money.Money, reason, operatorID string, at time.Time) PenaltyWaived {
	return PenaltyWaived{
		BaseEvent:  events.NewBaseEvent(TypePenaltyWaived, loanID, aggregateLoan, at),
		PenaltyID:  penaltyID,
		Waived:     waived,
		NetPenalty: net,
		Reason:     reason,
		OperatorID: operatorID,
	}
}
