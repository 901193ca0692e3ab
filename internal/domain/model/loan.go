package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jehnsen/coopledger/internal/domain/event"
	"github.com/jehnsen/coopledger/internal/domain/valueobject"
	"github.com/jehnsen/coopledger/pkg/money"
)

// ---------------------------------------------------------------------------
// Loan aggregate root
// ---------------------------------------------------------------------------

// LoanState is the persisted shape of a Loan. Repositories read and write it;
// the domain only changes it through Loan transitions.
type LoanState struct {
	ApplicationDate       time.Time
	ApprovalDate          time.Time
	DisbursementDate      time.Time
	FirstPaymentDate      time.Time
	MaturityDate          time.Time
	ClosedAt              time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
	MonthlyRate           decimal.Decimal
	PenaltyRate           decimal.Decimal
	Interval              valueobject.PaymentInterval
	Status                valueobject.LoanStatus
	DisbursementMethod    valueobject.PaymentMethod
	ID                    string
	LoanNumber            string
	CustomerID            string
	ProductID             string
	Purpose               string
	RejectionReason       string
	ApprovalNotes         string
	DisbursementReference string
	CreatedBy             string
	ApprovedBy            string
	RejectedBy            string
	DisbursedBy           string
	Principal             money.Money
	OutstandingBalance    money.Money
	TotalPrincipalPaid    money.Money
	TotalInterestPaid     money.Money
	TotalPenaltyPaid      money.Money
	PenaltiesOutstanding  money.Money
	ProcessingFee         money.Money
	ServiceFee            money.Money
	NetProceeds           money.Money
	Installment           money.Money
	TotalInterest         money.Money
	TotalPayable          money.Money
	TermMonths            int
	Version               int
}

// Loan is an immutable aggregate. Transitions return a new copy and record
// domain events on it.
type Loan struct {
	state        LoanState
	domainEvents []event.DomainEvent
}

// ---------------------------------------------------------------------------
// Constructors
// ---------------------------------------------------------------------------

// NewLoanParams carries the validated application terms.
type NewLoanParams struct {
	ApplicationDate  time.Time
	FirstPaymentDate time.Time
	Product          LoanProduct
	Interval         valueobject.PaymentInterval
	Operator         valueobject.Operator
	LoanNumber       string
	CustomerID       string
	Purpose          string
	Principal        money.Money
	TermMonths       int
}

// NewLoan opens a pending loan and computes its repayment schedule. The
// schedule amounts are fixed from here on.
func NewLoan(p NewLoanParams, now time.Time) (Loan, []ScheduleEntry, error) {
	if p.CustomerID == "" {
		return Loan{}, nil, NewValidationError("customer id is required")
	}
	if p.LoanNumber == "" {
		return Loan{}, nil, NewValidationError("loan number is required")
	}
	if p.Operator.IsZero() {
		return Loan{}, nil, NewValidationError("operator is required")
	}
	if err := p.Product.CheckTerms(p.Principal, p.TermMonths, p.Interval); err != nil {
		return Loan{}, nil, err
	}

	amort, err := ComputeSchedule(p.Principal, p.Product.MonthlyRate.InexactFloat64(), p.TermMonths, p.FirstPaymentDate, p.Interval)
	if err != nil {
		return Loan{}, nil, err
	}
	if err := ValidateSchedule(p.Principal, amort.Rows); err != nil {
		return Loan{}, nil, err
	}

	processing := p.Product.ProcessingFee(p.Principal)
	service := p.Product.ServiceFee
	net := p.Principal.Sub(processing).Sub(service)
	if !net.IsPositive() {
		return Loan{}, nil, NewValidationError("fees %s exceed principal %s", processing.Add(service), p.Principal)
	}

	id := uuid.New().String()
	s := LoanState{
		ID:                 id,
		LoanNumber:         p.LoanNumber,
		CustomerID:         p.CustomerID,
		ProductID:          p.Product.ID,
		Purpose:            p.Purpose,
		Principal:          p.Principal,
		MonthlyRate:        p.Product.MonthlyRate,
		PenaltyRate:        p.Product.EffectivePenaltyRate(),
		TermMonths:         p.TermMonths,
		Interval:           p.Interval,
		Status:             valueobject.LoanStatusPending,
		OutstandingBalance: p.Principal,
		ProcessingFee:      processing,
		ServiceFee:         service,
		NetProceeds:        net,
		Installment:        amort.Installment,
		TotalInterest:      amort.TotalInterest,
		TotalPayable:       amort.TotalPayable,
		ApplicationDate:    p.ApplicationDate,
		FirstPaymentDate:   p.FirstPaymentDate,
		MaturityDate:       amort.Rows[len(amort.Rows)-1].DueDate,
		CreatedBy:          p.Operator.ID.String(),
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	loan := Loan{state: s}
	loan.domainEvents = append(loan.domainEvents, event.NewLoanApplied(
		id, s.LoanNumber, s.CustomerID, s.ProductID, s.Principal, s.TermMonths,
		s.Interval.String(), s.Installment, s.CreatedBy, now,
	))

	return loan, NewScheduleEntries(id, amort.Rows, now), nil
}

// ReconstructLoan rebuilds a Loan aggregate from persistence.
func ReconstructLoan(s LoanState) Loan {
	return Loan{state: s}
}

// ---------------------------------------------------------------------------
// Origination transitions
// ---------------------------------------------------------------------------

// SubmitForReview moves a pending application to under_review.
func (l Loan) SubmitForReview(op valueobject.Operator, now time.Time) (Loan, error) {
	if !l.state.Status.Equal(valueobject.LoanStatusPending) {
		return l, NewStateError("cannot submit loan %s for review in status %s", l.state.LoanNumber, l.state.Status)
	}
	return l.changeStatus(event.TypeLoanSubmittedForReview, valueobject.LoanStatusUnderReview, "", op, now), nil
}

// Approve accepts an application awaiting decision.
func (l Loan) Approve(op valueobject.Operator, notes string, now time.Time) (Loan, error) {
	if !l.state.Status.IsAwaitingDecision() {
		return l, NewStateError("cannot approve loan %s in status %s", l.state.LoanNumber, l.state.Status)
	}
	next := l.changeStatus(event.TypeLoanApproved, valueobject.LoanStatusApproved, notes, op, now)
	next.state.ApprovalDate = now
	next.state.ApprovedBy = op.ID.String()
	next.state.ApprovalNotes = notes
	return next, nil
}

// Reject declines an application awaiting decision. A reason is mandatory.
func (l Loan) Reject(op valueobject.Operator, reason string, now time.Time) (Loan, error) {
	if strings.TrimSpace(reason) == "" {
		return l, NewValidationError("rejection reason is required")
	}
	if !l.state.Status.IsAwaitingDecision() {
		return l, NewStateError("cannot reject loan %s in status %s", l.state.LoanNumber, l.state.Status)
	}
	next := l.changeStatus(event.TypeLoanRejected, valueobject.LoanStatusRejected, reason, op, now)
	next.state.RejectionReason = reason
	next.state.RejectedBy = op.ID.String()
	return next, nil
}

// Disbursement describes the release of an approved loan.
type Disbursement struct {
	Date             time.Time
	FirstPaymentDate time.Time
	MaturityDate     time.Time
	Method           valueobject.PaymentMethod
	Reference        string
	ProcessingFee    money.Money
	ServiceFee       money.Money
}

// Disburse activates an approved loan. Net proceeds are recomputed from the
// fees on d; schedule amounts are untouched.
func (l Loan) Disburse(d Disbursement, op valueobject.Operator, now time.Time) (Loan, error) {
	if !l.state.Status.Equal(valueobject.LoanStatusApproved) {
		return l, NewStateError("cannot disburse loan %s in status %s", l.state.LoanNumber, l.state.Status)
	}
	if d.ProcessingFee.IsNegative() || d.ServiceFee.IsNegative() {
		return l, NewValidationError("fees cannot be negative")
	}
	net := l.state.Principal.Sub(d.ProcessingFee).Sub(d.ServiceFee)
	if !net.IsPositive() {
		return l, NewValidationError("fees %s exceed principal %s", d.ProcessingFee.Add(d.ServiceFee), l.state.Principal)
	}

	next := l.mutate(now)
	next.state.Status = valueobject.LoanStatusActive
	next.state.DisbursementDate = d.Date
	next.state.FirstPaymentDate = d.FirstPaymentDate
	next.state.MaturityDate = d.MaturityDate
	next.state.DisbursementMethod = d.Method
	next.state.DisbursementReference = d.Reference
	next.state.DisbursedBy = op.ID.String()
	next.state.ProcessingFee = d.ProcessingFee
	next.state.ServiceFee = d.ServiceFee
	next.state.NetProceeds = net
	next.domainEvents = append(next.domainEvents, event.NewLoanDisbursed(
		l.state.ID, l.state.LoanNumber, l.state.CustomerID, net,
		d.Method.String(), d.Reference, d.FirstPaymentDate, d.MaturityDate,
		op.ID.String(), now,
	))
	return next, nil
}

// ---------------------------------------------------------------------------
// Servicing transitions
// ---------------------------------------------------------------------------

// CanAcceptPayment reports whether repayments may be recorded.
func (l Loan) CanAcceptPayment() error {
	if !l.state.Status.Equal(valueobject.LoanStatusActive) {
		return NewStateError("loan %s cannot accept payments in status %s", l.state.LoanNumber, l.state.Status)
	}
	return nil
}

// ApplyPayment books an allocated payment against the loan totals and closes
// the loan when the outstanding balance reaches zero.
func (l Loan) ApplyPayment(p Payment, now time.Time) (Loan, error) {
	if err := l.CanAcceptPayment(); err != nil {
		return l, err
	}
	if p.LoanID != l.state.ID {
		return l, NewValidationError("payment %s does not belong to loan %s", p.PaymentNumber, l.state.LoanNumber)
	}
	if p.PrincipalPortion.GreaterThan(l.state.OutstandingBalance) {
		return l, NewValidationError("principal portion %s exceeds outstanding balance %s", p.PrincipalPortion, l.state.OutstandingBalance)
	}

	next := l.mutate(now)
	next.state.OutstandingBalance = l.state.OutstandingBalance.Sub(p.PrincipalPortion)
	next.state.TotalPrincipalPaid = l.state.TotalPrincipalPaid.Add(p.PrincipalPortion)
	next.state.TotalInterestPaid = l.state.TotalInterestPaid.Add(p.InterestPortion)
	next.state.TotalPenaltyPaid = l.state.TotalPenaltyPaid.Add(p.PenaltyPortion)
	next.state.PenaltiesOutstanding = l.state.PenaltiesOutstanding.SubFloor(p.PenaltyPortion)
	next.domainEvents = append(next.domainEvents, event.NewPaymentRecorded(
		l.state.ID, p.ID, p.PaymentNumber, p.Amount,
		p.PrincipalPortion, p.InterestPortion, p.PenaltyPortion, p.UnappliedAmount,
		next.state.OutstandingBalance, now,
	))

	if next.state.OutstandingBalance.IsZero() {
		next.state.Status = valueobject.LoanStatusClosed
		next.state.ClosedAt = now
		next.domainEvents = append(next.domainEvents, event.NewLoanClosed(l.state.ID, l.state.LoanNumber, now))
	}
	return next, nil
}

// ReversePayment undoes a payment's effect on the loan totals and forces the
// loan back to active. Paid counters are floored at zero.
func (l Loan) ReversePayment(p Payment, op valueobject.Operator, now time.Time) (Loan, error) {
	if !l.state.Status.Equal(valueobject.LoanStatusActive) && !l.state.Status.Equal(valueobject.LoanStatusClosed) {
		return l, NewStateError("cannot reverse a payment on loan %s in status %s", l.state.LoanNumber, l.state.Status)
	}
	if p.LoanID != l.state.ID {
		return l, NewValidationError("payment %s does not belong to loan %s", p.PaymentNumber, l.state.LoanNumber)
	}

	wasClosed := l.state.Status.Equal(valueobject.LoanStatusClosed)

	next := l.mutate(now)
	next.state.OutstandingBalance = l.state.OutstandingBalance.Add(p.PrincipalPortion)
	next.state.TotalPrincipalPaid = l.state.TotalPrincipalPaid.SubFloor(p.PrincipalPortion)
	next.state.TotalInterestPaid = l.state.TotalInterestPaid.SubFloor(p.InterestPortion)
	next.state.TotalPenaltyPaid = l.state.TotalPenaltyPaid.SubFloor(p.PenaltyPortion)
	next.state.PenaltiesOutstanding = l.state.PenaltiesOutstanding.Add(p.PenaltyPortion)
	next.state.Status = valueobject.LoanStatusActive
	next.state.ClosedAt = time.Time{}
	next.domainEvents = append(next.domainEvents, event.NewPaymentReversed(
		l.state.ID, p.ID, p.PaymentNumber, p.Amount, p.ReversalReason,
		next.state.OutstandingBalance, op.ID.String(), now,
	))
	if wasClosed {
		next.domainEvents = append(next.domainEvents, event.NewLoanReopened(
			l.state.ID, l.state.LoanNumber, next.state.OutstandingBalance, now,
		))
	}
	return next, nil
}

// AccruePenalties adds newly created penalty rows to the outstanding total.
func (l Loan) AccruePenalties(penalties []Penalty, asOf, now time.Time) (Loan, error) {
	if !l.state.Status.Equal(valueobject.LoanStatusActive) {
		return l, NewStateError("cannot compute penalties for loan %s in status %s", l.state.LoanNumber, l.state.Status)
	}
	if len(penalties) == 0 {
		return l, nil
	}
	total := money.Zero
	for _, p := range penalties {
		total = total.Add(p.NetPenalty)
	}

	next := l.mutate(now)
	next.state.PenaltiesOutstanding = l.state.PenaltiesOutstanding.Add(total)
	next.domainEvents = append(next.domainEvents, event.NewPenaltiesAccrued(
		l.state.ID, asOf, len(penalties), total, next.state.PenaltiesOutstanding, now,
	))
	return next, nil
}

// WaivePenalty lowers the outstanding penalty total by a waived amount.
func (l Loan) WaivePenalty(p Penalty, waived money.Money, op valueobject.Operator, now time.Time) (Loan, error) {
	if p.LoanID != l.state.ID {
		return l, NewValidationError("penalty %s does not belong to loan %s", p.ID, l.state.LoanNumber)
	}
	next := l.mutate(now)
	next.state.PenaltiesOutstanding = l.state.PenaltiesOutstanding.SubFloor(waived)
	next.domainEvents = append(next.domainEvents, event.NewPenaltyWaived(
		l.state.ID, p.ID, waived, p.NetPenalty, p.WaiverReason, op.ID.String(), now,
	))
	return next, nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (l Loan) ID() string                            { return l.state.ID }
func (l Loan) LoanNumber() string                    { return l.state.LoanNumber }
func (l Loan) CustomerID() string                    { return l.state.CustomerID }
func (l Loan) ProductID() string                     { return l.state.ProductID }
func (l Loan) Principal() money.Money                { return l.state.Principal }
func (l Loan) MonthlyRate() decimal.Decimal          { return l.state.MonthlyRate }
func (l Loan) PenaltyRate() decimal.Decimal          { return l.state.PenaltyRate }
func (l Loan) TermMonths() int                       { return l.state.TermMonths }
func (l Loan) Interval() valueobject.PaymentInterval { return l.state.Interval }
func (l Loan) Status() valueobject.LoanStatus        { return l.state.Status }
func (l Loan) OutstandingBalance() money.Money       { return l.state.OutstandingBalance }
func (l Loan) TotalPrincipalPaid() money.Money       { return l.state.TotalPrincipalPaid }
func (l Loan) TotalInterestPaid() money.Money        { return l.state.TotalInterestPaid }
func (l Loan) TotalPenaltyPaid() money.Money         { return l.state.TotalPenaltyPaid }
func (l Loan) PenaltiesOutstanding() money.Money     { return l.state.PenaltiesOutstanding }
func (l Loan) NetProceeds() money.Money              { return l.state.NetProceeds }
func (l Loan) Installment() money.Money              { return l.state.Installment }
func (l Loan) FirstPaymentDate() time.Time           { return l.state.FirstPaymentDate }
func (l Loan) MaturityDate() time.Time               { return l.state.MaturityDate }
func (l Loan) Version() int                          { return l.state.Version }
func (l Loan) DomainEvents() []event.DomainEvent     { return l.domainEvents }
func (l Loan) State() LoanState                      { return l.state }

// ClearEvents returns a copy with an empty event list.
func (l Loan) ClearEvents() Loan {
	next := l
	next.domainEvents = nil
	return next
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func (l Loan) mutate(now time.Time) Loan {
	next := l
	next.state.UpdatedAt = now
	next.state.Version = l.state.Version + 1
	next.domainEvents = copyEvents(l.domainEvents)
	return next
}

func (l Loan) changeStatus(eventType string, to valueobject.LoanStatus, reason string, op valueobject.Operator, now time.Time) Loan {
	next := l.mutate(now)
	next.state.Status = to
	next.domainEvents = append(next.domainEvents, event.NewLoanStatusChanged(
		eventType, l.state.ID, l.state.LoanNumber, l.state.Status.String(), to.String(), reason, op.ID.String(), now,
	))
	return next
}

func copyEvents(src []event.DomainEvent) []event.DomainEvent {
	if len(src) == 0 {
		return nil
	}
	dst := make([]event.DomainEvent, len(src))
	copy(dst, src)
	return dst
}
