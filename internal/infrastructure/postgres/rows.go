package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/valueobject"
	pgpkg "github.com/jehnsen/coopledger/pkg/postgres"
)

// nullTime maps the zero time to SQL NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func timeOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}

// dateOf reads a DATE column, which pgx returns at midnight UTC.
func dateOf(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// translate converts driver errors into domain errors.
func translate(err error, format string, args ...any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return model.NewNotFoundError(format, args...)
	case pgpkg.IsUniqueViolation(err):
		return fmt.Errorf("%w: %w", model.NewConflictError(format, args...), err)
	default:
		return err
	}
}

// ---------------------------------------------------------------------------
// loans
// ---------------------------------------------------------------------------

const loanColumns = `
	id, loan_number, customer_id, product_id, principal,
	monthly_interest_rate, penalty_rate, term_months, payment_interval, status,
	purpose, application_date, approval_date, disbursement_date,
	first_payment_date, maturity_date, closed_at,
	rejection_reason, approval_notes, disbursement_method, disbursement_reference,
	created_by, approved_by, rejected_by, disbursed_by,
	outstanding_balance, total_principal_paid, total_interest_paid, total_penalty_paid,
	total_penalties_outstanding, processing_fee, service_fee, net_proceeds,
	installment, total_interest, total_payable, version, created_at, updated_at`

func loanArgs(s model.LoanState) []any {
	return []any{
		s.ID, s.LoanNumber, s.CustomerID, s.ProductID, s.Principal,
		s.MonthlyRate, s.PenaltyRate, s.TermMonths, s.Interval.String(), s.Status.String(),
		s.Purpose, s.ApplicationDate, nullTime(s.ApprovalDate), nullTime(s.DisbursementDate),
		s.FirstPaymentDate, s.MaturityDate, nullTime(s.ClosedAt),
		s.RejectionReason, s.ApprovalNotes, s.DisbursementMethod.String(), s.DisbursementReference,
		s.CreatedBy, s.ApprovedBy, s.RejectedBy, s.DisbursedBy,
		s.OutstandingBalance, s.TotalPrincipalPaid, s.TotalInterestPaid, s.TotalPenaltyPaid,
		s.PenaltiesOutstanding, s.ProcessingFee, s.ServiceFee, s.NetProceeds,
		s.Installment, s.TotalInterest, s.TotalPayable, s.Version, s.CreatedAt, s.UpdatedAt,
	}
}

func scanLoan(row pgx.Row) (model.Loan, error) {
	var (
		s                                        model.LoanState
		interval, status, method                 string
		applicationDate, firstPayment, maturity  time.Time
		approvalDate, disbursementDate, closedAt *time.Time
	)
	err := row.Scan(
		&s.ID, &s.LoanNumber, &s.CustomerID, &s.ProductID, &s.Principal,
		&s.MonthlyRate, &s.PenaltyRate, &s.TermMonths, &interval, &status,
		&s.Purpose, &applicationDate, &approvalDate, &disbursementDate,
		&firstPayment, &maturity, &closedAt,
		&s.RejectionReason, &s.ApprovalNotes, &method, &s.DisbursementReference,
		&s.CreatedBy, &s.ApprovedBy, &s.RejectedBy, &s.DisbursedBy,
		&s.OutstandingBalance, &s.TotalPrincipalPaid, &s.TotalInterestPaid, &s.TotalPenaltyPaid,
		&s.PenaltiesOutstanding, &s.ProcessingFee, &s.ServiceFee, &s.NetProceeds,
		&s.Installment, &s.TotalInterest, &s.TotalPayable, &s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return model.Loan{}, err
	}

	if s.Interval, err = valueobject.NewPaymentInterval(interval); err != nil {
		return model.Loan{}, fmt.Errorf("loan %s: %w", s.ID, err)
	}
	if s.Status, err = valueobject.NewLoanStatus(status); err != nil {
		return model.Loan{}, fmt.Errorf("loan %s: %w", s.ID, err)
	}
	if method != "" {
		if s.DisbursementMethod, err = valueobject.NewPaymentMethod(method); err != nil {
			return model.Loan{}, fmt.Errorf("loan %s: %w", s.ID, err)
		}
	}
	s.ApplicationDate = dateOf(&applicationDate)
	s.FirstPaymentDate = dateOf(&firstPayment)
	s.MaturityDate = dateOf(&maturity)
	s.ApprovalDate = timeOf(approvalDate)
	s.DisbursementDate = dateOf(disbursementDate)
	s.ClosedAt = timeOf(closedAt)
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return model.ReconstructLoan(s), nil
}

// ---------------------------------------------------------------------------
// schedule entries
// ---------------------------------------------------------------------------

const scheduleColumns = `
	id, loan_id, payment_number, due_date, beginning_balance,
	principal_due, interest_due, total_due, principal_paid, interest_paid,
	total_paid, ending_balance, status, paid_date, updated_at`

func scanScheduleEntry(row pgx.CollectableRow) (model.ScheduleEntry, error) {
	var (
		e        model.ScheduleEntry
		status   string
		due      time.Time
		paidDate *time.Time
	)
	err := row.Scan(
		&e.ID, &e.LoanID, &e.PaymentNumber, &due, &e.BeginningBalance,
		&e.PrincipalDue, &e.InterestDue, &e.TotalDue, &e.PrincipalPaid, &e.InterestPaid,
		&e.TotalPaid, &e.EndingBalance, &status, &paidDate, &e.UpdatedAt,
	)
	if err != nil {
		return model.ScheduleEntry{}, err
	}
	if e.Status, err = valueobject.NewScheduleStatus(status); err != nil {
		return model.ScheduleEntry{}, fmt.Errorf("schedule entry %s: %w", e.ID, err)
	}
	e.DueDate = dateOf(&due)
	e.PaidDate = dateOf(paidDate)
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}

// ---------------------------------------------------------------------------
// penalties
// ---------------------------------------------------------------------------

const penaltyColumns = `
	id, loan_id, schedule_entry_id, payment_number, overdue_amount,
	days_overdue, penalty_rate, penalty_amount, waived_amount, net_penalty,
	amount_paid, is_paid, paid_date, applied_date, waived_by,
	waiver_reason, waived_at, created_at`

func penaltyArgs(p model.Penalty) []any {
	return []any{
		p.ID, p.LoanID, p.ScheduleEntryID, p.PaymentNumber, p.OverdueAmount,
		p.DaysOverdue, p.PenaltyRate, p.PenaltyAmount, p.WaivedAmount, p.NetPenalty,
		p.AmountPaid, p.IsPaid, nullTime(p.PaidDate), p.AppliedDate, p.WaivedBy,
		p.WaiverReason, nullTime(p.WaivedAt), p.CreatedAt,
	}
}

func scanPenalty(row pgx.CollectableRow) (model.Penalty, error) {
	var (
		p                  model.Penalty
		applied            time.Time
		paidDate, waivedAt *time.Time
	)
	err := row.Scan(
		&p.ID, &p.LoanID, &p.ScheduleEntryID, &p.PaymentNumber, &p.OverdueAmount,
		&p.DaysOverdue, &p.PenaltyRate, &p.PenaltyAmount, &p.WaivedAmount, &p.NetPenalty,
		&p.AmountPaid, &p.IsPaid, &paidDate, &applied, &p.WaivedBy,
		&p.WaiverReason, &waivedAt, &p.CreatedAt,
	)
	if err != nil {
		return model.Penalty{}, err
	}
	p.AppliedDate = dateOf(&applied)
	p.PaidDate = dateOf(paidDate)
	p.WaivedAt = timeOf(waivedAt)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}

// ---------------------------------------------------------------------------
// payments
// ---------------------------------------------------------------------------

const paymentColumns = `
	id, payment_number, loan_id, amount, principal_portion,
	interest_portion, penalty_portion, unapplied_amount, balance_before, balance_after,
	payment_method, payment_date, reference, idempotency_key, received_by,
	is_reversed, reversed_at, reversed_by, reversal_reason, created_at`

func paymentArgs(p model.Payment) []any {
	return []any{
		p.ID, p.PaymentNumber, p.LoanID, p.Amount, p.PrincipalPortion,
		p.InterestPortion, p.PenaltyPortion, p.UnappliedAmount, p.BalanceBefore, p.BalanceAfter,
		p.Method.String(), p.PaymentDate, p.Reference, p.IdempotencyKey, p.ReceivedBy,
		p.IsReversed, nullTime(p.ReversedAt), p.ReversedBy, p.ReversalReason, p.CreatedAt,
	}
}

func scanPayment(row pgx.CollectableRow) (model.Payment, error) {
	var (
		p          model.Payment
		method     string
		paidOn     time.Time
		reversedAt *time.Time
	)
	err := row.Scan(
		&p.ID, &p.PaymentNumber, &p.LoanID, &p.Amount, &p.PrincipalPortion,
		&p.InterestPortion, &p.PenaltyPortion, &p.UnappliedAmount, &p.BalanceBefore, &p.BalanceAfter,
		&method, &paidOn, &p.Reference, &p.IdempotencyKey, &p.ReceivedBy,
		&p.IsReversed, &reversedAt, &p.ReversedBy, &p.ReversalReason, &p.CreatedAt,
	)
	if err != nil {
		return model.Payment{}, err
	}
	if p.Method, err = valueobject.NewPaymentMethod(method); err != nil {
		return model.Payment{}, fmt.Errorf("payment %s: %w", p.ID, err)
	}
	p.PaymentDate = dateOf(&paidOn)
	p.ReversedAt = timeOf(reversedAt)
	p.CreatedAt = p.CreatedAt.UTC()
	return p, nil
}
