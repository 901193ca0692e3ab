package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jehnsen/coopledger/pkg/money"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// PreviewScheduleRequest carries the terms of a hypothetical loan.
type PreviewScheduleRequest struct {
	FirstPaymentDate time.Time       `json:"first_payment_date"`
	MonthlyRate      decimal.Decimal `json:"monthly_interest_rate"`
	Interval         string          `json:"payment_interval"`
	Principal        money.Money     `json:"principal"`
	TermMonths       int             `json:"term_months"`
}

// ApplyForLoanRequest carries a member's loan application.
type ApplyForLoanRequest struct {
	// FirstPaymentDate is provisional; zero means one interval after the
	// application date.
	FirstPaymentDate time.Time   `json:"first_payment_date"`
	CustomerID       string      `json:"customer_id"`
	ProductID        string      `json:"product_id"`
	Interval         string      `json:"payment_interval"`
	Purpose          string      `json:"purpose"`
	Principal        money.Money `json:"principal"`
	TermMonths       int         `json:"term_months"`
}

// SubmitForReviewRequest identifies a pending loan.
type SubmitForReviewRequest struct {
	LoanID string `json:"loan_id"`
}

// ApproveLoanRequest identifies a loan awaiting decision.
type ApproveLoanRequest struct {
	LoanID string `json:"loan_id"`
	Notes  string `json:"notes"`
}

// RejectLoanRequest identifies a loan awaiting decision and the reason for
// declining it.
type RejectLoanRequest struct {
	LoanID string `json:"loan_id"`
	Reason string `json:"reason"`
}

// DisburseLoanRequest carries the release details of an approved loan. Nil
// fee overrides keep the fees computed at application.
type DisburseLoanRequest struct {
	DisbursementDate time.Time    `json:"disbursement_date"`
	FirstPaymentDate time.Time    `json:"first_payment_date"`
	ProcessingFee    *money.Money `json:"processing_fee,omitempty"`
	ServiceFee       *money.Money `json:"service_fee,omitempty"`
	LoanID           string       `json:"loan_id"`
	Method           string       `json:"method"`
	Reference        string       `json:"reference"`
}

// RecordPaymentRequest carries one repayment.
type RecordPaymentRequest struct {
	PaymentDate    time.Time   `json:"payment_date"`
	LoanID         string      `json:"loan_id"`
	Method         string      `json:"method"`
	Reference      string      `json:"reference"`
	IdempotencyKey string      `json:"idempotency_key"`
	Amount         money.Money `json:"amount"`
}

// ReversePaymentRequest identifies a payment to void.
type ReversePaymentRequest struct {
	PaymentID string `json:"payment_id"`
	Reason    string `json:"reason"`
}

// ComputePenaltiesRequest triggers a penalty run. A zero AsOfDate means
// today; a zero Rate means the loan's penalty rate.
type ComputePenaltiesRequest struct {
	AsOfDate time.Time       `json:"as_of_date"`
	Rate     decimal.Decimal `json:"rate"`
	LoanID   string          `json:"loan_id"`
}

// WaivePenaltyRequest forgives part of a penalty.
type WaivePenaltyRequest struct {
	PenaltyID string      `json:"penalty_id"`
	Reason    string      `json:"reason"`
	Amount    money.Money `json:"amount"`
}

// GetLoanRequest identifies a loan to retrieve.
type GetLoanRequest struct {
	LoanID string `json:"loan_id"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// ScheduleEntryResponse is one installment of a schedule.
type ScheduleEntryResponse struct {
	DueDate          time.Time   `json:"due_date"`
	PaidDate         *time.Time  `json:"paid_date,omitempty"`
	Status           string      `json:"status"`
	BeginningBalance money.Money `json:"beginning_balance"`
	PrincipalDue     money.Money `json:"principal_due"`
	InterestDue      money.Money `json:"interest_due"`
	TotalDue         money.Money `json:"total_due"`
	PrincipalPaid    money.Money `json:"principal_paid"`
	InterestPaid     money.Money `json:"interest_paid"`
	TotalPaid        money.Money `json:"total_paid"`
	EndingBalance    money.Money `json:"ending_balance"`
	PaymentNumber    int         `json:"payment_number"`
}

// ScheduleResponse is a computed repayment schedule.
type ScheduleResponse struct {
	Rows          []ScheduleEntryResponse `json:"rows"`
	PeriodicRate  decimal.Decimal         `json:"periodic_rate"`
	Installment   money.Money             `json:"installment"`
	TotalInterest money.Money             `json:"total_interest"`
	TotalPayable  money.Money             `json:"total_payable"`
	Periods       int                     `json:"periods"`
}

// LoanResponse is the external representation of a loan.
type LoanResponse struct {
	ApplicationDate      time.Time       `json:"application_date"`
	ApprovalDate         *time.Time      `json:"approval_date,omitempty"`
	DisbursementDate     *time.Time      `json:"disbursement_date,omitempty"`
	FirstPaymentDate     time.Time       `json:"first_payment_date"`
	MaturityDate         time.Time       `json:"maturity_date"`
	ClosedAt             *time.Time      `json:"closed_at,omitempty"`
	UpdatedAt            time.Time       `json:"updated_at"`
	MonthlyRate          decimal.Decimal `json:"monthly_interest_rate"`
	PenaltyRate          decimal.Decimal `json:"penalty_rate"`
	ID                   string          `json:"id"`
	LoanNumber           string          `json:"loan_number"`
	CustomerID           string          `json:"customer_id"`
	ProductID            string          `json:"product_id"`
	Interval             string          `json:"payment_interval"`
	Status               string          `json:"status"`
	Purpose              string          `json:"purpose,omitempty"`
	RejectionReason      string          `json:"rejection_reason,omitempty"`
	Principal            money.Money     `json:"principal"`
	OutstandingBalance   money.Money     `json:"outstanding_balance"`
	TotalPrincipalPaid   money.Money     `json:"total_principal_paid"`
	TotalInterestPaid    money.Money     `json:"total_interest_paid"`
	TotalPenaltyPaid     money.Money     `json:"total_penalty_paid"`
	PenaltiesOutstanding money.Money     `json:"total_penalties_outstanding"`
	ProcessingFee        money.Money     `json:"processing_fee"`
	ServiceFee           money.Money     `json:"service_fee"`
	NetProceeds          money.Money     `json:"net_proceeds"`
	Installment          money.Money     `json:"installment"`
	TotalInterest        money.Money     `json:"total_interest"`
	TotalPayable         money.Money     `json:"total_payable"`
	TermMonths           int             `json:"term_months"`
	Version              int             `json:"version"`
}

// PaymentResponse is the external representation of a payment record.
type PaymentResponse struct {
	PaymentDate      time.Time   `json:"payment_date"`
	ReversedAt       *time.Time  `json:"reversed_at,omitempty"`
	ID               string      `json:"id"`
	PaymentNumber    string      `json:"payment_number"`
	LoanID           string      `json:"loan_id"`
	Method           string      `json:"method"`
	Reference        string      `json:"reference,omitempty"`
	ReceivedBy       string      `json:"received_by"`
	ReversedBy       string      `json:"reversed_by,omitempty"`
	ReversalReason   string      `json:"reversal_reason,omitempty"`
	LoanStatus       string      `json:"loan_status,omitempty"`
	Amount           money.Money `json:"amount"`
	PrincipalPortion money.Money `json:"principal_portion"`
	InterestPortion  money.Money `json:"interest_portion"`
	PenaltyPortion   money.Money `json:"penalty_portion"`
	UnappliedAmount  money.Money `json:"unapplied_amount"`
	BalanceBefore    money.Money `json:"balance_before"`
	BalanceAfter     money.Money `json:"balance_after"`
	IsReversed       bool        `json:"is_reversed"`
	// Replayed is set when the response was served from an earlier request
	// with the same idempotency key.
	Replayed bool `json:"replayed,omitempty"`
}

// PenaltyResponse is the external representation of a penalty.
type PenaltyResponse struct {
	AppliedDate     time.Time       `json:"applied_date"`
	PaidDate        *time.Time      `json:"paid_date,omitempty"`
	PenaltyRate     decimal.Decimal `json:"penalty_rate"`
	ID              string          `json:"id"`
	LoanID          string          `json:"loan_id"`
	ScheduleEntryID string          `json:"schedule_entry_id"`
	WaiverReason    string          `json:"waiver_reason,omitempty"`
	OverdueAmount   money.Money     `json:"overdue_amount"`
	PenaltyAmount   money.Money     `json:"penalty_amount"`
	WaivedAmount    money.Money     `json:"waived_amount"`
	NetPenalty      money.Money     `json:"net_penalty"`
	AmountPaid      money.Money     `json:"amount_paid"`
	PaymentNumber   int             `json:"payment_number"`
	DaysOverdue     int             `json:"days_overdue"`
	IsPaid          bool            `json:"is_paid"`
}

// ComputePenaltiesResponse lists the penalties created by one run.
type ComputePenaltiesResponse struct {
	AsOfDate                  time.Time         `json:"as_of_date"`
	Penalties                 []PenaltyResponse `json:"penalties"`
	TotalAccrued              money.Money       `json:"total_accrued"`
	TotalPenaltiesOutstanding money.Money       `json:"total_penalties_outstanding"`
}

// LoanDetailResponse is a loan with its child rows and a payoff quote.
type LoanDetailResponse struct {
	Loan         LoanResponse            `json:"loan"`
	Schedule     []ScheduleEntryResponse `json:"schedule"`
	Penalties    []PenaltyResponse       `json:"penalties"`
	Payments     []PaymentResponse       `json:"payments"`
	PayoffAmount money.Money             `json:"payoff_amount"`
}
