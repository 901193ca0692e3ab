package grpc

import "google.golang.org/protobuf/types/known/timestamppb"

// Amounts are decimal peso strings ("1234.50"); rates are decimal fractions
// ("0.015"). Dates are timestamps whose UTC calendar day is used.

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

type PreviewScheduleRequest struct {
	FirstPaymentDate    *timestamppb.Timestamp `json:"first_payment_date"`
	Principal           string                 `json:"principal"`
	MonthlyInterestRate string                 `json:"monthly_interest_rate"`
	PaymentInterval     string                 `json:"payment_interval"`
	TermMonths          int32                  `json:"term_months"`
}

type ApplyForLoanRequest struct {
	FirstPaymentDate *timestamppb.Timestamp `json:"first_payment_date,omitempty"`
	CustomerID       string                 `json:"customer_id"`
	ProductID        string                 `json:"product_id"`
	Principal        string                 `json:"principal"`
	PaymentInterval  string                 `json:"payment_interval"`
	Purpose          string                 `json:"purpose"`
	TermMonths       int32                  `json:"term_months"`
}

type SubmitForReviewRequest struct {
	LoanID string `json:"loan_id"`
}

type ApproveLoanRequest struct {
	LoanID string `json:"loan_id"`
	Notes  string `json:"notes"`
}

type RejectLoanRequest struct {
	LoanID string `json:"loan_id"`
	Reason string `json:"reason"`
}

// DisburseLoanRequest leaves a fee unchanged when its field is empty.
type DisburseLoanRequest struct {
	DisbursementDate *timestamppb.Timestamp `json:"disbursement_date"`
	FirstPaymentDate *timestamppb.Timestamp `json:"first_payment_date"`
	LoanID           string                 `json:"loan_id"`
	Method           string                 `json:"method"`
	Reference        string                 `json:"reference"`
	ProcessingFee    string                 `json:"processing_fee,omitempty"`
	ServiceFee       string                 `json:"service_fee,omitempty"`
}

type RecordPaymentRequest struct {
	PaymentDate    *timestamppb.Timestamp `json:"payment_date,omitempty"`
	LoanID         string                 `json:"loan_id"`
	Amount         string                 `json:"amount"`
	Method         string                 `json:"method"`
	Reference      string                 `json:"reference"`
	IdempotencyKey string                 `json:"idempotency_key"`
}

type ReversePaymentRequest struct {
	PaymentID string `json:"payment_id"`
	Reason    string `json:"reason"`
}

type ComputePenaltiesRequest struct {
	AsOfDate    *timestamppb.Timestamp `json:"as_of_date,omitempty"`
	LoanID      string                 `json:"loan_id"`
	PenaltyRate string                 `json:"penalty_rate,omitempty"`
}

type WaivePenaltyRequest struct {
	PenaltyID string `json:"penalty_id"`
	Amount    string `json:"amount"`
	Reason    string `json:"reason"`
}

type GetLoanRequest struct {
	LoanID string `json:"loan_id"`
}

// ---------------------------------------------------------------------------
// Resources
// ---------------------------------------------------------------------------

type Loan struct {
	ApplicationDate           *timestamppb.Timestamp `json:"application_date"`
	ApprovalDate              *timestamppb.Timestamp `json:"approval_date,omitempty"`
	DisbursementDate          *timestamppb.Timestamp `json:"disbursement_date,omitempty"`
	FirstPaymentDate          *timestamppb.Timestamp `json:"first_payment_date"`
	MaturityDate              *timestamppb.Timestamp `json:"maturity_date"`
	ClosedAt                  *timestamppb.Timestamp `json:"closed_at,omitempty"`
	UpdatedAt                 *timestamppb.Timestamp `json:"updated_at"`
	ID                        string                 `json:"id"`
	LoanNumber                string                 `json:"loan_number"`
	CustomerID                string                 `json:"customer_id"`
	ProductID                 string                 `json:"product_id"`
	Status                    string                 `json:"status"`
	PaymentInterval           string                 `json:"payment_interval"`
	Purpose                   string                 `json:"purpose,omitempty"`
	RejectionReason           string                 `json:"rejection_reason,omitempty"`
	MonthlyInterestRate       string                 `json:"monthly_interest_rate"`
	PenaltyRate               string                 `json:"penalty_rate"`
	Principal                 string                 `json:"principal"`
	OutstandingBalance        string                 `json:"outstanding_balance"`
	TotalPrincipalPaid        string                 `json:"total_principal_paid"`
	TotalInterestPaid         string                 `json:"total_interest_paid"`
	TotalPenaltyPaid          string                 `json:"total_penalty_paid"`
	TotalPenaltiesOutstanding string                 `json:"total_penalties_outstanding"`
	ProcessingFee             string                 `json:"processing_fee"`
	ServiceFee                string                 `json:"service_fee"`
	NetProceeds               string                 `json:"net_proceeds"`
	Installment               string                 `json:"installment"`
	TotalInterest             string                 `json:"total_interest"`
	TotalPayable              string                 `json:"total_payable"`
	TermMonths                int32                  `json:"term_months"`
	Version                   int64                  `json:"version"`
}

type ScheduleEntry struct {
	DueDate          *timestamppb.Timestamp `json:"due_date"`
	PaidDate         *timestamppb.Timestamp `json:"paid_date,omitempty"`
	Status           string                 `json:"status"`
	BeginningBalance string                 `json:"beginning_balance"`
	PrincipalDue     string                 `json:"principal_due"`
	InterestDue      string                 `json:"interest_due"`
	TotalDue         string                 `json:"total_due"`
	PrincipalPaid    string                 `json:"principal_paid"`
	InterestPaid     string                 `json:"interest_paid"`
	TotalPaid        string                 `json:"total_paid"`
	EndingBalance    string                 `json:"ending_balance"`
	PaymentNumber    int32                  `json:"payment_number"`
}

type Payment struct {
	PaymentDate      *timestamppb.Timestamp `json:"payment_date"`
	ReversedAt       *timestamppb.Timestamp `json:"reversed_at,omitempty"`
	ID               string                 `json:"id"`
	PaymentNumber    string                 `json:"payment_number"`
	LoanID           string                 `json:"loan_id"`
	Method           string                 `json:"method"`
	Reference        string                 `json:"reference,omitempty"`
	ReceivedBy       string                 `json:"received_by"`
	ReversedBy       string                 `json:"reversed_by,omitempty"`
	ReversalReason   string                 `json:"reversal_reason,omitempty"`
	Amount           string                 `json:"amount"`
	PrincipalPortion string                 `json:"principal_portion"`
	InterestPortion  string                 `json:"interest_portion"`
	PenaltyPortion   string                 `json:"penalty_portion"`
	UnappliedAmount  string                 `json:"unapplied_amount"`
	BalanceBefore    string                 `json:"balance_before"`
	BalanceAfter     string                 `json:"balance_after"`
	IsReversed       bool                   `json:"is_reversed"`
}

type Penalty struct {
	AppliedDate     *timestamppb.Timestamp `json:"applied_date"`
	PaidDate        *timestamppb.Timestamp `json:"paid_date,omitempty"`
	ID              string                 `json:"id"`
	LoanID          string                 `json:"loan_id"`
	ScheduleEntryID string                 `json:"schedule_entry_id"`
	PenaltyRate     string                 `json:"penalty_rate"`
	WaiverReason    string                 `json:"waiver_reason,omitempty"`
	OverdueAmount   string                 `json:"overdue_amount"`
	PenaltyAmount   string                 `json:"penalty_amount"`
	WaivedAmount    string                 `json:"waived_amount"`
	NetPenalty      string                 `json:"net_penalty"`
	AmountPaid      string                 `json:"amount_paid"`
	PaymentNumber   int32                  `json:"payment_number"`
	DaysOverdue     int32                  `json:"days_overdue"`
	IsPaid          bool                   `json:"is_paid"`
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

type ScheduleResponse struct {
	Rows          []*ScheduleEntry `json:"rows"`
	PeriodicRate  string           `json:"periodic_rate"`
	Installment   string           `json:"installment"`
	TotalInterest string           `json:"total_interest"`
	TotalPayable  string           `json:"total_payable"`
	Periods       int32            `json:"periods"`
}

type LoanResponse struct {
	Loan *Loan `json:"loan"`
}

type PaymentResponse struct {
	Payment    *Payment `json:"payment"`
	LoanStatus string   `json:"loan_status,omitempty"`
	Replayed   bool     `json:"replayed,omitempty"`
}

type ComputePenaltiesResponse struct {
	AsOfDate                  *timestamppb.Timestamp `json:"as_of_date"`
	Penalties                 []*Penalty             `json:"penalties"`
	TotalAccrued              string                 `json:"total_accrued"`
	TotalPenaltiesOutstanding string                 `json:"total_penalties_outstanding"`
}

type PenaltyResponse struct {
	Penalty *Penalty `json:"penalty"`
}

type GetLoanResponse struct {
	Loan         *Loan            `json:"loan"`
	Schedule     []*ScheduleEntry `json:"schedule"`
	Penalties    []*Penalty       `json:"penalties"`
	Payments     []*Payment       `json:"payments"`
	PayoffAmount string           `json:"payoff_amount"`
}
