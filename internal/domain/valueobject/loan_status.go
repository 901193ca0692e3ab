package valueobject

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// LoanStatus – immutable value object
// ---------------------------------------------------------------------------

// LoanStatus represents the lifecycle stage of a loan.
type LoanStatus struct {
	value string
}

const (
	loanStatusPending     = "pending"
	loanStatusUnderReview = "under_review"
	loanStatusApproved    = "approved"
	loanStatusRejected    = "rejected"
	loanStatusActive      = "active"
	loanStatusClosed      = "closed"
)

var (
	LoanStatusPending     = LoanStatus{value: loanStatusPending}
	LoanStatusUnderReview = LoanStatus{value: loanStatusUnderReview}
	LoanStatusApproved    = LoanStatus{value: loanStatusApproved}
	LoanStatusRejected    = LoanStatus{value: loanStatusRejected}
	LoanStatusActive      = LoanStatus{value: loanStatusActive}
	LoanStatusClosed      = LoanStatus{value: loanStatusClosed}
)

var validLoanStatuses = map[string]LoanStatus{
	loanStatusPending:     LoanStatusPending,
	loanStatusUnderReview: LoanStatusUnderReview,
	loanStatusApproved:    LoanStatusApproved,
	loanStatusRejected:    LoanStatusRejected,
	loanStatusActive:      LoanStatusActive,
	loanStatusClosed:      LoanStatusClosed,
}

// NewLoanStatus creates a LoanStatus from a raw string.
func NewLoanStatus(s string) (LoanStatus, error) {
	v, ok := validLoanStatuses[s]
	if !ok {
		return LoanStatus{}, fmt.Errorf("invalid loan status: %q", s)
	}
	return v, nil
}

// String returns the string representation of the status.
func (s LoanStatus) String() string { return s.value }

// IsZero returns true if the status has not been initialised.
func (s LoanStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses carry the same value.
func (s LoanStatus) Equal(other LoanStatus) bool { return s.value == other.value }

// IsAwaitingDecision is true for pending and under_review loans.
func (s LoanStatus) IsAwaitingDecision() bool {
	return s.value == loanStatusPending || s.value == loanStatusUnderReview
}

// ---------------------------------------------------------------------------
// ScheduleStatus – immutable value object
// ---------------------------------------------------------------------------

// ScheduleStatus represents the settlement state of one installment.
type ScheduleStatus struct {
	value string
}

const (
	scheduleStatusPending = "pending"
	scheduleStatusPartial = "partial"
	scheduleStatusPaid    = "paid"
	scheduleStatusOverdue = "overdue"
)

var (
	ScheduleStatusPending = ScheduleStatus{value: scheduleStatusPending}
	ScheduleStatusPartial = ScheduleStatus{value: scheduleStatusPartial}
	ScheduleStatusPaid    = ScheduleStatus{value: scheduleStatusPaid}
	ScheduleStatusOverdue = ScheduleStatus{value: scheduleStatusOverdue}
)

var validScheduleStatuses = map[string]ScheduleStatus{
	scheduleStatusPending: ScheduleStatusPending,
	scheduleStatusPartial: ScheduleStatusPartial,
	scheduleStatusPaid:    ScheduleStatusPaid,
	scheduleStatusOverdue: ScheduleStatusOverdue,
}

// NewScheduleStatus creates a ScheduleStatus from a raw string.
func NewScheduleStatus(s string) (ScheduleStatus, error) {
	v, ok := validScheduleStatuses[s]
	if !ok {
		return ScheduleStatus{}, fmt.Errorf("invalid schedule status: %q", s)
	}
	return v, nil
}

// String returns the string representation.
func (s ScheduleStatus) String() string { return s.value }

// IsZero returns true when not initialised.
func (s ScheduleStatus) IsZero() bool { return s.value == "" }

// Equal returns true when both statuses match.
func (s ScheduleStatus) Equal(other ScheduleStatus) bool { return s.value == other.value }

// IsOpen is true for installments that can still receive money.
func (s ScheduleStatus) IsOpen() bool {
	return s.value == scheduleStatusPending || s.value == scheduleStatusPartial || s.value == scheduleStatusOverdue
}

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)
