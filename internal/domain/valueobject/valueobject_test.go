package valueobject

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoanStatus(t *testing.T) {
	for _, raw := range []string{"pending", "under_review", "approved", "rejected", "active", "closed"} {
		s, err := NewLoanStatus(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, s.String())
	}

	_, err := NewLoanStatus("ACTIVE")
	assert.Error(t, err)
	assert.True(t, LoanStatus{}.IsZero())
	assert.True(t, LoanStatusUnderReview.IsAwaitingDecision())
	assert.False(t, LoanStatusApproved.IsAwaitingDecision())
}

func TestScheduleStatus_IsOpen(t *testing.T) {
	assert.True(t, ScheduleStatusPending.IsOpen())
	assert.True(t, ScheduleStatusPartial.IsOpen())
	assert.True(t, ScheduleStatusOverdue.IsOpen())
	assert.False(t, ScheduleStatusPaid.IsOpen())

	s, err := NewScheduleStatus("overdue")
	require.NoError(t, err)
	assert.True(t, s.Equal(ScheduleStatusOverdue))
}

func TestPaymentInterval_PeriodsAndRates(t *testing.T) {
	tests := []struct {
		interval PaymentInterval
		periods  int
		rate     float64
	}{
		{PaymentIntervalMonthly, 12, 0.02},
		{PaymentIntervalSemiMonthly, 24, math.Sqrt(1.02) - 1},
		{PaymentIntervalWeekly, 48, math.Pow(1.02, 1/4.33) - 1},
	}
	for _, tt := range tests {
		t.Run(tt.interval.String(), func(t *testing.T) {
			assert.Equal(t, tt.periods, tt.interval.Periods(12))
			assert.InDelta(t, tt.rate, tt.interval.PeriodicRate(0.02), 1e-12)
		})
	}
}

func TestPaymentInterval_DueDate(t *testing.T) {
	jan31 := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, jan31, PaymentIntervalMonthly.DueDate(jan31, 1))
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), PaymentIntervalMonthly.DueDate(jan31, 2))
	assert.Equal(t, time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC), PaymentIntervalMonthly.DueDate(jan31, 3))
	assert.Equal(t, time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC), PaymentIntervalMonthly.DueDate(jan31, 13))

	mar1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), PaymentIntervalSemiMonthly.DueDate(mar1, 2))
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), PaymentIntervalWeekly.DueDate(mar1, 3))
	assert.Equal(t, time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC), PaymentIntervalMonthly.Next(mar1))
}

func TestFormatSequenceNumber(t *testing.T) {
	assert.Equal(t, "LN-2026-000001", FormatSequenceNumber(SequenceLoan, 2026, 1))
	assert.Equal(t, "PAY-2026-123456", FormatSequenceNumber(SequencePayment, 2026, 123456))
	assert.Equal(t, "PAY-2026-1234567", FormatSequenceNumber(SequencePayment, 2026, 1234567))
}

func TestNewOperator(t *testing.T) {
	_, err := NewOperator(uuid.Nil, "nobody")
	assert.Error(t, err)

	op, err := NewOperator(uuid.New(), "Teller 1")
	require.NoError(t, err)
	assert.False(t, op.IsZero())

	_, err = NewPaymentMethod("barter")
	assert.Error(t, err)
}
