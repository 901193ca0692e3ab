package model_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jehnsen/coopledger/internal/domain/event"
	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/valueobject"
	"github.com/jehnsen/coopledger/pkg/money"
)

var now = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func testOperator() valueobject.Operator {
	return valueobject.Operator{ID: uuid.New(), Name: "Teller One"}
}

func testProduct() model.LoanProduct {
	return model.LoanProduct{
		ID:                uuid.New().String(),
		Code:              "REG",
		Name:              "Regular Loan",
		MonthlyRate:       decimal.RequireFromString("0.015"),
		ProcessingFeeRate: decimal.RequireFromString("0.02"),
		ServiceFee:        money.New(10_000),
		MinPrincipal:      money.New(100_000),
		MaxPrincipal:      money.New(50_000_000),
		MaxTermMonths:     36,
		Intervals:         []valueobject.PaymentInterval{valueobject.PaymentIntervalMonthly, valueobject.PaymentIntervalSemiMonthly},
		IsActive:          true,
	}
}

func newPendingLoan(t *testing.T) (model.Loan, []model.ScheduleEntry) {
	t.Helper()
	loan, entries, err := model.NewLoan(model.NewLoanParams{
		LoanNumber:       "LN-2026-000001",
		CustomerID:       uuid.New().String(),
		Product:          testProduct(),
		Principal:        money.New(10_000_000),
		TermMonths:       12,
		Interval:         valueobject.PaymentIntervalMonthly,
		ApplicationDate:  now,
		FirstPaymentDate: firstDue,
		Operator:         testOperator(),
	}, now)
	require.NoError(t, err)
	return loan, entries
}

func newActiveLoan(t *testing.T) model.Loan {
	t.Helper()
	loan, _ := newPendingLoan(t)
	op := testOperator()
	loan, err := loan.Approve(op, "", now)
	require.NoError(t, err)
	loan, err = loan.Disburse(model.Disbursement{
		Date:             now,
		FirstPaymentDate: firstDue,
		MaturityDate:     firstDue.AddDate(0, 11, 0),
		Method:           valueobject.PaymentMethodCash,
		ProcessingFee:    loan.State().ProcessingFee,
		ServiceFee:       loan.State().ServiceFee,
	}, op, now)
	require.NoError(t, err)
	return loan.ClearEvents()
}

func TestNewLoan(t *testing.T) {
	loan, entries := newPendingLoan(t)

	assert.NotEmpty(t, loan.ID())
	assert.Equal(t, valueobject.LoanStatusPending, loan.Status())
	assert.Equal(t, int64(10_000_000), loan.OutstandingBalance().Centavos())
	assert.Equal(t, int64(916_800), loan.Installment().Centavos())
	assert.Equal(t, int64(200_000), loan.State().ProcessingFee.Centavos())
	assert.Equal(t, int64(10_000_000-200_000-10_000), loan.NetProceeds().Centavos())
	assert.Equal(t, time.Date(2027, 1, 15, 0, 0, 0, 0, time.UTC), loan.MaturityDate())
	assert.True(t, loan.PenaltyRate().Equal(model.DefaultPenaltyRate))
	assert.Equal(t, 1, loan.Version())

	require.Len(t, entries, 12)
	for _, e := range entries {
		assert.Equal(t, loan.ID(), e.LoanID)
		assert.Equal(t, valueobject.ScheduleStatusPending, e.Status)
	}

	require.Len(t, loan.DomainEvents(), 1)
	assert.Equal(t, event.TypeLoanApplied, loan.DomainEvents()[0].EventType())
	assert.Equal(t, loan.ID(), loan.DomainEvents()[0].AggregateID())
}

func TestNewLoan_RejectsTermsOutsideProduct(t *testing.T) {
	base := model.NewLoanParams{
		LoanNumber:       "LN-2026-000002",
		CustomerID:       uuid.New().String(),
		Product:          testProduct(),
		Principal:        money.New(1_000_000),
		TermMonths:       12,
		Interval:         valueobject.PaymentIntervalMonthly,
		ApplicationDate:  now,
		FirstPaymentDate: firstDue,
		Operator:         testOperator(),
	}

	tests := []struct {
		name   string
		mutate func(p *model.NewLoanParams)
	}{
		{"below minimum", func(p *model.NewLoanParams) { p.Principal = money.New(99_999) }},
		{"above maximum", func(p *model.NewLoanParams) { p.Principal = money.New(50_000_001) }},
		{"term too long", func(p *model.NewLoanParams) { p.TermMonths = 48 }},
		{"interval not offered", func(p *model.NewLoanParams) { p.Interval = valueobject.PaymentIntervalWeekly }},
		{"inactive product", func(p *model.NewLoanParams) { p.Product.IsActive = false }},
		{"missing customer", func(p *model.NewLoanParams) { p.CustomerID = "" }},
		{"missing operator", func(p *model.NewLoanParams) { p.Operator = valueobject.Operator{} }},
		{"zero term", func(p *model.NewLoanParams) { p.TermMonths = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			_, _, err := model.NewLoan(p, now)
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestLoan_ReviewTransitions(t *testing.T) {
	op := testOperator()

	t.Run("submit then approve", func(t *testing.T) {
		loan, _ := newPendingLoan(t)
		loan, err := loan.SubmitForReview(op, now)
		require.NoError(t, err)
		assert.Equal(t, valueobject.LoanStatusUnderReview, loan.Status())

		loan, err = loan.Approve(op, "good standing", now)
		require.NoError(t, err)
		assert.Equal(t, valueobject.LoanStatusApproved, loan.Status())
		assert.Equal(t, op.ID.String(), loan.State().ApprovedBy)
		assert.Equal(t, now, loan.State().ApprovalDate)

		types := make([]string, 0, len(loan.DomainEvents()))
		for _, e := range loan.DomainEvents() {
			types = append(types, e.EventType())
		}
		assert.Equal(t, []string{event.TypeLoanApplied, event.TypeLoanSubmittedForReview, event.TypeLoanApproved}, types)
	})

	t.Run("reject requires a reason", func(t *testing.T) {
		loan, _ := newPendingLoan(t)
		_, err := loan.Reject(op, "  ", now)
		assert.ErrorIs(t, err, model.ErrValidation)

		rejected, err := loan.Reject(op, "insufficient share capital", now)
		require.NoError(t, err)
		assert.Equal(t, valueobject.LoanStatusRejected, rejected.Status())
		assert.Equal(t, "insufficient share capital", rejected.State().RejectionReason)
	})

	t.Run("cannot approve twice", func(t *testing.T) {
		loan, _ := newPendingLoan(t)
		loan, err := loan.Approve(op, "", now)
		require.NoError(t, err)
		_, err = loan.Approve(op, "", now)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrState)
		assert.Contains(t, err.Error(), "approved")
	})

	t.Run("submit only from pending", func(t *testing.T) {
		loan, _ := newPendingLoan(t)
		loan, err := loan.SubmitForReview(op, now)
		require.NoError(t, err)
		_, err = loan.SubmitForReview(op, now)
		assert.ErrorIs(t, err, model.ErrState)
	})

	t.Run("original is unchanged", func(t *testing.T) {
		loan, _ := newPendingLoan(t)
		_, err := loan.Approve(op, "", now)
		require.NoError(t, err)
		assert.Equal(t, valueobject.LoanStatusPending, loan.Status())
		assert.Len(t, loan.DomainEvents(), 1)
	})
}

func TestLoan_Disburse(t *testing.T) {
	op := testOperator()
	loan, _ := newPendingLoan(t)

	_, err := loan.Disburse(model.Disbursement{Date: now}, op, now)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrState)

	loan, err = loan.Approve(op, "", now)
	require.NoError(t, err)

	_, err = loan.Disburse(model.Disbursement{Date: now, ProcessingFee: money.New(10_000_000)}, op, now)
	assert.ErrorIs(t, err, model.ErrValidation)

	first := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	active, err := loan.Disburse(model.Disbursement{
		Date:             now,
		FirstPaymentDate: first,
		MaturityDate:     time.Date(2027, 2, 1, 0, 0, 0, 0, time.UTC),
		Method:           valueobject.PaymentMethodBankTransfer,
		Reference:        "BT-991",
		ProcessingFee:    money.New(150_000),
	}, op, now)
	require.NoError(t, err)
	assert.Equal(t, valueobject.LoanStatusActive, active.Status())
	assert.Equal(t, int64(9_850_000), active.NetProceeds().Centavos())
	assert.Equal(t, first, active.FirstPaymentDate())
	assert.Equal(t, int64(916_800), active.Installment().Centavos())
	assert.Equal(t, event.TypeLoanDisbursed, active.DomainEvents()[len(active.DomainEvents())-1].EventType())
}

func TestLoan_ApplyAndReversePayment(t *testing.T) {
	op := testOperator()
	loan := newActiveLoan(t)
	before := loan.State()

	payment := model.NewPayment(model.NewPaymentParams{
		LoanID:        loan.ID(),
		PaymentNumber: "PAY-2026-000001",
		Method:        valueobject.PaymentMethodCash,
		PaymentDate:   now,
		Operator:      op,
		BalanceBefore: loan.OutstandingBalance(),
		Portions: model.PaymentPortions{
			Penalty:   money.New(2_000),
			Interest:  money.New(150_000),
			Principal: money.New(766_800),
		},
	}, now)
	loan = model.ReconstructLoan(func() model.LoanState {
		s := loan.State()
		s.PenaltiesOutstanding = money.New(2_000)
		return s
	}())

	paid, err := loan.ApplyPayment(payment, now)
	require.NoError(t, err)
	assert.Equal(t, int64(10_000_000-766_800), paid.OutstandingBalance().Centavos())
	assert.Equal(t, int64(766_800), paid.TotalPrincipalPaid().Centavos())
	assert.Equal(t, int64(150_000), paid.TotalInterestPaid().Centavos())
	assert.Equal(t, int64(2_000), paid.TotalPenaltyPaid().Centavos())
	assert.True(t, paid.PenaltiesOutstanding().IsZero())
	assert.Equal(t, valueobject.LoanStatusActive, paid.Status())

	reversedPayment, err := payment.MarkReversed(op, "bounced check", now)
	require.NoError(t, err)
	restored, err := paid.ReversePayment(reversedPayment, op, now)
	require.NoError(t, err)

	assert.True(t, restored.OutstandingBalance().Equal(before.OutstandingBalance))
	assert.True(t, restored.TotalPrincipalPaid().Equal(before.TotalPrincipalPaid))
	assert.True(t, restored.TotalInterestPaid().Equal(before.TotalInterestPaid))
	assert.True(t, restored.TotalPenaltyPaid().Equal(before.TotalPenaltyPaid))
	assert.Equal(t, int64(2_000), restored.PenaltiesOutstanding().Centavos())
}

func TestLoan_ApplyPaymentClosesAtZero(t *testing.T) {
	op := testOperator()
	loan := newActiveLoan(t)

	payoff := model.NewPayment(model.NewPaymentParams{
		LoanID:        loan.ID(),
		PaymentNumber: "PAY-2026-000002",
		Method:        valueobject.PaymentMethodCash,
		PaymentDate:   now,
		Operator:      op,
		BalanceBefore: loan.OutstandingBalance(),
		Portions:      model.PaymentPortions{Principal: loan.OutstandingBalance()},
	}, now)

	closed, err := loan.ApplyPayment(payoff, now)
	require.NoError(t, err)
	assert.Equal(t, valueobject.LoanStatusClosed, closed.Status())
	assert.True(t, closed.OutstandingBalance().IsZero())
	assert.Equal(t, now, closed.State().ClosedAt)
	require.Len(t, closed.DomainEvents(), 2)
	assert.Equal(t, event.TypeLoanClosed, closed.DomainEvents()[1].EventType())

	_, err = closed.ApplyPayment(payoff, now)
	assert.ErrorIs(t, err, model.ErrState)

	reversed, err := payoff.MarkReversed(op, "wrong account", now)
	require.NoError(t, err)
	reopened, err := closed.ReversePayment(reversed, op, now)
	require.NoError(t, err)
	assert.Equal(t, valueobject.LoanStatusActive, reopened.Status())
	assert.True(t, reopened.State().ClosedAt.IsZero())
	assert.Equal(t, event.TypeLoanReopened, reopened.DomainEvents()[len(reopened.DomainEvents())-1].EventType())
}

func TestLoan_ReversePaymentFloorsCounters(t *testing.T) {
	loan := newActiveLoan(t)
	payment := model.Payment{
		LoanID:           loan.ID(),
		PrincipalPortion: money.New(100),
		InterestPortion:  money.New(50),
		PenaltyPortion:   money.New(10),
	}
	reversed, err := loan.ReversePayment(payment, testOperator(), now)
	require.NoError(t, err)
	assert.True(t, reversed.TotalPrincipalPaid().IsZero())
	assert.True(t, reversed.TotalInterestPaid().IsZero())
	assert.True(t, reversed.TotalPenaltyPaid().IsZero())
}

func TestLoan_AccrueAndWaivePenalties(t *testing.T) {
	loan := newActiveLoan(t)
	entry := model.ScheduleEntry{ID: uuid.New().String(), PaymentNumber: 1}
	p1 := model.NewPenalty(loan.ID(), entry, money.New(100_000), 30, model.DefaultPenaltyRate, money.New(2_000), now, now)

	accrued, err := loan.AccruePenalties([]model.Penalty{p1}, now, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2_000), accrued.PenaltiesOutstanding().Centavos())
	assert.Equal(t, event.TypePenaltiesAccrued, accrued.DomainEvents()[0].EventType())

	unchanged, err := accrued.AccruePenalties(nil, now, now)
	require.NoError(t, err)
	assert.Len(t, unchanged.DomainEvents(), 1)

	waivedPenalty, err := p1.Waive(money.New(1_500), "first offence", "mgr", now)
	require.NoError(t, err)
	waived, err := accrued.WaivePenalty(waivedPenalty, money.New(1_500), testOperator(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(500), waived.PenaltiesOutstanding().Centavos())
	assert.Equal(t, int64(500), waivedPenalty.NetPenalty.Centavos())

	pending, _ := newPendingLoan(t)
	_, err = pending.AccruePenalties([]model.Penalty{p1}, now, now)
	assert.ErrorIs(t, err, model.ErrState)
}
