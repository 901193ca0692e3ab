package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/port"
	"github.com/jehnsen/coopledger/internal/domain/valueobject"
	"github.com/jehnsen/coopledger/internal/infrastructure/memory"
	"github.com/jehnsen/coopledger/pkg/money"
)

var now = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)

func newLoan(t *testing.T, number string) (model.Loan, []model.ScheduleEntry) {
	t.Helper()
	loan, entries, err := model.NewLoan(model.NewLoanParams{
		LoanNumber: number,
		CustomerID: "member-1",
		Product: model.LoanProduct{
			ID:            "prod-1",
			MonthlyRate:   decimal.RequireFromString("0.015"),
			MinPrincipal:  money.New(1),
			MaxPrincipal:  money.New(100_000_000),
			MaxTermMonths: 12,
			Intervals:     []valueobject.PaymentInterval{valueobject.PaymentIntervalMonthly},
			IsActive:      true,
		},
		Principal:        money.New(1_000_000),
		TermMonths:       6,
		Interval:         valueobject.PaymentIntervalMonthly,
		ApplicationDate:  now,
		FirstPaymentDate: now.AddDate(0, 1, 0),
		Operator:         valueobject.Operator{ID: uuid.New()},
	}, now)
	require.NoError(t, err)
	return loan, entries
}

func insert(t *testing.T, s *memory.LedgerStore, loan model.Loan, entries []model.ScheduleEntry) {
	t.Helper()
	err := s.WithinTx(context.Background(), func(ctx context.Context, tx port.LedgerTx) error {
		if err := tx.InsertLoan(ctx, loan); err != nil {
			return err
		}
		if err := tx.InsertSchedule(ctx, entries); err != nil {
			return err
		}
		return tx.AppendOutbox(ctx, loan.DomainEvents()...)
	})
	require.NoError(t, err)
}

func TestLedgerStore_WithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := memory.NewLedgerStore()
	loan, entries := newLoan(t, "LN-2026-000001")
	insert(t, s, loan, entries)
	require.Len(t, s.Outbox(), 1)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx port.LedgerTx) error {
		locked, err := tx.LockLoan(ctx, loan.ID())
		require.NoError(t, err)
		reviewed, err := locked.SubmitForReview(valueobject.Operator{ID: uuid.New()}, now)
		require.NoError(t, err)
		require.NoError(t, tx.UpdateLoan(ctx, reviewed))
		require.NoError(t, tx.AppendOutbox(ctx, reviewed.DomainEvents()...))
		_, err = tx.NextSequence(ctx, valueobject.SequenceLoan, 2026)
		require.NoError(t, err)
		return boom
	})

	assert.ErrorIs(t, err, boom)
	stored, err := s.FindLoan(ctx, loan.ID())
	require.NoError(t, err)
	assert.Equal(t, "pending", stored.Status().String())
	assert.Equal(t, 1, stored.Version())
	assert.Len(t, s.Outbox(), 1)

	err = s.WithinTx(ctx, func(ctx context.Context, tx port.LedgerTx) error {
		n, err := tx.NextSequence(ctx, valueobject.SequenceLoan, 2026)
		assert.Equal(t, int64(1), n)
		return err
	})
	require.NoError(t, err)
}

func TestLedgerStore_UpdateLoanChecksVersion(t *testing.T) {
	ctx := context.Background()
	s := memory.NewLedgerStore()
	loan, entries := newLoan(t, "LN-2026-000001")
	insert(t, s, loan, entries)

	reviewed, err := loan.SubmitForReview(valueobject.Operator{ID: uuid.New()}, now)
	require.NoError(t, err)

	update := func(l model.Loan) error {
		return s.WithinTx(ctx, func(ctx context.Context, tx port.LedgerTx) error {
			return tx.UpdateLoan(ctx, l)
		})
	}
	require.NoError(t, update(reviewed))

	err = update(reviewed)
	assert.ErrorIs(t, err, model.ErrDuplicateRequest)
	assert.Equal(t, model.KindConflict, model.KindOf(err))
}

func TestLedgerStore_Uniqueness(t *testing.T) {
	ctx := context.Background()
	s := memory.NewLedgerStore()
	first, entries := newLoan(t, "LN-2026-000001")
	insert(t, s, first, entries)

	second, _ := newLoan(t, "LN-2026-000001")
	err := s.WithinTx(ctx, func(ctx context.Context, tx port.LedgerTx) error {
		return tx.InsertLoan(ctx, second)
	})
	assert.Equal(t, model.KindConflict, model.KindOf(err))
}

func TestLedgerStore_SequencesArePerPrefixAndYear(t *testing.T) {
	s := memory.NewLedgerStore()
	var got []int64
	err := s.WithinTx(context.Background(), func(ctx context.Context, tx port.LedgerTx) error {
		for _, k := range []struct {
			prefix string
			year   int
		}{
			{valueobject.SequenceLoan, 2026},
			{valueobject.SequenceLoan, 2026},
			{valueobject.SequencePayment, 2026},
			{valueobject.SequenceLoan, 2027},
		} {
			n, err := tx.NextSequence(ctx, k.prefix, k.year)
			if err != nil {
				return err
			}
			got = append(got, n)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 1, 1}, got)
}

func TestLedgerStore_OpenScheduleEntries(t *testing.T) {
	ctx := context.Background()
	s := memory.NewLedgerStore()
	loan, entries := newLoan(t, "LN-2026-000001")
	insert(t, s, loan, entries)

	paid, _, _ := entries[0].Apply(entries[0].TotalDue, now)
	err := s.WithinTx(ctx, func(ctx context.Context, tx port.LedgerTx) error {
		if err := tx.UpdateScheduleEntries(ctx, []model.ScheduleEntry{paid}); err != nil {
			return err
		}
		open, err := tx.OpenScheduleEntries(ctx, loan.ID())
		require.Len(t, open, 5)
		assert.Equal(t, 2, open[0].PaymentNumber)
		return err
	})
	require.NoError(t, err)
}

func TestLedgerStore_Outbox(t *testing.T) {
	ctx := context.Background()
	s := memory.NewLedgerStore()
	loan, entries := newLoan(t, "LN-2026-000001")
	insert(t, s, loan, entries)

	pending, err := s.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, loan.ID(), pending[0].AggregateID)

	require.NoError(t, s.MarkPublished(ctx, []string{pending[0].ID}, now))
	pending, err = s.FetchUnpublished(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestLedgerStore_NotFound(t *testing.T) {
	ctx := context.Background()
	s := memory.NewLedgerStore()

	_, err := s.FindLoan(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.FindPayment(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
	_, err = s.FindPenalty(ctx, "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)
}
