package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/service"
	"github.com/jehnsen/coopledger/internal/domain/valueobject"
	"github.com/jehnsen/coopledger/pkg/money"
)

func TestPaymentAllocator_PenaltyThenInterestFirst(t *testing.T) {
	allocator := service.NewPaymentAllocator()
	loan := activeLoan(t, 1_000_000)
	penalties := []model.Penalty{penalty(loan.ID(), "p-1", 2_000, firstDue)}
	entries := []model.ScheduleEntry{entry(loan.ID(), 1, 45_000, 15_000), entry(loan.ID(), 2, 46_000, 14_000)}

	alloc, err := allocator.Allocate(loan, money.New(50_000), penalties, entries, now)
	require.NoError(t, err)

	assert.Equal(t, int64(2_000), alloc.Portions.Penalty.Centavos())
	assert.Equal(t, int64(15_000), alloc.Portions.Interest.Centavos())
	assert.Equal(t, int64(33_000), alloc.Portions.Principal.Centavos())
	assert.True(t, alloc.Portions.Unapplied.IsZero())
	assert.Equal(t, int64(50_000), alloc.Portions.Applied().Centavos())

	require.Len(t, alloc.Penalties, 1)
	assert.True(t, alloc.Penalties[0].IsPaid)
	assert.Equal(t, now, alloc.Penalties[0].PaidDate)

	require.Len(t, alloc.Entries, 1)
	assert.Equal(t, 1, alloc.Entries[0].PaymentNumber)
	assert.Equal(t, valueobject.ScheduleStatusPartial, alloc.Entries[0].Status)
	assert.Equal(t, int64(48_000), alloc.Entries[0].TotalPaid.Centavos())

	// inputs untouched
	assert.True(t, entries[0].TotalPaid.IsZero())
	assert.False(t, penalties[0].IsPaid)
}

func TestPaymentAllocator_Ordering(t *testing.T) {
	allocator := service.NewPaymentAllocator()
	loan := activeLoan(t, 1_000_000)

	later := firstDue.AddDate(0, 1, 0)
	penalties := []model.Penalty{
		penalty(loan.ID(), "p-c", 300, later),
		penalty(loan.ID(), "p-b", 200, firstDue),
		penalty(loan.ID(), "p-a", 100, firstDue),
	}
	paid := entry(loan.ID(), 1, 1_000, 100)
	paid.TotalPaid = paid.TotalDue
	paid.Status = valueobject.ScheduleStatusPaid
	overdue := entry(loan.ID(), 2, 1_000, 100)
	overdue.Status = valueobject.ScheduleStatusOverdue
	entries := []model.ScheduleEntry{entry(loan.ID(), 3, 1_000, 100), overdue, paid}

	alloc, err := allocator.Allocate(loan, money.New(600), penalties, entries, now)
	require.NoError(t, err)

	require.Len(t, alloc.Penalties, 3)
	assert.Equal(t, "p-a", alloc.Penalties[0].ID)
	assert.Equal(t, "p-b", alloc.Penalties[1].ID)
	assert.Equal(t, "p-c", alloc.Penalties[2].ID)
	assert.Empty(t, alloc.Entries)

	alloc, err = allocator.Allocate(loan, money.New(600+1_200), penalties, entries, now)
	require.NoError(t, err)
	require.Len(t, alloc.Entries, 2)
	assert.Equal(t, 2, alloc.Entries[0].PaymentNumber)
	assert.Equal(t, valueobject.ScheduleStatusPaid, alloc.Entries[0].Status)
	assert.Equal(t, 3, alloc.Entries[1].PaymentNumber)
	assert.Equal(t, int64(100), alloc.Entries[1].InterestPaid.Centavos())
	assert.True(t, alloc.Entries[1].PrincipalPaid.IsZero())
	assert.Equal(t, int64(200), alloc.Portions.Interest.Centavos())
	assert.Equal(t, int64(1_000), alloc.Portions.Principal.Centavos())
}

func TestPaymentAllocator_PartialPenalty(t *testing.T) {
	allocator := service.NewPaymentAllocator()
	loan := activeLoan(t, 1_000_000)
	penalties := []model.Penalty{penalty(loan.ID(), "p-1", 2_000, firstDue)}

	alloc, err := allocator.Allocate(loan, money.New(1_500), penalties, nil, now)
	require.NoError(t, err)
	require.Len(t, alloc.Penalties, 1)
	assert.False(t, alloc.Penalties[0].IsPaid)
	assert.Equal(t, int64(500), alloc.Penalties[0].Collectible().Centavos())
}

func TestPaymentAllocator_OverpaymentStaysUnapplied(t *testing.T) {
	allocator := service.NewPaymentAllocator()
	loan := activeLoan(t, 2_000)
	entries := []model.ScheduleEntry{entry(loan.ID(), 1, 1_000, 50), entry(loan.ID(), 2, 1_000, 20)}

	alloc, err := allocator.Allocate(loan, money.New(5_000), nil, entries, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2_070), alloc.Portions.Applied().Centavos())
	assert.Equal(t, int64(2_930), alloc.Portions.Unapplied.Centavos())
	assert.Equal(t, int64(2_070), service.PayoffAmount(nil, entries).Centavos())
}

func TestPaymentAllocator_Rejects(t *testing.T) {
	allocator := service.NewPaymentAllocator()
	loan := activeLoan(t, 1_000)
	entries := []model.ScheduleEntry{entry(loan.ID(), 1, 1_000, 10)}

	t.Run("non-positive amount", func(t *testing.T) {
		_, err := allocator.Allocate(loan, money.Zero, nil, entries, now)
		assert.ErrorIs(t, err, model.ErrValidation)
	})

	t.Run("loan not active", func(t *testing.T) {
		s := loan.State()
		s.Status = valueobject.LoanStatusApproved
		_, err := allocator.Allocate(model.ReconstructLoan(s), money.New(100), nil, entries, now)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrState)
		assert.Contains(t, err.Error(), "approved")
	})
}

func TestPaymentAllocator_NothingOpenLeavesTenderUnapplied(t *testing.T) {
	allocator := service.NewPaymentAllocator()
	loan := activeLoan(t, 1_000)

	t.Run("no open rows", func(t *testing.T) {
		alloc, err := allocator.Allocate(loan, money.New(100), nil, nil, now)
		require.NoError(t, err)
		assert.True(t, alloc.Portions.Applied().IsZero())
		assert.Equal(t, int64(100), alloc.Portions.Unapplied.Centavos())
		assert.Empty(t, alloc.Entries)
		assert.Empty(t, alloc.Penalties)
	})

	t.Run("rows of another loan are ignored", func(t *testing.T) {
		other := entry("someone-else", 1, 1_000, 10)
		alloc, err := allocator.Allocate(loan, money.New(100), nil, []model.ScheduleEntry{other}, now)
		require.NoError(t, err)
		assert.Empty(t, alloc.Entries)
		assert.Equal(t, int64(100), alloc.Portions.Unapplied.Centavos())
	})
}
