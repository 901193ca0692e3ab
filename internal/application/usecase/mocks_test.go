package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jehnsen/coopledger/internal/application/dto"
	"github.com/jehnsen/coopledger/internal/application/usecase"
	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/service"
	"github.com/jehnsen/coopledger/internal/domain/valueobject"
	"github.com/jehnsen/coopledger/internal/infrastructure/clock"
	"github.com/jehnsen/coopledger/internal/infrastructure/memory"
	"github.com/jehnsen/coopledger/pkg/money"
)

// ---------------------------------------------------------------------------
// Mock LoanProductRepository
// ---------------------------------------------------------------------------

type mockProductRepository struct {
	products map[string]model.LoanProduct
}

func (m *mockProductRepository) FindByID(_ context.Context, id string) (model.LoanProduct, error) {
	p, ok := m.products[id]
	if !ok {
		return model.LoanProduct{}, model.NewNotFoundError("loan product %s not found", id)
	}
	return p, nil
}

// ---------------------------------------------------------------------------
// Mock MemberDirectory
// ---------------------------------------------------------------------------

type mockMemberDirectory struct {
	inactive map[string]bool
	err      error
}

func (m *mockMemberDirectory) IsActiveMember(_ context.Context, customerID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return !m.inactive[customerID], nil
}

// ---------------------------------------------------------------------------
// Mock IdempotencyGuard
// ---------------------------------------------------------------------------

const pendingResult = "pending"

type mockIdempotencyGuard struct {
	mu      sync.Mutex
	keys    map[string]string
	aborted []string
}

func newMockIdempotencyGuard() *mockIdempotencyGuard {
	return &mockIdempotencyGuard{keys: make(map[string]string)}
}

func (m *mockIdempotencyGuard) Begin(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.keys[key]
	switch {
	case !ok:
		m.keys[key] = pendingResult
		return "", true, nil
	case v == pendingResult:
		return "", false, model.ErrDuplicateRequest
	default:
		return v, false, nil
	}
}

func (m *mockIdempotencyGuard) Finish(_ context.Context, key, resultID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = resultID
	return nil
}

func (m *mockIdempotencyGuard) Abort(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	m.aborted = append(m.aborted, key)
	return nil
}

// ---------------------------------------------------------------------------
// Mock LedgerMetrics
// ---------------------------------------------------------------------------

type mockMetrics struct {
	mu               sync.Mutex
	applied          int
	disbursed        int
	paymentsRecorded int
	paymentsReversed int
	closed           int
	penaltiesAccrued int
}

func (m *mockMetrics) LoanApplied(context.Context, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied++
}

func (m *mockMetrics) LoanDisbursed(context.Context, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disbursed++
}

func (m *mockMetrics) PaymentRecorded(context.Context, string, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paymentsRecorded++
}

func (m *mockMetrics) PaymentReversed(context.Context, int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paymentsReversed++
}

func (m *mockMetrics) LoanClosed(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
}

func (m *mockMetrics) PenaltiesAccrued(_ context.Context, count int, _ int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.penaltiesAccrued += count
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

const (
	testProductID  = "prod-regular"
	testCustomerID = "member-001"
)

var (
	applicationTime = time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	disbursedOn     = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	firstDueDate    = time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testOperator() valueobject.Operator {
	return valueobject.Operator{ID: uuid.MustParse("6f1c2b7e-0f58-4a4e-9d8a-3c5e1b2a7d90"), Name: "teller-1"}
}

func regularLoanProduct() model.LoanProduct {
	return model.LoanProduct{
		ID:                testProductID,
		Code:              "RL",
		Name:              "Regular Loan",
		MonthlyRate:       decimal.RequireFromString("0.015"),
		ProcessingFeeRate: decimal.RequireFromString("0.02"),
		PenaltyRate:       decimal.RequireFromString("0.02"),
		ServiceFee:        money.New(10_000),
		MinPrincipal:      money.New(100_000),
		MaxPrincipal:      money.New(50_000_000),
		MaxTermMonths:     36,
		Intervals:         []valueobject.PaymentInterval{valueobject.PaymentIntervalMonthly, valueobject.PaymentIntervalSemiMonthly},
		IsActive:          true,
	}
}

// fixture wires every use case against a shared in-memory store.
type fixture struct {
	store   *memory.LedgerStore
	clock   *clock.Fixed
	members *mockMemberDirectory
	guard   *mockIdempotencyGuard
	metrics *mockMetrics
	op      valueobject.Operator

	apply    *usecase.ApplyForLoanUseCase
	submit   *usecase.SubmitForReviewUseCase
	approve  *usecase.ApproveLoanUseCase
	reject   *usecase.RejectLoanUseCase
	disburse *usecase.DisburseLoanUseCase
	pay      *usecase.RecordPaymentUseCase
	reverse  *usecase.ReversePaymentUseCase
	accrue   *usecase.ComputePenaltiesUseCase
	waive    *usecase.WaivePenaltyUseCase
	get      *usecase.GetLoanUseCase
}

func newFixture() *fixture {
	f := &fixture{
		store:   memory.NewLedgerStore(),
		clock:   clock.NewFixed(applicationTime),
		members: &mockMemberDirectory{inactive: map[string]bool{}},
		guard:   newMockIdempotencyGuard(),
		metrics: &mockMetrics{},
		op:      testOperator(),
	}
	products := &mockProductRepository{products: map[string]model.LoanProduct{testProductID: regularLoanProduct()}}
	logger := testLogger()

	f.apply = usecase.NewApplyForLoanUseCase(f.store, products, f.members, f.clock, f.metrics, logger)
	f.submit = usecase.NewSubmitForReviewUseCase(f.store, f.clock, logger)
	f.approve = usecase.NewApproveLoanUseCase(f.store, f.clock, logger)
	f.reject = usecase.NewRejectLoanUseCase(f.store, f.clock, logger)
	f.disburse = usecase.NewDisburseLoanUseCase(f.store, f.clock, f.metrics, logger)
	f.pay = usecase.NewRecordPaymentUseCase(f.store, service.NewPaymentAllocator(), f.guard, f.clock, f.metrics, logger)
	f.reverse = usecase.NewReversePaymentUseCase(f.store, service.NewReversalEngine(), f.clock, f.metrics, logger)
	f.accrue = usecase.NewComputePenaltiesUseCase(f.store, service.NewPenaltyEngine(), f.clock, f.metrics, logger, model.DefaultPenaltyRate)
	f.waive = usecase.NewWaivePenaltyUseCase(f.store, f.clock, logger)
	f.get = usecase.NewGetLoanUseCase(f.store)
	return f
}

// applyRequest is a 100,000.00 twelve-month monthly loan.
func applyRequest() dto.ApplyForLoanRequest {
	return dto.ApplyForLoanRequest{
		CustomerID:       testCustomerID,
		ProductID:        testProductID,
		Interval:         "monthly",
		Purpose:          "rice farming inputs",
		Principal:        money.New(10_000_000),
		TermMonths:       12,
		FirstPaymentDate: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
	}
}

func (f *fixture) pendingLoan(t *testing.T) dto.LoanResponse {
	t.Helper()
	loan, err := f.apply.Execute(context.Background(), applyRequest(), f.op)
	require.NoError(t, err)
	return loan
}

func (f *fixture) approvedLoan(t *testing.T) dto.LoanResponse {
	t.Helper()
	ctx := context.Background()
	loan := f.pendingLoan(t)
	_, err := f.submit.Execute(ctx, dto.SubmitForReviewRequest{LoanID: loan.ID}, f.op)
	require.NoError(t, err)
	approved, err := f.approve.Execute(ctx, dto.ApproveLoanRequest{LoanID: loan.ID, Notes: "within limits"}, f.op)
	require.NoError(t, err)
	return approved
}

// activeLoan disburses on 2026-01-15 with the first installment due
// 2026-02-15.
func (f *fixture) activeLoan(t *testing.T) dto.LoanResponse {
	t.Helper()
	loan := f.approvedLoan(t)
	f.clock.Set(disbursedOn.Add(10 * time.Hour))
	active, err := f.disburse.Execute(context.Background(), dto.DisburseLoanRequest{
		LoanID:           loan.ID,
		DisbursementDate: disbursedOn,
		FirstPaymentDate: firstDueDate,
		Method:           "cash",
		Reference:        "CV-0001",
	}, f.op)
	require.NoError(t, err)
	return active
}

func (f *fixture) detail(t *testing.T, loanID string) dto.LoanDetailResponse {
	t.Helper()
	d, err := f.get.Execute(context.Background(), dto.GetLoanRequest{LoanID: loanID})
	require.NoError(t, err)
	return d
}
