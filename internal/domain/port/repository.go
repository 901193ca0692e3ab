package port

import (
	"context"
	"time"

	"github.com/jehnsen/coopledger/internal/domain/event"
	"github.com/jehnsen/coopledger/internal/domain/model"
)

// ---------------------------------------------------------------------------
// Ledger store (driven/secondary adapter)
// ---------------------------------------------------------------------------

// LedgerStore is durable storage for loans and their ledger rows. Reads
// outside a transaction see committed state only. Every state-changing
// operation runs inside WithinTx; fn's error rolls the whole unit back.
type LedgerStore interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx LedgerTx) error) error

	FindLoan(ctx context.Context, id string) (model.Loan, error)
	FindSchedule(ctx context.Context, loanID string) ([]model.ScheduleEntry, error)
	FindPenalties(ctx context.Context, loanID string) ([]model.Penalty, error)
	FindPenalty(ctx context.Context, id string) (model.Penalty, error)
	FindPayments(ctx context.Context, loanID string) ([]model.Payment, error)
	FindPayment(ctx context.Context, id string) (model.Payment, error)
}

// LedgerTx is the transactional view of a LedgerStore. Lock* and the
// collection reads take row locks held until the transaction ends. Callers
// lock the loan before any of its child rows.
type LedgerTx interface {
	LockLoan(ctx context.Context, id string) (model.Loan, error)
	InsertLoan(ctx context.Context, loan model.Loan) error
	// UpdateLoan writes the loan if the stored version is loan.Version()-1.
	UpdateLoan(ctx context.Context, loan model.Loan) error

	InsertSchedule(ctx context.Context, entries []model.ScheduleEntry) error
	// OpenScheduleEntries returns pending, partial and overdue rows ordered by
	// payment number.
	OpenScheduleEntries(ctx context.Context, loanID string) ([]model.ScheduleEntry, error)
	Schedule(ctx context.Context, loanID string) ([]model.ScheduleEntry, error)
	UpdateScheduleEntries(ctx context.Context, entries []model.ScheduleEntry) error

	// UnpaidPenalties returns penalties with a collectible balance, oldest
	// applied date first.
	UnpaidPenalties(ctx context.Context, loanID string) ([]model.Penalty, error)
	LockPenalty(ctx context.Context, id string) (model.Penalty, error)
	InsertPenalties(ctx context.Context, penalties []model.Penalty) error
	UpdatePenalties(ctx context.Context, penalties []model.Penalty) error

	InsertPayment(ctx context.Context, payment model.Payment) error
	LockPayment(ctx context.Context, id string) (model.Payment, error)
	UpdatePayment(ctx context.Context, payment model.Payment) error

	// NextSequence returns the next value of the (prefix, year) counter,
	// serialising concurrent callers until the transaction ends.
	NextSequence(ctx context.Context, prefix string, year int) (int64, error)

	// AppendOutbox stores events for asynchronous publication.
	AppendOutbox(ctx context.Context, events ...event.DomainEvent) error
}

// ---------------------------------------------------------------------------
// Reference data
// ---------------------------------------------------------------------------

// LoanProductRepository reads loan products.
type LoanProductRepository interface {
	FindByID(ctx context.Context, id string) (model.LoanProduct, error)
}

// MemberDirectory answers eligibility questions about cooperative members.
type MemberDirectory interface {
	IsActiveMember(ctx context.Context, customerID string) (bool, error)
}

// ---------------------------------------------------------------------------
// Idempotency
// ---------------------------------------------------------------------------

// IdempotencyGuard deduplicates client retries of a request.
//
// Begin claims key. When the key was already completed it returns the stored
// result id with claimed == false. A key claimed by a request still in flight
// yields model.ErrDuplicateRequest.
type IdempotencyGuard interface {
	Begin(ctx context.Context, key string) (resultID string, claimed bool, err error)
	Finish(ctx context.Context, key, resultID string) error
	Abort(ctx context.Context, key string) error
}

// ---------------------------------------------------------------------------
// Clock & metrics
// ---------------------------------------------------------------------------

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// LedgerMetrics records business counters.
type LedgerMetrics interface {
	LoanApplied(ctx context.Context, productID string)
	LoanDisbursed(ctx context.Context, netProceedsCentavos int64)
	PaymentRecorded(ctx context.Context, method string, amountCentavos int64)
	PaymentReversed(ctx context.Context, amountCentavos int64)
	LoanClosed(ctx context.Context)
	PenaltiesAccrued(ctx context.Context, count int, totalCentavos int64)
}
