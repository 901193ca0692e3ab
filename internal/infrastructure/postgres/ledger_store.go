// Package postgres implements the ledger ports on PostgreSQL via pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jehnsen/coopledger/internal/domain/event"
	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/port"
	"github.com/jehnsen/coopledger/pkg/events"
	pgpkg "github.com/jehnsen/coopledger/pkg/postgres"
)

// Compile-time interface check
var _ port.LedgerStore = (*LedgerStore)(nil)

// LedgerStore implements port.LedgerStore using PostgreSQL. Every WithinTx
// call is one READ COMMITTED transaction; row locks are SELECT ... FOR UPDATE.
type LedgerStore struct {
	pool *pgxpool.Pool
}

// NewLedgerStore creates a PostgreSQL-backed ledger store.
func NewLedgerStore(pool *pgxpool.Pool) *LedgerStore {
	return &LedgerStore{pool: pool}
}

// WithinTx runs fn in a transaction and commits when fn returns nil.
func (s *LedgerStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.LedgerTx) error) error {
	return pgpkg.WithTransaction(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &ledgerTx{q: tx})
	})
}

func (s *LedgerStore) FindLoan(ctx context.Context, id string) (model.Loan, error) {
	return findLoan(ctx, s.pool, id, "")
}

func (s *LedgerStore) FindSchedule(ctx context.Context, loanID string) ([]model.ScheduleEntry, error) {
	return querySchedule(ctx, s.pool, loanID, false, "")
}

func (s *LedgerStore) FindPenalties(ctx context.Context, loanID string) ([]model.Penalty, error) {
	return queryPenalties(ctx, s.pool, `
		SELECT `+penaltyColumns+` FROM loan_penalties
		WHERE loan_id = $1
		ORDER BY applied_date, id`, loanID)
}

func (s *LedgerStore) FindPenalty(ctx context.Context, id string) (model.Penalty, error) {
	return findPenalty(ctx, s.pool, id, "")
}

func (s *LedgerStore) FindPayments(ctx context.Context, loanID string) ([]model.Payment, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+paymentColumns+` FROM loan_payments
		WHERE loan_id = $1
		ORDER BY created_at, payment_number`, loanID)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	payments, err := pgx.CollectRows(rows, scanPayment)
	if err != nil {
		return nil, fmt.Errorf("scan payments: %w", err)
	}
	return payments, nil
}

func (s *LedgerStore) FindPayment(ctx context.Context, id string) (model.Payment, error) {
	return findPayment(ctx, s.pool, id, "")
}

// ---------------------------------------------------------------------------
// Shared queries
// ---------------------------------------------------------------------------

func findLoan(ctx context.Context, q pgpkg.Querier, id, lock string) (model.Loan, error) {
	loan, err := scanLoan(q.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1 `+lock, id))
	if err != nil {
		return model.Loan{}, translate(err, "loan %s not found", id)
	}
	return loan, nil
}

func querySchedule(ctx context.Context, q pgpkg.Querier, loanID string, openOnly bool, lock string) ([]model.ScheduleEntry, error) {
	filter := ""
	if openOnly {
		filter = `AND status IN ('pending', 'partial', 'overdue')`
	}
	rows, err := q.Query(ctx, `
		SELECT `+scheduleColumns+` FROM loan_schedule_entries
		WHERE loan_id = $1 `+filter+`
		ORDER BY payment_number `+lock, loanID)
	if err != nil {
		return nil, fmt.Errorf("query schedule: %w", err)
	}
	entries, err := pgx.CollectRows(rows, scanScheduleEntry)
	if err != nil {
		return nil, fmt.Errorf("scan schedule: %w", err)
	}
	return entries, nil
}

func queryPenalties(ctx context.Context, q pgpkg.Querier, sql string, args ...any) ([]model.Penalty, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query penalties: %w", err)
	}
	penalties, err := pgx.CollectRows(rows, scanPenalty)
	if err != nil {
		return nil, fmt.Errorf("scan penalties: %w", err)
	}
	return penalties, nil
}

func findPenalty(ctx context.Context, q pgpkg.Querier, id, lock string) (model.Penalty, error) {
	rows, err := q.Query(ctx, `SELECT `+penaltyColumns+` FROM loan_penalties WHERE id = $1 `+lock, id)
	if err != nil {
		return model.Penalty{}, fmt.Errorf("query penalty: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPenalty)
	if err != nil {
		return model.Penalty{}, translate(err, "penalty %s not found", id)
	}
	return p, nil
}

func findPayment(ctx context.Context, q pgpkg.Querier, id, lock string) (model.Payment, error) {
	rows, err := q.Query(ctx, `SELECT `+paymentColumns+` FROM loan_payments WHERE id = $1 `+lock, id)
	if err != nil {
		return model.Payment{}, fmt.Errorf("query payment: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanPayment)
	if err != nil {
		return model.Payment{}, translate(err, "payment %s not found", id)
	}
	return p, nil
}

// ---------------------------------------------------------------------------
// Transaction
// ---------------------------------------------------------------------------

const forUpdate = "FOR UPDATE"

type ledgerTx struct {
	q pgx.Tx
}

func (tx *ledgerTx) LockLoan(ctx context.Context, id string) (model.Loan, error) {
	return findLoan(ctx, tx.q, id, forUpdate)
}

func (tx *ledgerTx) InsertLoan(ctx context.Context, loan model.Loan) error {
	_, err := tx.q.Exec(ctx, `
		INSERT INTO loans (`+loanColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,
		        $21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35,$36,$37,$38,$39)
	`, loanArgs(loan.State())...)
	if err != nil {
		return fmt.Errorf("insert loan: %w", translate(err, "loan number %s already exists", loan.LoanNumber()))
	}
	return nil
}

func (tx *ledgerTx) UpdateLoan(ctx context.Context, loan model.Loan) error {
	s := loan.State()
	tag, err := tx.q.Exec(ctx, `
		UPDATE loans SET
			status = $2,
			approval_date = $3,
			disbursement_date = $4,
			first_payment_date = $5,
			maturity_date = $6,
			closed_at = $7,
			rejection_reason = $8,
			approval_notes = $9,
			disbursement_method = $10,
			disbursement_reference = $11,
			approved_by = $12,
			rejected_by = $13,
			disbursed_by = $14,
			outstanding_balance = $15,
			total_principal_paid = $16,
			total_interest_paid = $17,
			total_penalty_paid = $18,
			total_penalties_outstanding = $19,
			processing_fee = $20,
			service_fee = $21,
			net_proceeds = $22,
			version = $23,
			updated_at = $24
		WHERE id = $1 AND version = $23 - 1
	`, s.ID, s.Status.String(), nullTime(s.ApprovalDate), nullTime(s.DisbursementDate),
		s.FirstPaymentDate, s.MaturityDate, nullTime(s.ClosedAt),
		s.RejectionReason, s.ApprovalNotes, s.DisbursementMethod.String(), s.DisbursementReference,
		s.ApprovedBy, s.RejectedBy, s.DisbursedBy,
		s.OutstandingBalance, s.TotalPrincipalPaid, s.TotalInterestPaid, s.TotalPenaltyPaid,
		s.PenaltiesOutstanding, s.ProcessingFee, s.ServiceFee, s.NetProceeds,
		s.Version, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewConflictError("loan %s has been modified concurrently", s.LoanNumber)
	}
	return nil
}

func (tx *ledgerTx) InsertSchedule(ctx context.Context, entries []model.ScheduleEntry) error {
	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = []any{
			e.ID, e.LoanID, e.PaymentNumber, e.DueDate, e.BeginningBalance,
			e.PrincipalDue, e.InterestDue, e.TotalDue, e.PrincipalPaid, e.InterestPaid,
			e.TotalPaid, e.EndingBalance, e.Status.String(), nullTime(e.PaidDate), e.UpdatedAt,
		}
	}
	_, err := tx.q.CopyFrom(ctx, pgx.Identifier{"loan_schedule_entries"}, []string{
		"id", "loan_id", "payment_number", "due_date", "beginning_balance",
		"principal_due", "interest_due", "total_due", "principal_paid", "interest_paid",
		"total_paid", "ending_balance", "status", "paid_date", "updated_at",
	}, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy schedule entries: %w", err)
	}
	return nil
}

func (tx *ledgerTx) OpenScheduleEntries(ctx context.Context, loanID string) ([]model.ScheduleEntry, error) {
	return querySchedule(ctx, tx.q, loanID, true, forUpdate)
}

func (tx *ledgerTx) Schedule(ctx context.Context, loanID string) ([]model.ScheduleEntry, error) {
	return querySchedule(ctx, tx.q, loanID, false, forUpdate)
}

func (tx *ledgerTx) UpdateScheduleEntries(ctx context.Context, entries []model.ScheduleEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			UPDATE loan_schedule_entries SET
				due_date = $2,
				principal_paid = $3,
				interest_paid = $4,
				total_paid = $5,
				status = $6,
				paid_date = $7,
				updated_at = $8
			WHERE id = $1
		`, e.ID, e.DueDate, e.PrincipalPaid, e.InterestPaid, e.TotalPaid,
			e.Status.String(), nullTime(e.PaidDate), e.UpdatedAt)
	}
	return tx.sendBatch(ctx, batch, "schedule entry")
}

func (tx *ledgerTx) UnpaidPenalties(ctx context.Context, loanID string) ([]model.Penalty, error) {
	return queryPenalties(ctx, tx.q, `
		SELECT `+penaltyColumns+` FROM loan_penalties
		WHERE loan_id = $1 AND NOT is_paid AND net_penalty > amount_paid
		ORDER BY applied_date, id
		FOR UPDATE`, loanID)
}

func (tx *ledgerTx) LockPenalty(ctx context.Context, id string) (model.Penalty, error) {
	return findPenalty(ctx, tx.q, id, forUpdate)
}

func (tx *ledgerTx) InsertPenalties(ctx context.Context, penalties []model.Penalty) error {
	if len(penalties) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range penalties {
		batch.Queue(`
			INSERT INTO loan_penalties (`+penaltyColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		`, penaltyArgs(p)...)
	}
	return tx.sendBatch(ctx, batch, "penalty insert")
}

func (tx *ledgerTx) UpdatePenalties(ctx context.Context, penalties []model.Penalty) error {
	if len(penalties) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range penalties {
		batch.Queue(`
			UPDATE loan_penalties SET
				waived_amount = $2,
				net_penalty = $3,
				amount_paid = $4,
				is_paid = $5,
				paid_date = $6,
				waived_by = $7,
				waiver_reason = $8,
				waived_at = $9
			WHERE id = $1
		`, p.ID, p.WaivedAmount, p.NetPenalty, p.AmountPaid, p.IsPaid,
			nullTime(p.PaidDate), p.WaivedBy, p.WaiverReason, nullTime(p.WaivedAt))
	}
	return tx.sendBatch(ctx, batch, "penalty")
}

func (tx *ledgerTx) InsertPayment(ctx context.Context, payment model.Payment) error {
	_, err := tx.q.Exec(ctx, `
		INSERT INTO loan_payments (`+paymentColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`, paymentArgs(payment)...)
	if err != nil {
		return fmt.Errorf("insert payment: %w", translate(err, "payment %s already recorded", payment.PaymentNumber))
	}
	return nil
}

func (tx *ledgerTx) LockPayment(ctx context.Context, id string) (model.Payment, error) {
	return findPayment(ctx, tx.q, id, forUpdate)
}

func (tx *ledgerTx) UpdatePayment(ctx context.Context, payment model.Payment) error {
	tag, err := tx.q.Exec(ctx, `
		UPDATE loan_payments SET
			is_reversed = $2,
			reversed_at = $3,
			reversed_by = $4,
			reversal_reason = $5
		WHERE id = $1
	`, payment.ID, payment.IsReversed, nullTime(payment.ReversedAt), payment.ReversedBy, payment.ReversalReason)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewNotFoundError("payment %s not found", payment.ID)
	}
	return nil
}

// NextSequence increments the (prefix, year) counter. The upsert holds the
// counter row lock until the transaction ends, so concurrent callers queue.
func (tx *ledgerTx) NextSequence(ctx context.Context, prefix string, year int) (int64, error) {
	var n int64
	err := tx.q.QueryRow(ctx, `
		INSERT INTO document_sequences (prefix, year, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (prefix, year) DO UPDATE
			SET last_value = document_sequences.last_value + 1
		RETURNING last_value
	`, prefix, year).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("next %s sequence: %w", prefix, err)
	}
	return n, nil
}

func (tx *ledgerTx) AppendOutbox(ctx context.Context, evts ...event.DomainEvent) error {
	for _, evt := range evts {
		entry, err := events.NewOutboxEntry(evt)
		if err != nil {
			return err
		}
		_, err = tx.q.Exec(ctx, `
			INSERT INTO outbox (id, aggregate_id, aggregate_type, event_type, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, entry.ID, entry.AggregateID, entry.AggregateType, entry.EventType, entry.Payload, entry.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
	}
	return nil
}

func (tx *ledgerTx) sendBatch(ctx context.Context, batch *pgx.Batch, what string) error {
	results := tx.q.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			_ = results.Close()
			return fmt.Errorf("%s %d: %w", what, i, err)
		}
		if tag.RowsAffected() == 0 {
			_ = results.Close()
			return model.NewNotFoundError("%s %d matched no row", what, i)
		}
	}
	return results.Close()
}
