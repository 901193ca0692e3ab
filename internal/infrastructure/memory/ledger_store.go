// Package memory provides an in-process LedgerStore used by tests and by the
// service when no database is configured.
package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jehnsen/coopledger/internal/domain/event"
	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/port"
	"github.com/jehnsen/coopledger/pkg/events"
)

var (
	_ port.LedgerStore        = (*LedgerStore)(nil)
	_ events.OutboxRepository = (*LedgerStore)(nil)
)

type sequenceKey struct {
	prefix string
	year   int
}

type ledgerData struct {
	loans     map[string]model.LoanState
	schedules map[string][]model.ScheduleEntry
	penalties map[string]model.Penalty
	payments  map[string]model.Payment
	sequences map[sequenceKey]int64
	outbox    []events.OutboxEntry
}

func newLedgerData() ledgerData {
	return ledgerData{
		loans:     make(map[string]model.LoanState),
		schedules: make(map[string][]model.ScheduleEntry),
		penalties: make(map[string]model.Penalty),
		payments:  make(map[string]model.Payment),
		sequences: make(map[sequenceKey]int64),
	}
}

func (d ledgerData) clone() ledgerData {
	c := ledgerData{
		loans:     maps.Clone(d.loans),
		schedules: make(map[string][]model.ScheduleEntry, len(d.schedules)),
		penalties: maps.Clone(d.penalties),
		payments:  maps.Clone(d.payments),
		sequences: maps.Clone(d.sequences),
		outbox:    slices.Clone(d.outbox),
	}
	for k, v := range d.schedules {
		c.schedules[k] = slices.Clone(v)
	}
	return c
}

// LedgerStore keeps the ledger in memory. Transactions are serialised by a
// single mutex and a failed transaction restores the snapshot taken when it
// began.
type LedgerStore struct {
	mu   sync.Mutex
	data ledgerData
}

// NewLedgerStore returns an empty store.
func NewLedgerStore() *LedgerStore {
	return &LedgerStore{data: newLedgerData()}
}

// WithinTx runs fn with exclusive access to the store. Store reads must not
// be called from inside fn; use tx instead.
func (s *LedgerStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx port.LedgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(ctx, &ledgerTx{data: &s.data}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// SaveLoan stores a loan and its schedule outside any transaction. Tests use
// it to seed fixtures.
func (s *LedgerStore) SaveLoan(loan model.Loan, schedule []model.ScheduleEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.loans[loan.ID()] = loan.State()
	s.data.schedules[loan.ID()] = sortedSchedule(schedule)
}

// SavePenalties stores penalties outside any transaction.
func (s *LedgerStore) SavePenalties(penalties ...model.Penalty) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range penalties {
		s.data.penalties[p.ID] = p
	}
}

// Outbox returns a copy of every outbox entry.
func (s *LedgerStore) Outbox() []events.OutboxEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.data.outbox)
}

// ---------------------------------------------------------------------------
// Reads
// ---------------------------------------------------------------------------

func (s *LedgerStore) FindLoan(_ context.Context, id string) (model.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.data.loans[id]
	if !ok {
		return model.Loan{}, model.NewNotFoundError("loan %s not found", id)
	}
	return model.ReconstructLoan(st), nil
}

func (s *LedgerStore) FindSchedule(_ context.Context, loanID string) ([]model.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.data.schedules[loanID]), nil
}

func (s *LedgerStore) FindPenalties(_ context.Context, loanID string) ([]model.Penalty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return penaltiesOf(s.data.penalties, loanID, false), nil
}

func (s *LedgerStore) FindPenalty(_ context.Context, id string) (model.Penalty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.penalties[id]
	if !ok {
		return model.Penalty{}, model.NewNotFoundError("penalty %s not found", id)
	}
	return p, nil
}

func (s *LedgerStore) FindPayments(_ context.Context, loanID string) ([]model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Payment
	for _, p := range s.data.payments {
		if p.LoanID == loanID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b model.Payment) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.PaymentNumber, b.PaymentNumber)
	})
	return out, nil
}

func (s *LedgerStore) FindPayment(_ context.Context, id string) (model.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.data.payments[id]
	if !ok {
		return model.Payment{}, model.NewNotFoundError("payment %s not found", id)
	}
	return p, nil
}

// ---------------------------------------------------------------------------
// Outbox
// ---------------------------------------------------------------------------

func (s *LedgerStore) FetchUnpublished(_ context.Context, batchSize int) ([]events.OutboxEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []events.OutboxEntry
	for _, e := range s.data.outbox {
		if e.PublishedAt != nil {
			continue
		}
		out = append(out, e)
		if len(out) == batchSize {
			break
		}
	}
	return out, nil
}

func (s *LedgerStore) MarkPublished(_ context.Context, ids []string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.outbox {
		if slices.Contains(ids, s.data.outbox[i].ID) {
			published := at
			s.data.outbox[i].PublishedAt = &published
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Transaction
// ---------------------------------------------------------------------------

type ledgerTx struct {
	data *ledgerData
}

func (tx *ledgerTx) LockLoan(_ context.Context, id string) (model.Loan, error) {
	st, ok := tx.data.loans[id]
	if !ok {
		return model.Loan{}, model.NewNotFoundError("loan %s not found", id)
	}
	return model.ReconstructLoan(st), nil
}

func (tx *ledgerTx) InsertLoan(_ context.Context, loan model.Loan) error {
	if _, ok := tx.data.loans[loan.ID()]; ok {
		return model.NewConflictError("loan %s already exists", loan.ID())
	}
	for _, st := range tx.data.loans {
		if st.LoanNumber == loan.LoanNumber() {
			return model.NewConflictError("loan number %s already exists", loan.LoanNumber())
		}
	}
	tx.data.loans[loan.ID()] = loan.State()
	return nil
}

func (tx *ledgerTx) UpdateLoan(_ context.Context, loan model.Loan) error {
	st, ok := tx.data.loans[loan.ID()]
	if !ok {
		return model.NewNotFoundError("loan %s not found", loan.ID())
	}
	if st.Version != loan.Version()-1 {
		return model.NewConflictError("loan %s has been modified concurrently", loan.LoanNumber())
	}
	tx.data.loans[loan.ID()] = loan.State()
	return nil
}

func (tx *ledgerTx) InsertSchedule(_ context.Context, entries []model.ScheduleEntry) error {
	for _, e := range entries {
		tx.data.schedules[e.LoanID] = append(tx.data.schedules[e.LoanID], e)
	}
	for loanID, rows := range tx.data.schedules {
		tx.data.schedules[loanID] = sortedSchedule(rows)
	}
	return nil
}

func (tx *ledgerTx) Schedule(_ context.Context, loanID string) ([]model.ScheduleEntry, error) {
	return slices.Clone(tx.data.schedules[loanID]), nil
}

func (tx *ledgerTx) OpenScheduleEntries(_ context.Context, loanID string) ([]model.ScheduleEntry, error) {
	var out []model.ScheduleEntry
	for _, e := range tx.data.schedules[loanID] {
		if e.IsOpen() {
			out = append(out, e)
		}
	}
	return out, nil
}

func (tx *ledgerTx) UpdateScheduleEntries(_ context.Context, entries []model.ScheduleEntry) error {
	for _, e := range entries {
		rows := tx.data.schedules[e.LoanID]
		i := slices.IndexFunc(rows, func(r model.ScheduleEntry) bool { return r.ID == e.ID })
		if i < 0 {
			return model.NewNotFoundError("schedule entry %s not found", e.ID)
		}
		rows[i] = e
	}
	return nil
}

func (tx *ledgerTx) UnpaidPenalties(_ context.Context, loanID string) ([]model.Penalty, error) {
	return penaltiesOf(tx.data.penalties, loanID, true), nil
}

func (tx *ledgerTx) LockPenalty(_ context.Context, id string) (model.Penalty, error) {
	p, ok := tx.data.penalties[id]
	if !ok {
		return model.Penalty{}, model.NewNotFoundError("penalty %s not found", id)
	}
	return p, nil
}

func (tx *ledgerTx) InsertPenalties(_ context.Context, penalties []model.Penalty) error {
	for _, p := range penalties {
		if _, ok := tx.data.penalties[p.ID]; ok {
			return model.NewConflictError("penalty %s already exists", p.ID)
		}
		tx.data.penalties[p.ID] = p
	}
	return nil
}

func (tx *ledgerTx) UpdatePenalties(_ context.Context, penalties []model.Penalty) error {
	for _, p := range penalties {
		if _, ok := tx.data.penalties[p.ID]; !ok {
			return model.NewNotFoundError("penalty %s not found", p.ID)
		}
		tx.data.penalties[p.ID] = p
	}
	return nil
}

func (tx *ledgerTx) InsertPayment(_ context.Context, payment model.Payment) error {
	for _, p := range tx.data.payments {
		if p.PaymentNumber == payment.PaymentNumber {
			return model.NewConflictError("payment number %s already exists", payment.PaymentNumber)
		}
	}
	tx.data.payments[payment.ID] = payment
	return nil
}

func (tx *ledgerTx) LockPayment(_ context.Context, id string) (model.Payment, error) {
	p, ok := tx.data.payments[id]
	if !ok {
		return model.Payment{}, model.NewNotFoundError("payment %s not found", id)
	}
	return p, nil
}

func (tx *ledgerTx) UpdatePayment(_ context.Context, payment model.Payment) error {
	if _, ok := tx.data.payments[payment.ID]; !ok {
		return model.NewNotFoundError("payment %s not found", payment.ID)
	}
	tx.data.payments[payment.ID] = payment
	return nil
}

func (tx *ledgerTx) NextSequence(_ context.Context, prefix string, year int) (int64, error) {
	key := sequenceKey{prefix: prefix, year: year}
	tx.data.sequences[key]++
	return tx.data.sequences[key], nil
}

func (tx *ledgerTx) AppendOutbox(_ context.Context, evts ...event.DomainEvent) error {
	for _, evt := range evts {
		entry, err := events.NewOutboxEntry(evt)
		if err != nil {
			return err
		}
		tx.data.outbox = append(tx.data.outbox, entry)
	}
	return nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func sortedSchedule(rows []model.ScheduleEntry) []model.ScheduleEntry {
	out := slices.Clone(rows)
	slices.SortFunc(out, func(a, b model.ScheduleEntry) int {
		return cmp.Compare(a.PaymentNumber, b.PaymentNumber)
	})
	return out
}

func penaltiesOf(all map[string]model.Penalty, loanID string, unpaidOnly bool) []model.Penalty {
	var out []model.Penalty
	for _, p := range all {
		if p.LoanID != loanID {
			continue
		}
		if unpaidOnly && !p.Collectible().IsPositive() {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b model.Penalty) int {
		if c := a.AppliedDate.Compare(b.AppliedDate); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
