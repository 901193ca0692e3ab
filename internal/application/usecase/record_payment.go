package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jehnsen/coopledger/internal/application/dto"
	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/port"
	"github.com/jehnsen/coopledger/internal/domain/service"
	"github.com/jehnsen/coopledger/internal/domain/valueobject"
)

// RecordPaymentUseCase applies a repayment through the allocation waterfall
// and appends the payment to the ledger.
type RecordPaymentUseCase struct {
	store     port.LedgerStore
	allocator *service.PaymentAllocator
	guard     port.IdempotencyGuard
	clock     port.Clock
	metrics   port.LedgerMetrics
	logger    *slog.Logger
}

// NewRecordPaymentUseCase wires dependencies. guard may be nil, in which
// case idempotency keys are ignored.
func NewRecordPaymentUseCase(
	store port.LedgerStore,
	allocator *service.PaymentAllocator,
	guard port.IdempotencyGuard,
	clock port.Clock,
	metrics port.LedgerMetrics,
	logger *slog.Logger,
) *RecordPaymentUseCase {
	return &RecordPaymentUseCase{
		store:     store,
		allocator: allocator,
		guard:     guard,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
	}
}

// Execute records the payment.
func (uc *RecordPaymentUseCase) Execute(
	ctx context.Context,
	req dto.RecordPaymentRequest,
	op valueobject.Operator,
) (resp dto.PaymentResponse, err error) {
	ctx, span := startSpan(ctx, "RecordPayment",
		attribute.String("loan_id", req.LoanID),
		attribute.Int64("amount_centavos", req.Amount.Centavos()),
	)
	defer func() { endSpan(span, err) }()

	// 1. Validate request shape.
	if err := requireOperator(op); err != nil {
		return dto.PaymentResponse{}, err
	}
	if strings.TrimSpace(req.LoanID) == "" {
		return dto.PaymentResponse{}, model.NewValidationError("loan id is required")
	}
	if !req.Amount.IsPositive() {
		return dto.PaymentResponse{}, model.NewValidationError("payment amount must be positive, got %d centavos", req.Amount.Centavos())
	}
	method, err := valueobject.NewPaymentMethod(req.Method)
	if err != nil {
		return dto.PaymentResponse{}, model.NewValidationError("%v", err)
	}

	// 2. Claim the idempotency key.
	key := ""
	if uc.guard != nil && req.IdempotencyKey != "" {
		key = req.LoanID + ":" + req.IdempotencyKey
		priorID, claimed, beginErr := uc.guard.Begin(ctx, key)
		if beginErr != nil {
			return dto.PaymentResponse{}, fmt.Errorf("claim idempotency key: %w", beginErr)
		}
		if !claimed {
			return uc.replay(ctx, priorID)
		}
		defer func() {
			if err != nil {
				if abortErr := uc.guard.Abort(context.WithoutCancel(ctx), key); abortErr != nil {
					uc.logger.Warn("release idempotency key", "key", key, "error", abortErr)
				}
			}
		}()
	}

	now := uc.clock.Now()
	paidOn := dateOr(req.PaymentDate, uc.clock)

	// 3. Allocate and persist atomically.
	var (
		payment model.Payment
		loan    model.Loan
	)
	err = uc.store.WithinTx(ctx, func(ctx context.Context, tx port.LedgerTx) error {
		current, err := tx.LockLoan(ctx, req.LoanID)
		if err != nil {
			return fmt.Errorf("lock loan: %w", err)
		}
		if err := current.CanAcceptPayment(); err != nil {
			return err
		}

		penalties, err := tx.UnpaidPenalties(ctx, current.ID())
		if err != nil {
			return fmt.Errorf("load penalties: %w", err)
		}
		entries, err := tx.OpenScheduleEntries(ctx, current.ID())
		if err != nil {
			return fmt.Errorf("load schedule: %w", err)
		}

		alloc, err := uc.allocator.Allocate(current, req.Amount, penalties, entries, paidOn)
		if err != nil {
			return fmt.Errorf("allocate payment: %w", err)
		}

		seq, err := tx.NextSequence(ctx, valueobject.SequencePayment, now.Year())
		if err != nil {
			return fmt.Errorf("next payment number: %w", err)
		}
		payment = model.NewPayment(model.NewPaymentParams{
			LoanID:         current.ID(),
			PaymentNumber:  valueobject.FormatSequenceNumber(valueobject.SequencePayment, now.Year(), seq),
			Method:         method,
			PaymentDate:    paidOn,
			Reference:      req.Reference,
			IdempotencyKey: req.IdempotencyKey,
			Operator:       op,
			Portions:       alloc.Portions,
			BalanceBefore:  current.OutstandingBalance(),
		}, now)

		updated, err := current.ApplyPayment(payment, now)
		if err != nil {
			return fmt.Errorf("apply payment: %w", err)
		}

		if err := tx.UpdatePenalties(ctx, alloc.Penalties); err != nil {
			return fmt.Errorf("update penalties: %w", err)
		}
		if err := tx.UpdateScheduleEntries(ctx, alloc.Entries); err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}
		if err := tx.InsertPayment(ctx, payment); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		if err := tx.UpdateLoan(ctx, updated); err != nil {
			return fmt.Errorf("update loan: %w", err)
		}
		if err := tx.AppendOutbox(ctx, updated.DomainEvents()...); err != nil {
			return fmt.Errorf("append outbox: %w", err)
		}
		loan = updated.ClearEvents()
		return nil
	})
	if err != nil {
		return dto.PaymentResponse{}, err
	}

	// 4. Complete the idempotency record.
	if key != "" {
		if err := uc.guard.Finish(ctx, key, payment.ID); err != nil {
			uc.logger.Warn("store idempotency result", "key", key, "payment_id", payment.ID, "error", err)
		}
	}

	uc.metrics.PaymentRecorded(ctx, method.String(), payment.Amount.Centavos())
	uc.logger.Info("payment recorded",
		"loan_id", loan.ID(),
		"payment_number", payment.PaymentNumber,
		"amount_centavos", payment.Amount.Centavos(),
		"outstanding_balance_centavos", loan.OutstandingBalance().Centavos(),
	)
	if payment.UnappliedAmount.IsPositive() {
		uc.logger.Warn("payment exceeds outstanding obligations",
			"loan_id", loan.ID(),
			"payment_number", payment.PaymentNumber,
			"unapplied_centavos", payment.UnappliedAmount.Centavos(),
		)
	}
	if loan.Status().Equal(valueobject.LoanStatusClosed) {
		uc.metrics.LoanClosed(ctx)
		uc.logger.Info("loan fully paid", "loan_id", loan.ID(), "loan_number", loan.LoanNumber())
	}

	out := toPaymentResponse(payment)
	out.LoanStatus = loan.Status().String()
	return out, nil
}

func (uc *RecordPaymentUseCase) replay(ctx context.Context, paymentID string) (dto.PaymentResponse, error) {
	payment, err := uc.store.FindPayment(ctx, paymentID)
	if errors.Is(err, model.ErrNotFound) {
		return dto.PaymentResponse{}, model.NewConflictError("payment for this idempotency key is not available")
	}
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("find prior payment: %w", err)
	}
	out := toPaymentResponse(payment)
	out.Replayed = true
	return out, nil
}
