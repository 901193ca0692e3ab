package usecase

import (
	"context"
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

// ReversePaymentUseCase voids a recorded payment and restores the loan
// totals it changed.
type ReversePaymentUseCase struct {
	store   port.LedgerStore
	engine  *service.ReversalEngine
	clock   port.Clock
	metrics port.LedgerMetrics
	logger  *slog.Logger
}

// NewReversePaymentUseCase wires dependencies.
func NewReversePaymentUseCase(
	store port.LedgerStore,
	engine *service.ReversalEngine,
	clock port.Clock,
	metrics port.LedgerMetrics,
	logger *slog.Logger,
) *ReversePaymentUseCase {
	return &ReversePaymentUseCase{
		store:   store,
		engine:  engine,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// Execute reverses the payment. A closed loan is reopened.
func (uc *ReversePaymentUseCase) Execute(
	ctx context.Context,
	req dto.ReversePaymentRequest,
	op valueobject.Operator,
) (resp dto.PaymentResponse, err error) {
	ctx, span := startSpan(ctx, "ReversePayment", attribute.String("payment_id", req.PaymentID))
	defer func() { endSpan(span, err) }()

	// 1. Validate request shape.
	if err := requireOperator(op); err != nil {
		return dto.PaymentResponse{}, err
	}
	if strings.TrimSpace(req.Reason) == "" {
		return dto.PaymentResponse{}, model.NewValidationError("reversal reason is required")
	}

	// 2. Resolve the owning loan so it can be locked first.
	found, err := uc.store.FindPayment(ctx, req.PaymentID)
	if err != nil {
		return dto.PaymentResponse{}, fmt.Errorf("find payment: %w", err)
	}

	now := uc.clock.Now()
	var (
		payment model.Payment
		loan    model.Loan
	)
	err = uc.store.WithinTx(ctx, func(ctx context.Context, tx port.LedgerTx) error {
		current, err := tx.LockLoan(ctx, found.LoanID)
		if err != nil {
			return fmt.Errorf("lock loan: %w", err)
		}
		original, err := tx.LockPayment(ctx, req.PaymentID)
		if err != nil {
			return fmt.Errorf("lock payment: %w", err)
		}

		restored, reversed, err := uc.engine.Reverse(current, original, op, req.Reason, now)
		if err != nil {
			return fmt.Errorf("reverse payment: %w", err)
		}

		if err := tx.UpdatePayment(ctx, reversed); err != nil {
			return fmt.Errorf("update payment: %w", err)
		}
		if err := tx.UpdateLoan(ctx, restored); err != nil {
			return fmt.Errorf("update loan: %w", err)
		}
		if err := tx.AppendOutbox(ctx, restored.DomainEvents()...); err != nil {
			return fmt.Errorf("append outbox: %w", err)
		}
		payment, loan = reversed, restored.ClearEvents()
		return nil
	})
	if err != nil {
		return dto.PaymentResponse{}, err
	}

	uc.metrics.PaymentReversed(ctx, payment.Amount.Centavos())
	uc.logger.Info("payment reversed",
		"loan_id", loan.ID(),
		"payment_number", payment.PaymentNumber,
		"amount_centavos", payment.Amount.Centavos(),
		"outstanding_balance_centavos", loan.OutstandingBalance().Centavos(),
		"reversed_by", op.ID.String(),
	)

	out := toPaymentResponse(payment)
	out.LoanStatus = loan.Status().String()
	return out, nil
}
