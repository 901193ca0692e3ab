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
	"github.com/jehnsen/coopledger/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// SubmitForReview
// ---------------------------------------------------------------------------

// SubmitForReviewUseCase moves a pending application into review.
type SubmitForReviewUseCase struct {
	store  port.LedgerStore
	clock  port.Clock
	logger *slog.Logger
}

// NewSubmitForReviewUseCase wires dependencies.
func NewSubmitForReviewUseCase(store port.LedgerStore, clock port.Clock, logger *slog.Logger) *SubmitForReviewUseCase {
	return &SubmitForReviewUseCase{store: store, clock: clock, logger: logger}
}

// Execute submits the loan for review.
func (uc *SubmitForReviewUseCase) Execute(
	ctx context.Context,
	req dto.SubmitForReviewRequest,
	op valueobject.Operator,
) (resp dto.LoanResponse, err error) {
	ctx, span := startSpan(ctx, "SubmitForReview", attribute.String("loan_id", req.LoanID))
	defer func() { endSpan(span, err) }()

	if err := requireOperator(op); err != nil {
		return dto.LoanResponse{}, err
	}

	loan, err := transitionLoan(ctx, uc.store, req.LoanID, func(l model.Loan) (model.Loan, error) {
		return l.SubmitForReview(op, uc.clock.Now())
	})
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("submit for review: %w", err)
	}

	uc.logger.Info("loan submitted for review", "loan_id", loan.ID(), "loan_number", loan.LoanNumber())
	return toLoanResponse(loan), nil
}

// ---------------------------------------------------------------------------
// Approve
// ---------------------------------------------------------------------------

// ApproveLoanUseCase approves an application awaiting decision.
type ApproveLoanUseCase struct {
	store  port.LedgerStore
	clock  port.Clock
	logger *slog.Logger
}

// NewApproveLoanUseCase wires dependencies.
func NewApproveLoanUseCase(store port.LedgerStore, clock port.Clock, logger *slog.Logger) *ApproveLoanUseCase {
	return &ApproveLoanUseCase{store: store, clock: clock, logger: logger}
}

// Execute approves the loan.
func (uc *ApproveLoanUseCase) Execute(
	ctx context.Context,
	req dto.ApproveLoanRequest,
	op valueobject.Operator,
) (resp dto.LoanResponse, err error) {
	ctx, span := startSpan(ctx, "ApproveLoan", attribute.String("loan_id", req.LoanID))
	defer func() { endSpan(span, err) }()

	if err := requireOperator(op); err != nil {
		return dto.LoanResponse{}, err
	}

	loan, err := transitionLoan(ctx, uc.store, req.LoanID, func(l model.Loan) (model.Loan, error) {
		return l.Approve(op, req.Notes, uc.clock.Now())
	})
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("approve loan: %w", err)
	}

	uc.logger.Info("loan approved",
		"loan_id", loan.ID(),
		"loan_number", loan.LoanNumber(),
		"approved_by", op.ID.String(),
	)
	return toLoanResponse(loan), nil
}

// ---------------------------------------------------------------------------
// Reject
// ---------------------------------------------------------------------------

// RejectLoanUseCase declines an application awaiting decision.
type RejectLoanUseCase struct {
	store  port.LedgerStore
	clock  port.Clock
	logger *slog.Logger
}

// NewRejectLoanUseCase wires dependencies.
func NewRejectLoanUseCase(store port.LedgerStore, clock port.Clock, logger *slog.Logger) *RejectLoanUseCase {
	return &RejectLoanUseCase{store: store, clock: clock, logger: logger}
}

// Execute rejects the loan. A reason is mandatory.
func (uc *RejectLoanUseCase) Execute(
	ctx context.Context,
	req dto.RejectLoanRequest,
	op valueobject.Operator,
) (resp dto.LoanResponse, err error) {
	ctx, span := startSpan(ctx, "RejectLoan", attribute.String("loan_id", req.LoanID))
	defer func() { endSpan(span, err) }()

	if err := requireOperator(op); err != nil {
		return dto.LoanResponse{}, err
	}
	if strings.TrimSpace(req.Reason) == "" {
		return dto.LoanResponse{}, model.NewValidationError("rejection reason is required")
	}

	loan, err := transitionLoan(ctx, uc.store, req.LoanID, func(l model.Loan) (model.Loan, error) {
		return l.Reject(op, req.Reason, uc.clock.Now())
	})
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("reject loan: %w", err)
	}

	uc.logger.Info("loan rejected",
		"loan_id", loan.ID(),
		"loan_number", loan.LoanNumber(),
		"reason", req.Reason,
	)
	return toLoanResponse(loan), nil
}
