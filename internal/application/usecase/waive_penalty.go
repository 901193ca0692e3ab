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

// WaivePenaltyUseCase forgives part or all of a penalty.
type WaivePenaltyUseCase struct {
	store  port.LedgerStore
	clock  port.Clock
	logger *slog.Logger
}

// NewWaivePenaltyUseCase wires dependencies.
func NewWaivePenaltyUseCase(store port.LedgerStore, clock port.Clock, logger *slog.Logger) *WaivePenaltyUseCase {
	return &WaivePenaltyUseCase{store: store, clock: clock, logger: logger}
}

// Execute waives req.Amount of the penalty.
func (uc *WaivePenaltyUseCase) Execute(
	ctx context.Context,
	req dto.WaivePenaltyRequest,
	op valueobject.Operator,
) (resp dto.PenaltyResponse, err error) {
	ctx, span := startSpan(ctx, "WaivePenalty", attribute.String("penalty_id", req.PenaltyID))
	defer func() { endSpan(span, err) }()

	// 1. Validate request shape.
	if err := requireOperator(op); err != nil {
		return dto.PenaltyResponse{}, err
	}
	if !req.Amount.IsPositive() {
		return dto.PenaltyResponse{}, model.NewValidationError("waived amount must be positive")
	}
	if strings.TrimSpace(req.Reason) == "" {
		return dto.PenaltyResponse{}, model.NewValidationError("waiver reason is required")
	}

	// 2. Resolve the owning loan so it can be locked first.
	found, err := uc.store.FindPenalty(ctx, req.PenaltyID)
	if err != nil {
		return dto.PenaltyResponse{}, fmt.Errorf("find penalty: %w", err)
	}

	now := uc.clock.Now()
	var penalty model.Penalty
	err = uc.store.WithinTx(ctx, func(ctx context.Context, tx port.LedgerTx) error {
		loan, err := tx.LockLoan(ctx, found.LoanID)
		if err != nil {
			return fmt.Errorf("lock loan: %w", err)
		}
		current, err := tx.LockPenalty(ctx, req.PenaltyID)
		if err != nil {
			return fmt.Errorf("lock penalty: %w", err)
		}

		waived, err := current.Waive(req.Amount, req.Reason, op.ID.String(), now)
		if err != nil {
			return fmt.Errorf("waive penalty: %w", err)
		}
		loan, err = loan.WaivePenalty(waived, req.Amount, op, now)
		if err != nil {
			return fmt.Errorf("update loan totals: %w", err)
		}

		if err := tx.UpdatePenalties(ctx, []model.Penalty{waived}); err != nil {
			return fmt.Errorf("update penalty: %w", err)
		}
		if err := tx.UpdateLoan(ctx, loan); err != nil {
			return fmt.Errorf("update loan: %w", err)
		}
		if err := tx.AppendOutbox(ctx, loan.DomainEvents()...); err != nil {
			return fmt.Errorf("append outbox: %w", err)
		}
		penalty = waived
		return nil
	})
	if err != nil {
		return dto.PenaltyResponse{}, err
	}

	uc.logger.Info("penalty waived",
		"loan_id", penalty.LoanID,
		"penalty_id", penalty.ID,
		"waived_centavos", req.Amount.Centavos(),
		"net_penalty_centavos", penalty.NetPenalty.Centavos(),
		"waived_by", op.ID.String(),
	)
	return toPenaltyResponse(penalty), nil
}
