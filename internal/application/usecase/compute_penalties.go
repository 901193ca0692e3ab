package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jehnsen/coopledger/internal/application/dto"
	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/port"
	"github.com/jehnsen/coopledger/internal/domain/service"
	"github.com/jehnsen/coopledger/internal/domain/valueobject"
)

// ComputePenaltiesUseCase runs penalty accrual for one loan.
type ComputePenaltiesUseCase struct {
	store       port.LedgerStore
	engine      *service.PenaltyEngine
	clock       port.Clock
	metrics     port.LedgerMetrics
	logger      *slog.Logger
	defaultRate decimal.Decimal
}

// NewComputePenaltiesUseCase wires dependencies. defaultRate applies when
// neither the request nor the loan carries a penalty rate.
func NewComputePenaltiesUseCase(
	store port.LedgerStore,
	engine *service.PenaltyEngine,
	clock port.Clock,
	metrics port.LedgerMetrics,
	logger *slog.Logger,
	defaultRate decimal.Decimal,
) *ComputePenaltiesUseCase {
	if !defaultRate.IsPositive() {
		defaultRate = model.DefaultPenaltyRate
	}
	return &ComputePenaltiesUseCase{
		store:       store,
		engine:      engine,
		clock:       clock,
		metrics:     metrics,
		logger:      logger,
		defaultRate: defaultRate,
	}
}

// Execute accrues penalties as of the requested date. Every run adds rows;
// calling it twice for the same window doubles the charge.
func (uc *ComputePenaltiesUseCase) Execute(
	ctx context.Context,
	req dto.ComputePenaltiesRequest,
	op valueobject.Operator,
) (resp dto.ComputePenaltiesResponse, err error) {
	ctx, span := startSpan(ctx, "ComputePenalties", attribute.String("loan_id", req.LoanID))
	defer func() { endSpan(span, err) }()

	if err := requireOperator(op); err != nil {
		return dto.ComputePenaltiesResponse{}, err
	}
	if req.Rate.IsNegative() {
		return dto.ComputePenaltiesResponse{}, model.NewValidationError("penalty rate cannot be negative, got %s", req.Rate)
	}

	now := uc.clock.Now()
	asOf := dateOr(req.AsOfDate, uc.clock)

	var (
		accrual service.PenaltyAccrual
		loan    model.Loan
	)
	err = uc.store.WithinTx(ctx, func(ctx context.Context, tx port.LedgerTx) error {
		current, err := tx.LockLoan(ctx, req.LoanID)
		if err != nil {
			return fmt.Errorf("lock loan: %w", err)
		}
		entries, err := tx.OpenScheduleEntries(ctx, current.ID())
		if err != nil {
			return fmt.Errorf("load schedule: %w", err)
		}

		accrual, err = uc.engine.Accrue(current, entries, asOf, uc.rateFor(req.Rate, current), now)
		if err != nil {
			return fmt.Errorf("accrue penalties: %w", err)
		}

		if err := tx.UpdateScheduleEntries(ctx, accrual.Entries); err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}
		if len(accrual.Penalties) == 0 {
			loan = current
			return nil
		}
		if err := tx.InsertPenalties(ctx, accrual.Penalties); err != nil {
			return fmt.Errorf("insert penalties: %w", err)
		}

		updated, err := current.AccruePenalties(accrual.Penalties, asOf, now)
		if err != nil {
			return fmt.Errorf("update loan totals: %w", err)
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
		return dto.ComputePenaltiesResponse{}, err
	}

	if n := len(accrual.Penalties); n > 0 {
		uc.metrics.PenaltiesAccrued(ctx, n, accrual.Total().Centavos())
		uc.logger.Info("penalties accrued",
			"loan_id", loan.ID(),
			"as_of_date", asOf.Format("2006-01-02"),
			"count", n,
			"total_centavos", accrual.Total().Centavos(),
		)
	}

	return dto.ComputePenaltiesResponse{
		AsOfDate:                  asOf,
		Penalties:                 toPenaltyResponses(accrual.Penalties),
		TotalAccrued:              accrual.Total(),
		TotalPenaltiesOutstanding: loan.PenaltiesOutstanding(),
	}, nil
}

func (uc *ComputePenaltiesUseCase) rateFor(requested decimal.Decimal, loan model.Loan) decimal.Decimal {
	switch {
	case requested.IsPositive():
		return requested
	case loan.PenaltyRate().IsPositive():
		return loan.PenaltyRate()
	default:
		return uc.defaultRate
	}
}
