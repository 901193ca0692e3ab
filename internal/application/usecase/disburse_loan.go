package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jehnsen/coopledger/internal/application/dto"
	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/port"
	"github.com/jehnsen/coopledger/internal/domain/valueobject"
)

// DisburseLoanUseCase releases an approved loan, aligns its schedule to the
// actual first payment date and activates it.
type DisburseLoanUseCase struct {
	store   port.LedgerStore
	clock   port.Clock
	metrics port.LedgerMetrics
	logger  *slog.Logger
}

// NewDisburseLoanUseCase wires dependencies.
func NewDisburseLoanUseCase(
	store port.LedgerStore,
	clock port.Clock,
	metrics port.LedgerMetrics,
	logger *slog.Logger,
) *DisburseLoanUseCase {
	return &DisburseLoanUseCase{
		store:   store,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// Execute disburses the loan. Only due dates move; amounts are unchanged.
func (uc *DisburseLoanUseCase) Execute(
	ctx context.Context,
	req dto.DisburseLoanRequest,
	op valueobject.Operator,
) (resp dto.LoanResponse, err error) {
	ctx, span := startSpan(ctx, "DisburseLoan", attribute.String("loan_id", req.LoanID))
	defer func() { endSpan(span, err) }()

	// 1. Validate request shape.
	if err := requireOperator(op); err != nil {
		return dto.LoanResponse{}, err
	}
	method, err := valueobject.NewPaymentMethod(req.Method)
	if err != nil {
		return dto.LoanResponse{}, model.NewValidationError("%v", err)
	}
	if (req.ProcessingFee != nil && req.ProcessingFee.IsNegative()) || (req.ServiceFee != nil && req.ServiceFee.IsNegative()) {
		return dto.LoanResponse{}, model.NewValidationError("fees cannot be negative")
	}

	now := uc.clock.Now()
	disbursedOn := dateOr(req.DisbursementDate, uc.clock)

	var loan model.Loan
	err = uc.store.WithinTx(ctx, func(ctx context.Context, tx port.LedgerTx) error {
		// 2. Lock the loan.
		current, err := tx.LockLoan(ctx, req.LoanID)
		if err != nil {
			return fmt.Errorf("lock loan: %w", err)
		}
		if !current.Status().Equal(valueobject.LoanStatusApproved) {
			return model.NewStateError("cannot disburse loan %s in status %s", current.LoanNumber(), current.Status())
		}

		// 3. Recompute due dates from the actual first payment date.
		firstPayment := req.FirstPaymentDate
		if firstPayment.IsZero() {
			firstPayment = current.Interval().Next(disbursedOn)
		}
		firstPayment = dateOr(firstPayment, uc.clock)

		schedule, err := tx.Schedule(ctx, current.ID())
		if err != nil {
			return fmt.Errorf("load schedule: %w", err)
		}
		rescheduled, maturity := model.RescheduleDueDates(schedule, firstPayment, current.Interval())
		for i := range rescheduled {
			rescheduled[i].UpdatedAt = now
		}

		// 4. Activate.
		state := current.State()
		processing, service := state.ProcessingFee, state.ServiceFee
		if req.ProcessingFee != nil {
			processing = *req.ProcessingFee
		}
		if req.ServiceFee != nil {
			service = *req.ServiceFee
		}
		disbursed, err := current.Disburse(model.Disbursement{
			Date:             disbursedOn,
			FirstPaymentDate: firstPayment,
			MaturityDate:     maturity,
			Method:           method,
			Reference:        req.Reference,
			ProcessingFee:    processing,
			ServiceFee:       service,
		}, op, now)
		if err != nil {
			return fmt.Errorf("disburse: %w", err)
		}

		// 5. Persist.
		if err := tx.UpdateScheduleEntries(ctx, rescheduled); err != nil {
			return fmt.Errorf("update schedule: %w", err)
		}
		if err := tx.UpdateLoan(ctx, disbursed); err != nil {
			return fmt.Errorf("update loan: %w", err)
		}
		if err := tx.AppendOutbox(ctx, disbursed.DomainEvents()...); err != nil {
			return fmt.Errorf("append outbox: %w", err)
		}
		loan = disbursed.ClearEvents()
		return nil
	})
	if err != nil {
		return dto.LoanResponse{}, err
	}

	uc.metrics.LoanDisbursed(ctx, loan.NetProceeds().Centavos())
	uc.logger.Info("loan disbursed",
		"loan_id", loan.ID(),
		"loan_number", loan.LoanNumber(),
		"net_proceeds_centavos", loan.NetProceeds().Centavos(),
		"first_payment_date", loan.FirstPaymentDate().Format("2006-01-02"),
		"maturity_date", loan.MaturityDate().Format("2006-01-02"),
	)
	return toLoanResponse(loan), nil
}
