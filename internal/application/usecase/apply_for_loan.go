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

// ApplyForLoanUseCase files a loan application for an active member and
// persists its repayment schedule.
type ApplyForLoanUseCase struct {
	store    port.LedgerStore
	products port.LoanProductRepository
	members  port.MemberDirectory
	clock    port.Clock
	metrics  port.LedgerMetrics
	logger   *slog.Logger
}

// NewApplyForLoanUseCase wires dependencies.
func NewApplyForLoanUseCase(
	store port.LedgerStore,
	products port.LoanProductRepository,
	members port.MemberDirectory,
	clock port.Clock,
	metrics port.LedgerMetrics,
	logger *slog.Logger,
) *ApplyForLoanUseCase {
	return &ApplyForLoanUseCase{
		store:    store,
		products: products,
		members:  members,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
	}
}

// Execute validates the application and creates a pending loan.
func (uc *ApplyForLoanUseCase) Execute(
	ctx context.Context,
	req dto.ApplyForLoanRequest,
	op valueobject.Operator,
) (resp dto.LoanResponse, err error) {
	ctx, span := startSpan(ctx, "ApplyForLoan",
		attribute.String("customer_id", req.CustomerID),
		attribute.String("product_id", req.ProductID),
	)
	defer func() { endSpan(span, err) }()

	// 1. Validate request shape.
	if err := requireOperator(op); err != nil {
		return dto.LoanResponse{}, err
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		return dto.LoanResponse{}, model.NewValidationError("customer id is required")
	}
	interval, err := valueobject.NewPaymentInterval(req.Interval)
	if err != nil {
		return dto.LoanResponse{}, model.NewValidationError("%v", err)
	}

	// 2. Member eligibility.
	active, err := uc.members.IsActiveMember(ctx, req.CustomerID)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("check membership: %w", err)
	}
	if !active {
		return dto.LoanResponse{}, model.NewEligibilityError("customer %s is not an active cooperative member", req.CustomerID)
	}

	// 3. Load the product.
	product, err := uc.products.FindByID(ctx, req.ProductID)
	if err != nil {
		return dto.LoanResponse{}, fmt.Errorf("find product: %w", err)
	}

	now := uc.clock.Now()
	applicationDate := dateOr(now, uc.clock)
	firstPayment := req.FirstPaymentDate
	if firstPayment.IsZero() {
		firstPayment = interval.Next(applicationDate)
	}

	// 4. Number, create and persist the loan with its schedule.
	var loan model.Loan
	err = uc.store.WithinTx(ctx, func(ctx context.Context, tx port.LedgerTx) error {
		seq, err := tx.NextSequence(ctx, valueobject.SequenceLoan, applicationDate.Year())
		if err != nil {
			return fmt.Errorf("next loan number: %w", err)
		}

		created, schedule, err := model.NewLoan(model.NewLoanParams{
			LoanNumber:       valueobject.FormatSequenceNumber(valueobject.SequenceLoan, applicationDate.Year(), seq),
			CustomerID:       req.CustomerID,
			Product:          product,
			Principal:        req.Principal,
			TermMonths:       req.TermMonths,
			Interval:         interval,
			Purpose:          req.Purpose,
			ApplicationDate:  applicationDate,
			FirstPaymentDate: dateOr(firstPayment, uc.clock),
			Operator:         op,
		}, now)
		if err != nil {
			return fmt.Errorf("create loan: %w", err)
		}

		if err := tx.InsertLoan(ctx, created); err != nil {
			return fmt.Errorf("insert loan: %w", err)
		}
		if err := tx.InsertSchedule(ctx, schedule); err != nil {
			return fmt.Errorf("insert schedule: %w", err)
		}
		if err := tx.AppendOutbox(ctx, created.DomainEvents()...); err != nil {
			return fmt.Errorf("append outbox: %w", err)
		}
		loan = created.ClearEvents()
		return nil
	})
	if err != nil {
		return dto.LoanResponse{}, err
	}

	uc.metrics.LoanApplied(ctx, product.ID)
	uc.logger.Info("loan application filed",
		"loan_id", loan.ID(),
		"loan_number", loan.LoanNumber(),
		"customer_id", loan.CustomerID(),
		"principal_centavos", loan.Principal().Centavos(),
	)

	return toLoanResponse(loan), nil
}
