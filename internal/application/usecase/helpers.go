package usecase

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jehnsen/coopledger/internal/domain/model"
	"github.com/jehnsen/coopledger/internal/domain/port"
	"github.com/jehnsen/coopledger/internal/domain/valueobject"
)

const tracerName = "github.com/jehnsen/coopledger/internal/application/usecase"

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func requireOperator(op valueobject.Operator) error {
	if op.IsZero() {
		return model.NewValidationError("operator is required")
	}
	return nil
}

// dateOr returns d truncated to a UTC date, or today's date when d is zero.
func dateOr(d time.Time, clock port.Clock) time.Time {
	if d.IsZero() {
		d = clock.Now()
	}
	y, m, day := d.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// transitionLoan locks a loan, applies fn and persists the result together
// with the events it raised.
func transitionLoan(
	ctx context.Context,
	store port.LedgerStore,
	loanID string,
	fn func(model.Loan) (model.Loan, error),
) (model.Loan, error) {
	var out model.Loan
	err := store.WithinTx(ctx, func(ctx context.Context, tx port.LedgerTx) error {
		loan, err := tx.LockLoan(ctx, loanID)
		if err != nil {
			return err
		}
		loan, err = fn(loan)
		if err != nil {
			return err
		}
		if err := tx.UpdateLoan(ctx, loan); err != nil {
			return err
		}
		if err := tx.AppendOutbox(ctx, loan.DomainEvents()...); err != nil {
			return err
		}
		out = loan.ClearEvents()
		return nil
	})
	return out, err
}
