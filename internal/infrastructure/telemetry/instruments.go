// Package telemetry records lending business metrics through OpenTelemetry.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/jehnsen/coopledger"

// LedgerInstruments implements port.LedgerMetrics.
type LedgerInstruments struct {
	loansApplied      metric.Int64Counter
	loansDisbursed    metric.Int64Counter
	disbursedCentavos metric.Int64Counter
	paymentsRecorded  metric.Int64Counter
	collectedCentavos metric.Int64Counter
	paymentsReversed  metric.Int64Counter
	reversedCentavos  metric.Int64Counter
	loansClosed       metric.Int64Counter
	penaltiesAccrued  metric.Int64Counter
	penaltyCentavos   metric.Int64Counter
}

// NewLedgerInstruments creates the instruments on provider's meter.
func NewLedgerInstruments(provider metric.MeterProvider) (*LedgerInstruments, error) {
	m := provider.Meter(meterName)
	var (
		in  LedgerInstruments
		err error
	)

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&in.loansApplied, "lending.loans.applied", "Loan applications filed", "{loan}"},
		{&in.loansDisbursed, "lending.loans.disbursed", "Loans released to members", "{loan}"},
		{&in.disbursedCentavos, "lending.disbursed.amount", "Net proceeds released", "centavo"},
		{&in.paymentsRecorded, "lending.payments.recorded", "Payments recorded", "{payment}"},
		{&in.collectedCentavos, "lending.payments.amount", "Amount collected", "centavo"},
		{&in.paymentsReversed, "lending.payments.reversed", "Payments reversed", "{payment}"},
		{&in.reversedCentavos, "lending.payments.reversed.amount", "Amount reversed", "centavo"},
		{&in.loansClosed, "lending.loans.closed", "Loans fully paid", "{loan}"},
		{&in.penaltiesAccrued, "lending.penalties.accrued", "Penalties created", "{penalty}"},
		{&in.penaltyCentavos, "lending.penalties.amount", "Penalty amount accrued", "centavo"},
	}
	for _, c := range counters {
		*c.dst, err = m.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("telemetry: counter %s: %w", c.name, err)
		}
	}
	return &in, nil
}

func (in *LedgerInstruments) LoanApplied(ctx context.Context, productID string) {
	in.loansApplied.Add(ctx, 1, metric.WithAttributes(attribute.String("product_id", productID)))
}

func (in *LedgerInstruments) LoanDisbursed(ctx context.Context, netProceedsCentavos int64) {
	in.loansDisbursed.Add(ctx, 1)
	in.disbursedCentavos.Add(ctx, netProceedsCentavos)
}

func (in *LedgerInstruments) PaymentRecorded(ctx context.Context, method string, amountCentavos int64) {
	attrs := metric.WithAttributes(attribute.String("method", method))
	in.paymentsRecorded.Add(ctx, 1, attrs)
	in.collectedCentavos.Add(ctx, amountCentavos, attrs)
}

func (in *LedgerInstruments) PaymentReversed(ctx context.Context, amountCentavos int64) {
	in.paymentsReversed.Add(ctx, 1)
	in.reversedCentavos.Add(ctx, amountCentavos)
}

func (in *LedgerInstruments) LoanClosed(ctx context.Context) {
	in.loansClosed.Add(ctx, 1)
}

func (in *LedgerInstruments) PenaltiesAccrued(ctx context.Context, count int, totalCentavos int64) {
	in.penaltiesAccrued.Add(ctx, int64(count))
	in.penaltyCentavos.Add(ctx, totalCentavos)
}
