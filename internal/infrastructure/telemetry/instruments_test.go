package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jehnsen/coopledger/internal/domain/port"
	"github.com/jehnsen/coopledger/internal/infrastructure/telemetry"
)

var _ port.LedgerMetrics = (*telemetry.LedgerInstruments)(nil)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, m.Name)
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	return totals
}

func TestLedgerInstruments(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	in, err := telemetry.NewLedgerInstruments(provider)
	require.NoError(t, err)

	ctx := context.Background()
	in.LoanApplied(ctx, "prod-regular")
	in.LoanDisbursed(ctx, 9_790_000)
	in.PaymentRecorded(ctx, "cash", 916_800)
	in.PaymentRecorded(ctx, "gcash", 50_000)
	in.PaymentReversed(ctx, 50_000)
	in.PenaltiesAccrued(ctx, 2, 18_336)
	in.LoanClosed(ctx)

	totals := collect(t, reader)
	assert.Equal(t, int64(1), totals["lending.loans.applied"])
	assert.Equal(t, int64(9_790_000), totals["lending.disbursed.amount"])
	assert.Equal(t, int64(2), totals["lending.payments.recorded"])
	assert.Equal(t, int64(966_800), totals["lending.payments.amount"])
	assert.Equal(t, int64(1), totals["lending.payments.reversed"])
	assert.Equal(t, int64(50_000), totals["lending.payments.reversed.amount"])
	assert.Equal(t, int64(2), totals["lending.penalties.accrued"])
	assert.Equal(t, int64(18_336), totals["lending.penalties.amount"])
	assert.Equal(t, int64(1), totals["lending.loans.closed"])
}
