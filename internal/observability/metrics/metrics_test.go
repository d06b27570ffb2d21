package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("payment_method", "cash"),
		attribute.String("customer_id", "456"),
		attribute.String("status", "overdue"),
	)
	require.Len(t, attrs, 2)
	keys := []attribute.Key{attrs[0].Key, attrs[1].Key}
	assert.Contains(t, keys, attribute.Key("payment_method"))
	assert.Contains(t, keys, attribute.Key("status"))
}

func TestRecordPaymentCounts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := New(Config{ServiceName: "ispdesk-test"}, provider)
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordPayment(ctx, "cash", 49.99)
	m.RecordPayment(ctx, "cash", 10)
	m.RecordInvoicePaid(ctx)
	m.RecordStatusRefresh(ctx, "overdue", 0)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	totals := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, md := range scope.Metrics {
			if sum, ok := md.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[md.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), totals["ispdesk_payments_recorded_total"])
	assert.Equal(t, int64(1), totals["ispdesk_invoices_marked_paid_total"])
	assert.Zero(t, totals["ispdesk_invoice_status_refreshed_total"])
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordPayment(context.Background(), "cash", 1)
	m.RecordMutation(context.Background(), "customer", "create")
}
