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

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumFor(t *testing.T, agg metricdata.Aggregation, key, value string) int64 {
	t.Helper()
	sum, ok := agg.(metricdata.Sum[int64])
	require.True(t, ok, "expected int64 sum, got %T", agg)
	var total int64
	for _, dp := range sum.DataPoints {
		if key == "" {
			total += dp.Value
			continue
		}
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestCacheMetrics_Record(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	size := int64(3)
	m, err := newCacheMetrics(provider.Meter("test"), func() int64 { return size })
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordLookup(ctx, true)
	m.RecordLookup(ctx, true)
	m.RecordLookup(ctx, false)
	m.RecordSet(ctx)
	m.RecordDelete(ctx)
	m.RecordEviction(ctx, "capacity")
	m.RecordEviction(ctx, "expired")
	m.RecordEviction(ctx, "expired")

	data := collect(t, reader)
	assert.Equal(t, int64(2), sumFor(t, data["cache.lookups.total"], "result", "hit"))
	assert.Equal(t, int64(1), sumFor(t, data["cache.lookups.total"], "result", "miss"))
	assert.Equal(t, int64(1), sumFor(t, data["cache.sets.total"], "", ""))
	assert.Equal(t, int64(1), sumFor(t, data["cache.deletes.total"], "", ""))
	assert.Equal(t, int64(2), sumFor(t, data["cache.evictions.total"], "reason", "expired"))

	gauge, ok := data["cache.entries"].(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(3), gauge.DataPoints[0].Value)
}

func TestCacheMetrics_NilIsNoop(t *testing.T) {
	var m *CacheMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordLookup(ctx, true)
		m.RecordSet(ctx)
		m.RecordDelete(ctx)
		m.RecordEviction(ctx, "capacity")
	})
}

func TestNewCacheMetrics_GlobalMeter(t *testing.T) {
	m, err := NewCacheMetrics(nil)
	require.NoError(t, err)
	assert.NotNil(t, m)
}
