package metrics

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("lru/cache")

// CacheMetrics records cache traffic. A nil *CacheMetrics records nothing.
type CacheMetrics struct {
	lookups   metric.Int64Counter
	sets      metric.Int64Counter
	deletes   metric.Int64Counter
	evictions metric.Int64Counter
	size      metric.Int64ObservableGauge
}

// NewCacheMetrics registers the cache instruments. size, if non-nil, is polled
// for the cache.entries gauge on every collection.
func NewCacheMetrics(size func() int64) (*CacheMetrics, error) {
	return newCacheMetrics(meter, size)
}

func newCacheMetrics(m metric.Meter, size func() int64) (*CacheMetrics, error) {
	lookups, err := m.Int64Counter(
		"cache.lookups.total",
		metric.WithDescription("Cache reads, by result (hit or miss)"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	sets, err := m.Int64Counter(
		"cache.sets.total",
		metric.WithDescription("Cache writes"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	deletes, err := m.Int64Counter(
		"cache.deletes.total",
		metric.WithDescription("Explicit cache deletes"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := m.Int64Counter(
		"cache.evictions.total",
		metric.WithDescription("Entries removed by the cache, by reason"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	cm := &CacheMetrics{
		lookups:   lookups,
		sets:      sets,
		deletes:   deletes,
		evictions: evictions,
	}

	if size != nil {
		cm.size, err = m.Int64ObservableGauge(
			"cache.entries",
			metric.WithDescription("Live entries in the cache"),
			metric.WithUnit("1"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(size())
				return nil
			}),
		)
		if err != nil {
			return nil, err
		}
	}

	return cm, nil
}

func (m *CacheMetrics) RecordLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

func (m *CacheMetrics) RecordSet(ctx context.Context) {
	if m == nil {
		return
	}
	m.sets.Add(ctx, 1)
}

func (m *CacheMetrics) RecordDelete(ctx context.Context) {
	if m == nil {
		return
	}
	m.deletes.Add(ctx, 1)
}

// RecordEviction counts one entry the cache removed on its own.
func (m *CacheMetrics) RecordEviction(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.evictions.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
