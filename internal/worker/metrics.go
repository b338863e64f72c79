package worker

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter = otel.Meter("lru/worker")
)

type WorkerMetrics struct {
	jobCounter  metric.Int64Counter
	jobDuration metric.Float64Histogram
	reclaimed   metric.Int64Counter
}

func NewWorkerMetrics() (*WorkerMetrics, error) {
	return newWorkerMetrics(meter)
}

func newWorkerMetrics(m metric.Meter) (*WorkerMetrics, error) {
	jobCounter, err := m.Int64Counter(
		"worker.jobs.total",
		metric.WithDescription("Total number of worker jobs processed"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	jobDuration, err := m.Float64Histogram(
		"worker.job.duration",
		metric.WithDescription("Duration of worker jobs"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0001, 0.001, 0.01, 0.1, 1),
	)
	if err != nil {
		return nil, err
	}

	reclaimed, err := m.Int64Counter(
		"worker.sweep.reclaimed",
		metric.WithDescription("Expired cache entries removed by the sweeper"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	return &WorkerMetrics{
		jobCounter:  jobCounter,
		jobDuration: jobDuration,
		reclaimed:   reclaimed,
	}, nil
}

func (m *WorkerMetrics) RecordJob(ctx context.Context, jobType, status string, duration float64) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("job.type", jobType),
	}

	m.jobCounter.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("status", status))...))
	m.jobDuration.Record(ctx, duration, metric.WithAttributes(attrs...))
}

func (m *WorkerMetrics) RecordReclaimed(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.reclaimed.Add(ctx, int64(n))
}
