package worker

import (
	"context"
	"fmt"

	"github.com/socialchef/lru/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// traceJob runs fn inside a "job:<jobType>" span and marks the span failed when fn errors.
func traceJob(ctx context.Context, jobType string, fn func(ctx context.Context) error) error {
	tracer := telemetry.Tracer("worker")

	ctx, span := tracer.Start(ctx, fmt.Sprintf("job:%s", jobType), trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	span.SetAttributes(attribute.String("job.type", jobType))

	err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
