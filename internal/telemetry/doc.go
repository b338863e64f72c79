// Package telemetry provides OpenTelemetry initialization and helpers
// for the LRU cache service.
//
// The package configures OTLP HTTP export for traces, logs and metrics, so the
// otelchi request metrics and the cache metrics reach the same collector.
package telemetry
