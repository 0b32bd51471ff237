// Package oteldomain provides OpenTelemetry instrumentation for the
// library components.
package oteldomain

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/domainkit/go-domainkit/command"
	"github.com/domainkit/go-domainkit/event"
)

const instrumentationName = "github.com/domainkit/go-domainkit/extension/oteldomain"

// Attribute keys reported on spans and metrics.
var (
	CommandNameAttribute = attribute.Key("domainkit.command.name")
	CommandIDAttribute   = attribute.Key("domainkit.command.id")
	EventCountAttribute  = attribute.Key("domainkit.event.count")
	ErrorAttribute       = attribute.Key("domainkit.error")
)

// Executor represents a component that can execute Domain Commands,
// typically an engine.Engine.
type Executor interface {
	Execute(ctx context.Context, cmd command.Envelope) ([]event.Envelope, error)
}

// Interface implementation assertion.
var _ Executor = &InstrumentedExecutor{}

// InstrumentedExecutor is a wrapper to provide OpenTelemetry instrumentation
// for Executor compatible implementations, compatible with the same
// interface to be used seamlessly in your pre-existing code.
//
// Use InstrumentExecutor to create a new instance of this type.
type InstrumentedExecutor struct {
	executor Executor
	tracer   trace.Tracer

	executeCount    metric.Int64Counter
	executeDuration metric.Float64Histogram
}

// Option defines a functional option for configuring an InstrumentedExecutor.
type Option func(*config)

type config struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// WithTracerProvider overrides the global TracerProvider.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *config) {
		cfg.tracerProvider = provider
	}
}

// WithMeterProvider overrides the global MeterProvider.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(cfg *config) {
		cfg.meterProvider = provider
	}
}

// InstrumentExecutor creates a new InstrumentedExecutor instance wrapping
// the provided Executor.
func InstrumentExecutor(executor Executor, opts ...Option) (*InstrumentedExecutor, error) {
	cfg := config{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	meter := cfg.meterProvider.Meter(instrumentationName)

	ie := &InstrumentedExecutor{
		executor: executor,
		tracer:   cfg.tracerProvider.Tracer(instrumentationName),
	}

	var err error

	if ie.executeCount, err = meter.Int64Counter(
		"domainkit.engine.execute.count",
		metric.WithDescription("Count of command executions performed"),
	); err != nil {
		return nil, fmt.Errorf("oteldomain: failed to register metric, %w", err)
	}

	if ie.executeDuration, err = meter.Float64Histogram(
		"domainkit.engine.execute.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Duration in milliseconds of command executions performed"),
	); err != nil {
		return nil, fmt.Errorf("oteldomain: failed to register metric, %w", err)
	}

	return ie, nil
}

// Execute delegates the call to the wrapped Executor and records a trace
// and metrics of the result.
func (ie *InstrumentedExecutor) Execute(ctx context.Context, cmd command.Envelope) ([]event.Envelope, error) {
	attributes := []attribute.KeyValue{
		CommandNameAttribute.String(cmd.Message.Name()),
		CommandIDAttribute.String(cmd.ID.String()),
	}

	ctx, span := ie.tracer.Start(ctx, "engine.Execute", trace.WithAttributes(attributes...))
	defer span.End()

	start := time.Now()
	events, err := ie.executor.Execute(ctx, cmd)

	measurement := append(attributes, ErrorAttribute.Bool(err != nil))
	ie.executeCount.Add(ctx, 1, metric.WithAttributes(measurement...))
	ie.executeDuration.Record(ctx, float64(time.Since(start).Milliseconds()), metric.WithAttributes(measurement...))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		return events, err
	}

	span.SetAttributes(EventCountAttribute.Int(len(events)))

	return events, nil
}
