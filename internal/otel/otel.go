package otel

import (
	"context"
	"sync"
	"time"

	"github.com/hanpama/gqlforge/internal/eventbus"
	"github.com/hanpama/gqlforge/internal/events"
	"github.com/hanpama/gqlforge/internal/runid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const tracerName = "gqlforge"

// Setup configures OpenTelemetry and attaches span handlers to bus.
// If endpoint is empty, no telemetry is configured.
func Setup(ctx context.Context, bus *eventbus.Bus, endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	detach := Attach(bus, tp)
	return func(ctx context.Context) error {
		detach()
		return tp.Shutdown(ctx)
	}, nil
}

// Attach subscribes span handlers using tp to bus. Each run becomes a root
// span with one child per phase and one grandchild per task step.
func Attach(bus *eventbus.Bus, tp trace.TracerProvider) (detach func()) {
	s := &subscriber{tracer: tp.Tracer(tracerName)}
	return s.register(bus)
}

type subscriber struct {
	tracer     trace.Tracer
	runSpans   sync.Map // rid -> trace.Span
	phaseSpans sync.Map // rid -> trace.Span
}

func (s *subscriber) parent(ctx context.Context, spans *sync.Map) context.Context {
	rid, _ := runid.FromContext(ctx)
	if v, ok := spans.Load(rid); ok {
		return trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	return ctx
}

func (s *subscriber) register(bus *eventbus.Bus) func() {
	unsubs := []func(){
		eventbus.On(bus, func(ctx context.Context, e events.RunStart) {
			rid, _ := runid.FromContext(ctx)
			_, span := s.tracer.Start(ctx, "gqlforge.run")
			span.SetAttributes(
				attribute.String("gqlforge.run_id", rid),
				attribute.StringSlice("gqlforge.tasks", e.Tasks),
			)
			s.runSpans.Store(rid, span)
		}),

		eventbus.On(bus, func(ctx context.Context, e events.RunFinish) {
			rid, _ := runid.FromContext(ctx)
			v, ok := s.runSpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(attribute.Int("gqlforge.failures", e.Failures))
			if e.Failures > 0 {
				span.SetStatus(codes.Error, "tasks failed")
			}
			span.End()
		}),

		eventbus.On(bus, func(ctx context.Context, e events.PhaseStart) {
			rid, _ := runid.FromContext(ctx)
			_, span := s.tracer.Start(s.parent(ctx, &s.runSpans), "gqlforge.phase "+e.Phase.String())
			span.SetAttributes(
				attribute.String("gqlforge.phase", e.Phase.String()),
				attribute.StringSlice("gqlforge.tasks", e.Tasks),
			)
			s.phaseSpans.Store(rid, span)
		}),

		eventbus.On(bus, func(ctx context.Context, e events.PhaseFinish) {
			rid, _ := runid.FromContext(ctx)
			v, ok := s.phaseSpans.LoadAndDelete(rid)
			if !ok {
				return
			}
			span := v.(trace.Span)
			span.SetAttributes(attribute.Int("gqlforge.failures", e.Failures))
			span.End()
		}),

		eventbus.On(bus, func(ctx context.Context, e events.TaskStep) {
			end := time.Now()
			_, span := s.tracer.Start(s.parent(ctx, &s.phaseSpans), "gqlforge.task "+e.Task,
				trace.WithTimestamp(end.Add(-e.Duration)))
			span.SetAttributes(
				attribute.String("gqlforge.task", e.Task),
				attribute.String("gqlforge.phase", e.Phase.String()),
				attribute.String("gqlforge.next_phase", e.Next.String()),
			)
			if e.Err != nil {
				span.RecordError(e.Err)
				span.SetStatus(codes.Error, e.Err.Error())
			}
			span.End(trace.WithTimestamp(end))
		}),

		eventbus.On(bus, func(ctx context.Context, e events.OutputOpened) {
			trace.SpanFromContext(s.parent(ctx, &s.phaseSpans)).AddEvent("output opened", trace.WithAttributes(
				attribute.String("gqlforge.task", e.Task),
				attribute.String("gqlforge.path", e.Path),
			))
		}),

		eventbus.On(bus, func(ctx context.Context, e events.SchemaLoaded) {
			trace.SpanFromContext(s.parent(ctx, &s.phaseSpans)).AddEvent("schema loaded", trace.WithAttributes(
				attribute.String("gqlforge.task", e.Task),
				attribute.Int("gqlforge.sources", e.Sources),
				attribute.Int("gqlforge.types", e.Types),
			))
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
