package production

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/comalice/uimachines/internal/core"
	"github.com/comalice/uimachines/internal/primitives"
)

const instrumentationName = "github.com/comalice/uimachines"

// OTelObserver implements core.Observer using OpenTelemetry: counters for
// events, transitions and errors, a duration histogram and one span per
// transition.
type OTelObserver struct {
	tracer trace.Tracer
	meter  metric.Meter

	events      metric.Int64Counter
	transitions metric.Int64Counter
	errors      metric.Int64Counter
	duration    metric.Float64Histogram
}

var _ core.Observer = (*OTelObserver)(nil)

// OTelOption configures the OTelObserver.
type OTelOption func(*OTelObserver)

// WithTracerProvider sets a custom tracer provider.
func WithTracerProvider(provider trace.TracerProvider) OTelOption {
	return func(o *OTelObserver) {
		o.tracer = provider.Tracer(instrumentationName)
	}
}

// WithMeterProvider sets a custom meter provider.
func WithMeterProvider(provider metric.MeterProvider) OTelOption {
	return func(o *OTelObserver) {
		o.meter = provider.Meter(instrumentationName)
	}
}

// NewOTelObserver creates the observer with the global providers unless overridden.
func NewOTelObserver(opts ...OTelOption) (*OTelObserver, error) {
	o := &OTelObserver{
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}
	for _, opt := range opts {
		opt(o)
	}

	var err error
	if o.events, err = o.meter.Int64Counter("uimachine.event.count",
		metric.WithDescription("Number of events processed, matched or not"),
		metric.WithUnit("{event}")); err != nil {
		return nil, err
	}
	if o.transitions, err = o.meter.Int64Counter("uimachine.transition.count",
		metric.WithDescription("Number of microsteps taken"),
		metric.WithUnit("{transition}")); err != nil {
		return nil, err
	}
	if o.errors, err = o.meter.Int64Counter("uimachine.error.count",
		metric.WithDescription("Number of callback, activity and integration errors"),
		metric.WithUnit("{error}")); err != nil {
		return nil, err
	}
	if o.duration, err = o.meter.Float64Histogram("uimachine.transition.duration",
		metric.WithDescription("Microstep duration"),
		metric.WithUnit("ms")); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *OTelObserver) OnTransition(rec core.TransitionRecord) {
	ctx := context.Background()
	attrs := []attribute.KeyValue{
		attribute.String("machine.id", rec.MachineID),
		attribute.String("event.type", string(rec.Event)),
	}

	_, span := o.tracer.Start(ctx, "uimachine.transition: "+string(rec.Event),
		trace.WithTimestamp(rec.Timestamp),
		trace.WithAttributes(attrs...),
		trace.WithAttributes(
			attribute.StringSlice("state.from", rec.From),
			attribute.StringSlice("state.to", rec.To),
			attribute.String("transition.id", rec.ID),
		),
	)
	if rec.Err != "" {
		span.SetStatus(codes.Error, rec.Err)
		o.errors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End(trace.WithTimestamp(rec.Timestamp.Add(rec.Duration)))

	o.events.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.Bool("matched", true))...))
	o.transitions.Add(ctx, 1, metric.WithAttributes(attrs...))
	o.duration.Record(ctx, float64(rec.Duration.Microseconds())/1000, metric.WithAttributes(attrs...))
}

func (o *OTelObserver) OnUnmatched(machineID string, evt primitives.EventType) {
	o.events.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("machine.id", machineID),
		attribute.String("event.type", string(evt)),
		attribute.Bool("matched", false),
	))
}

func (o *OTelObserver) OnError(machineID string, err error) {
	o.errors.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("machine.id", machineID),
	))
}
