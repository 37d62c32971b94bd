package ports

import (
	"context"
	"io"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
	// EmitPlan signals the recipes queued for a variant.
	EmitPlan(ctx context.Context, variant string, recipes []string)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// AttrRequeued marks a span whose recipe went back on the queue behind its
// dependencies instead of completing.
const AttrRequeued = "requeued"

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	// Quiet suppresses streaming of the span's output to the renderer.
	Quiet bool
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// WithQuiet marks the span's output as suppressed.
func WithQuiet(quiet bool) SpanOption {
	return func(c *SpanConfig) {
		c.Quiet = quiet
	}
}
