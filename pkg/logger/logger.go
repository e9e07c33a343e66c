// Package logger bridges zerolog and OpenTelemetry: log lines emitted
// inside a traced request carry the trace and span ids, so a trace in the
// collector can be joined against the logs.
package logger

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Ctx returns the global logger enriched with the ids of the span in ctx.
// Without a valid span it returns the global logger unchanged.
func Ctx(ctx context.Context) *zerolog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return &log.Logger
	}

	l := log.With().
		Str("trace_id", sc.TraceID().String()).
		Str("span_id", sc.SpanID().String()).
		Logger()
	return &l
}
