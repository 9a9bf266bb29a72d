package cli

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/stackgen/stackgen/internal/logfields"
)

// tracerName identifies spans started by the CLI's pipelines.
const tracerName = "github.com/stackgen/stackgen/internal/cli"

// newTracerProvider returns a provider whose ended spans are written to
// logger at debug level. There is no exporter: spans surface in --verbose
// output only.
func newTracerProvider(logger *slog.Logger) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(&logSpanProcessor{logger: logger}),
	)
}

type logSpanProcessor struct {
	logger *slog.Logger
}

func (p *logSpanProcessor) OnStart(context.Context, sdktrace.ReadWriteSpan) {}

func (p *logSpanProcessor) OnEnd(s sdktrace.ReadOnlySpan) {
	attrs := []any{
		slog.String("span", s.Name()),
		slog.String("trace_id", s.SpanContext().TraceID().String()),
		logfields.Duration(s.EndTime().Sub(s.StartTime())),
	}
	if st := s.Status(); st.Code == codes.Error {
		attrs = append(attrs, slog.String("status", st.Description))
	}
	p.logger.Debug("span ended", attrs...)
}

func (p *logSpanProcessor) Shutdown(context.Context) error   { return nil }
func (p *logSpanProcessor) ForceFlush(context.Context) error { return nil }
