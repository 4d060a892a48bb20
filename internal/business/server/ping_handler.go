package server

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	slogctx "github.com/veqryn/slog-context"

	"github.com/openfin/connect-manager/internal/config"
)

func pingHandlerFunc(cfg *config.Config) func(http.ResponseWriter, *http.Request) {
	traceAttrs := []attribute.KeyValue{
		attribute.String("application", cfg.Application.Name),
		attribute.String("environment", cfg.Application.Environment),
		attribute.String("operation", "ping"),
	}

	tracer := otel.Tracer("PingHandler", trace.WithInstrumentationAttributes(traceAttrs...))

	return func(w http.ResponseWriter, req *http.Request) {
		ctx := slogctx.With(req.Context(), "operation", "ping")

		// Manual OTEL Tracing
		parentCtx := otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(req.Header))

		ctx, span := tracer.Start(
			parentCtx,
			"ping-span",
			trace.WithAttributes(traceAttrs...),
		)
		defer span.End()

		requestStartTime := time.Now()

		defer func() {
			if pingDuration == nil {
				return
			}

			elapsedTime := time.Since(requestStartTime) / time.Millisecond

			pingDuration.Record(ctx, int64(elapsedTime), metric.WithAttributes(
				append(traceAttrs, attribute.String("userAgent", req.UserAgent()))...,
			))
		}()

		slogctx.Debug(ctx, "Handling ping request")

		w.Header().Set("Content-Type", "application/json")

		_, err := w.Write([]byte("{ \"result\": \"pong\" }"))
		if err != nil {
			slogctx.Warn(ctx, "Failed to write ping response", "error", err)
		}
	}
}
