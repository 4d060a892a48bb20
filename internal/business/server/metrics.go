package server

import (
	"context"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/openfin/connect-manager/internal/config"
)

var (
	flowsOpened    metric.Int64Counter
	searches       metric.Int64Counter
	authorizations metric.Int64Counter
	pingDuration   metric.Int64Histogram
)

func initMeters(ctx context.Context, cfg *config.Config) error {
	meter := otel.Meter(
		"openfin/"+cfg.Application.Name,
		metric.WithInstrumentationVersion(otel.Version()),
	)

	var err error

	flowsOpened, err = meter.Int64Counter(
		"connect.flows_opened",
		metric.WithDescription("Linking flows opened"),
		metric.WithUnit("flow"),
	)
	if err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "creating flows_opened meter")
	}

	searches, err = meter.Int64Counter(
		"connect.searches",
		metric.WithDescription("Institution directory searches issued"),
		metric.WithUnit("search"),
	)
	if err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "creating searches meter")
	}

	authorizations, err = meter.Int64Counter(
		"connect.authorizations",
		metric.WithDescription("Authorization attempts by outcome"),
		metric.WithUnit("attempt"),
	)
	if err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "creating authorizations meter")
	}

	pingDuration, err = meter.Int64Histogram(
		"ping.duration",
		metric.WithDescription("Ping request duration"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return oops.In("HTTP Server").
			WithContext(ctx).
			Wrapf(err, "creating ping duration meter")
	}

	return nil
}

func countAuthorization(ctx context.Context, provider, outcome string) {
	if authorizations == nil {
		return
	}

	authorizations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("outcome", outcome),
	))
}
