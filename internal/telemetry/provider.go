// Package telemetry wires the OpenTelemetry meter provider and the
// periodic operation recorder the monitor reports through.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

const meterName = "driftd"

// Setup installs the global meter provider with a stdout exporter.
// The returned shutdown flushes pending metrics and must be called on
// exit.
func Setup(version string) (shutdown func(context.Context) error, err error) {
	exporter, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("create metric exporter: %w", err)
	}

	res := resource.NewWithAttributes(
		"",
		attribute.String("service.name", "driftd"),
		attribute.String("service.version", version),
	)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}
