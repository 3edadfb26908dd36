package application

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/OliveiraNt/maned-mirror/internal/utils"
)

const instrumentationName = "github.com/OliveiraNt/maned-mirror/internal/application"

// engineMetrics mirrors the Monitor counters as OpenTelemetry instruments.
type engineMetrics struct {
	forwarded metric.Int64Counter
	skipped   metric.Int64Counter
	slices    metric.Int64Counter
	cycles    metric.Int64Counter
	restarts  metric.Int64Counter
	failures  metric.Int64Counter
	topics    metric.Int64Gauge

	attrs metric.MeasurementOption
}

func newEngineMetrics(provider metric.MeterProvider, instanceID string) *engineMetrics {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(instrumentationName)
	m := &engineMetrics{
		forwarded: counter(meter, "mirror.messages.forwarded", "Messages delivered to the destination cluster"),
		skipped:   counter(meter, "mirror.messages.skipped", "Replica messages committed without forwarding"),
		slices:    counter(meter, "mirror.slices.committed", "Slices delivered and committed"),
		cycles:    counter(meter, "mirror.cycles", "Replication cycles started"),
		restarts:  counter(meter, "mirror.restarts", "Re-discoveries triggered by new source topics"),
		failures:  counter(meter, "mirror.failures", "Replication cycles that failed"),
		attrs:     metric.WithAttributes(attribute.String("instance", instanceID)),
	}

	g, err := meter.Int64Gauge("mirror.topics.replicated", metric.WithDescription("Topics subscribed in the current cycle"))
	if err != nil {
		utils.Logger.Warn("metric instrument unavailable", "name", "mirror.topics.replicated", "err", err)
		g, _ = noop.Meter{}.Int64Gauge("mirror.topics.replicated")
	}
	m.topics = g
	return m
}

func counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		utils.Logger.Warn("metric instrument unavailable", "name", name, "err", err)
		c, _ = noop.Meter{}.Int64Counter(name)
	}
	return c
}

func (m *engineMetrics) add(c metric.Int64Counter, n int) {
	if n > 0 {
		c.Add(context.Background(), int64(n), m.attrs)
	}
}
