package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Periodic records operation outcomes at most once per interval per
// distinct operation, version and outcome. The monitor loop reports on
// every tick; this keeps the metric stream at the reporting cadence
// instead of the tick cadence.
type Periodic struct {
	counter metric.Int64Counter
	now     func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

// NewPeriodic builds a recorder on the global meter provider.
func NewPeriodic() (*Periodic, error) {
	meter := otel.Meter(meterName)
	counter, err := meter.Int64Counter(
		"driftd.operations",
		metric.WithDescription("Periodic operation outcomes reported by the monitor."),
	)
	if err != nil {
		return nil, fmt.Errorf("register operations counter: %w", err)
	}
	return &Periodic{
		counter: counter,
		now:     time.Now,
		last:    make(map[string]time.Time),
	}, nil
}

// RecordPeriodic counts one outcome unless the same outcome was already
// counted within interval.
func (p *Periodic) RecordPeriodic(interval time.Duration, operation, version string, success bool) {
	key := fmt.Sprintf("%s|%s|%t", operation, version, success)
	now := p.now()

	p.mu.Lock()
	if prev, ok := p.last[key]; ok && now.Sub(prev) < interval {
		p.mu.Unlock()
		return
	}
	p.last[key] = now
	p.mu.Unlock()

	p.counter.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("version", version),
			attribute.Bool("success", success),
		))
}
