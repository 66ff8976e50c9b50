package babel

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// clientMetrics holds prometheus metrics registered for the client.
type clientMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) (*clientMetrics, error) {
	m := &clientMetrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "babel",
			Subsystem: "client",
			Name:      "operations_total",
			Help:      "Total Babel client operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "babel",
			Subsystem: "client",
			Name:      "operation_duration_seconds",
			Help:      "Babel client operation duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if err := registerOrReuse(reg, &m.operations); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("babel: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("babel: register metric: %w", err)
	}
	return nil
}

// observer logs and counts every operation outcome.
type observer struct {
	log     Logger
	metrics *clientMetrics
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = KindOf(err).String()
		}
		o.metrics.operations.WithLabelValues(op, outcome).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if err != nil {
		fields := map[string]any{
			"operation":   op,
			"kind":        KindOf(err).String(),
			"error":       err.Error(),
			"duration_ms": dur.Milliseconds(),
		}
		if status := StatusCode(err); status > 0 {
			fields["status"] = status
		}
		o.log.ErrorObj("babel operation failed", "babel_error", fields)
		return
	}
	o.log.DebugObj("babel operation completed", "babel_operation", map[string]any{
		"operation":   op,
		"duration_ms": dur.Milliseconds(),
	})
}
