package observability

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// register adds c to reg. If a collector with the same descriptor is
// already registered, the existing one is returned so repeated runs in one
// process share their metrics.
func register[T prometheus.Collector](reg prometheus.Registerer, c T, name string) (T, error) {
	var zero T
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return zero, err
	}
	return c, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	return register(reg, c, name)
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	return register(reg, c, name)
}

func registerGauge(reg prometheus.Registerer, g prometheus.Gauge, name string) (prometheus.Gauge, error) {
	return register(reg, g, name)
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	return register(reg, h, name)
}
