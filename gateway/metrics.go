package gateway

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess       = "success"
	outcomeAPIError      = "api_error"
	outcomeProtocolError = "protocol_error"
	outcomeNetworkError  = "network_error"
	outcomeRequestError  = "request_error"
)

type metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_requests_total",
				Help: "Backend requests by method and outcome.",
			},
			[]string{"method", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gateway_request_duration_seconds",
				Help:    "Backend request latency.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}

	// Several clients may share one registry
	if err := reg.Register(m.requests); err != nil {
		existing, err := alreadyRegistered(err)
		if err != nil {
			return nil, err
		}
		m.requests = existing.(*prometheus.CounterVec)
	}
	if err := reg.Register(m.duration); err != nil {
		existing, err := alreadyRegistered(err)
		if err != nil {
			return nil, err
		}
		m.duration = existing.(*prometheus.HistogramVec)
	}
	return m, nil
}

func alreadyRegistered(err error) (prometheus.Collector, error) {
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return already.ExistingCollector, nil
	}
	return nil, err
}

func (m *metrics) observe(method, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.duration.WithLabelValues(method).Observe(elapsed.Seconds())
}
