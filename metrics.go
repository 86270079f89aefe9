package idemstore

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records operation outcomes. A nil *Metrics records nothing.
type Metrics struct {
	operations *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewMetrics registers the idemstore collectors with reg.
// A nil reg registers with prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		operations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idemstore_operations_total",
				Help: "Total number of keystore operations by store, operation and result",
			},
			[]string{"store", "op", "result"},
		),
		duplicates: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "idemstore_duplicates_total",
				Help: "Total number of add calls rejected because the key was already present",
			},
			[]string{"store"},
		),
		duration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "idemstore_operation_duration_seconds",
				Help:    "Backing store call duration in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 3},
			},
			[]string{"op"},
		),
	}
}

func (m *Metrics) observe(store, op string, ok bool, err error, d time.Duration) {
	if m == nil {
		return
	}
	result := strconv.FormatBool(ok)
	if err != nil {
		result = "error"
	}
	m.operations.WithLabelValues(store, op, result).Inc()
	m.duration.WithLabelValues(op).Observe(d.Seconds())
	if op == opAdd && err == nil && !ok {
		m.duplicates.WithLabelValues(store).Inc()
	}
}
