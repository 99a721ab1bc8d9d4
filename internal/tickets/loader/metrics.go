package loader

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for dataset loading.
type Metrics struct {
	loads    *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers loader collectors against reg. A nil registerer falls
// back to the default one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticketdash_dataset_loads_total",
			Help: "Jumlah permintaan dataset berdasarkan hasil (hit, miss, error).",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ticketdash_dataset_parse_duration_seconds",
			Help:    "Durasi parsing spreadsheet tiket.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	m.loads = registerOrExisting(reg, m.loads).(*prometheus.CounterVec)
	m.duration = registerOrExisting(reg, m.duration).(prometheus.Histogram)
	return m
}

func registerOrExisting(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector
		}
	}
	return c
}

func (m *Metrics) observeHit() {
	if m == nil {
		return
	}
	m.loads.WithLabelValues("hit").Inc()
}

func (m *Metrics) observeMiss() {
	if m == nil {
		return
	}
	m.loads.WithLabelValues("miss").Inc()
}

func (m *Metrics) observeError() {
	if m == nil {
		return
	}
	m.loads.WithLabelValues("error").Inc()
}

func (m *Metrics) observeParse(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}
