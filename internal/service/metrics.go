package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the domain counters the resource service records.
type Metrics struct {
	uploaded          prometheus.Counter
	uploadBytes       prometheus.Counter
	downloaded        prometheus.Counter
	deleted           prometheus.Counter
	integrityFailures *prometheus.CounterVec
}

// NewMetrics creates the service counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		uploaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resources_uploaded_total",
			Help: "Total number of resources stored.",
		}),
		uploadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resource_upload_bytes_total",
			Help: "Total number of payload bytes stored.",
		}),
		downloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resources_downloaded_total",
			Help: "Total number of resources served for download.",
		}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "resources_deleted_total",
			Help: "Total number of resources deleted.",
		}),
		integrityFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resource_integrity_failures_total",
			Help: "Stored resources that could not be served, by failure kind.",
		}, []string{"kind"}),
	}

	for _, c := range []prometheus.Collector{m.uploaded, m.uploadBytes, m.downloaded, m.deleted, m.integrityFailures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// nil-safe recorders so the service works without metrics wired.

func (m *Metrics) upload(size int64) {
	if m == nil {
		return
	}
	m.uploaded.Inc()
	m.uploadBytes.Add(float64(size))
}

func (m *Metrics) download() {
	if m != nil {
		m.downloaded.Inc()
	}
}

func (m *Metrics) delete() {
	if m != nil {
		m.deleted.Inc()
	}
}

func (m *Metrics) integrityFailure(kind IntegrityKind) {
	if m != nil {
		m.integrityFailures.WithLabelValues(string(kind)).Inc()
	}
}
