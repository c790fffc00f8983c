// Package metrics holds the domain counters exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cloudsync"

// Outcome labels shared by all counters.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics groups the file and share-link counters. A nil *Metrics is a no-op.
type Metrics struct {
	uploads          *prometheus.CounterVec
	uploadedBytes    prometheus.Counter
	deletes          *prometheus.CounterVec
	shareRedemptions *prometheus.CounterVec
}

// New creates the counters and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "file_uploads_total",
				Help:      "File uploads by result.",
			},
			[]string{"result"},
		),
		uploadedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "file_uploaded_bytes_total",
			Help:      "Bytes accepted by successful uploads.",
		}),
		deletes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "file_deletes_total",
				Help:      "File deletions by result.",
			},
			[]string{"result"},
		),
		shareRedemptions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "share_redemptions_total",
				Help:      "Share link redemptions by result.",
			},
			[]string{"result"},
		),
	}

	for _, c := range []prometheus.Collector{m.uploads, m.uploadedBytes, m.deletes, m.shareRedemptions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Upload records one upload attempt. size is counted only on success.
func (m *Metrics) Upload(result string, size int64) {
	if m == nil {
		return
	}
	m.uploads.WithLabelValues(result).Inc()
	if result == ResultSuccess {
		m.uploadedBytes.Add(float64(size))
	}
}

// Delete records one owner-initiated delete.
func (m *Metrics) Delete(result string) {
	if m == nil {
		return
	}
	m.deletes.WithLabelValues(result).Inc()
}

// ShareRedemption records one redemption. result is success, invalid, expired or failure.
func (m *Metrics) ShareRedemption(result string) {
	if m == nil {
		return
	}
	m.shareRedemptions.WithLabelValues(result).Inc()
}
