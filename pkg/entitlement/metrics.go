package entitlement

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives decision outcomes for monitoring.
type Recorder interface {
	RecordDecision(kind, tier, name string, allowed bool)
	RecordStorageFailure(counter string)
	ObserveCount(counter string, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordDecision(string, string, string, bool) {}
func (nopRecorder) RecordStorageFailure(string)                 {}
func (nopRecorder) ObserveCount(string, time.Duration)          {}

// Decision kinds used as the "kind" label.
const (
	KindFeature = "feature"
	KindLimit   = "limit"
)

const maxLabelLen = 64

func sanitizeLabel(s string) string {
	if s == "" {
		return "unknown"
	}
	s = strings.ReplaceAll(s, " ", "_")
	if len(s) > maxLabelLen {
		s = s[:maxLabelLen]
	}
	return s
}

// PromRecorder exports entitlement metrics to Prometheus.
type PromRecorder struct {
	decisions       *prometheus.CounterVec
	storageFailures *prometheus.CounterVec
	countDuration   *prometheus.HistogramVec
}

// NewPromRecorder creates the collectors and registers them with reg.
func NewPromRecorder(reg prometheus.Registerer) (*PromRecorder, error) {
	r := &PromRecorder{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "prepdeck",
				Subsystem: "entitlement",
				Name:      "decisions_total",
				Help:      "Entitlement decisions by kind, tier, name and outcome",
			},
			[]string{"kind", "tier", "name", "outcome"},
		),
		storageFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "prepdeck",
				Subsystem: "entitlement",
				Name:      "storage_failures_total",
				Help:      "Usage reads that failed and denied the request",
			},
			[]string{"counter"},
		),
		countDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "prepdeck",
				Subsystem: "usage",
				Name:      "count_duration_seconds",
				Help:      "Latency of usage counter reads",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"counter"},
		),
	}

	for _, c := range []prometheus.Collector{r.decisions, r.storageFailures, r.countDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *PromRecorder) RecordDecision(kind, tier, name string, allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	r.decisions.WithLabelValues(kind, sanitizeLabel(tier), sanitizeLabel(name), outcome).Inc()
}

func (r *PromRecorder) RecordStorageFailure(counter string) {
	r.storageFailures.WithLabelValues(sanitizeLabel(counter)).Inc()
}

func (r *PromRecorder) ObserveCount(counter string, d time.Duration) {
	r.countDuration.WithLabelValues(sanitizeLabel(counter)).Observe(d.Seconds())
}
