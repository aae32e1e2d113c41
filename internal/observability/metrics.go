package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	popupOpens = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "popupctl",
			Subsystem: "lifecycle",
			Name:      "opens_total",
			Help:      "Popup surfaces opened, by transport.",
		},
		[]string{"transport"},
	)
	popupOpenFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "popupctl",
			Subsystem: "lifecycle",
			Name:      "open_failures_total",
			Help:      "Popup open attempts the transport rejected outright.",
		},
		[]string{"transport"},
	)
	popupCloses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "popupctl",
			Subsystem: "lifecycle",
			Name:      "closes_total",
			Help:      "Popup surfaces torn down, by transport and reason.",
		},
		[]string{"transport", "reason"},
	)
	popupFallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "popupctl",
			Subsystem: "lifecycle",
			Name:      "fallback_prompts_total",
			Help:      "Manual-retry prompts presented after unconfirmed opens.",
		},
		[]string{"transport"},
	)
	popupHandshakes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "popupctl",
			Subsystem: "lifecycle",
			Name:      "handshakes_total",
			Help:      "Completed two-round readiness handshakes.",
		},
		[]string{"transport"},
	)
	popupPrematurePayloads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "popupctl",
			Subsystem: "lifecycle",
			Name:      "premature_payloads_total",
			Help:      "Payloads dropped because the surface was not confirmed open.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "popupctl",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests on the popup bridge.",
		},
		[]string{"service", "method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "popupctl",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			popupOpens,
			popupOpenFailures,
			popupCloses,
			popupFallbacks,
			popupHandshakes,
			popupPrematurePayloads,
			httpRequests,
			httpDuration,
		)
	})
}

func RecordPopupOpen(transport string) {
	RegisterMetrics()
	popupOpens.WithLabelValues(transport).Inc()
}

func RecordPopupOpenFailure(transport string) {
	RegisterMetrics()
	popupOpenFailures.WithLabelValues(transport).Inc()
}

func RecordPopupClose(transport, reason string) {
	RegisterMetrics()
	popupCloses.WithLabelValues(transport, reason).Inc()
}

func RecordPopupFallback(transport string) {
	RegisterMetrics()
	popupFallbacks.WithLabelValues(transport).Inc()
}

func RecordPopupHandshake(transport string) {
	RegisterMetrics()
	popupHandshakes.WithLabelValues(transport).Inc()
}

func RecordPopupPrematurePayload() {
	RegisterMetrics()
	popupPrematurePayloads.Inc()
}

func RecordHTTPRequest(service, method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(service, method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(service, method, path, statusLabel).Observe(duration.Seconds())
}
