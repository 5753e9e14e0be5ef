package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook metrics
	WebhookDurationSeconds *prometheus.HistogramVec
	WebhookRequestsTotal   *prometheus.CounterVec

	// HTTP metrics
	HTTPErrorsTotal *prometheus.CounterVec

	// Record store metrics
	StoreOpsTotal *prometheus.CounterVec

	// Report metrics
	ReportsTotal          *prometheus.CounterVec
	ReportDurationSeconds *prometheus.HistogramVec

	// Messaging metrics
	DeliveryFailuresTotal *prometheus.CounterVec

	// Dialogue metrics
	ActiveDialogues prometheus.Gauge
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sugarbot_webhook_duration_seconds",
				Help:    "Webhook event processing duration in seconds by event type",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"event_type"}, // event_type: message, postback
		),

		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sugarbot_webhook_requests_total",
				Help: "Total number of webhook events by event type and status",
			},
			[]string{"event_type", "status"}, // status: received, success, error, reply_error
		),

		HTTPErrorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sugarbot_http_errors_total",
				Help: "Total HTTP errors by type",
			},
			[]string{"error_type"}, // error_type: invalid_signature, parse_error
		),

		StoreOpsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sugarbot_store_operations_total",
				Help: "Total record store operations by operation and status",
			},
			[]string{"operation", "status"}, // operation: create, query, query_range, update, delete
		),

		ReportsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sugarbot_reports_total",
				Help: "Total chart report requests by period and status",
			},
			[]string{"period", "status"}, // period: today, last_week, date; status: success, empty, error
		),

		ReportDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sugarbot_report_duration_seconds",
				Help:    "Chart render plus upload duration in seconds by period",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"period"},
		),

		DeliveryFailuresTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "sugarbot_delivery_failures_total",
				Help: "Total reply/push deliveries that the platform rejected",
			},
			[]string{"kind"}, // kind: reply, push
		),

		ActiveDialogues: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "sugarbot_active_dialogues",
				Help: "Users currently holding a non-idle conversation state",
			},
		),
	}

	return m
}

// RecordWebhook records a webhook event outcome with its duration.
func (m *Metrics) RecordWebhook(eventType, status string, durationSeconds float64) {
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	if durationSeconds > 0 {
		m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(durationSeconds)
	}
}

// RecordHTTPError records a rejected HTTP request.
func (m *Metrics) RecordHTTPError(errorType string) {
	m.HTTPErrorsTotal.WithLabelValues(errorType).Inc()
}

// RecordStoreOp records a record store operation outcome.
// Satisfies storage.MetricsRecorder.
func (m *Metrics) RecordStoreOp(operation, status string) {
	m.StoreOpsTotal.WithLabelValues(operation, status).Inc()
}

// RecordReport records a chart report outcome with its duration.
func (m *Metrics) RecordReport(period, status string, durationSeconds float64) {
	m.ReportsTotal.WithLabelValues(period, status).Inc()
	if durationSeconds > 0 {
		m.ReportDurationSeconds.WithLabelValues(period).Observe(durationSeconds)
	}
}

// RecordDeliveryFailure records a reply or push the platform rejected.
func (m *Metrics) RecordDeliveryFailure(kind string) {
	m.DeliveryFailuresTotal.WithLabelValues(kind).Inc()
}
