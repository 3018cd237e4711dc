package metrics

import "github.com/prometheus/client_golang/prometheus"

// WidgetMetrics exposes counters/histograms for the booking widget.
type WidgetMetrics struct {
	sessionsStarted *prometheus.CounterVec
	navigations     *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	deliveryLatency *prometheus.HistogramVec
}

// NewWidgetMetrics registers the widget collectors on reg, or on the default
// registerer when reg is nil.
func NewWidgetMetrics(reg prometheus.Registerer) *WidgetMetrics {
	m := &WidgetMetrics{
		sessionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "therapy",
			Subsystem: "widget",
			Name:      "sessions_started_total",
			Help:      "Booking widget sessions opened",
		}, []string{"store"}),
		navigations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "therapy",
			Subsystem: "widget",
			Name:      "calendar_navigations_total",
			Help:      "Month changes in the calendar picker",
		}, []string{"direction"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "therapy",
			Subsystem: "widget",
			Name:      "submissions_total",
			Help:      "Form submits by form and outcome",
		}, []string{"form", "outcome"}),
		deliveryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "therapy",
			Subsystem: "notify",
			Name:      "delivery_latency_seconds",
			Help:      "Latency of hand-offs to the delivery collaborator",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.sessionsStarted, m.navigations, m.submissions, m.deliveryLatency)
	return m
}

func (m *WidgetMetrics) ObserveSessionStarted(store string) {
	if m == nil {
		return
	}
	m.sessionsStarted.WithLabelValues(store).Inc()
}

func (m *WidgetMetrics) ObserveNavigation(direction string) {
	if m == nil {
		return
	}
	m.navigations.WithLabelValues(direction).Inc()
}

// ObserveSubmission counts a submit; outcome is success, invalid or failed.
func (m *WidgetMetrics) ObserveSubmission(form, outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(form, outcome).Inc()
}

func (m *WidgetMetrics) ObserveDelivery(channel string, err error, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.deliveryLatency.WithLabelValues(channel, status).Observe(seconds)
}
