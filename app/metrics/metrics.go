// Package metrics holds the domain prometheus collectors
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pageViewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_page_views_total",
			Help: "Total number of recorded page views",
		},
		[]string{"device_type"},
	)

	geoLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_geo_lookups_total",
			Help: "Geolocation lookups by source and result",
		},
		[]string{"source", "result"}, // cache|maxmind|ip_api, hit|miss|error
	)

	contactSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_contact_submissions_total",
			Help: "Contact form submissions by outcome",
		},
		[]string{"result"},
	)

	notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_notifications_total",
			Help: "Emails dispatched by kind and result",
		},
		[]string{"kind", "result"}, // admin|auto_reply, sent|failed|skipped
	)

	summaryRecomputesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_daily_summary_recomputes_total",
			Help: "Daily summary recomputations",
		},
		[]string{"status"},
	)

	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vitrine_staff_auth_attempts_total",
			Help: "Staff login attempts",
		},
		[]string{"status"},
	)
)

func RecordPageView(deviceType string) {
	pageViewsTotal.WithLabelValues(deviceType).Inc()
}

func RecordGeoLookup(source, result string) {
	geoLookupsTotal.WithLabelValues(source, result).Inc()
}

// RecordContactSubmission records a contact form outcome, either "accepted" or a rejection code
func RecordContactSubmission(result string) {
	contactSubmissionsTotal.WithLabelValues(result).Inc()
}

func RecordNotification(kind, result string) {
	notificationsTotal.WithLabelValues(kind, result).Inc()
}

func RecordSummaryRecompute(success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	summaryRecomputesTotal.WithLabelValues(status).Inc()
}

func RecordAuthAttempt(success bool) {
	status := "failure"
	if success {
		status = "success"
	}
	authAttemptsTotal.WithLabelValues(status).Inc()
}
