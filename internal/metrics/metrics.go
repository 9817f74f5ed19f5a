// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values for the workflow counters.
const (
	ResultOK        = "ok"
	ResultConflict  = "conflict"
	ResultForbidden = "forbidden"
	ResultNotFound  = "not_found"
	ResultInvalid   = "invalid"
	ResultError     = "error"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests by method, route pattern and status",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	ProjectSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "project_submissions_total",
		Help: "Project submission attempts by result",
	}, []string{"result"})

	ProjectGradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "project_grades_total",
		Help: "Project grading attempts by result",
	}, []string{"result"})

	CourseEnrollmentsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "course_enrollments_total",
		Help: "Course enrollment attempts by result",
	}, []string{"result"})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "events_published_total",
		Help: "Domain events handed to the broker by routing key and result",
	}, []string{"routing_key", "result"})
)
