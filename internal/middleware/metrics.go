package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the backend.
type Metrics struct {
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	VotesTotal       *prometheus.CounterVec
	LikesTotal       *prometheus.CounterVec
	AttendanceTotal  prometheus.Counter
	FeedbackTotal    *prometheus.CounterVec
	registry         *prometheus.Registry
}

// NewMetrics creates and registers all collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "semana_api_request_duration_seconds",
				Help:    "HTTP request duration in seconds, by route, method and status.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method", "status"},
		),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "semana_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		}),
		VotesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "semana_question_votes_total",
			Help: "Question vote actions, by action (vote, unvote).",
		}, []string{"action"}),
		LikesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "semana_question_likes_total",
			Help: "Question like actions, by outcome (liked, unliked, limit).",
		}, []string{"outcome"}),
		AttendanceTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "semana_attendance_registered_total",
			Help: "Attendance records created.",
		}),
		FeedbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "semana_feedback_total",
			Help: "Feedback submitted, by rating.",
		}, []string{"rating"}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.RequestDuration, m.RequestsInFlight, m.VotesTotal, m.LikesTotal, m.AttendanceTotal, m.FeedbackTotal,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler returns the gin middleware that records request duration.
func (m *Metrics) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RequestDuration.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Endpoint serves the registry in the Prometheus text format.
func (m *Metrics) Endpoint() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// ObserveVote counts a vote or unvote. Safe on a nil receiver.
func (m *Metrics) ObserveVote(action string) {
	if m == nil {
		return
	}
	m.VotesTotal.WithLabelValues(action).Inc()
}

// ObserveLike counts a like outcome. Safe on a nil receiver.
func (m *Metrics) ObserveLike(outcome string) {
	if m == nil {
		return
	}
	m.LikesTotal.WithLabelValues(outcome).Inc()
}

// ObserveAttendance counts a new attendance record. Safe on a nil receiver.
func (m *Metrics) ObserveAttendance() {
	if m == nil {
		return
	}
	m.AttendanceTotal.Inc()
}

// ObserveFeedback counts a feedback submission. Safe on a nil receiver.
func (m *Metrics) ObserveFeedback(rating int) {
	if m == nil {
		return
	}
	m.FeedbackTotal.WithLabelValues(strconv.Itoa(rating)).Inc()
}
