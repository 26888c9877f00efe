package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	appuser "github.com/lllypuk/rollcall/internal/application/user"
)

// UserMetrics contains Prometheus metrics for account operations.
type UserMetrics struct {
	UsersCreated     *prometheus.CounterVec
	SignIns          *prometheus.CounterVec
	TagAttempts      prometheus.Histogram
	TagExhausted     prometheus.Counter
	ImagesStored     *prometheus.CounterVec
	ImageUploadBytes *prometheus.HistogramVec
}

var _ appuser.Recorder = (*UserMetrics)(nil)

// NewUserMetrics creates and registers user metrics with the given registerer.
func NewUserMetrics(registerer prometheus.Registerer) *UserMetrics {
	m := &UserMetrics{
		UsersCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rollcall_users_created_total",
				Help: "Total number of accounts created",
			},
			[]string{"source"}, // source: register/google
		),
		SignIns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rollcall_sign_ins_total",
				Help: "Total number of sign-in attempts",
			},
			[]string{"method", "outcome"},
		),
		TagAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rollcall_tag_allocation_attempts",
			Help:    "Candidates drawn per successful tag allocation",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),
		TagExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rollcall_tag_allocation_exhausted_total",
			Help: "Total number of tag allocations that ran out of attempts",
		}),
		ImagesStored: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rollcall_images_stored_total",
				Help: "Total number of stored images",
			},
			[]string{"kind"},
		),
		ImageUploadBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rollcall_image_upload_bytes",
				Help:    "Size of stored images in bytes",
				Buckets: prometheus.ExponentialBuckets(16*1024, 2, 10), // 16KiB .. 8MiB
			},
			[]string{"kind"},
		),
	}

	registerer.MustRegister(
		m.UsersCreated,
		m.SignIns,
		m.TagAttempts,
		m.TagExhausted,
		m.ImagesStored,
		m.ImageUploadBytes,
	)

	return m
}

// UserCreated implements appuser.Recorder.
func (m *UserMetrics) UserCreated(source string) {
	m.UsersCreated.WithLabelValues(source).Inc()
}

// SignIn implements appuser.Recorder.
func (m *UserMetrics) SignIn(method, outcome string) {
	m.SignIns.WithLabelValues(method, outcome).Inc()
}

// TagAllocated implements appuser.Recorder.
func (m *UserMetrics) TagAllocated(attempts int, ok bool) {
	if !ok {
		m.TagExhausted.Inc()
		return
	}
	m.TagAttempts.Observe(float64(attempts))
}

// ImageStored implements appuser.Recorder.
func (m *UserMetrics) ImageStored(kind appuser.ImageKind, size int) {
	m.ImagesStored.WithLabelValues(string(kind)).Inc()
	m.ImageUploadBytes.WithLabelValues(string(kind)).Observe(float64(size))
}

// HTTPMetrics contains Prometheus metrics for served requests.
type HTTPMetrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers HTTP metrics with the given registerer.
func NewHTTPMetrics(registerer prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rollcall_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rollcall_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	registerer.MustRegister(m.Requests, m.RequestDuration)

	return m
}

// Observe records one finished request.
func (m *HTTPMetrics) Observe(method, route string, status int, seconds float64) {
	m.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(seconds)
}
