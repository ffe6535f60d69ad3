package server

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nvr-ai/detect-demo/common"
	"github.com/nvr-ai/detect-demo/controller"
)

// Metrics are the counters exported on /metrics.
type Metrics struct {
	requests   *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	stages     *prometheus.HistogramVec
	failures   *prometheus.CounterVec
	detections prometheus.Histogram
	sessions   prometheus.GaugeFunc
}

// NewMetrics creates the collectors and registers them with reg.
//
// Arguments:
//   - reg: The registry, usually a fresh prometheus.NewRegistry().
//   - sessions: Reports the number of live sessions.
//
// Returns:
//   - *Metrics: The collectors.
//   - error: An error if registration fails.
func NewMetrics(reg prometheus.Registerer, sessions func() float64) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "detect_demo_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "detect_demo_pipeline_seconds",
				Help:    "Time to fetch, infer and render one interaction",
				Buckets: []float64{.1, .25, .5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"dataset"},
		),
		stages: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "detect_demo_stage_seconds",
				Help:    "Time spent per pipeline stage",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5, 10, 30},
			},
			[]string{"stage"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "detect_demo_pipeline_failures_total",
				Help: "Failed interactions by error kind",
			},
			[]string{"kind"},
		),
		detections: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "detect_demo_detections",
				Help:    "Detections kept per successful interaction",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
			},
		),
		sessions: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "detect_demo_sessions",
				Help: "Live browser sessions",
			},
			sessions,
		),
	}

	for _, c := range []prometheus.Collector{m.requests, m.latency, m.stages, m.failures, m.detections, m.sessions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRequest(route string, code int) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

func (m *Metrics) observeFailure(err error) {
	m.failures.WithLabelValues(common.KindOf(err).String()).Inc()
}

func (m *Metrics) observeRender(dataset string, r *controller.Render) {
	m.latency.WithLabelValues(dataset).Observe(r.Elapsed.Seconds())
	m.detections.Observe(float64(len(r.Detections)))
	for _, st := range r.Stages {
		m.stages.WithLabelValues(st.Name).Observe(st.Duration.Seconds())
	}
}
