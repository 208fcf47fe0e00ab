package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

// newMetrics registers HTTP counters and the speech queue counters on a
// private registry.
func newMetrics(sp Speaker) *metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "herald_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"path", "code"}),
	}

	available := 0.0
	if sp != nil {
		available = 1
	}
	factory.NewGauge(prometheus.GaugeOpts{
		Name: "herald_speech_available",
		Help: "Whether a speech backend was initialized",
	}).Set(available)

	if sp == nil {
		return m
	}

	counters := []struct {
		name, help string
		value      func() uint64
	}{
		{"herald_utterances_enqueued_total", "Utterances admitted to the speech queue", func() uint64 { return sp.Stats().Enqueued }},
		{"herald_utterances_dropped_total", "Utterances dropped because the queue was full", func() uint64 { return sp.Stats().Dropped }},
		{"herald_utterances_spoken_total", "Utterances spoken by the backend", func() uint64 { return sp.Stats().Spoken }},
		{"herald_utterances_failed_total", "Utterances the backend failed to speak", func() uint64 { return sp.Stats().Failed }},
	}
	for _, c := range counters {
		value := c.value
		factory.NewCounterFunc(prometheus.CounterOpts{Name: c.name, Help: c.help}, func() float64 {
			return float64(value())
		})
	}
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "herald_speech_queue_length",
		Help: "Utterances waiting in the speech queue",
	}, func() float64 {
		return float64(sp.Stats().Queued)
	})

	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) observe(r *http.Request, status int) {
	if status == 0 {
		status = http.StatusOK
	}
	path := "unmatched"
	if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
		path = rc.RoutePattern()
	}
	m.requests.WithLabelValues(path, strconv.Itoa(status)).Inc()
}
