package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa los collectors del servicio.
// Cada instancia tiene su propio registry para poder crear varios routers en tests.
type Metrics struct {
	registry *prometheus.Registry

	logins         *prometheus.CounterVec
	issued         prometheus.Counter
	fills          *prometheus.CounterVec
	gateRejections *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rx_logins_total",
			Help: "Login attempts by role and outcome.",
		}, []string{"role", "outcome"}),
		issued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rx_prescriptions_issued_total",
			Help: "Prescriptions issued.",
		}),
		fills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rx_prescriptions_filled_total",
			Help: "Fill attempts by outcome.",
		}, []string{"outcome"}),
		gateRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rx_gate_rejections_total",
			Help: "Requests rejected by the access gate.",
		}, []string{"reason"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rx_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		m.logins,
		m.issued,
		m.fills,
		m.gateRejections,
		m.httpDuration,
	)
	return m
}

// Los métodos toleran receiver nil para que los servicios funcionen sin métricas.

func (m *Metrics) Login(role, outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(role, outcome).Inc()
}

func (m *Metrics) Issued() {
	if m == nil {
		return
	}
	m.issued.Inc()
}

func (m *Metrics) Fill(outcome string) {
	if m == nil {
		return
	}
	m.fills.WithLabelValues(outcome).Inc()
}

func (m *Metrics) GateRejected(reason string) {
	if m == nil {
		return
	}
	m.gateRejections.WithLabelValues(reason).Inc()
}

// Accessors para leer los valores en tests (prometheus/testutil).

func (m *Metrics) LoginCounter(role, outcome string) prometheus.Counter {
	return m.logins.WithLabelValues(role, outcome)
}

func (m *Metrics) IssuedCounter() prometheus.Counter {
	return m.issued
}

func (m *Metrics) FillCounter(outcome string) prometheus.Counter {
	return m.fills.WithLabelValues(outcome)
}

func (m *Metrics) GateRejectedCounter(reason string) prometheus.Counter {
	return m.gateRejections.WithLabelValues(reason)
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Instrument mide la latencia por route pattern de chi (no por path crudo,
// para no explotar la cardinalidad con ids).
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
	})
}
