package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citas_api_http_requests_total",
			Help: "Total HTTP requests handled, by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "citas_api_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds, by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	CitasAdmitidas = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citas_api_citas_admitidas_total",
			Help: "Citas successfully admitted against a slot",
		},
	)

	CitasRechazadas = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "citas_api_citas_rechazadas_total",
			Help: "Admissions rejected, by reason",
		},
		[]string{"reason"},
	)

	HorariosGenerados = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "citas_api_horarios_generados_total",
			Help: "Slots created by the monthly generator or single upserts",
		},
	)
)

func RecordHTTPRequest(method, route, status string) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
}

func RecordAdmission() {
	CitasAdmitidas.Inc()
}

func RecordRejection(reason string) {
	CitasRechazadas.WithLabelValues(reason).Inc()
}

func RecordSlotsCreated(n int) {
	HorariosGenerados.Add(float64(n))
}
