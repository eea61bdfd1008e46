// Package metrics exposes prometheus counters for authentication outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registrations counts account signup attempts by result.
	Registrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_registrations_total",
		Help: "Total number of registration attempts.",
	}, []string{"result"})

	// Logins counts credential verification attempts by result.
	Logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Total number of login attempts.",
	}, []string{"result"})

	// Rotations counts refresh token rotation attempts by result.
	Rotations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_token_rotations_total",
		Help: "Total number of refresh token rotation attempts.",
	}, []string{"result"})
)

// Register attaches the package collectors plus process and Go runtime
// collectors to the given registry.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		Registrations,
		Logins,
		Rotations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the metrics endpoint for the given registry.
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
