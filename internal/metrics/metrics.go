// Package metrics exposes Prometheus counters for authentication and
// authorization outcomes.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Label names shared across metrics.
const (
	LabelOutcome  = "outcome"
	LabelResource = "resource"
	LabelReason   = "reason"
)

var (
	// AuthenticationTotal counts token authentication attempts by outcome.
	AuthenticationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devhub_authentication_total",
			Help: "Total number of authentication attempts",
		},
		[]string{LabelOutcome},
	)

	// AuthorizationTotal counts policy decisions by resource and outcome.
	// For denials the reason label distinguishes the denial kind.
	AuthorizationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "devhub_authorization_total",
			Help: "Total number of authorization decisions",
		},
		[]string{LabelResource, LabelOutcome, LabelReason},
	)
)

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
