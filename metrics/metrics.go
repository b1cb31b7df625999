// Package metrics exposes Prometheus counters for the authentication
// pipeline. A nil *Metrics is valid and records nothing, so callers never
// guard instrumentation sites.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the pipeline's Prometheus collectors.
type Metrics struct {
	authSuccess     *prometheus.CounterVec
	authFailure     *prometheus.CounterVec
	rateLimited     *prometheus.CounterVec
	lazyDeferred    prometheus.Counter
	lazyInitialized prometheus.Counter
	rememberMe      *prometheus.CounterVec
}

// New builds and registers the collectors. A nil registerer leaves them
// unregistered, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		authSuccess: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_auth_success_total",
				Help: "Successful authentications",
			},
			[]string{"firewall", "authenticator"},
		),
		authFailure: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_auth_failure_total",
				Help: "Failed authentications",
			},
			[]string{"firewall", "authenticator"},
		),
		rateLimited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_auth_rate_limited_total",
				Help: "Authentication attempts rejected by the rate limiter",
			},
			[]string{"firewall"},
		),
		lazyDeferred: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_firewall_lazy_deferred_total",
				Help: "Requests whose firewall listeners were deferred",
			},
		),
		lazyInitialized: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gatehouse_firewall_lazy_initialized_total",
				Help: "Deferred listener sets actually executed",
			},
		),
		rememberMe: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gatehouse_remember_me_total",
				Help: "Remember-me cookie operations by outcome",
			},
			[]string{"outcome"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.authSuccess, m.authFailure, m.rateLimited,
			m.lazyDeferred, m.lazyInitialized, m.rememberMe)
	}
	return m
}

// AuthSuccess records a successful authentication.
func (m *Metrics) AuthSuccess(firewall, authenticator string) {
	if m == nil {
		return
	}
	m.authSuccess.WithLabelValues(firewall, authenticator).Inc()
}

// AuthFailure records a failed authentication.
func (m *Metrics) AuthFailure(firewall, authenticator string) {
	if m == nil {
		return
	}
	m.authFailure.WithLabelValues(firewall, authenticator).Inc()
}

// RateLimited records a rate-limiter rejection.
func (m *Metrics) RateLimited(firewall string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(firewall).Inc()
}

// LazyDeferred records a request whose listeners were deferred.
func (m *Metrics) LazyDeferred() {
	if m == nil {
		return
	}
	m.lazyDeferred.Inc()
}

// LazyInitialized records a deferred listener set that actually ran.
func (m *Metrics) LazyInitialized() {
	if m == nil {
		return
	}
	m.lazyInitialized.Inc()
}

// RememberMe records a remember-me operation outcome
// (issued, consumed, rejected, expired).
func (m *Metrics) RememberMe(outcome string) {
	if m == nil {
		return
	}
	m.rememberMe.WithLabelValues(outcome).Inc()
}
