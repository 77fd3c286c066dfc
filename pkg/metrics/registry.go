// Package metrics provides the shared Prometheus registry and HTTP
// server every agent subcommand exposes, independent of the
// per-task collector bundles each agent package defines for itself
// (see e.g. pkg/agents/monitor's Metrics types).
package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewRegistry returns a fresh registry rather than the global
// prometheus.DefaultRegisterer, so a process running more than one
// agent in-process (tests, a combined binary) never collides on
// collector registration.
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}
