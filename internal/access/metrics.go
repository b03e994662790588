// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package access

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for access decisions.
var (
	// decisionsTotal counts CanRead/CanWrite outcomes by operation and result.
	decisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lorekeep_access_decisions_total",
		Help: "Total number of access decisions by operation and outcome",
	}, []string{"operation", "outcome"})

	// contextResolutionsTotal counts resolved contexts by privilege level.
	contextResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lorekeep_access_context_resolutions_total",
		Help: "Total number of access context resolutions by privilege",
	}, []string{"privilege"})
)

// RecordDecision records a single decision outcome. Callers on hot read
// paths invoke this once per record check.
func RecordDecision(operation string, allowed bool) {
	outcome := "deny"
	if allowed {
		outcome = "allow"
	}
	decisionsTotal.WithLabelValues(operation, outcome).Inc()
}

// RecordResolution records a resolved context by privilege level.
func RecordResolution(c Context) {
	switch {
	case c.SystemAdmin:
		contextResolutionsTotal.WithLabelValues("admin").Inc()
	case c.WorldOwner:
		contextResolutionsTotal.WithLabelValues("owner").Inc()
	default:
		contextResolutionsTotal.WithLabelValues("member").Inc()
	}
}
