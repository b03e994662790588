// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package revision

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for bulk revision runs.
var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lorekeep_revision_runs_total",
		Help: "Total number of bulk revision runs by operation and outcome",
	}, []string{"operation", "outcome"})

	applyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lorekeep_revision_apply_duration_seconds",
		Help:    "Duration of bulk revision apply transactions",
		Buckets: prometheus.DefBuckets,
	})

	entitiesUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lorekeep_revision_entities_updated_total",
		Help: "Total number of entities touched by applied revision runs",
	})
)

func recordRun(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	runsTotal.WithLabelValues(operation, outcome).Inc()
}
