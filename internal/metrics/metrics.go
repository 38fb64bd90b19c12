// Package metrics provides Prometheus metrics for rostercal.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UploadsTotal tracks file uploads by outcome (added, replaced, failed)
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rostercal",
			Subsystem: "sources",
			Name:      "uploads_total",
			Help:      "Total number of uploaded files by outcome",
		},
		[]string{"outcome"},
	)

	// FilesRemovedTotal tracks removed uploaded files
	FilesRemovedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rostercal",
			Subsystem: "sources",
			Name:      "files_removed_total",
			Help:      "Total number of uploaded files removed",
		},
	)

	// ManualEventsTotal tracks manual event mutations by operation (add, delete)
	ManualEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rostercal",
			Subsystem: "sources",
			Name:      "manual_events_total",
			Help:      "Total number of manual event mutations by operation",
		},
		[]string{"op"},
	)

	// RebuildsTotal tracks working set rebuilds
	RebuildsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rostercal",
			Subsystem: "workset",
			Name:      "rebuilds_total",
			Help:      "Total number of working set rebuilds",
		},
	)

	// RebuildDuration tracks how long a rebuild takes in seconds
	RebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "rostercal",
			Subsystem: "workset",
			Name:      "rebuild_duration_seconds",
			Help:      "Duration of working set rebuilds in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	// WorkingSetRecords tracks the current working set size by item type
	WorkingSetRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "rostercal",
			Subsystem: "workset",
			Name:      "records",
			Help:      "Number of records in the working set by item type",
		},
		[]string{"item_type"},
	)

	// FeedFetchesTotal tracks ICS feed refreshes by outcome
	FeedFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rostercal",
			Subsystem: "feeds",
			Name:      "fetches_total",
			Help:      "Total number of ICS feed refreshes by outcome",
		},
		[]string{"feed", "outcome"},
	)
)
