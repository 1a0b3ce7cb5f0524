package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Intake results.
const (
	resultOK        = "ok"
	resultFailed    = "failed"
	resultMalformed = "malformed"
)

// Revision operations.
const (
	opAdd    = "add"
	opUpdate = "update"
)

var (
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_uploads_total",
			Help: "Files handled by batch intake, by result.",
		},
		[]string{"result"},
	)

	revisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_revisions_total",
			Help: "Revisions written, by operation.",
		},
		[]string{"op"},
	)

	auditEntriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collab_audit_entries_total",
			Help: "Audit log entries committed, by action.",
		},
		[]string{"action"},
	)

	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collab_cache_hits_total",
		Help: "File artifact cache hits.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collab_cache_misses_total",
		Help: "File artifact cache misses.",
	})
)
