package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rowsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitwall",
		Subsystem: "ingest",
		Name:      "rows_total",
		Help:      "Result rows processed by the ingestion pipeline, by outcome.",
	}, []string{"outcome"})

	ingestFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pitwall",
		Subsystem: "ingest",
		Name:      "failures_total",
		Help:      "Ingestion calls that failed before row processing, by stage.",
	}, []string{"stage"})
)
