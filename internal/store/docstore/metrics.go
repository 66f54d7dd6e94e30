package docstore

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openxai/oepindexer/internal/custompromauto"
)

var (
	documentWrites = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
		Name: custompromauto.Name("document_writes_total"),
		Help: "Number of committed document writes",
	}, []string{"key"})

	failedDocumentWrites = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
		Name: custompromauto.Name("document_write_failures_total"),
		Help: "Number of document writes that could not be persisted",
	}, []string{"key"})

	corruptedDocuments = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
		Name: custompromauto.Name("document_corruptions_total"),
		Help: "Number of stored payloads that could not be decoded",
	}, []string{"key"})

	lockTimeouts = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
		Name: custompromauto.Name("document_lock_timeouts_total"),
		Help: "Number of operations that timed out waiting for a document lock",
	}, []string{"key"})
)
