package index

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openxai/oepindexer/internal/custompromauto"
)

var (
	eventsFailedStoring = custompromauto.Auto().NewCounter(prometheus.CounterOpts{
		Name: custompromauto.Name("reserved_events_failed_storing_total"),
		Help: "Total number of Reserved events that could not be stored",
	})

	indexedEvents = custompromauto.Auto().NewCounter(prometheus.CounterOpts{
		Name: custompromauto.Name("reserved_events_indexed_total"),
		Help: "Total number of Reserved events appended to the event log",
	})
	duplicateEvents = custompromauto.Auto().NewCounter(prometheus.CounterOpts{
		Name: custompromauto.Name("reserved_events_duplicate_total"),
		Help: "Total number of Reserved events skipped because they were already stored",
	})
	undecodableEvents = custompromauto.Auto().NewCounter(prometheus.CounterOpts{
		Name: custompromauto.Name("reserved_events_undecodable_total"),
		Help: "Total number of Reserved logs dropped because of unexpected arguments",
	})
)
