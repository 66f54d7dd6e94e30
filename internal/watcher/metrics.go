package watcher

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openxai/oepindexer/internal/custompromauto"
)

var (
	confirmedBlocks = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
		Name: custompromauto.Name("watcher_confirmed_blocks_total"),
		Help: "Total number of confirmed blocks scanned for logs",
	}, []string{"watcher"})

	dispatchedLogs = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
		Name: custompromauto.Name("watcher_dispatched_logs_total"),
		Help: "Total number of decoded logs handed to the log handler",
	}, []string{"watcher"})

	failedBatches = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
		Name: custompromauto.Name("watcher_failed_batches_total"),
		Help: "Total number of log batches the handler failed to process",
	}, []string{"watcher"})

	skippedBlocks = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
		Name: custompromauto.Name("watcher_skipped_blocks_total"),
		Help: "Total number of confirmed blocks skipped because no endpoint returned their logs",
	}, []string{"watcher"})

	lastConfirmedBlock = custompromauto.Auto().NewGaugeVec(prometheus.GaugeOpts{
		Name: custompromauto.Name("watcher_last_confirmed_block"),
		Help: "Number of the last confirmed block dispatched by the watcher",
	}, []string{"watcher"})
)
