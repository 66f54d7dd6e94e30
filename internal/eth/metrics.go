package eth

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openxai/oepindexer/internal/custompromauto"
)

var failedBlockRetrievals = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
	Name: custompromauto.Name("failed_block_retrievals_total"),
	Help: "Number of failed block header retrievals",
}, []string{"chain"})

var retrievedBlocks = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
	Name: custompromauto.Name("block_retrievals_total"),
	Help: "Number of successful block header retrievals",
}, []string{"chain"})

var failedRPCCalls = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
	Name: custompromauto.Name("failed_rpc_calls_total"),
	Help: "Number of failed rpc call attempts, retries included",
}, []string{"chain", "method"})

var reorgDroppedBlocks = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
	Name: custompromauto.Name("reorg_dropped_blocks_total"),
	Help: "Number of blocks dropped from buffer due to chain reorganization",
}, []string{"chain"})

var deepReorgs = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
	Name: custompromauto.Name("deep_reorgs_total"),
	Help: "Number of reorganizations deeper than the confirmation depth",
}, []string{"chain"})

var failedAncestorFetches = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
	Name: custompromauto.Name("failed_ancestor_fetches_total"),
	Help: "Number of reorg walk backs abandoned because an ancestor block could not be fetched",
}, []string{"chain"})

var undecodableLogs = custompromauto.Auto().NewCounterVec(prometheus.CounterOpts{
	Name: custompromauto.Name("undecodable_logs_total"),
	Help: "Number of chain logs dropped because they could not be decoded",
}, []string{"event"})
