package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RPC Metrics
var (
	RPCRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rpc_requests_total",
		Help: "The total number of JSON-RPC requests sent to the node",
	}, []string{"method"})

	RPCFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rpc_failures_total",
		Help: "The total number of JSON-RPC requests that failed or returned an unusable result",
	}, []string{"method"})
)

// Collector Metrics
var (
	BlocksProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_blocks_processed_total",
		Help: "The total number of blocks added to the output",
	})

	BlocksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_blocks_failed_total",
		Help: "The total number of blocks skipped because they could not be fetched or read",
	})

	TracesCollected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_traces_collected_total",
		Help: "The total number of transaction trace records added to the output",
	})

	TracesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collector_traces_skipped_total",
		Help: "The total number of transactions skipped because their trace was not available",
	})

	LastProcessedBlock = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "collector_last_processed_block",
		Help: "The last block number processed by the collector",
	})
)

// Storage Metrics
var (
	SinkWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_sink_writes_total",
		Help: "The total number of successful writes per output sink",
	}, []string{"sink"})

	SinkFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_sink_failures_total",
		Help: "The total number of failed writes per output sink",
	}, []string{"sink"})
)
