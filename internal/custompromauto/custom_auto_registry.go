package custompromauto

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes every metric registered by the indexer.
const Namespace = "oepindexer"

var registry *prometheus.Registry
var auto promauto.Factory

func init() {
	registry = prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	auto = promauto.With(registry)
}

func Auto() promauto.Factory {
	return auto
}

func Registry() *prometheus.Registry {
	return registry
}

// Name returns the fully qualified metric name for the given suffix.
func Name(suffix string) string {
	return prometheus.BuildFQName(Namespace, "", suffix)
}
