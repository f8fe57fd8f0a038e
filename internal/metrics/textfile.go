package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WriteTextfile dumps every registered metric to path in the text exposition format,
// for collection by node_exporter's textfile collector. An empty path is a no-op.
func WriteTextfile(path string) error {
	return WriteTextfileFrom(prometheus.DefaultGatherer, path)
}

// WriteTextfileFrom is WriteTextfile for an arbitrary gatherer
func WriteTextfileFrom(g prometheus.Gatherer, path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, g)
}
