package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/relaytics/analytics-go/interfaces"
)

const namespace = "analytics"

var (
	queueSizeDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "queue", "size"),
		"Number of payloads stored on the device and not yet delivered.",
		nil, nil,
	)
	queuedPayloadsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "queue", "payloads_total"),
		"Number of payloads written to the queue.",
		nil, nil,
	)
	droppedPayloadsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "queue", "dropped_payloads_total"),
		"Number of payloads discarded before they could be queued.",
		nil, nil,
	)
	flushesDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "flush", "batches_total"),
		"Number of batches delivered, by outcome.",
		[]string{"outcome"}, nil,
	)
	flushedPayloadsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "flush", "payloads_total"),
		"Number of payloads delivered successfully.",
		nil, nil,
	)
	integrationOperationsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "integration", "operations_total"),
		"Number of calls made to bundled integrations.",
		nil, nil,
	)
	integrationSecondsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "integration", "operation_seconds_total"),
		"Total time spent in calls to bundled integrations.",
		[]string{"integration"}, nil,
	)
)

// Collector is a prometheus.Collector that reports a client's StatsSnapshot.
type Collector struct {
	statsFn func() interfaces.StatsSnapshot
}

// NewCollector creates a Collector that calls statsFn on every scrape. Pass the Stats method of
// the client.
func NewCollector(statsFn func() interfaces.StatsSnapshot) *Collector {
	return &Collector{statsFn: statsFn}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- queueSizeDesc
	ch <- queuedPayloadsDesc
	ch <- droppedPayloadsDesc
	ch <- flushesDesc
	ch <- flushedPayloadsDesc
	ch <- integrationOperationsDesc
	ch <- integrationSecondsDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.statsFn()

	ch <- prometheus.MustNewConstMetric(queueSizeDesc, prometheus.GaugeValue, float64(s.QueueSize))
	ch <- prometheus.MustNewConstMetric(queuedPayloadsDesc, prometheus.CounterValue, float64(s.QueuedPayloads))
	ch <- prometheus.MustNewConstMetric(droppedPayloadsDesc, prometheus.CounterValue, float64(s.DroppedPayloads))
	ch <- prometheus.MustNewConstMetric(flushesDesc, prometheus.CounterValue, float64(s.FlushCount), "success")
	ch <- prometheus.MustNewConstMetric(flushesDesc, prometheus.CounterValue, float64(s.FailedFlushCount), "failure")
	ch <- prometheus.MustNewConstMetric(flushedPayloadsDesc, prometheus.CounterValue, float64(s.FlushedPayloads))
	ch <- prometheus.MustNewConstMetric(integrationOperationsDesc, prometheus.CounterValue,
		float64(s.IntegrationOperationCount))

	keys := make([]string, 0, len(s.IntegrationOperationDurationByTarget))
	for key := range s.IntegrationOperationDurationByTarget {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		ch <- prometheus.MustNewConstMetric(integrationSecondsDesc, prometheus.CounterValue,
			s.IntegrationOperationDurationByTarget[key].Seconds(), key)
	}
}
