// Package metrics exposes a client's delivery statistics to Prometheus.
//
//	client, _ := analytics.MakeClient(writeKey)
//	prometheus.MustRegister(metrics.NewCollector(client.Stats))
//
// The collector reads a fresh interfaces.StatsSnapshot on every scrape, so it holds no state of its
// own and can be registered with any number of registries.
package metrics
