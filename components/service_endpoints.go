package components

import "github.com/relaytics/analytics-go/interfaces"

// ProxyEndpoints specifies a single base URI for a proxy that serves both the collection and settings
// paths, telling the client to use it for all services.
//
// Store this value in the ServiceEndpoints field of your configuration. For example:
//
//	config := analytics.Config{
//	    ServiceEndpoints: components.ProxyEndpoints("http://my-proxy:8080"),
//	}
func ProxyEndpoints(proxyBaseURI string) interfaces.ServiceEndpoints {
	return interfaces.ServiceEndpoints{
		Collection: proxyBaseURI,
		Settings:   proxyBaseURI,
	}
}
