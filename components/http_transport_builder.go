package components

import (
	"time"

	"github.com/relaytics/analytics-go/internal/endpoints"
	"github.com/relaytics/analytics-go/internal/transport"
	"github.com/relaytics/analytics-go/subsystems"
)

// DefaultRetryDelay is the default value for HTTPTransportBuilder.RetryDelay.
const DefaultRetryDelay = transport.DefaultRetryDelay

// HTTPTransportBuilder provides methods for configuring delivery of batches to the collection endpoint.
//
// See HTTPTransport for usage.
type HTTPTransportBuilder struct {
	baseURI    string
	retryDelay time.Duration
}

// HTTPTransport returns a configuration builder for the default transport, which posts batches to
// the collection endpoint. It is the default, so you only need it to change its properties:
//
//	config := analytics.Config{
//	    Transport: components.HTTPTransport().RetryDelay(5 * time.Second),
//	}
func HTTPTransport() *HTTPTransportBuilder {
	return &HTTPTransportBuilder{retryDelay: DefaultRetryDelay}
}

// BaseURI sets a custom base URI for the collection endpoint. This is equivalent to setting
// Collection in Config.ServiceEndpoints, and takes precedence over it.
func (b *HTTPTransportBuilder) BaseURI(baseURI string) *HTTPTransportBuilder {
	b.baseURI = baseURI
	return b
}

// RetryDelay sets how long the transport waits before its one retry of a failed request.
func (b *HTTPTransportBuilder) RetryDelay(retryDelay time.Duration) *HTTPTransportBuilder {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	b.retryDelay = retryDelay
	return b
}

// Build is called internally by the client.
func (b *HTTPTransportBuilder) Build(context subsystems.ClientContext) (subsystems.Transport, error) {
	configuredBaseURI := endpoints.SelectBaseURI(
		context.GetServiceEndpoints(),
		endpoints.CollectionService,
		b.baseURI,
		context.GetLogging().Loggers,
	)
	return transport.NewHTTPTransport(context, transport.Config{
		BaseURI:    configuredBaseURI,
		RetryDelay: b.retryDelay,
	}), nil
}
