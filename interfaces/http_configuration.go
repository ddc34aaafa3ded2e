package interfaces

import (
	"net/http"
)

// HTTPConfiguration encapsulates top-level HTTP configuration that applies to all components that
// make HTTP requests.
//
// See components.HTTPConfigurationBuilder for more details on these properties.
type HTTPConfiguration struct {
	// DefaultHeaders contains the basic headers that should be added to all HTTP requests, based on
	// the current configuration. This map is never modified once created.
	DefaultHeaders http.Header

	// CreateHTTPClient is a function that returns a new HTTP client instance based on the configuration.
	//
	// The client will ensure that this field is non-nil before passing it to any component.
	CreateHTTPClient func() *http.Client
}
