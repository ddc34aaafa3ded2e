// Package transport is an internal package containing the default implementation of
// subsystems.Transport, which posts batches to the collection endpoint over HTTP.
//
// Applications should configure it with components.HTTPTransport().
package transport
