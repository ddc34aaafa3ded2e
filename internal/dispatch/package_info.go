// Package dispatch is an internal package containing the flush scheduler and the dispatcher, which
// together move payloads from the on-device queue to the collection endpoint.
package dispatch
