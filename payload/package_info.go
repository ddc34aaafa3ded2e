// Package payload defines the analytics event record, Payload, that flows through the on-device queue
// to the collection endpoint and to bundled integrations.
//
// A Payload is built once with a Builder, which validates it and serializes it to the JSON form that is
// stored in the queue and later embedded verbatim in a batch. Per-target delivery of a payload is
// controlled by its IntegrationOptions.
package payload
