// Package payloadstore is an internal package containing the on-device queue: a SQLite table of
// serialized payloads (Store) and the single goroutine that owns it (Worker).
//
// Nothing outside this package touches a Store directly once a Worker has been started for it.
package payloadstore
