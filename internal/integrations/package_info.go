// Package integrations is an internal package containing the gate that manages bundled integrations:
// their lifecycle states, the application of remote settings, and per-payload delivery decisions.
package integrations
