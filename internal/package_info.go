// Package internal contains implementation details that are shared between packages, but are not
// exposed to application code. The payloadstore, dispatch and integrations subpackages contain the
// components that move payloads from the application to their targets.
package internal
