package sharedtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/relaytics/analytics-go/payload"
)

// MakeTrackPayload builds a track payload with the given event name and options.
func MakeTrackPayload(t *testing.T, event string, options payload.IntegrationOptions) payload.Payload {
	p, err := payload.NewBuilder(payload.TrackType).
		AnonymousID("anonymous-id").
		Event(event).
		Integrations(options).
		Build()
	require.NoError(t, err)
	return p
}
