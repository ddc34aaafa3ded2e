package payload

import (
	"fmt"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Type is the kind of analytics call that produced a Payload.
type Type string

const (
	// IdentifyType is the type of a payload created by an identify call.
	IdentifyType Type = "identify"
	// TrackType is the type of a payload created by a track call.
	TrackType Type = "track"
	// ScreenType is the type of a payload created by a screen call.
	ScreenType Type = "screen"
	// GroupType is the type of a payload created by a group call.
	GroupType Type = "group"
	// AliasType is the type of a payload created by an alias call.
	AliasType Type = "alias"
)

// MaxPayloadSize is the largest serialized size, in bytes, that a single payload may have. Larger
// payloads are rejected when they are built.
const MaxPayloadSize = 15000

// IsValid returns true if the type is one of the five defined payload types.
func (t Type) IsValid() bool {
	switch t {
	case IdentifyType, TrackType, ScreenType, GroupType, AliasType:
		return true
	}
	return false
}

// Payload is one analytics event.
//
// A Payload is immutable once built: its identity fields (message ID, timestamp, type) and all of its
// data are fixed by Builder.Build. The only value that is attached afterward is the row ID assigned by
// the on-device queue, and that is done by returning a modified copy (see WithRowID).
//
// The zero value is not a valid payload; use Builder.
type Payload struct {
	rowID        int64
	kind         Type
	messageID    string
	timestamp    time.Time
	anonymousID  string
	userID       string
	context      ldvalue.Value
	integrations IntegrationOptions
	traits       ldvalue.Value
	event        string
	properties   ldvalue.Value
	name         string
	category     string
	groupID      string
	previousID   string
	data         []byte
}

// RowID returns the identifier assigned by the on-device queue, or zero if this payload has not
// been read back from the queue.
func (p Payload) RowID() int64 { return p.rowID }

// HasRowID returns true if the payload has been persisted and read back from the queue.
func (p Payload) HasRowID() bool { return p.rowID > 0 }

// WithRowID returns a copy of the payload with the queue's row ID attached.
func (p Payload) WithRowID(id int64) Payload {
	p.rowID = id
	return p
}

// Type returns the kind of call that created the payload.
func (p Payload) Type() Type { return p.kind }

// MessageID returns the globally unique identifier generated when the payload was built. It stays the
// same across delivery retries, so the collection endpoint can deduplicate.
func (p Payload) MessageID() string { return p.messageID }

// Timestamp returns the time the event occurred.
func (p Payload) Timestamp() time.Time { return p.timestamp }

// AnonymousID returns the anonymous identifier, if any.
func (p Payload) AnonymousID() string { return p.anonymousID }

// UserID returns the user identifier, or an empty string if the user has not been identified.
func (p Payload) UserID() string { return p.userID }

// Context returns the snapshot of device and application metadata taken when the payload was built.
func (p Payload) Context() ldvalue.Value { return p.context }

// Integrations returns the per-target inclusion options.
func (p Payload) Integrations() IntegrationOptions { return p.integrations }

// Traits returns the traits of an identify or group payload.
func (p Payload) Traits() ldvalue.Value { return p.traits }

// Event returns the event name of a track payload.
func (p Payload) Event() string { return p.event }

// Properties returns the properties of a track or screen payload.
func (p Payload) Properties() ldvalue.Value { return p.properties }

// Name returns the screen name of a screen payload.
func (p Payload) Name() string { return p.name }

// Category returns the screen category of a screen payload.
func (p Payload) Category() string { return p.category }

// GroupID returns the group identifier of a group payload.
func (p Payload) GroupID() string { return p.groupID }

// PreviousID returns the previous identifier of an alias payload.
func (p Payload) PreviousID() string { return p.previousID }

// Data returns the serialized JSON form of the payload. This is the form that is stored in the queue
// and embedded verbatim in a batch. The caller must not modify the returned slice.
func (p Payload) Data() []byte { return p.data }

// WithBundledIntegrations returns a copy of the payload in which every key in bundled is marked as
// false in the integrations options. This is the form stored for the collection endpoint: targets
// that already received the event on the device must not receive it a second time from the server.
//
// The message ID, timestamp, and type are unchanged. If the added options would take the payload
// over MaxPayloadSize, it returns ErrTooLarge.
func (p Payload) WithBundledIntegrations(bundled []string) (Payload, error) {
	if len(bundled) == 0 {
		return p, nil
	}
	p.integrations = p.integrations.withDisabled(bundled)
	data, err := encode(p)
	if err != nil {
		return Payload{}, err
	}
	if len(data) > MaxPayloadSize {
		return Payload{}, fmt.Errorf("%w: %d bytes with bundled integrations", ErrTooLarge, len(data))
	}
	p.data = data
	return p, nil
}

// String returns a short description for log output. It does not include any user data.
func (p Payload) String() string {
	return string(p.kind) + " " + p.messageID
}
