package payload

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

var (
	// ErrInvalidType is returned by Build if the payload type is not one of the defined types.
	ErrInvalidType = errors.New("unknown payload type")
	// ErrNoIdentity is returned by Build if neither an anonymous ID nor a user ID was set.
	ErrNoIdentity = errors.New("payload requires an anonymousId or a userId")
	// ErrMissingEvent is returned by Build for a track payload with no event name.
	ErrMissingEvent = errors.New("track payload requires an event name")
	// ErrMissingGroupID is returned by Build for a group payload with no group ID.
	ErrMissingGroupID = errors.New("group payload requires a groupId")
	// ErrMissingPreviousID is returned by Build for an alias payload with no previous ID or user ID.
	ErrMissingPreviousID = errors.New("alias payload requires a previousId and a userId")
	// ErrMissingScreen is returned by Build for a screen payload with neither a name nor a category.
	ErrMissingScreen = errors.New("screen payload requires a name or a category")
	// ErrTooLarge is returned by Build if the serialized payload exceeds MaxPayloadSize.
	ErrTooLarge = errors.New("payload exceeds maximum size")
)

var now = time.Now //nolint:gochecknoglobals

// Builder accumulates the fields of a Payload.
//
// Builder methods do not validate their arguments; all validation happens in Build, so that a
// rejected call never reaches the queue or any integration.
//
//	p, err := payload.NewBuilder(payload.TrackType).
//	    UserID("user-1").
//	    Event("Order Completed").
//	    Properties(ldvalue.ObjectBuild().Set("revenue", ldvalue.Float64(9.99)).Build()).
//	    Build()
type Builder struct {
	p Payload
}

// NewBuilder creates a Builder for a payload of the given type.
func NewBuilder(kind Type) *Builder {
	return &Builder{p: Payload{kind: kind}}
}

// AnonymousID sets the anonymous identifier.
func (b *Builder) AnonymousID(id string) *Builder {
	b.p.anonymousID = id
	return b
}

// UserID sets the user identifier.
func (b *Builder) UserID(id string) *Builder {
	b.p.userID = id
	return b
}

// Timestamp sets the time at which the event occurred. If it is never set, Build uses the current time.
func (b *Builder) Timestamp(t time.Time) *Builder {
	b.p.timestamp = t
	return b
}

// Context sets the device and application metadata. The value is immutable, so later changes to the
// application's ambient context cannot affect a payload built from it.
func (b *Builder) Context(value ldvalue.Value) *Builder {
	b.p.context = value
	return b
}

// Integrations sets the per-target inclusion options.
func (b *Builder) Integrations(options IntegrationOptions) *Builder {
	b.p.integrations = options
	return b
}

// Traits sets the traits of an identify or group payload.
func (b *Builder) Traits(value ldvalue.Value) *Builder {
	b.p.traits = value
	return b
}

// Event sets the event name of a track payload.
func (b *Builder) Event(name string) *Builder {
	b.p.event = name
	return b
}

// Properties sets the properties of a track or screen payload.
func (b *Builder) Properties(value ldvalue.Value) *Builder {
	b.p.properties = value
	return b
}

// Name sets the screen name of a screen payload.
func (b *Builder) Name(name string) *Builder {
	b.p.name = name
	return b
}

// Category sets the screen category of a screen payload.
func (b *Builder) Category(category string) *Builder {
	b.p.category = category
	return b
}

// GroupID sets the group identifier of a group payload.
func (b *Builder) GroupID(id string) *Builder {
	b.p.groupID = id
	return b
}

// PreviousID sets the previous identifier of an alias payload.
func (b *Builder) PreviousID(id string) *Builder {
	b.p.previousID = id
	return b
}

// Build validates the accumulated fields, assigns a new message ID, and serializes the payload.
func (b *Builder) Build() (Payload, error) {
	p := b.p
	if err := validate(p); err != nil {
		return Payload{}, err
	}
	messageUUID, err := uuid.NewRandom()
	if err != nil {
		return Payload{}, fmt.Errorf("unable to generate message ID: %w", err)
	}
	p.messageID = messageUUID.String()
	if p.timestamp.IsZero() {
		p.timestamp = now()
	}
	p.rowID = 0
	data, err := encode(p)
	if err != nil {
		return Payload{}, err
	}
	if len(data) > MaxPayloadSize {
		return Payload{}, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(data))
	}
	p.data = data
	return p, nil
}

func validate(p Payload) error {
	if !p.kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, p.kind)
	}
	if p.anonymousID == "" && p.userID == "" {
		return ErrNoIdentity
	}
	switch p.kind {
	case TrackType:
		if p.event == "" {
			return ErrMissingEvent
		}
	case GroupType:
		if p.groupID == "" {
			return ErrMissingGroupID
		}
	case AliasType:
		if p.previousID == "" || p.userID == "" {
			return ErrMissingPreviousID
		}
	case ScreenType:
		if p.name == "" && p.category == "" {
			return ErrMissingScreen
		}
	}
	return nil
}
