package analytics

import (
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/relaytics/analytics-go/internal/payloadstore"
	"github.com/relaytics/analytics-go/payload"
)

// CallOptions holds optional parameters of Identify, Track, Screen, Group, and Alias. A nil
// *CallOptions is the same as an empty one.
type CallOptions struct {
	// Timestamp is the time the event occurred. If zero, the current time is used.
	Timestamp time.Time

	// Integrations decides which targets receive the payload. The empty value sends it everywhere.
	//
	//	opts := &analytics.CallOptions{
	//	    Integrations: payload.NewIntegrationOptions().Disable("Mixpanel").Build(),
	//	}
	Integrations payload.IntegrationOptions

	// Context holds properties that are added to, or replace, the ambient context for this call only.
	Context ldvalue.Value
}

// Identify associates the current user with a user ID and traits. The user ID, if not empty, is
// attached to every later payload; the traits are merged with those of earlier Identify calls.
//
// It returns an error only if the payload is invalid, for instance if it is too large. Failures to
// store or deliver the payload are never reported to the caller.
func (c *Client) Identify(userID string, traits ldvalue.Value, opts *CallOptions) error {
	if !c.acceptingCalls() || c.optedOut.Load() {
		return nil
	}
	// The lock is held from the merge to the write-back so that concurrent calls cannot lose traits.
	c.identityLock.Lock()
	id := c.identity
	if userID != "" {
		id.userID = userID
	}
	id.traits = mergeObjects(id.traits, traits)

	p, err := c.newBuilder(payload.IdentifyType, id, opts).
		Traits(id.traits).
		Build()
	if err != nil {
		c.identityLock.Unlock()
		return err
	}
	c.identity.userID = id.userID
	c.identity.traits = id.traits
	c.identityLock.Unlock()
	c.submit(p)
	return nil
}

// Track records that the user performed an action. The event name must not be empty.
func (c *Client) Track(event string, properties ldvalue.Value, opts *CallOptions) error {
	if !c.acceptingCalls() || c.optedOut.Load() {
		return nil
	}
	p, err := c.newBuilder(payload.TrackType, c.currentIdentity(), opts).
		Event(event).
		Properties(properties).
		Build()
	if err != nil {
		return err
	}
	c.submit(p)
	return nil
}

// Screen records that the user viewed a screen. At least one of category and name must be set.
func (c *Client) Screen(category, name string, properties ldvalue.Value, opts *CallOptions) error {
	if !c.acceptingCalls() || c.optedOut.Load() {
		return nil
	}
	p, err := c.newBuilder(payload.ScreenType, c.currentIdentity(), opts).
		Category(category).
		Name(name).
		Properties(properties).
		Build()
	if err != nil {
		return err
	}
	c.submit(p)
	return nil
}

// Group associates the current user with a group, such as a company or account. The group ID must
// not be empty.
func (c *Client) Group(groupID string, traits ldvalue.Value, opts *CallOptions) error {
	if !c.acceptingCalls() || c.optedOut.Load() {
		return nil
	}
	p, err := c.newBuilder(payload.GroupType, c.currentIdentity(), opts).
		GroupID(groupID).
		Traits(traits).
		Build()
	if err != nil {
		return err
	}
	c.submit(p)
	return nil
}

// Alias merges the current identity into a new user ID. The previous ID is the current user ID, or
// the anonymous ID if Identify has not been called. The new ID must not be empty.
func (c *Client) Alias(newID string, opts *CallOptions) error {
	if !c.acceptingCalls() || c.optedOut.Load() {
		return nil
	}
	id := c.currentIdentity()
	previousID := id.userID
	if previousID == "" {
		previousID = id.anonymousID
	}
	id.userID = newID
	p, err := c.newBuilder(payload.AliasType, id, opts).
		PreviousID(previousID).
		Build()
	if err != nil {
		return err
	}
	c.submit(p)
	return nil
}

func (c *Client) currentIdentity() identity {
	c.identityLock.RLock()
	defer c.identityLock.RUnlock()
	return c.identity
}

func (c *Client) newBuilder(kind payload.Type, id identity, opts *CallOptions) *payload.Builder {
	b := payload.NewBuilder(kind).
		AnonymousID(id.anonymousID).
		UserID(id.userID).
		Context(c.baseContext)
	if opts != nil {
		b.Timestamp(opts.Timestamp).
			Integrations(opts.Integrations).
			Context(mergeObjects(c.baseContext, opts.Context))
	}
	return b
}

// submit stores a copy of the payload for the collection endpoint, unless its options set the
// endpoint's key to false, and then passes it to the ready integrations. Neither step waits for I/O.
//
// The "all" wildcard does not keep a payload off the device queue; the stored copy carries the
// options so that the collection endpoint applies them to its own destinations.
func (c *Client) submit(p payload.Payload) {
	if !isCloudOptedOut(p.Integrations()) {
		stored, err := p.WithBundledIntegrations(c.manager.BundledKeys())
		if err != nil {
			c.loggers.Warnf("Unable to mark bundled integrations on payload %s: %s", p, err)
			stored = p
		}
		c.worker.Enqueue(stored.Data(), func(r payloadstore.EnqueueResult) {
			if r.Success {
				c.scheduler.PayloadQueued()
			}
		})
	} else {
		c.loggers.Debugf("Payload %s is not sent to %s", p, CloudTargetKey)
	}
	c.manager.Dispatch(p)
}


func isCloudOptedOut(options payload.IntegrationOptions) bool {
	value, ok := options.Get(CloudTargetKey)
	return ok && value.Type() == ldvalue.BoolType && !value.BoolValue()
}
