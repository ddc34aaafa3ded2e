package integration

import (
	"errors"
	"fmt"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/relaytics/analytics-go/interfaces"
	"github.com/relaytics/analytics-go/payload"
)

// ErrInvalidSettings is the error that MissingSettingError wraps.
var ErrInvalidSettings = errors.New("invalid integration settings")

// MissingSettingError returns an error for a required setting that is absent or empty.
func MissingSettingError(name string) error {
	return fmt.Errorf("%w: %q is required", ErrInvalidSettings, name)
}

// AppContext is passed to Integration.OnCreate.
type AppContext struct {
	// WriteKey is the key the client was created with.
	WriteKey string
	// ApplicationInfo is the configured application metadata.
	ApplicationInfo interfaces.ApplicationInfo
	// Context is the ambient context that is attached to every payload.
	Context ldvalue.Value
	// Loggers is the client's logger configuration.
	Loggers ldlog.Loggers
}

// Activity describes a user-interface lifecycle event, such as a screen becoming visible, that is
// passed through to integrations.
type Activity struct {
	// Name identifies the activity.
	Name string
	// Data holds any additional information about the activity.
	Data ldvalue.Value
}

// ReadyFunc is passed to Integration.OnCreate. The integration calls it, from any goroutine, once it
// can receive payloads. Calling it more than once has no effect.
type ReadyFunc func()

// Integration is implemented by an adapter for a bundled analytics SDK.
//
// All methods are called synchronously from the goroutine that made the corresponding client call, and
// should return quickly. A panic is recovered and logged, and does not affect other integrations.
type Integration interface {
	// Key returns the stable, non-empty name of the integration. It is the key of the integration's
	// entry in the remote settings document and in a payload's integration options.
	Key() string

	// RequiredPermissions returns the permissions the integration needs. An integration whose
	// permissions have not all been granted is disabled instead of created.
	RequiredPermissions() []string

	// Validate checks the integration's remote settings. It returns an error if a required setting is
	// missing.
	Validate(settings ldvalue.Value) error

	// OnCreate is called once the integration has been enabled. The integration initializes its SDK
	// with the given settings and calls ready when it can receive payloads.
	OnCreate(app AppContext, settings ldvalue.Value, ready ReadyFunc)

	OnActivityStart(activity Activity)
	OnActivityResume(activity Activity)
	OnActivityPause(activity Activity)
	OnActivityStop(activity Activity)

	Identify(p payload.Payload)
	Group(p payload.Payload)
	Track(p payload.Payload)
	Screen(p payload.Payload)
	Alias(p payload.Payload)

	// Reset clears any user identity the integration holds.
	Reset()
	// Flush asks the integration to send anything it has buffered.
	Flush()
	// ToggleOptOut tells the integration whether the user has opted out of tracking.
	ToggleOptOut(optedOut bool)
}

// Base provides no-op implementations of every Integration method except Key. Its OnCreate signals
// ready immediately.
type Base struct{}

func (Base) RequiredPermissions() []string { return nil } //nolint:revive

func (Base) Validate(ldvalue.Value) error { return nil } //nolint:revive

func (Base) OnCreate(_ AppContext, _ ldvalue.Value, ready ReadyFunc) { ready() } //nolint:revive

func (Base) OnActivityStart(Activity) {} //nolint:revive

func (Base) OnActivityResume(Activity) {} //nolint:revive

func (Base) OnActivityPause(Activity) {} //nolint:revive

func (Base) OnActivityStop(Activity) {} //nolint:revive

func (Base) Identify(payload.Payload) {} //nolint:revive

func (Base) Group(payload.Payload) {} //nolint:revive

func (Base) Track(payload.Payload) {} //nolint:revive

func (Base) Screen(payload.Payload) {} //nolint:revive

func (Base) Alias(payload.Payload) {} //nolint:revive

func (Base) Reset() {} //nolint:revive

func (Base) Flush() {} //nolint:revive

func (Base) ToggleOptOut(bool) {} //nolint:revive

// Status describes the current state of one integration, as reported by Client.Targets.
type Status struct {
	Key      string
	State    State
	Settings ldvalue.Value
}
