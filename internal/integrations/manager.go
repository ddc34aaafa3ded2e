package integrations

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"golang.org/x/exp/slices"

	"github.com/relaytics/analytics-go/integration"
	"github.com/relaytics/analytics-go/internal/stats"
	"github.com/relaytics/analytics-go/payload"
)

// CloudTargetKey is the integration key of the collection endpoint. It appears in Targets output
// and can be opted out of in a payload's integration options, but it is not a registered integration.
const CloudTargetKey = "Segment.io"

// DefaultPendingOperationsCapacity is the number of operations that are held while waiting for the
// first settings document. Further operations are dropped.
const DefaultPendingOperationsCapacity = 1000

var (
	errEmptyKey     = errors.New("integration key must not be empty")
	errDuplicateKey = errors.New("duplicate integration key")
)

type pendingOperation struct {
	name    string
	minimum integration.State
	filter  func(key string) bool
	op      func(integration.Integration)
}

// Manager is the gate between the client and its bundled integrations. It holds each integration's
// lifecycle state, applies remote settings to it, and decides which integrations receive each call.
//
// Calls to integrations are made synchronously on the calling goroutine, with no Manager lock held.
type Manager struct {
	targets         []*target
	app             integration.AppContext
	granted         map[string]struct{}
	refreshLock     sync.Mutex
	pendingLock     sync.Mutex
	pending         []pendingOperation
	pendingCapacity int
	pendingFullOnce sync.Once
	initialized     atomic.Bool
	stats           *stats.Recorder
	loggers         ldlog.Loggers
}

// NewManager creates a Manager for the given integrations, in registration order. Every integration
// must have a non-empty key that is distinct from the others and from CloudTargetKey.
//
// grantedPermissions lists the permissions the application holds; see
// integration.Integration.RequiredPermissions.
func NewManager(
	registered []integration.Integration,
	app integration.AppContext,
	grantedPermissions []string,
	recorder *stats.Recorder,
) (*Manager, error) {
	seen := make(map[string]struct{}, len(registered))
	targets := make([]*target, 0, len(registered))
	for _, i := range registered {
		key := i.Key()
		if key == "" {
			return nil, errEmptyKey
		}
		if _, ok := seen[key]; ok || key == CloudTargetKey {
			return nil, fmt.Errorf("%w: %q", errDuplicateKey, key)
		}
		seen[key] = struct{}{}
		targets = append(targets, newTarget(i, app.Loggers))
	}
	granted := make(map[string]struct{}, len(grantedPermissions))
	for _, p := range grantedPermissions {
		granted[p] = struct{}{}
	}
	if recorder == nil {
		recorder = stats.NewRecorder()
	}
	return &Manager{
		targets:         targets,
		app:             app,
		granted:         granted,
		pendingCapacity: DefaultPendingOperationsCapacity,
		stats:           recorder,
		loggers:         app.Loggers,
	}, nil
}

// IsInitialized returns true once a settings document has been applied.
func (m *Manager) IsInitialized() bool {
	return m.initialized.Load()
}

// UpdateSettings applies a settings document. It implements subsystems.SettingsSink.
func (m *Manager) UpdateSettings(integrations ldvalue.Value) {
	m.Refresh(integrations)
}

// Refresh applies a settings document, whose keys are integration keys, to every registered
// integration. A null document is ignored. Only one refresh runs at a time.
//
// For an integration whose key is present, the settings are validated; an integration with valid
// settings is enabled and created, unless it lacks a required permission. An integration whose key
// is absent is disabled if it had been enabled, and otherwise left alone.
//
// The first refresh with a non-null document also replays the operations that were held while the
// Manager had no settings.
func (m *Manager) Refresh(integrations ldvalue.Value) {
	if integrations.IsNull() {
		m.loggers.Debug("Integration settings are not available yet")
		return
	}
	if integrations.Type() != ldvalue.ObjectType {
		m.loggers.Warnf("Ignoring integration settings of unexpected type %s", integrations.Type())
		return
	}

	m.refreshLock.Lock()
	defer m.refreshLock.Unlock()

	for _, t := range m.targets {
		settings, ok := integrations.TryGetByKey(t.key)
		if !ok {
			if t.getState().AtLeast(integration.Enabled) {
				m.loggers.Infof("Integration %s was removed from settings; disabling it", t.key)
				t.disable()
			}
			continue
		}
		m.refreshTarget(t, settings)
	}

	if !m.initialized.Load() {
		m.replayPending()
	}
}

func (m *Manager) refreshTarget(t *target, settings ldvalue.Value) {
	if err := m.validate(t, settings); err != nil {
		m.loggers.Warnf("Integration %s could not be initialized: %s", t.key, err)
		t.invalidate()
		return
	}
	if !t.initialize(settings) {
		return
	}
	if t.getState() == integration.Ready {
		return
	}
	if missing := m.missingPermission(t); missing != "" {
		m.loggers.Warnf("Integration %s requires permission %s but it is not granted", t.key, missing)
		t.disable()
		return
	}
	if !t.enable() {
		return
	}
	m.safely(t, "onCreate", func() {
		t.integration.OnCreate(m.app, settings, t.readyFunc())
	})
}

func (m *Manager) validate(t *target, settings ldvalue.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during validation: %v", r)
		}
	}()
	return t.integration.Validate(settings)
}

func (m *Manager) missingPermission(t *target) string {
	var required []string
	m.safely(t, "requiredPermissions", func() {
		required = t.integration.RequiredPermissions()
	})
	for _, p := range required {
		if _, ok := m.granted[p]; !ok {
			return p
		}
	}
	return ""
}

// replayPending runs the held operations in order. Operations that arrive while replaying are
// appended to the list and replayed in turn, so that ordering is preserved without holding a lock
// during integration calls.
func (m *Manager) replayPending() {
	for {
		m.pendingLock.Lock()
		ops := m.pending
		m.pending = nil
		if len(ops) == 0 {
			m.initialized.Store(true)
			m.pendingLock.Unlock()
			m.loggers.Info("Initialized integrations")
			return
		}
		m.pendingLock.Unlock()
		for _, op := range ops {
			m.runOperation(op)
		}
	}
}

// submit runs an operation now, or holds it if no settings have been applied yet.
func (m *Manager) submit(op pendingOperation) {
	if !m.initialized.Load() {
		m.pendingLock.Lock()
		if !m.initialized.Load() {
			if len(m.pending) >= m.pendingCapacity {
				m.pendingFullOnce.Do(func() {
					m.loggers.Warn("Integration settings have not been received yet and too many calls are waiting; some calls to integrations will be dropped")
				})
			} else {
				m.pending = append(m.pending, op)
			}
			m.pendingLock.Unlock()
			return
		}
		m.pendingLock.Unlock()
	}
	m.runOperation(op)
}

// runOperation applies op to every integration whose state is at least the operation's minimum and
// that passes its filter. A panic in one integration does not prevent the others from being called.
func (m *Manager) runOperation(op pendingOperation) {
	for _, t := range m.targets {
		if !t.getState().AtLeast(op.minimum) {
			continue
		}
		if op.filter != nil && !op.filter(t.key) {
			continue
		}
		start := time.Now()
		m.safely(t, op.name, func() { op.op(t.integration) })
		m.stats.RecordIntegrationOperation(t.key, time.Since(start))
	}
}

func (m *Manager) safely(t *target, name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.loggers.Errorf("Integration %s panicked during %s: %v", t.key, name, r)
		}
	}()
	fn()
}

// Dispatch forwards a payload to every Ready integration that its integration options allow.
func (m *Manager) Dispatch(p payload.Payload) {
	var call func(integration.Integration)
	switch p.Type() {
	case payload.IdentifyType:
		call = func(i integration.Integration) { i.Identify(p) }
	case payload.TrackType:
		call = func(i integration.Integration) { i.Track(p) }
	case payload.ScreenType:
		call = func(i integration.Integration) { i.Screen(p) }
	case payload.GroupType:
		call = func(i integration.Integration) { i.Group(p) }
	case payload.AliasType:
		call = func(i integration.Integration) { i.Alias(p) }
	default:
		m.loggers.Warnf("Not dispatching payload of unknown type %q", p.Type())
		return
	}
	m.submit(pendingOperation{
		name:    string(p.Type()),
		minimum: integration.Ready,
		filter:  p.Integrations().Enabled,
		op:      call,
	})
}

// OnActivityStart forwards an activity lifecycle event to every initialized integration.
func (m *Manager) OnActivityStart(a integration.Activity) {
	m.submit(pendingOperation{name: "onActivityStart", minimum: integration.Initialized,
		op: func(i integration.Integration) { i.OnActivityStart(a) }})
}

// OnActivityResume forwards an activity lifecycle event to every initialized integration.
func (m *Manager) OnActivityResume(a integration.Activity) {
	m.submit(pendingOperation{name: "onActivityResume", minimum: integration.Initialized,
		op: func(i integration.Integration) { i.OnActivityResume(a) }})
}

// OnActivityPause forwards an activity lifecycle event to every initialized integration.
func (m *Manager) OnActivityPause(a integration.Activity) {
	m.submit(pendingOperation{name: "onActivityPause", minimum: integration.Initialized,
		op: func(i integration.Integration) { i.OnActivityPause(a) }})
}

// OnActivityStop forwards an activity lifecycle event to every initialized integration.
func (m *Manager) OnActivityStop(a integration.Activity) {
	m.submit(pendingOperation{name: "onActivityStop", minimum: integration.Initialized,
		op: func(i integration.Integration) { i.OnActivityStop(a) }})
}

// ToggleOptOut tells every initialized integration whether the user has opted out.
func (m *Manager) ToggleOptOut(optedOut bool) {
	m.submit(pendingOperation{name: "optOut", minimum: integration.Initialized,
		op: func(i integration.Integration) { i.ToggleOptOut(optedOut) }})
}

// Reset tells every Ready integration to clear its user identity.
func (m *Manager) Reset() {
	m.submit(pendingOperation{name: "reset", minimum: integration.Ready,
		op: func(i integration.Integration) { i.Reset() }})
}

// Flush tells every Ready integration to send what it has buffered.
func (m *Manager) Flush() {
	m.submit(pendingOperation{name: "flush", minimum: integration.Ready,
		op: func(i integration.Integration) { i.Flush() }})
}

// BundledKeys returns the keys of the integrations that mirror payloads on the device, so that the
// collection endpoint does not forward those payloads to them again. Before any settings have been
// applied this is every registered integration; afterward it is those that are enabled.
func (m *Manager) BundledKeys() []string {
	initialized := m.initialized.Load()
	keys := make([]string, 0, len(m.targets))
	for _, t := range m.targets {
		if !initialized || t.getState().AtLeast(integration.Enabled) {
			keys = append(keys, t.key)
		}
	}
	return keys
}

// Targets returns the status of the collection endpoint followed by every registered integration.
func (m *Manager) Targets() []integration.Status {
	ret := make([]integration.Status, 0, len(m.targets)+1)
	ret = append(ret, integration.Status{Key: CloudTargetKey, State: integration.Ready})
	for _, t := range m.targets {
		ret = append(ret, t.status())
	}
	return ret
}

// State returns the state of the integration with the given key.
func (m *Manager) State(key string) (integration.State, bool) {
	if key == CloudTargetKey {
		return integration.Ready, true
	}
	idx := slices.IndexFunc(m.targets, func(t *target) bool { return t.key == key })
	if idx < 0 {
		return integration.NotInitialized, false
	}
	return m.targets[idx].getState(), true
}
