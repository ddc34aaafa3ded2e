package sharedtest

import (
	"sync"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/relaytics/analytics-go/integration"
	"github.com/relaytics/analytics-go/payload"
)

// IntegrationCall is one call recorded by RecordingIntegration.
type IntegrationCall struct {
	Method   string
	Payload  payload.Payload
	Activity integration.Activity
	OptOut   bool
	Settings ldvalue.Value
}

// RecordingIntegration is an integration.Integration that records every call made to it.
type RecordingIntegration struct {
	key         string
	permissions []string
	validateErr error
	panicOn     string
	manualReady bool
	ready       integration.ReadyFunc
	calls       []IntegrationCall
	callsCh     chan IntegrationCall
	lock        sync.Mutex
}

// NewRecordingIntegration creates a RecordingIntegration that accepts any settings and signals ready
// as soon as it is created.
func NewRecordingIntegration(key string) *RecordingIntegration {
	return &RecordingIntegration{key: key, callsCh: make(chan IntegrationCall, 100)}
}

// RequirePermissions sets the permissions returned by RequiredPermissions.
func (r *RecordingIntegration) RequirePermissions(permissions ...string) *RecordingIntegration {
	r.permissions = permissions
	return r
}

// FailValidation makes Validate return the given error.
func (r *RecordingIntegration) FailValidation(err error) *RecordingIntegration {
	r.lock.Lock()
	r.validateErr = err
	r.lock.Unlock()
	return r
}

// PanicOn makes the named method panic.
func (r *RecordingIntegration) PanicOn(method string) *RecordingIntegration {
	r.panicOn = method
	return r
}

// ManualReady makes OnCreate keep the ready function instead of calling it; see SignalReady.
func (r *RecordingIntegration) ManualReady() *RecordingIntegration {
	r.manualReady = true
	return r
}

// SignalReady calls the ready function passed to the last OnCreate.
func (r *RecordingIntegration) SignalReady() {
	r.lock.Lock()
	ready := r.ready
	r.lock.Unlock()
	if ready != nil {
		ready()
	}
}

// Calls returns a copy of the recorded calls.
func (r *RecordingIntegration) Calls() []IntegrationCall {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]IntegrationCall(nil), r.calls...)
}

// Methods returns the method names of the recorded calls.
func (r *RecordingIntegration) Methods() []string {
	calls := r.Calls()
	ret := make([]string, 0, len(calls))
	for _, c := range calls {
		ret = append(ret, c.Method)
	}
	return ret
}

// Payloads returns the payloads passed to Identify, Group, Track, Screen, and Alias.
func (r *RecordingIntegration) Payloads() []payload.Payload {
	var ret []payload.Payload
	for _, c := range r.Calls() {
		if c.Payload.MessageID() != "" {
			ret = append(ret, c.Payload)
		}
	}
	return ret
}

// CallsCh receives every recorded call.
func (r *RecordingIntegration) CallsCh() <-chan IntegrationCall {
	return r.callsCh
}

func (r *RecordingIntegration) record(c IntegrationCall) {
	r.lock.Lock()
	r.calls = append(r.calls, c)
	r.lock.Unlock()
	select {
	case r.callsCh <- c:
	default:
	}
	if c.Method == r.panicOn {
		panic("deliberate panic in " + c.Method)
	}
}

func (r *RecordingIntegration) Key() string { return r.key } //nolint:revive

func (r *RecordingIntegration) RequiredPermissions() []string { return r.permissions } //nolint:revive

func (r *RecordingIntegration) Validate(settings ldvalue.Value) error { //nolint:revive
	r.lock.Lock()
	err := r.validateErr
	r.lock.Unlock()
	r.record(IntegrationCall{Method: "validate", Settings: settings})
	return err
}

func (r *RecordingIntegration) OnCreate( //nolint:revive
	_ integration.AppContext,
	settings ldvalue.Value,
	ready integration.ReadyFunc,
) {
	r.lock.Lock()
	r.ready = ready
	r.lock.Unlock()
	r.record(IntegrationCall{Method: "onCreate", Settings: settings})
	if !r.manualReady {
		ready()
	}
}

func (r *RecordingIntegration) OnActivityStart(a integration.Activity) { //nolint:revive
	r.record(IntegrationCall{Method: "onActivityStart", Activity: a})
}

func (r *RecordingIntegration) OnActivityResume(a integration.Activity) { //nolint:revive
	r.record(IntegrationCall{Method: "onActivityResume", Activity: a})
}

func (r *RecordingIntegration) OnActivityPause(a integration.Activity) { //nolint:revive
	r.record(IntegrationCall{Method: "onActivityPause", Activity: a})
}

func (r *RecordingIntegration) OnActivityStop(a integration.Activity) { //nolint:revive
	r.record(IntegrationCall{Method: "onActivityStop", Activity: a})
}

func (r *RecordingIntegration) Identify(p payload.Payload) { //nolint:revive
	r.record(IntegrationCall{Method: "identify", Payload: p})
}

func (r *RecordingIntegration) Group(p payload.Payload) { //nolint:revive
	r.record(IntegrationCall{Method: "group", Payload: p})
}

func (r *RecordingIntegration) Track(p payload.Payload) { //nolint:revive
	r.record(IntegrationCall{Method: "track", Payload: p})
}

func (r *RecordingIntegration) Screen(p payload.Payload) { //nolint:revive
	r.record(IntegrationCall{Method: "screen", Payload: p})
}

func (r *RecordingIntegration) Alias(p payload.Payload) { //nolint:revive
	r.record(IntegrationCall{Method: "alias", Payload: p})
}

func (r *RecordingIntegration) Reset() { r.record(IntegrationCall{Method: "reset"}) } //nolint:revive

func (r *RecordingIntegration) Flush() { r.record(IntegrationCall{Method: "flush"}) } //nolint:revive

func (r *RecordingIntegration) ToggleOptOut(optedOut bool) { //nolint:revive
	r.record(IntegrationCall{Method: "optOut", OptOut: optedOut})
}
