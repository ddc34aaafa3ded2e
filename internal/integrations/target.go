package integrations

import (
	"sync"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/relaytics/analytics-go/integration"
)

// target is the Manager's record of one registered integration.
type target struct {
	integration integration.Integration
	key         string
	state       integration.State
	settings    ldvalue.Value
	lock        sync.Mutex
	loggers     ldlog.Loggers
}

func newTarget(i integration.Integration, loggers ldlog.Loggers) *target {
	return &target{integration: i, key: i.Key(), loggers: loggers}
}

func (t *target) getState() integration.State {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.state
}

func (t *target) status() integration.Status {
	t.lock.Lock()
	defer t.lock.Unlock()
	return integration.Status{Key: t.key, State: t.state, Settings: t.settings}
}

// changeState moves to the new state if the current state is one of the allowed ones. Moving to the
// current state always succeeds. The caller must hold the lock.
func (t *target) changeState(to integration.State, allowedFrom ...integration.State) bool {
	if t.state == to {
		return true
	}
	for _, from := range allowedFrom {
		if t.state == from {
			t.loggers.Debugf("Integration %s: %s -> %s", t.key, t.state, to)
			t.state = to
			return true
		}
	}
	t.loggers.Warnf("Integration %s can't be %s because it is %s", t.key, to, t.state)
	return false
}

// initialize records settings that passed validation.
func (t *target) initialize(settings ldvalue.Value) bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	if !t.settings.IsNull() && !t.settings.Equal(settings) {
		t.loggers.Infof("Integration %s settings changed", t.key)
	}
	t.settings = settings
	if t.state == integration.NotInitialized || t.state == integration.Invalid {
		return t.changeState(integration.Initialized, integration.NotInitialized, integration.Invalid)
	}
	return true
}

func (t *target) invalidate() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.changeState(integration.Invalid, integration.NotInitialized)
}

// enable returns true only if the target was not already enabled, meaning it must now be created.
func (t *target) enable() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.state == integration.Enabled {
		return false
	}
	return t.changeState(integration.Enabled, integration.Initialized, integration.Disabled)
}

func (t *target) disable() bool {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.changeState(integration.Disabled,
		integration.Initialized, integration.Disabled, integration.Enabled, integration.Ready)
}

func (t *target) readyFunc() integration.ReadyFunc {
	var once sync.Once
	return func() {
		once.Do(func() {
			t.lock.Lock()
			defer t.lock.Unlock()
			t.changeState(integration.Ready, integration.Enabled)
		})
	}
}
