package sharedtest

import (
	"sync"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/relaytics/analytics-go/subsystems"
)

// CapturingSettingsSink is a subsystems.SettingsSink that records every document it receives.
type CapturingSettingsSink struct {
	docsCh chan ldvalue.Value
	lock   sync.Mutex
	last   ldvalue.Value
}

// NewCapturingSettingsSink creates a CapturingSettingsSink.
func NewCapturingSettingsSink() *CapturingSettingsSink {
	return &CapturingSettingsSink{docsCh: make(chan ldvalue.Value, 100)}
}

func (s *CapturingSettingsSink) UpdateSettings(integrations ldvalue.Value) { //nolint:revive
	s.lock.Lock()
	s.last = integrations
	s.lock.Unlock()
	select {
	case s.docsCh <- integrations:
	default:
	}
}

// DocsCh receives every document.
func (s *CapturingSettingsSink) DocsCh() <-chan ldvalue.Value {
	return s.docsCh
}

// Last returns the most recent document.
func (s *CapturingSettingsSink) Last() ldvalue.Value {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.last
}

// MockSettingsSource is a subsystems.SettingsSource whose documents are pushed by the test.
type MockSettingsSource struct {
	sink        subsystems.SettingsSink
	initialized bool
	started     bool
	closed      bool
	refreshes   int
	lock        sync.Mutex
}

// MockSettingsSourceConfigurer builds a MockSettingsSource and exposes the built instance.
type MockSettingsSourceConfigurer struct {
	Source *MockSettingsSource
}

func (c *MockSettingsSourceConfigurer) Build( //nolint:revive
	context subsystems.ClientContext,
) (subsystems.SettingsSource, error) {
	c.Source = &MockSettingsSource{sink: context.GetSettingsSink()}
	return c.Source, nil
}

// Push delivers a document to the sink.
func (s *MockSettingsSource) Push(integrations ldvalue.Value) {
	s.lock.Lock()
	if !integrations.IsNull() {
		s.initialized = true
	}
	sink := s.sink
	s.lock.Unlock()
	sink.UpdateSettings(integrations)
}

// Refreshes returns the number of calls to Refresh.
func (s *MockSettingsSource) Refreshes() int {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.refreshes
}

// IsClosed returns true if Close was called.
func (s *MockSettingsSource) IsClosed() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.closed
}

func (s *MockSettingsSource) IsInitialized() bool { //nolint:revive
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.initialized
}

func (s *MockSettingsSource) Start(closeWhenReady chan<- struct{}) { //nolint:revive
	s.lock.Lock()
	s.started = true
	s.lock.Unlock()
	close(closeWhenReady)
}

func (s *MockSettingsSource) Refresh() { //nolint:revive
	s.lock.Lock()
	s.refreshes++
	s.lock.Unlock()
}

func (s *MockSettingsSource) Close() error { //nolint:revive
	s.lock.Lock()
	s.closed = true
	s.lock.Unlock()
	return nil
}
