package components

import (
	"sync/atomic"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/relaytics/analytics-go/subsystems"
)

type staticSettingsConfigurer struct {
	integrations ldvalue.Value
}

// StaticSettings returns a settings source that delivers a fixed document, given as the object
// that maps integration keys to their settings. Use it when integration settings are known ahead
// of time instead of being fetched:
//
//	config := analytics.Config{
//	    Settings: components.StaticSettings(ldvalue.Parse([]byte(`{"Mixpanel":{"token":"abc"}}`))),
//	}
func StaticSettings(integrations ldvalue.Value) subsystems.ComponentConfigurer[subsystems.SettingsSource] {
	return staticSettingsConfigurer{integrations: integrations}
}

// NoSettings returns a settings source that never has integration settings. Registered integrations
// stay uninitialized and receive no calls; payloads are still delivered to the collection endpoint.
func NoSettings() subsystems.ComponentConfigurer[subsystems.SettingsSource] {
	return staticSettingsConfigurer{integrations: ldvalue.ObjectBuild().Build()}
}

func (c staticSettingsConfigurer) Build(context subsystems.ClientContext) (subsystems.SettingsSource, error) {
	integrations := c.integrations
	if integrations.Type() != ldvalue.ObjectType {
		integrations = ldvalue.ObjectBuild().Build()
	}
	return &staticSettingsSource{sink: context.GetSettingsSink(), integrations: integrations}, nil
}

type staticSettingsSource struct {
	sink         subsystems.SettingsSink
	integrations ldvalue.Value
	initialized  atomic.Bool
}

func (s *staticSettingsSource) IsInitialized() bool {
	return s.initialized.Load()
}

func (s *staticSettingsSource) Start(closeWhenReady chan<- struct{}) {
	s.sink.UpdateSettings(s.integrations)
	s.initialized.Store(true)
	close(closeWhenReady)
}

func (s *staticSettingsSource) Refresh() {
	s.sink.UpdateSettings(s.integrations)
}

func (s *staticSettingsSource) Close() error {
	return nil
}
