package subsystems

import (
	"io"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// SettingsSink receives remote integration settings from a SettingsSource.
type SettingsSink interface {
	// UpdateSettings delivers a settings document: a JSON object whose keys are integration keys and
	// whose values are the settings for that integration. A null value means that no settings are
	// available yet.
	UpdateSettings(integrations ldvalue.Value)
}

// SettingsSource obtains remote integration settings and delivers them to the SettingsSink from
// ClientContext.GetSettingsSink.
type SettingsSource interface {
	io.Closer

	// IsInitialized returns true if the source has delivered at least one settings document.
	IsInitialized() bool

	// Start tells the source to begin obtaining settings. The source closes closeWhenReady once it has
	// delivered the first document, or has permanently failed.
	Start(closeWhenReady chan<- struct{})

	// Refresh asks the source to obtain settings again as soon as possible. Sources that have nothing
	// to refresh may ignore it.
	Refresh()
}
