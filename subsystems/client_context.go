package subsystems

import (
	"net/http"

	"github.com/relaytics/analytics-go/interfaces"
)

// ClientContext provides context information from the analytics client when creating other components.
//
// This is passed as a parameter to the Build methods of component configurers. For test purposes you
// may use the simple struct type BasicClientContext.
type ClientContext interface {
	// GetWriteKey returns the configured write key.
	GetWriteKey() string

	// GetApplicationInfo returns the configuration for application metadata.
	GetApplicationInfo() interfaces.ApplicationInfo

	// GetHTTP returns the configured HTTPConfiguration.
	GetHTTP() interfaces.HTTPConfiguration

	// GetLogging returns the configured LoggingConfiguration.
	GetLogging() interfaces.LoggingConfiguration

	// GetServiceEndpoints returns the configuration for service URIs.
	GetServiceEndpoints() interfaces.ServiceEndpoints

	// GetSettingsSink returns the component that SettingsSource implementations deliver remote
	// settings to.
	//
	// This component is only available when the client is creating a SettingsSource. Otherwise the
	// method returns nil.
	GetSettingsSink() SettingsSink
}

// BasicClientContext is the basic implementation of the ClientContext interface.
type BasicClientContext struct {
	WriteKey         string
	ApplicationInfo  interfaces.ApplicationInfo
	HTTP             interfaces.HTTPConfiguration
	Logging          interfaces.LoggingConfiguration
	ServiceEndpoints interfaces.ServiceEndpoints
	SettingsSink     SettingsSink
}

func (b BasicClientContext) GetWriteKey() string { return b.WriteKey } //nolint:revive

func (b BasicClientContext) GetApplicationInfo() interfaces.ApplicationInfo { //nolint:revive
	return b.ApplicationInfo
}

func (b BasicClientContext) GetHTTP() interfaces.HTTPConfiguration { //nolint:revive
	ret := b.HTTP
	if ret.CreateHTTPClient == nil {
		ret.CreateHTTPClient = func() *http.Client {
			client := *http.DefaultClient
			return &client
		}
	}
	return ret
}

func (b BasicClientContext) GetLogging() interfaces.LoggingConfiguration { return b.Logging } //nolint:revive

func (b BasicClientContext) GetServiceEndpoints() interfaces.ServiceEndpoints { //nolint:revive
	return b.ServiceEndpoints
}

func (b BasicClientContext) GetSettingsSink() SettingsSink { return b.SettingsSink } //nolint:revive
