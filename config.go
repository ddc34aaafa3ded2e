package analytics

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/relaytics/analytics-go/integration"
	"github.com/relaytics/analytics-go/interfaces"
	"github.com/relaytics/analytics-go/subsystems"
)

// Config exposes advanced configuration options for the analytics client.
//
// All of these settings are optional, so an empty Config struct is always valid. See the description
// of each field for the default behavior if it is not set.
//
// Some of the Config fields are builders for subcomponents of the client. The actual implementation
// types, which have methods for configuring that subcomponent, are normally provided by corresponding
// functions in the components package. For instance, to flush every 10 seconds:
//
//	config := analytics.Config{
//	    Queue: components.Queue().FlushInterval(10 * time.Second),
//	}
type Config struct {
	// Sets application metadata. It is included in the "app" section of every payload's context and
	// is passed to integrations when they are created.
	ApplicationInfo interfaces.ApplicationInfo

	// Sets the ambient context that is attached to every payload, such as device, network, and locale
	// information. It must be a JSON object; any other value is ignored. The client adds a "library"
	// property, and an "app" property if ApplicationInfo is set.
	Context ldvalue.Value

	// Lists the permissions that the application holds. An integration that requires a permission
	// that is not in this list is never created.
	GrantedPermissions []string

	// Provides configuration of the client's network connection behavior.
	//
	// If nil, the default is components.HTTPConfiguration().
	HTTP subsystems.ComponentConfigurer[interfaces.HTTPConfiguration]

	// Lists the bundled integrations, in the order they receive calls. Keys must be distinct.
	Integrations []integration.Integration

	// Provides configuration of the client's logging behavior.
	//
	// If nil, the default is components.Logging(). The other option is components.NoLogging().
	//
	//	config.Logging = components.Logging().MinLevel(ldlog.Warn)
	Logging subsystems.ComponentConfigurer[interfaces.LoggingConfiguration]

	// Provides configuration of the on-device queue and flush scheduling.
	//
	// If nil, the default is components.Queue().
	//
	//	config.Queue = components.Queue().DatabasePath("/data/analytics.db").FlushAt(50)
	Queue subsystems.ComponentConfigurer[subsystems.QueueConfiguration]

	// Sets the base service URIs used by the client's HTTP components.
	//
	// An empty field means the default URI is used. To route all traffic through one proxy, use
	// components.ProxyEndpoints.
	ServiceEndpoints interfaces.ServiceEndpoints

	// Sets the source of remote integration settings.
	//
	// If nil, the default is components.PollingSettings(). Other options include
	// components.StaticSettings(), components.NoSettings(), and filesettings.DataSource().
	Settings subsystems.ComponentConfigurer[subsystems.SettingsSource]

	// Sets the component that delivers batches to the collection endpoint.
	//
	// If nil, the default is components.HTTPTransport().
	Transport subsystems.ComponentConfigurer[subsystems.Transport]
}
