package endpoints

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/relaytics/analytics-go/interfaces"
)

// ServiceType is used internally to denote which endpoint a URI is for.
type ServiceType int

const (
	CollectionService ServiceType = iota //nolint:revive // internal constant
	SettingsService   ServiceType = iota //nolint:revive // internal constant
)

func (s ServiceType) String() string {
	switch s {
	case CollectionService:
		return "Collection"
	case SettingsService:
		return "Settings"
	default:
		return "???"
	}
}

func anyCustom(serviceEndpoints interfaces.ServiceEndpoints) bool {
	return serviceEndpoints.Collection != "" || serviceEndpoints.Settings != ""
}

func getCustom(serviceEndpoints interfaces.ServiceEndpoints, serviceType ServiceType) string {
	switch serviceType {
	case CollectionService:
		return serviceEndpoints.Collection
	case SettingsService:
		return serviceEndpoints.Settings
	default:
		return ""
	}
}

// DefaultBaseURI returns the default base URI for the given kind of endpoint.
func DefaultBaseURI(serviceType ServiceType) string {
	switch serviceType {
	case CollectionService:
		return DefaultCollectionBaseURI
	case SettingsService:
		return DefaultSettingsBaseURI
	default:
		return ""
	}
}

// SelectBaseURI is a helper for getting either a custom or a default URI for the given kind of endpoint.
// An override value set on the component's own builder takes precedence over ServiceEndpoints.
func SelectBaseURI(
	serviceEndpoints interfaces.ServiceEndpoints,
	serviceType ServiceType,
	overrideValue string,
	loggers ldlog.Loggers,
) string {
	configuredBaseURI := overrideValue
	if configuredBaseURI == "" {
		if anyCustom(serviceEndpoints) {
			configuredBaseURI = getCustom(serviceEndpoints, serviceType)
			if configuredBaseURI == "" {
				loggers.Warnf(
					"You have set custom ServiceEndpoints without specifying the %s base URI; the default will be used",
					serviceType,
				)
				configuredBaseURI = DefaultBaseURI(serviceType)
			}
		} else {
			configuredBaseURI = DefaultBaseURI(serviceType)
		}
	}
	return strings.TrimRight(configuredBaseURI, "/")
}

// AddPath concatenates a subpath to a URL in a way that will not cause a double slash.
func AddPath(baseURI string, path string) string {
	return strings.TrimSuffix(baseURI, "/") + "/" + strings.TrimPrefix(path, "/")
}

// SettingsPath returns the path of the settings document for a write key.
func SettingsPath(writeKey string) string {
	return fmt.Sprintf(settingsRequestPathFormat, url.PathEscape(writeKey))
}
