package endpoints

const (
	// DefaultCollectionBaseURI is the default base URI of the collection service.
	DefaultCollectionBaseURI = "https://api.segment.io/"

	// DefaultSettingsBaseURI is the default base URI of the settings service.
	DefaultSettingsBaseURI = "https://cdn-settings.segment.com/"

	// ImportRequestPath is the URL path that batches are posted to.
	ImportRequestPath = "/v1/import"

	// settingsRequestPathFormat is the URL path of a project's settings document; the parameter is
	// the write key.
	settingsRequestPathFormat = "/v1/projects/%s/settings"
)
