package endpoints

import (
	"strings"
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"

	"github.com/relaytics/analytics-go/interfaces"

	"github.com/stretchr/testify/assert"
)

func TestDefaultURISelectedIfNoCustomURISpecified(t *testing.T) {
	logger := ldlogtest.NewMockLog()
	endpoints := interfaces.ServiceEndpoints{}
	for _, service := range []ServiceType{CollectionService, SettingsService} {
		assert.Equal(t, strings.TrimSuffix(DefaultBaseURI(service), "/"),
			SelectBaseURI(endpoints, service, "", logger.Loggers))
	}
	assert.Empty(t, logger.GetOutput(ldlog.Warn))
}

func TestSelectCustomURIs(t *testing.T) {
	logger := ldlogtest.NewMockLog()
	const customURI = "http://custom_uri"

	cases := []struct {
		endpoints interfaces.ServiceEndpoints
		service   ServiceType
	}{
		{interfaces.ServiceEndpoints{Collection: customURI}, CollectionService},
		{interfaces.ServiceEndpoints{Settings: customURI + "/"}, SettingsService},
	}

	for _, c := range cases {
		t.Run(c.service.String(), func(t *testing.T) {
			assert.Equal(t, customURI, SelectBaseURI(c.endpoints, c.service, "", logger.Loggers))
		})
	}
}

func TestOverrideValueTakesPrecedence(t *testing.T) {
	logger := ldlogtest.NewMockLog()
	endpoints := interfaces.ServiceEndpoints{Collection: "http://a"}
	assert.Equal(t, "http://b", SelectBaseURI(endpoints, CollectionService, "http://b/", logger.Loggers))
}

func TestLogWarningIfOnlySomeCustomURIsSpecified(t *testing.T) {
	logger := ldlogtest.NewMockLog()
	endpoints := interfaces.ServiceEndpoints{Collection: "http://custom_uri"}

	assert.Equal(t, strings.TrimSuffix(DefaultSettingsBaseURI, "/"),
		SelectBaseURI(endpoints, SettingsService, "", logger.Loggers))
	logger.AssertMessageMatch(t, true, ldlog.Warn, "without specifying the Settings base URI")
}

func TestAddPath(t *testing.T) {
	assert.Equal(t, "http://a/v1/import", AddPath("http://a/", "/v1/import"))
	assert.Equal(t, "http://a/v1/import", AddPath("http://a", "v1/import"))
}

func TestSettingsPath(t *testing.T) {
	assert.Equal(t, "/v1/projects/key/settings", SettingsPath("key"))
	assert.Equal(t, "/v1/projects/a%2Fb/settings", SettingsPath("a/b"))
}
