package payload

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/stretchr/testify/assert"
)

func optionsFromJSON(s string) IntegrationOptions {
	return IntegrationOptionsFromValue(ldvalue.Parse([]byte(s)))
}

func TestEmptyOptionsEnableEverything(t *testing.T) {
	assert.True(t, IntegrationOptions{}.Enabled("Mixpanel"))
	assert.True(t, optionsFromJSON(`{}`).Enabled("Mixpanel"))
	assert.True(t, optionsFromJSON(`"not an object"`).Enabled("Mixpanel"))
}

func TestAllFalseExceptOneTarget(t *testing.T) {
	opts := optionsFromJSON(`{"all": false, "Mixpanel": true}`)
	assert.True(t, opts.Enabled("Mixpanel"))
	assert.False(t, opts.Enabled("Amplitude"))
	assert.False(t, opts.Enabled("Segment.io"))
}

func TestOneTargetOptedOut(t *testing.T) {
	opts := optionsFromJSON(`{"Amplitude": false}`)
	assert.False(t, opts.Enabled("Amplitude"))
	assert.True(t, opts.Enabled("Mixpanel"))
}

func TestWildcardIsCaseInsensitive(t *testing.T) {
	assert.False(t, optionsFromJSON(`{"All": false}`).Enabled("Mixpanel"))
	assert.False(t, optionsFromJSON(`{"ALL": false}`).Enabled("Mixpanel"))
}

func TestLowercaseWildcardWins(t *testing.T) {
	assert.True(t, optionsFromJSON(`{"All": false, "all": true}`).Enabled("Mixpanel"))
	assert.False(t, optionsFromJSON(`{"All": true, "all": false}`).Enabled("Mixpanel"))
}

func TestSpecificKeyIsCaseSensitive(t *testing.T) {
	opts := optionsFromJSON(`{"all": false, "mixpanel": true}`)
	assert.False(t, opts.Enabled("Mixpanel"))
}

func TestObjectValueMeansEnabled(t *testing.T) {
	opts := optionsFromJSON(`{"all": false, "Mixpanel": {"apiKey": "x"}}`)
	assert.True(t, opts.Enabled("Mixpanel"))
}

func TestOptionsBuilder(t *testing.T) {
	opts := NewIntegrationOptions().
		DisableAll().
		Enable("Mixpanel").
		Options("Amplitude", ldvalue.ObjectBuild().Set("session", ldvalue.Int(1)).Build()).
		Build()
	assert.True(t, opts.Enabled("Mixpanel"))
	assert.True(t, opts.Enabled("Amplitude"))
	assert.False(t, opts.Enabled("Flurry"))

	v, ok := opts.Get("Amplitude")
	assert.True(t, ok)
	assert.Equal(t, 1, v.GetByKey("session").IntValue())
	assert.True(t, NewIntegrationOptions().Build().IsEmpty())
}
