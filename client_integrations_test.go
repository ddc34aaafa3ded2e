package analytics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/relaytics/analytics-go/integration"
	"github.com/relaytics/analytics-go/internal/sharedtest"
	"github.com/relaytics/analytics-go/payload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeClientWithIntegrations(t *testing.T, granted []string, registered ...integration.Integration) clientTestParams {
	return makeTestClient(t, func(c *Config) {
		c.Integrations = registered
		c.GrantedPermissions = granted
	})
}

func TestCallsBeforeSettingsAreReplayedInOrder(t *testing.T) {
	mixpanel := sharedtest.NewRecordingIntegration("Mixpanel")
	p := makeClientWithIntegrations(t, nil, mixpanel)

	require.NoError(t, p.client.Track("first", ldvalue.Null(), nil))
	require.NoError(t, p.client.Track("second", ldvalue.Null(), nil))
	assert.Len(t, mixpanel.Payloads(), 0)

	p.pushSettings(ldvalue.Parse([]byte(`{"Mixpanel": {}}`)))

	payloads := mixpanel.Payloads()
	require.Len(t, payloads, 2)
	assert.Equal(t, "first", payloads[0].Event())
	assert.Equal(t, "second", payloads[1].Event())
}

func TestNullSettingsLeaveCallsPending(t *testing.T) {
	mixpanel := sharedtest.NewRecordingIntegration("Mixpanel")
	p := makeClientWithIntegrations(t, nil, mixpanel)

	require.NoError(t, p.client.Track("first", ldvalue.Null(), nil))
	p.pushSettings(ldvalue.Null())
	assert.False(t, p.client.Initialized())
	assert.Len(t, mixpanel.Payloads(), 0)

	p.pushSettings(ldvalue.Parse([]byte(`{"Mixpanel": {}}`)))
	assert.True(t, p.client.Initialized())
	assert.Len(t, mixpanel.Payloads(), 1)
}

func TestReadyIntegrationReceivesCallsSynchronously(t *testing.T) {
	mixpanel := sharedtest.NewRecordingIntegration("Mixpanel")
	p := makeClientWithIntegrations(t, nil, mixpanel)
	p.pushSettings(ldvalue.Parse([]byte(`{"Mixpanel": {"token": "abc"}}`)))

	require.NoError(t, p.client.Identify("user-1", ldvalue.Null(), nil))
	require.NoError(t, p.client.Track("a", ldvalue.Null(), nil))
	require.NoError(t, p.client.Screen("", "Home", ldvalue.Null(), nil))
	require.NoError(t, p.client.Group("acme", ldvalue.Null(), nil))
	require.NoError(t, p.client.Alias("user-2", nil))

	assert.Equal(t, []string{"validate", "onCreate", "identify", "track", "screen", "group", "alias"},
		mixpanel.Methods())
	assert.Equal(t, "abc", mixpanel.Calls()[1].Settings.GetByKey("token").StringValue())
}

func TestStoredCopyExcludesBundledIntegrations(t *testing.T) {
	mixpanel := sharedtest.NewRecordingIntegration("Mixpanel")
	amplitude := sharedtest.NewRecordingIntegration("Amplitude")
	p := makeClientWithIntegrations(t, nil, mixpanel, amplitude)

	require.NoError(t, p.client.Track("before-settings", ldvalue.Null(), nil))
	p.pushSettings(ldvalue.Parse([]byte(`{"Mixpanel": {}}`)))
	require.NoError(t, p.client.Track("after-settings", ldvalue.Null(), nil))
	p.flush(t)

	payloads := p.sentPayloads()
	require.Len(t, payloads, 2)

	// Until settings arrive, every registered integration might mirror the call.
	before := payloads[0].GetByKey("integrations")
	assert.Equal(t, ldvalue.Bool(false), before.GetByKey("Mixpanel"))
	assert.Equal(t, ldvalue.Bool(false), before.GetByKey("Amplitude"))

	after := payloads[1].GetByKey("integrations")
	assert.Equal(t, ldvalue.Bool(false), after.GetByKey("Mixpanel"))
	_, hasAmplitude := after.TryGetByKey("Amplitude")
	assert.False(t, hasAmplitude)

	// The integration itself sees the caller's options, not the stored copy's.
	require.Len(t, mixpanel.Payloads(), 2)
	assert.True(t, mixpanel.Payloads()[1].Integrations().IsEmpty())
}

func TestPayloadOptionsCanKeepCallOnDevice(t *testing.T) {
	mixpanel := sharedtest.NewRecordingIntegration("Mixpanel")
	p := makeClientWithIntegrations(t, nil, mixpanel)
	p.pushSettings(ldvalue.Parse([]byte(`{"Mixpanel": {}}`)))

	opts := &CallOptions{Integrations: payload.NewIntegrationOptions().Disable(CloudTargetKey).Build()}
	require.NoError(t, p.client.Track("local-only", ldvalue.Null(), opts))
	p.flush(t)

	assert.Len(t, p.transport.Sent(), 0)
	assert.Equal(t, int64(0), p.client.Stats().QueuedPayloads)
	require.Len(t, mixpanel.Payloads(), 1)
}

func TestPayloadOptionsCanExcludeIntegration(t *testing.T) {
	mixpanel := sharedtest.NewRecordingIntegration("Mixpanel")
	amplitude := sharedtest.NewRecordingIntegration("Amplitude")
	p := makeClientWithIntegrations(t, nil, mixpanel, amplitude)
	p.pushSettings(ldvalue.Parse([]byte(`{"Mixpanel": {}, "Amplitude": {}}`)))

	opts := &CallOptions{Integrations: payload.NewIntegrationOptions().DisableAll().Enable("Amplitude").Build()}
	require.NoError(t, p.client.Track("a", ldvalue.Null(), opts))
	p.flush(t)

	assert.Len(t, mixpanel.Payloads(), 0)
	assert.Len(t, amplitude.Payloads(), 1)

	// The wildcard does not keep the payload off the device queue; the stored copy carries the
	// options for the collection endpoint to apply.
	payloads := p.sentPayloads()
	require.Len(t, payloads, 1)
	integrations := payloads[0].GetByKey("integrations")
	assert.Equal(t, ldvalue.Bool(false), integrations.GetByKey("all"))
	assert.Equal(t, ldvalue.Bool(false), integrations.GetByKey("Amplitude"))
	assert.Equal(t, ldvalue.Bool(false), integrations.GetByKey("Mixpanel"))
}

func TestCollectionEndpointIsSkippedOnlyWhenItsKeyIsFalse(t *testing.T) {
	p := makeClientWithIntegrations(t, nil)
	p.pushSettings(ldvalue.ObjectBuild().Build())

	options := []payload.IntegrationOptions{
		payload.NewIntegrationOptions().DisableAll().Build(),
		payload.NewIntegrationOptions().DisableAll().Enable(CloudTargetKey).Build(),
		payload.NewIntegrationOptions().Options(CloudTargetKey, ldvalue.ObjectBuild().Build()).Build(),
		payload.NewIntegrationOptions().Disable(CloudTargetKey).Build(),
	}
	for i, o := range options {
		require.NoError(t, p.client.Track(fmt.Sprintf("e%d", i), ldvalue.Null(), &CallOptions{Integrations: o}))
	}
	p.flush(t)

	assert.Equal(t, []string{"e0", "e1", "e2"}, events(p.sentPayloads()))
}

func TestIntegrationPanicDoesNotAffectOthers(t *testing.T) {
	mixpanel := sharedtest.NewRecordingIntegration("Mixpanel").PanicOn("track")
	amplitude := sharedtest.NewRecordingIntegration("Amplitude")
	p := makeClientWithIntegrations(t, nil, mixpanel, amplitude)
	p.pushSettings(ldvalue.Parse([]byte(`{"Mixpanel": {}, "Amplitude": {}}`)))

	require.NotPanics(t, func() {
		require.NoError(t, p.client.Track("a", ldvalue.Null(), nil))
	})
	p.flush(t)

	assert.Len(t, amplitude.Payloads(), 1)
	assert.Equal(t, []string{"a"}, events(p.sentPayloads()))
	p.mockLog.AssertMessageMatch(t, true, ldlog.Error, "Integration Mixpanel panicked during track")
}

func TestInvalidSettingsDisableOnlyThatIntegration(t *testing.T) {
	mixpanel := sharedtest.NewRecordingIntegration("Mixpanel").FailValidation(errors.New("no token"))
	amplitude := sharedtest.NewRecordingIntegration("Amplitude")
	p := makeClientWithIntegrations(t, nil, mixpanel, amplitude)
	p.pushSettings(ldvalue.Parse([]byte(`{"Mixpanel": {}, "Amplitude": {}}`)))

	targets := p.client.Targets()
	assert.Equal(t, integration.Invalid, targets[1].State)
	assert.Equal(t, integration.Ready, targets[2].State)
}

func TestIntegrationWithoutPermissionIsNotCreated(t *testing.T) {
	mixpanel := sharedtest.NewRecordingIntegration("Mixpanel").RequirePermissions("location")
	amplitude := sharedtest.NewRecordingIntegration("Amplitude").RequirePermissions("network")
	p := makeClientWithIntegrations(t, []string{"network"}, mixpanel, amplitude)
	p.pushSettings(ldvalue.Parse([]byte(`{"Mixpanel": {}, "Amplitude": {}}`)))

	assert.NotContains(t, mixpanel.Methods(), "onCreate")
	assert.Contains(t, amplitude.Methods(), "onCreate")
	assert.Equal(t, integration.Disabled, p.client.Targets()[1].State)
}

func TestActivityEventsReachInitializedIntegrations(t *testing.T) {
	mixpanel := sharedtest.NewRecordingIntegration("Mixpanel").ManualReady()
	p := makeClientWithIntegrations(t, nil, mixpanel)
	p.pushSettings(ldvalue.Parse([]byte(`{"Mixpanel": {}}`)))

	activity := integration.Activity{Name: "MainActivity"}
	p.client.OnActivityStart(activity)
	p.client.OnActivityResume(activity)
	p.client.OnActivityPause(activity)
	p.client.OnActivityStop(activity)
	require.NoError(t, p.client.Track("not-ready-yet", ldvalue.Null(), nil))

	assert.Equal(t,
		[]string{"validate", "onCreate", "onActivityStart", "onActivityResume", "onActivityPause", "onActivityStop"},
		mixpanel.Methods())
	assert.Equal(t, "MainActivity", mixpanel.Calls()[2].Activity.Name)

	mixpanel.SignalReady()
	require.NoError(t, p.client.Track("ready", ldvalue.Null(), nil))
	require.Len(t, mixpanel.Payloads(), 1)
	assert.Equal(t, "ready", mixpanel.Payloads()[0].Event())
}

func TestFlushReachesReadyIntegrations(t *testing.T) {
	mixpanel := sharedtest.NewRecordingIntegration("Mixpanel")
	p := makeClientWithIntegrations(t, nil, mixpanel)
	p.pushSettings(ldvalue.Parse([]byte(`{"Mixpanel": {}}`)))

	p.client.Flush()
	p.flush(t)

	assert.Equal(t, []string{"validate", "onCreate", "flush", "flush"}, mixpanel.Methods())
}

func TestIntegrationOperationsAreCountedInStats(t *testing.T) {
	mixpanel := sharedtest.NewRecordingIntegration("Mixpanel")
	p := makeClientWithIntegrations(t, nil, mixpanel)
	p.pushSettings(ldvalue.Parse([]byte(`{"Mixpanel": {}}`)))

	require.NoError(t, p.client.Track("a", ldvalue.Null(), nil))
	require.NoError(t, p.client.Track("b", ldvalue.Null(), nil))

	stats := p.client.Stats()
	assert.Equal(t, int64(2), stats.IntegrationOperationCount)
	_, ok := stats.IntegrationOperationDurationByTarget["Mixpanel"]
	assert.True(t, ok)
}
