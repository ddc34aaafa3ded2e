package payload

import (
	"strings"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAssignsMessageIDAndTimestamp(t *testing.T) {
	before := time.Now()
	p, err := NewBuilder(TrackType).AnonymousID("anon").Event("Clicked").Build()
	require.NoError(t, err)

	assert.Equal(t, TrackType, p.Type())
	assert.NotEmpty(t, p.MessageID())
	assert.False(t, p.Timestamp().Before(before))
	assert.False(t, p.HasRowID())
	assert.NotEmpty(t, p.Data())
}

func TestMessageIDsAreUnique(t *testing.T) {
	b := NewBuilder(TrackType).AnonymousID("anon").Event("Clicked")
	p1, err := b.Build()
	require.NoError(t, err)
	p2, err := b.Build()
	require.NoError(t, err)
	assert.NotEqual(t, p1.MessageID(), p2.MessageID())
}

func TestExplicitTimestampIsKept(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 45, 123000000, time.UTC)
	p, err := NewBuilder(IdentifyType).UserID("u").Timestamp(ts).Build()
	require.NoError(t, err)
	assert.Equal(t, ts, p.Timestamp())
	assert.Contains(t, string(p.Data()), `"timestamp":"2024-03-01T12:30:45.123Z"`)
}

func TestValidationErrors(t *testing.T) {
	for _, tc := range []struct {
		name    string
		builder *Builder
		err     error
	}{
		{"unknown type", NewBuilder("page").UserID("u"), ErrInvalidType},
		{"no identity", NewBuilder(TrackType).Event("e"), ErrNoIdentity},
		{"track without event", NewBuilder(TrackType).UserID("u"), ErrMissingEvent},
		{"group without id", NewBuilder(GroupType).UserID("u"), ErrMissingGroupID},
		{"alias without previous id", NewBuilder(AliasType).UserID("u"), ErrMissingPreviousID},
		{"alias without user id", NewBuilder(AliasType).AnonymousID("a").PreviousID("p"), ErrMissingPreviousID},
		{"screen without name", NewBuilder(ScreenType).UserID("u"), ErrMissingScreen},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.builder.Build()
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestOversizedPayloadIsRejected(t *testing.T) {
	big := ldvalue.ObjectBuild().Set("blob", ldvalue.String(strings.Repeat("x", MaxPayloadSize))).Build()
	_, err := NewBuilder(TrackType).UserID("u").Event("e").Properties(big).Build()
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestContextIsSnapshotted(t *testing.T) {
	ambient := map[string]ldvalue.Value{"app": ldvalue.String("v1")}
	p, err := NewBuilder(TrackType).UserID("u").Event("e").Context(ldvalue.CopyObject(ambient)).Build()
	require.NoError(t, err)

	ambient["app"] = ldvalue.String("v2")
	assert.Equal(t, "v1", p.Context().GetByKey("app").StringValue())
}

func TestWithRowIDReturnsCopy(t *testing.T) {
	p, err := NewBuilder(TrackType).UserID("u").Event("e").Build()
	require.NoError(t, err)
	stored := p.WithRowID(42)

	assert.Equal(t, int64(42), stored.RowID())
	assert.Equal(t, int64(0), p.RowID())
	assert.Equal(t, p.MessageID(), stored.MessageID())
}

func TestWithBundledIntegrationsDisablesBundledKeys(t *testing.T) {
	opts := NewIntegrationOptions().Enable("Amplitude").Build()
	p, err := NewBuilder(TrackType).UserID("u").Event("e").Integrations(opts).Build()
	require.NoError(t, err)

	stored, err := p.WithBundledIntegrations([]string{"Mixpanel", "Amplitude"})
	require.NoError(t, err)

	assert.Equal(t, p.MessageID(), stored.MessageID())
	assert.Equal(t, p.Timestamp(), stored.Timestamp())
	assert.False(t, stored.Integrations().Enabled("Mixpanel"))
	assert.False(t, stored.Integrations().Enabled("Amplitude"))
	assert.True(t, stored.Integrations().Enabled("Segment.io"))
	assert.True(t, p.Integrations().Enabled("Amplitude"))
	assert.Contains(t, string(stored.Data()), `"Mixpanel":false`)
}

func TestWithBundledIntegrationsKeepsSizeLimit(t *testing.T) {
	build := func(blob string) Payload {
		props := ldvalue.ObjectBuild().SetString("blob", blob).Build()
		p, err := NewBuilder(TrackType).UserID("u").Event("e").Properties(props).Build()
		require.NoError(t, err)
		return p
	}
	baseSize := len(build("").Data())
	p := build(strings.Repeat("x", MaxPayloadSize-baseSize-5))
	require.Equal(t, MaxPayloadSize-5, len(p.Data()))

	_, err := p.WithBundledIntegrations([]string{"Mixpanel"})
	assert.ErrorIs(t, err, ErrTooLarge)
	assert.NotContains(t, string(p.Data()), "Mixpanel")
}
