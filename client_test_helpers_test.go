package analytics

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlogtest"
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/relaytics/analytics-go/components"
	"github.com/relaytics/analytics-go/internal/sharedtest"

	"github.com/stretchr/testify/require"
)

const testWriteKey = "test-write-key"

type clientTestParams struct {
	client    *Client
	transport *sharedtest.MockTransport
	settings  *sharedtest.MockSettingsSourceConfigurer
	mockLog   *ldlogtest.MockLog
	dbPath    string
}

// makeTestClient creates a client with a mock transport, a mock settings source, and a queue in a
// temporary directory. The timer never fires during a test, and the size trigger is high enough not
// to fire unless configure lowers it.
func makeTestClient(t *testing.T, configure func(*Config)) clientTestParams {
	p := clientTestParams{
		transport: sharedtest.NewMockTransport(),
		settings:  &sharedtest.MockSettingsSourceConfigurer{},
		mockLog:   ldlogtest.NewMockLog(),
		dbPath:    filepath.Join(t.TempDir(), "queue.db"),
	}
	config := Config{
		Logging:   components.Logging().Loggers(p.mockLog.Loggers),
		Queue:     components.Queue().DatabasePath(p.dbPath).FlushInterval(time.Hour).FlushAt(1000),
		Settings:  p.settings,
		Transport: sharedtest.SingleTransportConfigurer{Transport: p.transport},
	}
	if configure != nil {
		configure(&config)
	}
	client, err := MakeCustomClient(testWriteKey, config, 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	p.client = client
	return p
}

func (p clientTestParams) pushSettings(doc ldvalue.Value) {
	p.settings.Source.Push(doc)
}

// sentPayloads returns every payload in every batch the transport has received, in order.
func (p clientTestParams) sentPayloads() []ldvalue.Value {
	var ret []ldvalue.Value
	for _, b := range p.transport.Sent() {
		ret = append(ret, ldvalue.Parse(b.Data).GetByKey("batch").AsValueArray().AsSlice()...)
	}
	return ret
}

func (p clientTestParams) flush(t *testing.T) {
	require.True(t, p.client.FlushAndWait(time.Second*5))
}

func events(payloads []ldvalue.Value) []string {
	ret := make([]string, 0, len(payloads))
	for _, p := range payloads {
		ret = append(ret, p.GetByKey("event").StringValue())
	}
	return ret
}
