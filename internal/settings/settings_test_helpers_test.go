package settings

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/relaytics/analytics-go/internal/sharedtest"
	"github.com/relaytics/analytics-go/subsystems"
)

const testWriteKey = "test-write-key"

type mockRequestResponse struct {
	integrations ldvalue.Value
	cached       bool
	err          error
}

type mockRequester struct {
	respCh   chan mockRequestResponse
	pollsCh  chan struct{}
	closerCh chan struct{}
}

func newMockRequester() *mockRequester {
	return &mockRequester{
		respCh:   make(chan mockRequestResponse, 100),
		pollsCh:  make(chan struct{}, 100),
		closerCh: make(chan struct{}),
	}
}

func (r *mockRequester) Close() {
	close(r.closerCh)
}

func (r *mockRequester) Request() (ldvalue.Value, bool, error) {
	select {
	case resp := <-r.respCh:
		r.pollsCh <- struct{}{}
		return resp.integrations, resp.cached, resp.err
	case <-r.closerCh:
		return ldvalue.Null(), true, nil
	}
}

func (r *mockRequester) BaseURI() string {
	return "http://fake"
}

func basicClientContext(sink subsystems.SettingsSink) subsystems.ClientContext {
	ctx := sharedtest.NewSimpleTestContext(testWriteKey)
	ctx.SettingsSink = sink
	return ctx
}

func makeIntegrations(keys ...string) ldvalue.Value {
	b := ldvalue.ObjectBuild()
	for _, k := range keys {
		b.Set(k, ldvalue.ObjectBuild().Set("apiKey", ldvalue.String(k+"-key")).Build())
	}
	return b.Build()
}
