package dispatch

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/relaytics/analytics-go/internal/payloadstore"
	"github.com/relaytics/analytics-go/internal/sharedtest"
	"github.com/relaytics/analytics-go/internal/stats"
	"github.com/relaytics/analytics-go/payload"

	th "github.com/launchdarkly/go-test-helpers/v3"

	"github.com/stretchr/testify/require"
)

type testQueue struct {
	*payloadstore.Worker
	t *testing.T
}

func startTestQueue(t *testing.T, maxQueueSize int) testQueue {
	s, err := payloadstore.Open(filepath.Join(t.TempDir(), "queue.db"), maxQueueSize, ldlog.NewDisabledLoggers())
	require.NoError(t, err)
	w := payloadstore.StartWorker(s, 0, nil, ldlog.NewDisabledLoggers())
	t.Cleanup(func() { _ = w.Close() })
	return testQueue{Worker: w, t: t}
}

func (q testQueue) add(events ...string) {
	for _, e := range events {
		p := sharedtest.MakeTrackPayload(q.t, e, payload.IntegrationOptions{})
		ch := make(chan payloadstore.EnqueueResult, 1)
		q.Enqueue(p.Data(), func(r payloadstore.EnqueueResult) { ch <- r })
		require.True(q.t, th.RequireValue(q.t, ch, time.Second).Success)
	}
}

func (q testQueue) events() []string {
	ch := make(chan payloadstore.BatchResult, 1)
	q.NextBatch(1000, func(r payloadstore.BatchResult) { ch <- r })
	var ret []string
	for _, p := range th.RequireValue(q.t, ch, time.Second).Payloads {
		ret = append(ret, p.Event())
	}
	return ret
}

func eventNames(prefix string, from, to int) []string {
	var ret []string
	for i := from; i < to; i++ {
		ret = append(ret, fmt.Sprintf("%s%d", prefix, i))
	}
	return ret
}

func newTestDispatcher(q Queue, transport *sharedtest.MockTransport, maxBatchSize int) (*Dispatcher, *stats.Recorder) {
	recorder := stats.NewRecorder()
	d := NewDispatcher(q, transport, DispatcherConfig{
		MaxBatchSize: maxBatchSize,
		Loggers:      ldlog.NewDisabledLoggers(),
	}, recorder)
	return d, recorder
}
