package sharedtest

import (
	"sync"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"

	"github.com/relaytics/analytics-go/subsystems"
)

// SentBatch is one batch received by MockTransport.
type SentBatch struct {
	Data         []byte
	PayloadCount int
	Success      bool
}

// Events returns the "event" property of each payload in the batch, in order.
func (b SentBatch) Events() []string {
	var ret []string
	for _, p := range ldvalue.Parse(b.Data).GetByKey("batch").AsValueArray().AsSlice() {
		ret = append(ret, p.GetByKey("event").StringValue())
	}
	return ret
}

// MockTransport is a subsystems.Transport that records batches and returns scripted outcomes.
type MockTransport struct {
	outcomes []bool
	fallback bool
	sentCh   chan SentBatch
	sent     []SentBatch
	closed   bool
	lock     sync.Mutex
}

// NewMockTransport creates a MockTransport that reports success for every batch.
func NewMockTransport() *MockTransport {
	return &MockTransport{fallback: true, sentCh: make(chan SentBatch, 100)}
}

// QueueOutcomes sets the results of the next calls to SendBatch, after which the transport reverts to
// its default.
func (m *MockTransport) QueueOutcomes(success ...bool) *MockTransport {
	m.lock.Lock()
	m.outcomes = append(m.outcomes, success...)
	m.lock.Unlock()
	return m
}

// SetDefaultOutcome sets the result used when no queued outcome remains.
func (m *MockTransport) SetDefaultOutcome(success bool) {
	m.lock.Lock()
	m.fallback = success
	m.lock.Unlock()
}

// SentCh receives every batch passed to SendBatch.
func (m *MockTransport) SentCh() <-chan SentBatch {
	return m.sentCh
}

// Sent returns a copy of every batch passed to SendBatch.
func (m *MockTransport) Sent() []SentBatch {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]SentBatch(nil), m.sent...)
}

// IsClosed returns true if Close was called.
func (m *MockTransport) IsClosed() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.closed
}

func (m *MockTransport) SendBatch(data []byte, payloadCount int) subsystems.TransportResult { //nolint:revive
	m.lock.Lock()
	success := m.fallback
	if len(m.outcomes) > 0 {
		success = m.outcomes[0]
		m.outcomes = m.outcomes[1:]
	}
	b := SentBatch{Data: append([]byte(nil), data...), PayloadCount: payloadCount, Success: success}
	m.sent = append(m.sent, b)
	m.lock.Unlock()
	m.sentCh <- b
	return subsystems.TransportResult{Success: success}
}

func (m *MockTransport) Close() error { //nolint:revive
	m.lock.Lock()
	m.closed = true
	m.lock.Unlock()
	return nil
}

// SingleTransportConfigurer is a ComponentConfigurer that returns an existing Transport.
type SingleTransportConfigurer struct {
	Transport subsystems.Transport
}

func (c SingleTransportConfigurer) Build(subsystems.ClientContext) (subsystems.Transport, error) { //nolint:revive
	return c.Transport, nil
}
