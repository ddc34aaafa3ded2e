// Package stats is an internal package that accumulates the counters reported by Client.Stats.
package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/exp/maps"

	"github.com/relaytics/analytics-go/interfaces"
)

// Recorder accumulates delivery and integration statistics. All methods are safe for concurrent use.
// The zero value is not usable; call NewRecorder.
type Recorder struct {
	queued          atomic.Int64
	dropped         atomic.Int64
	flushes         atomic.Int64
	flushedPayloads atomic.Int64
	failedFlushes   atomic.Int64
	operations      atomic.Int64
	operationNanos  atomic.Int64
	byTarget        map[string]time.Duration
	byTargetLock    sync.Mutex
}

// NewRecorder creates a Recorder with all counters at zero.
func NewRecorder() *Recorder {
	return &Recorder{byTarget: make(map[string]time.Duration)}
}

// RecordQueued counts a payload that was written to the queue.
func (r *Recorder) RecordQueued() {
	r.queued.Add(1)
}

// RecordDropped counts a payload that was discarded before reaching the queue.
func (r *Recorder) RecordDropped() {
	r.dropped.Add(1)
}

// RecordFlush counts a successfully delivered batch of n payloads.
func (r *Recorder) RecordFlush(n int) {
	r.flushes.Add(1)
	r.flushedPayloads.Add(int64(n))
}

// RecordFailedFlush counts a batch that could not be delivered.
func (r *Recorder) RecordFailedFlush() {
	r.failedFlushes.Add(1)
}

// RecordIntegrationOperation counts one call to the integration with the given key.
func (r *Recorder) RecordIntegrationOperation(key string, duration time.Duration) {
	r.operations.Add(1)
	r.operationNanos.Add(int64(duration))
	r.byTargetLock.Lock()
	r.byTarget[key] += duration
	r.byTargetLock.Unlock()
}

// Snapshot returns the current values. queueSize is supplied by the caller since the queue owns it.
func (r *Recorder) Snapshot(queueSize int) interfaces.StatsSnapshot {
	r.byTargetLock.Lock()
	byTarget := maps.Clone(r.byTarget)
	r.byTargetLock.Unlock()
	return interfaces.StatsSnapshot{
		Timestamp:                            time.Now(),
		QueueSize:                            queueSize,
		QueuedPayloads:                       r.queued.Load(),
		DroppedPayloads:                      r.dropped.Load(),
		FlushCount:                           r.flushes.Load(),
		FlushedPayloads:                      r.flushedPayloads.Load(),
		FailedFlushCount:                     r.failedFlushes.Load(),
		IntegrationOperationCount:            r.operations.Load(),
		IntegrationOperationDuration:         time.Duration(r.operationNanos.Load()),
		IntegrationOperationDurationByTarget: byTarget,
	}
}
