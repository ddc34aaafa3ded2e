package dispatch

import (
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/relaytics/analytics-go/internal/payloadstore"
	"github.com/relaytics/analytics-go/internal/stats"
	"github.com/relaytics/analytics-go/subsystems"
)

// Default limits of a single batch.
const (
	DefaultMaxBatchSize  = 100
	DefaultMaxBatchBytes = 475000
)

// Queue is the part of payloadstore.Worker that the dispatcher uses.
type Queue interface {
	NextBatch(limit int, onDone func(payloadstore.BatchResult))
	RemoveRange(r payloadstore.Range, onDone func(payloadstore.RemoveResult))
	Count() int
}

// CycleResult is the outcome of Dispatcher.RunCycle.
type CycleResult struct {
	// Sent is the number of payloads delivered.
	Sent int
	// Success is false if the queue could not be read or the batch could not be delivered.
	Success bool
	// MoreRemaining is true if the queue held more payloads than fit in the batch when it was read.
	MoreRemaining bool
}

// Dispatcher runs delivery cycles: it reads the oldest payloads from the queue, sends them as one
// batch, and removes them from the queue only if the transport reports success.
//
// RunCycle must not be called concurrently; the Scheduler guarantees this.
type Dispatcher struct {
	queue          Queue
	transport      subsystems.Transport
	maxBatchSize   int
	maxBatchBytes  int
	stats          *stats.Recorder
	loggers        ldlog.Loggers
	logPayloadData bool
}

// DispatcherConfig holds the parameters of NewDispatcher.
type DispatcherConfig struct {
	MaxBatchSize   int
	MaxBatchBytes  int
	LogPayloadData bool
	Loggers        ldlog.Loggers
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(
	queue Queue,
	transport subsystems.Transport,
	config DispatcherConfig,
	recorder *stats.Recorder,
) *Dispatcher {
	if config.MaxBatchSize <= 0 {
		config.MaxBatchSize = DefaultMaxBatchSize
	}
	if config.MaxBatchBytes <= 0 {
		config.MaxBatchBytes = DefaultMaxBatchBytes
	}
	if recorder == nil {
		recorder = stats.NewRecorder()
	}
	return &Dispatcher{
		queue:          queue,
		transport:      transport,
		maxBatchSize:   config.MaxBatchSize,
		maxBatchBytes:  config.MaxBatchBytes,
		stats:          recorder,
		loggers:        config.Loggers,
		logPayloadData: config.LogPayloadData,
	}
}

// RunCycle performs one delivery cycle. An empty queue makes the cycle a successful no-op.
func (d *Dispatcher) RunCycle() CycleResult {
	batchCh := make(chan payloadstore.BatchResult, 1)
	d.queue.NextBatch(d.maxBatchSize, func(r payloadstore.BatchResult) { batchCh <- r })
	batch := <-batchCh
	if !batch.Success {
		return CycleResult{}
	}
	if batch.Range.IsEmpty() {
		return CycleResult{Success: true}
	}
	if len(batch.Payloads) == 0 {
		// Every row in the range was unreadable; discard them so they don't block the queue.
		if !d.remove(batch.Range) {
			return CycleResult{}
		}
		return CycleResult{Success: true, MoreRemaining: batch.Remaining > 0}
	}

	payloads := fitBatch(batch.Payloads, d.maxBatchBytes)
	sent := batch.Range
	trimmed := len(payloads) < len(batch.Payloads)
	if trimmed {
		sent.MaxID = payloads[len(payloads)-1].RowID()
	}

	data := encodeBatch(payloads, time.Now())
	if d.logPayloadData {
		d.loggers.Debugf("Sending batch of %d payloads: %s", len(payloads), data)
	} else {
		d.loggers.Debugf("Sending batch of %d payloads", len(payloads))
	}
	result := d.transport.SendBatch(data, len(payloads))
	if !result.Success {
		d.stats.RecordFailedFlush()
		d.loggers.Warnf("Failed to deliver batch of %d payloads; they will be retried later", len(payloads))
		return CycleResult{}
	}
	d.stats.RecordFlush(len(payloads))
	if !d.remove(sent) {
		// The batch was delivered but is still queued, so it will be sent again. The collection
		// endpoint deduplicates by message ID.
		return CycleResult{Sent: len(payloads)}
	}
	return CycleResult{Sent: len(payloads), Success: true, MoreRemaining: trimmed || batch.Remaining > 0}
}

func (d *Dispatcher) remove(r payloadstore.Range) bool {
	removedCh := make(chan payloadstore.RemoveResult, 1)
	d.queue.RemoveRange(r, func(result payloadstore.RemoveResult) { removedCh <- result })
	result := <-removedCh
	if result.Success {
		d.loggers.Debugf("Removed %d delivered payloads from the queue", result.Removed)
	}
	return result.Success
}
