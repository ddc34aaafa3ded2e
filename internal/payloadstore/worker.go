package payloadstore

import (
	"fmt"
	"sync"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"

	"github.com/relaytics/analytics-go/internal/stats"
	"github.com/relaytics/analytics-go/payload"
)

// DefaultInboxCapacity is the number of operations that can be waiting for the worker before
// Enqueue starts dropping payloads.
const DefaultInboxCapacity = 1000

// EnqueueResult is the outcome of Worker.Enqueue.
type EnqueueResult struct {
	// Success is true if the payload was written to the store.
	Success bool
	// Count is the number of stored rows after the operation.
	Count int
}

// BatchResult is the outcome of Worker.NextBatch.
type BatchResult struct {
	Range    Range
	Payloads []payload.Payload
	// Remaining is the number of stored rows that were not part of this batch when it was read.
	Remaining int
	// Success is false if the store could not be read.
	Success bool
}

// RemoveResult is the outcome of Worker.RemoveRange and Worker.Clear.
type RemoveResult struct {
	Removed int
	Success bool
}

// Payload of the inboxCh channel.
type workerMessage interface{}

type enqueueMessage struct {
	data   []byte
	onDone func(EnqueueResult)
}

type nextBatchMessage struct {
	limit  int
	onDone func(BatchResult)
}

type removeRangeMessage struct {
	r      Range
	onDone func(RemoveResult)
}

type clearMessage struct {
	onDone func(RemoveResult)
}

type shutdownWorkerMessage struct {
	replyCh chan struct{}
}

// Worker owns a Store and runs every operation on it, one at a time, on a single goroutine.
//
// All methods are asynchronous: they post a message and return. The completion callback, if not nil,
// is called on the worker goroutine, except when the operation cannot be posted at all (the inbox is
// full or the worker is closed), in which case it is called before the method returns. Operations
// posted from one goroutine run in the order they were posted.
type Worker struct {
	store         *Store
	inboxCh       chan workerMessage
	inboxFullOnce sync.Once
	closeOnce     sync.Once
	closed        bool
	lock          sync.RWMutex
	stats         *stats.Recorder
	loggers       ldlog.Loggers
}

// StartWorker starts the goroutine that owns store. The Worker closes the store when it is closed.
func StartWorker(store *Store, inboxCapacity int, recorder *stats.Recorder, loggers ldlog.Loggers) *Worker {
	if inboxCapacity <= 0 {
		inboxCapacity = DefaultInboxCapacity
	}
	if recorder == nil {
		recorder = stats.NewRecorder()
	}
	w := &Worker{
		store:   store,
		inboxCh: make(chan workerMessage, inboxCapacity),
		stats:   recorder,
		loggers: loggers,
	}
	go w.runMainLoop()
	return w
}

// Count returns the number of stored rows. It can be called from any goroutine.
func (w *Worker) Count() int {
	return w.store.Count()
}

// Enqueue stores a serialized payload. It never blocks: if the worker is too far behind to accept
// the operation, the payload is dropped and counted.
func (w *Worker) Enqueue(data []byte, onDone func(EnqueueResult)) {
	w.lock.RLock()
	defer w.lock.RUnlock()
	if w.closed {
		w.stats.RecordDropped()
		complete(onDone, EnqueueResult{Count: w.store.Count()})
		return
	}
	select {
	case w.inboxCh <- enqueueMessage{data: data, onDone: onDone}:
		return
	default:
	}
	// The worker is seriously backed up. Waiting for room would stall the application, so the
	// payload is dropped instead; the warning is only shown once.
	w.inboxFullOnce.Do(func() {
		w.loggers.Warn("Analytics events are being produced faster than they can be stored; some events will be dropped")
	})
	w.stats.RecordDropped()
	complete(onDone, EnqueueResult{Count: w.store.Count()})
}

// NextBatch reads up to limit of the oldest stored payloads.
func (w *Worker) NextBatch(limit int, onDone func(BatchResult)) {
	if !w.post(nextBatchMessage{limit: limit, onDone: onDone}) {
		complete(onDone, BatchResult{})
	}
}

// RemoveRange deletes the rows in r.
func (w *Worker) RemoveRange(r Range, onDone func(RemoveResult)) {
	if !w.post(removeRangeMessage{r: r, onDone: onDone}) {
		complete(onDone, RemoveResult{})
	}
}

// Clear deletes every stored row.
func (w *Worker) Clear(onDone func(RemoveResult)) {
	if !w.post(clearMessage{onDone: onDone}) {
		complete(onDone, RemoveResult{})
	}
}

// Close waits for all operations already posted to finish, then stops the worker and closes the
// store. Calling it more than once has no effect.
func (w *Worker) Close() error {
	w.closeOnce.Do(func() {
		w.lock.Lock()
		w.closed = true
		w.lock.Unlock()
		m := shutdownWorkerMessage{replyCh: make(chan struct{})}
		w.inboxCh <- m
		<-m.replyCh
	})
	return nil
}

// post blocks until there is room in the inbox. Unlike payloads, these operations are issued by the
// dispatcher and the client and are never dropped.
func (w *Worker) post(m workerMessage) bool {
	w.lock.RLock()
	defer w.lock.RUnlock()
	if w.closed {
		return false
	}
	w.inboxCh <- m
	return true
}

func (w *Worker) runMainLoop() {
	for message := range w.inboxCh {
		switch m := message.(type) {
		case enqueueMessage:
			result := EnqueueResult{}
			w.safely("enqueue", func() {
				ok, count, err := w.store.Append(m.data)
				if err != nil {
					w.loggers.Errorf("Unable to store analytics event: %s", err)
				}
				result = EnqueueResult{Success: ok, Count: count}
			})
			if result.Success {
				w.stats.RecordQueued()
			} else {
				w.stats.RecordDropped()
				w.loggers.Debugf("Analytics event was not stored (queue size %d)", result.Count)
			}
			w.safely("enqueue callback", func() { complete(m.onDone, result) })
		case nextBatchMessage:
			result := BatchResult{}
			w.safely("read batch", func() {
				r, payloads, err := w.store.ReadRange(m.limit)
				if err != nil {
					w.loggers.Errorf("Unable to read stored analytics events: %s", err)
					return
				}
				remaining := w.store.Count() - len(payloads)
				if remaining < 0 {
					remaining = 0
				}
				result = BatchResult{Range: r, Payloads: payloads, Remaining: remaining, Success: true}
			})
			w.safely("read batch callback", func() { complete(m.onDone, result) })
		case removeRangeMessage:
			result := RemoveResult{}
			w.safely("remove range", func() {
				n, err := w.store.DeleteRange(m.r.MinID, m.r.MaxID)
				if err != nil {
					w.loggers.Errorf("Unable to remove sent analytics events: %s", err)
					return
				}
				result = RemoveResult{Removed: n, Success: true}
			})
			w.safely("remove range callback", func() { complete(m.onDone, result) })
		case clearMessage:
			result := RemoveResult{}
			w.safely("clear", func() {
				n, err := w.store.Clear()
				if err != nil {
					w.loggers.Errorf("Unable to clear stored analytics events: %s", err)
					return
				}
				result = RemoveResult{Removed: n, Success: true}
			})
			w.safely("clear callback", func() { complete(m.onDone, result) })
		case shutdownWorkerMessage:
			if err := w.store.Close(); err != nil {
				w.loggers.Warnf("Error closing payload database: %s", err)
			}
			m.replyCh <- struct{}{}
			return
		}
	}
}

func (w *Worker) safely(operation string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.loggers.Errorf("Unexpected panic in payload store operation %q: %s", operation, fmt.Sprint(r))
		}
	}()
	fn()
}

func complete[T any](onDone func(T), result T) {
	if onDone != nil {
		onDone(result)
	}
}
