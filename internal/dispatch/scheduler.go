package dispatch

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/launchdarkly/go-sdk-common/v3/ldlog"
)

// Default scheduling parameters.
const (
	DefaultFlushAt       = 20
	DefaultFlushInterval = 30 * time.Second
)

// SchedulerConfig holds the parameters of StartScheduler.
type SchedulerConfig struct {
	// FlushAt is the size trigger: a flush is requested each time this many more payloads have been
	// queued.
	FlushAt int
	// FlushInterval is the time trigger.
	FlushInterval time.Duration
	Loggers       ldlog.Loggers
}

type shutdownMessage struct {
	finalFlush bool
	replyCh    chan struct{}
}

// Scheduler decides when the Dispatcher runs. It owns a goroutine that runs delivery cycles one at a
// time in response to the size trigger, the time trigger, and explicit flush requests.
//
// Flush requests are coalesced: while a cycle is running, at most one further request is held, and
// any others are discarded.
type Scheduler struct {
	dispatcher *Dispatcher
	queue      Queue
	flushAt    int64
	interval   time.Duration
	pending    atomic.Int64
	flushCh    chan struct{}
	syncCh     chan chan struct{}
	shutdownCh chan shutdownMessage
	doneCh     chan struct{}
	closeOnce  sync.Once
	loggers    ldlog.Loggers
}

// StartScheduler starts the scheduler goroutine. If the queue already holds FlushAt or more
// payloads, a flush starts immediately.
func StartScheduler(dispatcher *Dispatcher, config SchedulerConfig) *Scheduler {
	if config.FlushAt <= 0 {
		config.FlushAt = DefaultFlushAt
	}
	if config.FlushInterval <= 0 {
		config.FlushInterval = DefaultFlushInterval
	}
	s := &Scheduler{
		dispatcher: dispatcher,
		queue:      dispatcher.queue,
		flushAt:    int64(config.FlushAt),
		interval:   config.FlushInterval,
		flushCh:    make(chan struct{}, 1),
		syncCh:     make(chan chan struct{}),
		shutdownCh: make(chan shutdownMessage),
		doneCh:     make(chan struct{}),
		loggers:    config.Loggers,
	}
	if s.queue.Count() >= config.FlushAt {
		s.RequestFlush()
	}
	go s.runMainLoop()
	return s
}

// RequestFlush asks for a delivery cycle as soon as possible. It never blocks.
func (s *Scheduler) RequestFlush() {
	select {
	case s.flushCh <- struct{}{}:
	default:
	}
}

// PayloadQueued is called after each successful enqueue. Every FlushAt calls, it requests a flush.
func (s *Scheduler) PayloadQueued() {
	if s.pending.Add(1)%s.flushAt == 0 {
		s.RequestFlush()
	}
}

// FlushAndWait runs delivery cycles until the queue is drained or a delivery fails, and waits for
// them to finish. It returns false if that did not happen within the timeout or the scheduler is
// closed.
func (s *Scheduler) FlushAndWait(timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	replyCh := make(chan struct{})
	select {
	case s.syncCh <- replyCh:
	case <-deadline.C:
		return false
	case <-s.doneCh:
		return false
	}
	select {
	case <-replyCh:
		return true
	case <-deadline.C:
		return false
	}
}

// Close stops the scheduler, after one last attempt to drain the queue if finalFlush is true. It
// waits for any cycle in progress. Calling it more than once has no effect.
func (s *Scheduler) Close(finalFlush bool) {
	s.closeOnce.Do(func() {
		m := shutdownMessage{finalFlush: finalFlush, replyCh: make(chan struct{})}
		s.shutdownCh <- m
		<-m.replyCh
	})
}

func (s *Scheduler) runMainLoop() {
	defer close(s.doneCh)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.flushCh:
			s.drain()
		case <-ticker.C:
			s.drain()
		case replyCh := <-s.syncCh:
			s.drain()
			close(replyCh)
		case m := <-s.shutdownCh:
			if m.finalFlush {
				s.drain()
			}
			close(m.replyCh)
			return
		}
	}
}

// drain runs cycles until the queue is empty or a cycle fails.
func (s *Scheduler) drain() {
	defer func() {
		if err := recover(); err != nil {
			s.loggers.Errorf("Unexpected panic in flush cycle: %+v", err)
		}
	}()
	for {
		result := s.dispatcher.RunCycle()
		if !result.Success || !result.MoreRemaining {
			return
		}
	}
}
