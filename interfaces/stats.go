package interfaces

import (
	"time"
)

// StatsSnapshot is a point-in-time copy of the client's delivery statistics.
type StatsSnapshot struct {
	// Timestamp is the time the snapshot was taken.
	Timestamp time.Time

	// QueueSize is the number of payloads stored on the device and not yet delivered.
	QueueSize int

	// QueuedPayloads is the number of payloads that have been written to the queue.
	QueuedPayloads int64

	// DroppedPayloads is the number of payloads that were discarded because the queue was full, the
	// client was closed, or the queue could not keep up.
	DroppedPayloads int64

	// FlushCount is the number of batches delivered successfully.
	FlushCount int64

	// FlushedPayloads is the number of payloads delivered successfully.
	FlushedPayloads int64

	// FailedFlushCount is the number of batches that could not be delivered and were kept for a later
	// attempt.
	FailedFlushCount int64

	// IntegrationOperationCount is the number of calls made to bundled integrations.
	IntegrationOperationCount int64

	// IntegrationOperationDuration is the total time spent in calls to bundled integrations.
	IntegrationOperationDuration time.Duration

	// IntegrationOperationDurationByTarget breaks IntegrationOperationDuration down by integration key.
	IntegrationOperationDurationByTarget map[string]time.Duration
}

// IntegrationOperationAverageDuration returns the mean duration of a call to a bundled integration,
// or zero if there have been none.
func (s StatsSnapshot) IntegrationOperationAverageDuration() time.Duration {
	if s.IntegrationOperationCount == 0 {
		return 0
	}
	return s.IntegrationOperationDuration / time.Duration(s.IntegrationOperationCount)
}
