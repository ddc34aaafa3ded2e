package subsystems

import (
	"time"
)

// QueueConfiguration holds the settings of the on-device queue and the flush scheduler.
//
// See components.QueueConfigurationBuilder for more details on these properties.
type QueueConfiguration struct {
	// DatabasePath is the path of the SQLite database file.
	DatabasePath string
	// FlushAt is the number of queued payloads that triggers a flush.
	FlushAt int
	// FlushInterval is the time between scheduled flushes.
	FlushInterval time.Duration
	// MaxQueueSize is the maximum number of payloads stored on the device.
	MaxQueueSize int
	// MaxBatchSize is the maximum number of payloads in one batch.
	MaxBatchSize int
	// MaxBatchBytes is the maximum size of one encoded batch.
	MaxBatchBytes int
	// FlushOnClose is true if the client attempts one last flush when it is closed.
	FlushOnClose bool
}
