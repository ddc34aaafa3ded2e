package components

import (
	"errors"
	"time"

	"github.com/relaytics/analytics-go/internal/dispatch"
	"github.com/relaytics/analytics-go/subsystems"
)

const (
	// DefaultDatabasePath is the default value for QueueConfigurationBuilder.DatabasePath.
	DefaultDatabasePath = "analytics-queue.db"
	// DefaultFlushAt is the default value for QueueConfigurationBuilder.FlushAt.
	DefaultFlushAt = dispatch.DefaultFlushAt
	// DefaultFlushInterval is the default value for QueueConfigurationBuilder.FlushInterval.
	DefaultFlushInterval = dispatch.DefaultFlushInterval
	// DefaultMaxQueueSize is the default value for QueueConfigurationBuilder.MaxQueueSize.
	DefaultMaxQueueSize = 1000
	// DefaultMaxBatchSize is the default value for QueueConfigurationBuilder.MaxBatchSize.
	DefaultMaxBatchSize = dispatch.DefaultMaxBatchSize
	// DefaultMaxBatchBytes is the default value for QueueConfigurationBuilder.MaxBatchBytes.
	DefaultMaxBatchBytes = dispatch.DefaultMaxBatchBytes
	// MinimumFlushInterval is the minimum value for QueueConfigurationBuilder.FlushInterval.
	MinimumFlushInterval = time.Second
)

var errEmptyDatabasePath = errors.New("queue database path must not be empty")

// QueueConfigurationBuilder provides methods for configuring the on-device queue and the schedule on
// which it is flushed.
//
// See Queue for usage.
type QueueConfigurationBuilder struct {
	config subsystems.QueueConfiguration
}

// Queue returns a configuration builder for the on-device queue.
//
// The default configuration stores payloads in DefaultDatabasePath in the working directory. If you
// want to customize this behavior, call this method to obtain a builder, change its properties with the
// QueueConfigurationBuilder methods, and store it in Config.Queue:
//
//	config := analytics.Config{
//	    Queue: components.Queue().DatabasePath("/var/lib/myapp/analytics.db").FlushAt(50),
//	}
func Queue() *QueueConfigurationBuilder {
	return &QueueConfigurationBuilder{
		config: subsystems.QueueConfiguration{
			DatabasePath:  DefaultDatabasePath,
			FlushAt:       DefaultFlushAt,
			FlushInterval: DefaultFlushInterval,
			MaxQueueSize:  DefaultMaxQueueSize,
			MaxBatchSize:  DefaultMaxBatchSize,
			MaxBatchBytes: DefaultMaxBatchBytes,
			FlushOnClose:  true,
		},
	}
}

// DatabasePath sets the path of the SQLite database file. The special value ":memory:" keeps the queue
// in memory, so that payloads do not survive a restart; this is mainly useful in tests.
func (b *QueueConfigurationBuilder) DatabasePath(path string) *QueueConfigurationBuilder {
	b.config.DatabasePath = path
	return b
}

// FlushAt sets the number of queued payloads that triggers a flush. Values less than 1 are changed
// to DefaultFlushAt.
func (b *QueueConfigurationBuilder) FlushAt(flushAt int) *QueueConfigurationBuilder {
	if flushAt < 1 {
		flushAt = DefaultFlushAt
	}
	b.config.FlushAt = flushAt
	return b
}

// FlushInterval sets the time between scheduled flushes. The minimum is MinimumFlushInterval;
// zero or negative values are changed to DefaultFlushInterval.
func (b *QueueConfigurationBuilder) FlushInterval(interval time.Duration) *QueueConfigurationBuilder {
	switch {
	case interval <= 0:
		interval = DefaultFlushInterval
	case interval < MinimumFlushInterval:
		interval = MinimumFlushInterval
	}
	b.config.FlushInterval = interval
	return b
}

// MaxQueueSize sets the maximum number of payloads kept on the device. When the queue is full, new
// payloads are dropped.
func (b *QueueConfigurationBuilder) MaxQueueSize(size int) *QueueConfigurationBuilder {
	if size < 1 {
		size = DefaultMaxQueueSize
	}
	b.config.MaxQueueSize = size
	return b
}

// MaxBatchSize sets the maximum number of payloads in one request to the collection endpoint.
func (b *QueueConfigurationBuilder) MaxBatchSize(size int) *QueueConfigurationBuilder {
	if size < 1 {
		size = DefaultMaxBatchSize
	}
	b.config.MaxBatchSize = size
	return b
}

// MaxBatchBytes sets the maximum size of one request body. A batch always contains at least one
// payload, even if that payload alone is larger.
func (b *QueueConfigurationBuilder) MaxBatchBytes(size int) *QueueConfigurationBuilder {
	if size < 1 {
		size = DefaultMaxBatchBytes
	}
	b.config.MaxBatchBytes = size
	return b
}

// FlushOnClose sets whether the client makes a final attempt to deliver queued payloads when it is
// closed. The default is true.
func (b *QueueConfigurationBuilder) FlushOnClose(flushOnClose bool) *QueueConfigurationBuilder {
	b.config.FlushOnClose = flushOnClose
	return b
}

// Build is called internally by the client.
func (b *QueueConfigurationBuilder) Build(
	subsystems.ClientContext,
) (subsystems.QueueConfiguration, error) {
	if b.config.DatabasePath == "" {
		return subsystems.QueueConfiguration{}, errEmptyDatabasePath
	}
	return b.config, nil
}
