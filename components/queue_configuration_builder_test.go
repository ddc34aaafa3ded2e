package components

import (
	"testing"
	"time"

	"github.com/relaytics/analytics-go/internal/sharedtest"
	"github.com/relaytics/analytics-go/subsystems"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueConfigurationBuilder(t *testing.T) {
	build := func(t *testing.T, b *QueueConfigurationBuilder) subsystems.QueueConfiguration {
		c, err := b.Build(sharedtest.NewSimpleTestContext(""))
		require.NoError(t, err)
		return c
	}

	t.Run("defaults", func(t *testing.T) {
		c := build(t, Queue())
		assert.Equal(t, DefaultDatabasePath, c.DatabasePath)
		assert.Equal(t, 20, c.FlushAt)
		assert.Equal(t, 30*time.Second, c.FlushInterval)
		assert.Equal(t, 1000, c.MaxQueueSize)
		assert.Equal(t, 100, c.MaxBatchSize)
		assert.Equal(t, 475000, c.MaxBatchBytes)
		assert.True(t, c.FlushOnClose)
	})

	t.Run("DatabasePath", func(t *testing.T) {
		assert.Equal(t, ":memory:", build(t, Queue().DatabasePath(":memory:")).DatabasePath)

		_, err := Queue().DatabasePath("").Build(sharedtest.NewSimpleTestContext(""))
		assert.Error(t, err)
	})

	t.Run("FlushAt", func(t *testing.T) {
		assert.Equal(t, 5, build(t, Queue().FlushAt(5)).FlushAt)
		assert.Equal(t, DefaultFlushAt, build(t, Queue().FlushAt(0)).FlushAt)
	})

	t.Run("FlushInterval", func(t *testing.T) {
		assert.Equal(t, time.Minute, build(t, Queue().FlushInterval(time.Minute)).FlushInterval)
		assert.Equal(t, MinimumFlushInterval, build(t, Queue().FlushInterval(time.Millisecond)).FlushInterval)
		assert.Equal(t, DefaultFlushInterval, build(t, Queue().FlushInterval(0)).FlushInterval)
	})

	t.Run("sizes", func(t *testing.T) {
		c := build(t, Queue().MaxQueueSize(10).MaxBatchSize(3).MaxBatchBytes(5000))
		assert.Equal(t, 10, c.MaxQueueSize)
		assert.Equal(t, 3, c.MaxBatchSize)
		assert.Equal(t, 5000, c.MaxBatchBytes)

		c = build(t, Queue().MaxQueueSize(-1).MaxBatchSize(0).MaxBatchBytes(0))
		assert.Equal(t, DefaultMaxQueueSize, c.MaxQueueSize)
		assert.Equal(t, DefaultMaxBatchSize, c.MaxBatchSize)
		assert.Equal(t, DefaultMaxBatchBytes, c.MaxBatchBytes)
	})

	t.Run("FlushOnClose", func(t *testing.T) {
		assert.False(t, build(t, Queue().FlushOnClose(false)).FlushOnClose)
	})
}
