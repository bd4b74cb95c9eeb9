package jobs

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTarget struct {
	evicts  atomic.Int32
	prunes  atomic.Int32
	expires atomic.Int32
}

func (c *countingTarget) EvictIdle(ttl time.Duration) int {
	c.evicts.Add(1)
	return 1
}

func (c *countingTarget) PruneIdle(ttl time.Duration) int {
	c.prunes.Add(1)
	return 0
}

func (c *countingTarget) ExpirePairings() int {
	c.expires.Add(1)
	return 0
}

func TestCleanupJob(t *testing.T) {
	t.Run("runs all cleanup passes on each tick", func(t *testing.T) {
		target := &countingTarget{}
		job := NewCleanupJob(target, target, target, 30*time.Minute, 5*time.Minute, 10*time.Millisecond)

		job.Start()
		defer job.Stop()

		require.Eventually(t, func() bool {
			return target.evicts.Load() >= 2
		}, 2*time.Second, 5*time.Millisecond)

		assert.GreaterOrEqual(t, target.prunes.Load(), int32(2))
		assert.GreaterOrEqual(t, target.expires.Load(), int32(2))
	})

	t.Run("stops cleanly", func(t *testing.T) {
		target := &countingTarget{}
		job := NewCleanupJob(target, target, target, time.Minute, time.Minute, 5*time.Millisecond)

		job.Start()
		time.Sleep(20 * time.Millisecond)
		job.Stop()

		after := target.evicts.Load()
		time.Sleep(30 * time.Millisecond)
		assert.Equal(t, after, target.evicts.Load())
	})
}
