package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendalink/wabot-server-go/internal/model"
)

func TestStore(t *testing.T) {
	t.Run("creates sessions lazily at welcome", func(t *testing.T) {
		st := NewStore()

		require.Equal(t, 0, st.Len())
		s := st.Get("tenant-1", "user-1")

		assert.Equal(t, model.StepWelcome, s.Step())
		assert.Equal(t, 1, st.Len())
	})

	t.Run("returns the same session for the same key", func(t *testing.T) {
		st := NewStore()

		first := st.Get("tenant-1", "user-1")
		first.SetStep(model.StepMainMenu)

		again := st.Get("tenant-1", "user-1")
		assert.Same(t, first, again)
		assert.Equal(t, model.StepMainMenu, again.Step())
	})

	t.Run("isolates sessions per tenant and per user", func(t *testing.T) {
		st := NewStore()

		a := st.Get("tenant-1", "user-1")
		b := st.Get("tenant-1", "user-2")
		c := st.Get("tenant-2", "user-1")

		a.SetStep(model.StepAwaitingAddress)
		assert.Equal(t, model.StepWelcome, b.Step())
		assert.Equal(t, model.StepWelcome, c.Step())
		assert.Equal(t, 3, st.Len())
	})

	t.Run("evicts idle sessions and keeps active ones", func(t *testing.T) {
		st := NewStore()
		base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		st.now = func() time.Time { return base }

		idle := st.Get("tenant-1", "idle-user")
		idle.Touch(base)
		active := st.Get("tenant-1", "active-user")
		active.Touch(base.Add(25 * time.Minute))

		st.now = func() time.Time { return base.Add(31 * time.Minute) }
		evicted := st.EvictIdle(30 * time.Minute)

		assert.Equal(t, 1, evicted)
		assert.Equal(t, 1, st.Len())

		// Re-engaging after eviction starts a fresh session.
		fresh := st.Get("tenant-1", "idle-user")
		assert.NotSame(t, idle, fresh)
		assert.Equal(t, model.StepWelcome, fresh.Step())
	})

	t.Run("reset clears the in-flight flow", func(t *testing.T) {
		s := NewStore().Get("tenant-1", "user-1")
		s.SetStep(model.StepAwaitingPaymentProof)
		s.SetPendingOrder(&model.Order{ID: "ord-1"})
		s.SetPaymentMethod(model.PaymentTransfer)

		s.Reset()

		assert.Equal(t, model.StepWelcome, s.Step())
		assert.Nil(t, s.PendingOrder())
		assert.Empty(t, s.PaymentMethod())
	})
}
