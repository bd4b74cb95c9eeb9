package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendalink/wabot-server-go/internal/model"
	"github.com/tiendalink/wabot-server-go/internal/ratelimit"
	"github.com/tiendalink/wabot-server-go/internal/spam"
	"github.com/tiendalink/wabot-server-go/internal/waclient"
)

type stubTenants struct {
	tenant *model.Tenant
}

func (s *stubTenants) FindByID(ctx context.Context, id string) (*model.Tenant, error) {
	return s.tenant, nil
}

func newTestProcessor(tenant *model.Tenant, limit int) (*Processor, *captureOutbox, *Store) {
	outbox := &captureOutbox{}
	store := NewStore()
	machine := NewMachine(&stubOrders{}, outbox)
	p := NewProcessor(
		ratelimit.New(time.Minute, limit, 0),
		spam.NewFilter(),
		store,
		NewRouter(machine.Routes()),
		outbox,
		&stubTenants{tenant: tenant},
	)
	return p, outbox, store
}

func inbound(text string) waclient.IncomingMessage {
	return waclient.IncomingMessage{
		Sender:     "5215512345678",
		Text:       text,
		ReceivedAt: time.Now(),
	}
}

func TestProcessor(t *testing.T) {
	enabled := &model.Tenant{ID: "tenant-1", Name: "Tacos El Güero", MessagingEnabled: true}

	t.Run("routes an inbound message end to end", func(t *testing.T) {
		p, outbox, store := newTestProcessor(enabled, 20)

		p.HandleInbound("tenant-1", inbound("hola"))
		p.Wait()

		assert.Contains(t, outbox.Last(t), "1️⃣ Ver catálogo")
		assert.Equal(t, model.StepMainMenu, store.Get("tenant-1", "5215512345678").Step())
	})

	t.Run("preserves receipt order per user", func(t *testing.T) {
		p, outbox, store := newTestProcessor(enabled, 20)

		p.HandleInbound("tenant-1", inbound("hola"))
		p.HandleInbound("tenant-1", inbound("2"))
		p.HandleInbound("tenant-1", inbound("1234"))
		p.Wait()

		require.Equal(t, 3, outbox.Count())
		assert.Contains(t, outbox.sent[0], "1️⃣ Ver catálogo")
		assert.Contains(t, outbox.sent[1], "código")
		assert.Contains(t, outbox.sent[2], "No encontré")
		assert.Equal(t, model.StepWelcome, store.Get("tenant-1", "5215512345678").Step())
	})

	t.Run("short-circuits when messaging is disabled", func(t *testing.T) {
		disabled := &model.Tenant{ID: "tenant-1", Name: "Tacos El Güero", MessagingEnabled: false}
		p, outbox, store := newTestProcessor(disabled, 20)

		p.HandleInbound("tenant-1", inbound("hola"))
		p.Wait()

		assert.Equal(t, 0, outbox.Count())
		assert.Equal(t, 0, store.Len())
	})

	t.Run("drops spam silently", func(t *testing.T) {
		p, outbox, store := newTestProcessor(enabled, 20)

		p.HandleInbound("tenant-1", inbound("gana dinero facil bit.ly/x"))
		p.Wait()

		assert.Equal(t, 0, outbox.Count())
		assert.Equal(t, 0, store.Len())
	})

	t.Run("sends one throttle notice when the limit trips", func(t *testing.T) {
		p, outbox, _ := newTestProcessor(enabled, 1)

		p.HandleInbound("tenant-1", inbound("hola"))
		p.HandleInbound("tenant-1", inbound("hola"))
		p.HandleInbound("tenant-1", inbound("hola"))
		p.Wait()

		require.Equal(t, 2, outbox.Count())
		assert.Contains(t, outbox.sent[0], "1️⃣ Ver catálogo")
		assert.Contains(t, outbox.sent[1], "muy rápido")
	})
}
