package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendalink/wabot-server-go/internal/model"
)

type stubOrders struct {
	byCode    map[string]*model.Order
	recent    []model.Order
	findErr   error
	updateErr error
	listErr   error

	mu        sync.Mutex
	addresses map[string]string
}

func (s *stubOrders) FindByShortCode(ctx context.Context, tenantID, shortCode string) (*model.Order, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.byCode[shortCode], nil
}

func (s *stubOrders) SetDeliveryAddress(ctx context.Context, orderID, address string) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.addresses == nil {
		s.addresses = make(map[string]string)
	}
	s.addresses[orderID] = address
	return nil
}

func (s *stubOrders) ListRecentByCustomer(ctx context.Context, tenantID, customerPhone string, limit int) ([]model.Order, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.recent, nil
}

type captureOutbox struct {
	mu   sync.Mutex
	sent []string
}

func (o *captureOutbox) Enqueue(tenantID, recipient, text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, text)
}

func (o *captureOutbox) Last(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	require.NotEmpty(t, o.sent, "expected at least one reply")
	return o.sent[len(o.sent)-1]
}

func (o *captureOutbox) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

type fixture struct {
	orders  *stubOrders
	outbox  *captureOutbox
	router  *Router
	session *Session
	tenant  *model.Tenant
}

func newFixture(orders *stubOrders) *fixture {
	outbox := &captureOutbox{}
	machine := NewMachine(orders, outbox)
	return &fixture{
		orders:  orders,
		outbox:  outbox,
		router:  NewRouter(machine.Routes()),
		session: NewStore().Get("tenant-1", "5215512345678"),
		tenant:  &model.Tenant{ID: "tenant-1", Name: "Tacos El Güero", MessagingEnabled: true},
	}
}

func (f *fixture) send(t *testing.T, text string) string {
	t.Helper()
	return f.sendMsg(t, model.InboundMessage{
		TenantID: "tenant-1",
		UserID:   "5215512345678",
		Text:     text,
	})
}

func (f *fixture) sendImage(t *testing.T) string {
	t.Helper()
	return f.sendMsg(t, model.InboundMessage{
		TenantID: "tenant-1",
		UserID:   "5215512345678",
		HasImage: true,
	})
}

func (f *fixture) sendMsg(t *testing.T, msg model.InboundMessage) string {
	t.Helper()
	route, err := f.router.Dispatch(context.Background(), &Ctx{
		Session: f.session,
		Tenant:  f.tenant,
		Msg:     msg,
	})
	require.NoError(t, err)
	return route
}

func webOrder() *model.Order {
	addr := "Av. Insurgentes Sur 1234, Col. Del Valle"
	return &model.Order{
		ID:              "ord-1",
		TenantID:        "tenant-1",
		ShortCode:       "1234",
		CustomerPhone:   "5215512345678",
		Origin:          model.OrderOriginWeb,
		Status:          model.OrderStatusPendingPayment,
		TotalCents:      25990,
		DeliveryAddress: &addr,
	}
}

func chatOrder() *model.Order {
	o := webOrder()
	o.Origin = model.OrderOriginChat
	o.DeliveryAddress = nil
	return o
}

func TestGreeting(t *testing.T) {
	t.Run("resets to the main menu", func(t *testing.T) {
		f := newFixture(&stubOrders{})

		route := f.send(t, "Hola")

		assert.Equal(t, "greeting", route)
		assert.Equal(t, model.StepMainMenu, f.session.Step())
		assert.Contains(t, f.outbox.Last(t), "1️⃣ Ver catálogo")
	})

	t.Run("matches greeting with trailing text", func(t *testing.T) {
		f := newFixture(&stubOrders{})

		route := f.send(t, "hola, quiero hacer un pedido")

		assert.Equal(t, "greeting", route)
		assert.Equal(t, model.StepMainMenu, f.session.Step())
	})

	t.Run("matches accented greeting", func(t *testing.T) {
		f := newFixture(&stubOrders{})

		route := f.send(t, "  ¡HOLA!  ")

		assert.Equal(t, "greeting", route)
	})
}

func TestCommands(t *testing.T) {
	t.Run("catalog", func(t *testing.T) {
		f := newFixture(&stubOrders{})
		f.session.SetStep(model.StepMainMenu)

		route := f.send(t, "1")

		assert.Equal(t, "command", route)
		assert.Contains(t, f.outbox.Last(t), "catálogo")
		assert.Equal(t, model.StepMainMenu, f.session.Step())
	})

	t.Run("order status moves to waiting_order_code", func(t *testing.T) {
		f := newFixture(&stubOrders{})

		route := f.send(t, "2")

		assert.Equal(t, "command", route)
		assert.Equal(t, model.StepWaitingOrderCode, f.session.Step())
		assert.Contains(t, f.outbox.Last(t), "código")
	})

	t.Run("my orders lists recent orders", func(t *testing.T) {
		f := newFixture(&stubOrders{recent: []model.Order{*webOrder()}})

		route := f.send(t, "mis pedidos")

		assert.Equal(t, "command", route)
		assert.Contains(t, f.outbox.Last(t), "#1234")
	})

	t.Run("my orders with none", func(t *testing.T) {
		f := newFixture(&stubOrders{})

		f.send(t, "3")

		assert.Contains(t, f.outbox.Last(t), "no tienes pedidos")
	})

	t.Run("hours and help", func(t *testing.T) {
		f := newFixture(&stubOrders{})
		f.tenant.BusinessHours = "Lunes a viernes, 10:00 a 18:00"

		f.send(t, "horarios")
		assert.Contains(t, f.outbox.Last(t), "10:00 a 18:00")

		f.send(t, "ayuda")
		assert.Contains(t, f.outbox.Last(t), "ayudarte")
	})
}

func TestOrderCodeLookup(t *testing.T) {
	t.Run("found order returns status and resets to welcome", func(t *testing.T) {
		f := newFixture(&stubOrders{byCode: map[string]*model.Order{"1234": webOrder()}})
		f.session.SetStep(model.StepWaitingOrderCode)

		route := f.send(t, "1234")

		assert.Equal(t, "order_code", route)
		assert.Equal(t, model.StepWelcome, f.session.Step())
		assert.Contains(t, f.outbox.Last(t), "pendiente de pago")
	})

	t.Run("unknown code still resets to welcome", func(t *testing.T) {
		f := newFixture(&stubOrders{})
		f.session.SetStep(model.StepWaitingOrderCode)

		f.send(t, "9999")

		assert.Equal(t, model.StepWelcome, f.session.Step())
		assert.Contains(t, f.outbox.Last(t), "No encontré")
	})

	t.Run("lookup failure apologizes and resets to welcome", func(t *testing.T) {
		f := newFixture(&stubOrders{findErr: errors.New("db down")})
		f.session.SetStep(model.StepWaitingOrderCode)

		f.send(t, "1234")

		assert.Equal(t, model.StepWelcome, f.session.Step())
		assert.Contains(t, f.outbox.Last(t), "tuvimos un problema")
	})

	t.Run("non-numeric text while waiting falls through", func(t *testing.T) {
		f := newFixture(&stubOrders{})
		f.session.SetStep(model.StepWaitingOrderCode)

		route := f.send(t, "no me acuerdo")

		assert.Equal(t, "fallback", route)
	})
}

func TestOrderMarker(t *testing.T) {
	t.Run("starts the confirmation flow", func(t *testing.T) {
		f := newFixture(&stubOrders{byCode: map[string]*model.Order{"1234": webOrder()}})

		route := f.send(t, "Nuevo pedido #1234")

		assert.Equal(t, "order_marker", route)
		assert.Equal(t, model.StepOrderReceived, f.session.Step())
		require.NotNil(t, f.session.PendingOrder())
		assert.Equal(t, "1234", f.session.PendingOrder().ShortCode)
		assert.Contains(t, f.outbox.Last(t), "$259.90")
	})

	t.Run("preempts an active flow", func(t *testing.T) {
		f := newFixture(&stubOrders{byCode: map[string]*model.Order{"1234": webOrder()}})
		f.session.SetStep(model.StepAwaitingAddress)

		route := f.send(t, "nuevo pedido #1234")

		assert.Equal(t, "order_marker", route)
		assert.Equal(t, model.StepOrderReceived, f.session.Step())
	})

	t.Run("unknown order leaves the session untouched", func(t *testing.T) {
		f := newFixture(&stubOrders{})

		f.send(t, "Nuevo pedido #9999")

		assert.Equal(t, model.StepWelcome, f.session.Step())
		assert.Nil(t, f.session.PendingOrder())
		assert.Contains(t, f.outbox.Last(t), "No encontré")
	})
}

func TestConfirmation(t *testing.T) {
	t.Run("yes on a web order with address goes to payment", func(t *testing.T) {
		f := newFixture(&stubOrders{})
		f.session.SetPendingOrder(webOrder())
		f.session.SetStep(model.StepOrderReceived)

		route := f.send(t, "si")

		assert.Equal(t, "confirmation", route)
		assert.Equal(t, model.StepAwaitingPaymentChoice, f.session.Step())
		assert.Contains(t, f.outbox.Last(t), "¿Cómo quieres pagar?")
	})

	t.Run("yes on a chat order asks for the address first", func(t *testing.T) {
		f := newFixture(&stubOrders{})
		f.session.SetPendingOrder(chatOrder())
		f.session.SetStep(model.StepOrderReceived)

		f.send(t, "Sí")

		assert.Equal(t, model.StepAwaitingAddress, f.session.Step())
		assert.Contains(t, f.outbox.Last(t), "dirección")
	})

	t.Run("no cancels and resets", func(t *testing.T) {
		f := newFixture(&stubOrders{})
		f.session.SetPendingOrder(webOrder())
		f.session.SetStep(model.StepAwaitingConfirmation)

		f.send(t, "no")

		assert.Equal(t, model.StepWelcome, f.session.Step())
		assert.Nil(t, f.session.PendingOrder())
		assert.Contains(t, f.outbox.Last(t), "cancelado")
	})

	t.Run("anything else re-asks", func(t *testing.T) {
		f := newFixture(&stubOrders{})
		f.session.SetPendingOrder(webOrder())
		f.session.SetStep(model.StepOrderReceived)

		f.send(t, "tal vez")

		assert.Equal(t, model.StepOrderReceived, f.session.Step())
		assert.Contains(t, f.outbox.Last(t), "Responde *si*")
	})
}

func TestAddress(t *testing.T) {
	t.Run("short address is rejected", func(t *testing.T) {
		f := newFixture(&stubOrders{})
		f.session.SetPendingOrder(chatOrder())
		f.session.SetStep(model.StepAwaitingAddress)

		f.send(t, "calle 5")

		assert.Equal(t, model.StepAwaitingAddress, f.session.Step())
		assert.Contains(t, f.outbox.Last(t), "muy corta")
	})

	t.Run("valid address is recorded and flow advances", func(t *testing.T) {
		orders := &stubOrders{}
		f := newFixture(orders)
		f.session.SetPendingOrder(chatOrder())
		f.session.SetStep(model.StepAwaitingAddress)

		route := f.send(t, "Calle Morelos 742, Col. Centro, CP 06000")

		assert.Equal(t, "address", route)
		assert.Equal(t, model.StepAwaitingPaymentChoice, f.session.Step())
		assert.Equal(t, "Calle Morelos 742, Col. Centro, CP 06000", orders.addresses["ord-1"])
		assert.Equal(t, "Calle Morelos 742, Col. Centro, CP 06000", f.session.DeliveryAddress())
	})

	t.Run("persistence failure apologizes without advancing", func(t *testing.T) {
		f := newFixture(&stubOrders{updateErr: errors.New("db down")})
		f.session.SetPendingOrder(chatOrder())
		f.session.SetStep(model.StepAwaitingAddress)

		f.send(t, "Calle Morelos 742, Col. Centro")

		assert.Equal(t, model.StepAwaitingAddress, f.session.Step())
		assert.Contains(t, f.outbox.Last(t), "tuvimos un problema")
	})
}

func TestPaymentChoice(t *testing.T) {
	setup := func() *fixture {
		f := newFixture(&stubOrders{})
		f.session.SetPendingOrder(webOrder())
		f.session.SetStep(model.StepAwaitingPaymentChoice)
		return f
	}

	t.Run("online payment", func(t *testing.T) {
		f := setup()

		route := f.send(t, "1")

		assert.Equal(t, "payment_choice", route)
		assert.Equal(t, model.StepAwaitingPaymentProof, f.session.Step())
		assert.Equal(t, model.PaymentOnline, f.session.PaymentMethod())
		assert.Contains(t, f.outbox.Last(t), "tiendalink.app/pay/ord-1")
	})

	t.Run("bank transfer", func(t *testing.T) {
		f := setup()

		f.send(t, "2")

		assert.Equal(t, model.StepAwaitingPaymentProof, f.session.Step())
		assert.Equal(t, model.PaymentTransfer, f.session.PaymentMethod())
		assert.Contains(t, f.outbox.Last(t), "CLABE")
	})

	t.Run("cash completes the flow", func(t *testing.T) {
		f := setup()

		f.send(t, "3")

		assert.Equal(t, model.StepWelcome, f.session.Step())
		assert.Nil(t, f.session.PendingOrder())
		assert.Contains(t, f.outbox.Last(t), "efectivo contra entrega")
	})

	t.Run("cancel resets", func(t *testing.T) {
		f := setup()

		f.send(t, "4")

		assert.Equal(t, model.StepWelcome, f.session.Step())
		assert.Contains(t, f.outbox.Last(t), "cancelado")
	})

	t.Run("unrecognized input re-shows the payment menu", func(t *testing.T) {
		f := setup()

		f.send(t, "paypal")

		assert.Equal(t, model.StepAwaitingPaymentChoice, f.session.Step())
		assert.Contains(t, f.outbox.Last(t), "¿Cómo quieres pagar?")
	})
}

func TestPaymentProof(t *testing.T) {
	setup := func() *fixture {
		f := newFixture(&stubOrders{})
		f.session.SetPendingOrder(webOrder())
		f.session.SetPaymentMethod(model.PaymentTransfer)
		f.session.SetStep(model.StepAwaitingPaymentProof)
		return f
	}

	t.Run("image completes the flow", func(t *testing.T) {
		f := setup()

		route := f.sendImage(t)

		assert.Equal(t, "payment_proof", route)
		assert.Equal(t, model.StepWelcome, f.session.Step())
		assert.Contains(t, f.outbox.Last(t), "comprobante")
	})

	t.Run("cambiar returns to the payment menu", func(t *testing.T) {
		f := setup()

		f.send(t, "cambiar")

		assert.Equal(t, model.StepAwaitingPaymentChoice, f.session.Step())
	})

	t.Run("text without image re-prompts", func(t *testing.T) {
		f := setup()

		f.send(t, "ya pagué")

		assert.Equal(t, model.StepAwaitingPaymentProof, f.session.Step())
		assert.Contains(t, f.outbox.Last(t), "imagen del comprobante")
	})
}

func TestFlowLockIn(t *testing.T) {
	t.Run("commands do not escape an active payment flow", func(t *testing.T) {
		f := newFixture(&stubOrders{})
		f.session.SetPendingOrder(webOrder())
		f.session.SetStep(model.StepAwaitingPaymentChoice)

		// "5" would be the help command outside a flow.
		route := f.send(t, "5")

		assert.Equal(t, "payment_choice", route)
		assert.Equal(t, model.StepAwaitingPaymentChoice, f.session.Step())
		assert.NotContains(t, f.outbox.Last(t), "ayudarte")
	})

	t.Run("greeting does not escape the address step", func(t *testing.T) {
		f := newFixture(&stubOrders{})
		f.session.SetPendingOrder(chatOrder())
		f.session.SetStep(model.StepAwaitingAddress)

		route := f.send(t, "hola")

		assert.Equal(t, "address", route)
		assert.Equal(t, model.StepAwaitingAddress, f.session.Step())
	})

	t.Run("greeting does escape after cash completion", func(t *testing.T) {
		f := newFixture(&stubOrders{})
		f.session.SetPendingOrder(webOrder())
		f.session.SetStep(model.StepAwaitingPaymentChoice)

		f.send(t, "3")
		route := f.send(t, "hola")

		assert.Equal(t, "greeting", route)
		assert.Equal(t, model.StepMainMenu, f.session.Step())
	})
}

func TestFallback(t *testing.T) {
	t.Run("unmatched text re-shows the menu without changing step", func(t *testing.T) {
		f := newFixture(&stubOrders{})

		route := f.send(t, "quiero unos tacos")

		assert.Equal(t, "fallback", route)
		assert.Equal(t, model.StepWelcome, f.session.Step())
		assert.Contains(t, f.outbox.Last(t), "1️⃣ Ver catálogo")
	})

	t.Run("dispatch is deterministic for the same input", func(t *testing.T) {
		first := newFixture(&stubOrders{})
		second := newFixture(&stubOrders{})

		r1 := first.send(t, "buenas tardes")
		r2 := second.send(t, "buenas tardes")

		assert.Equal(t, r1, r2)
	})
}
