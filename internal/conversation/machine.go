package conversation

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/tiendalink/wabot-server-go/internal/model"
)

// Outbox is where handlers put replies. Implemented by the dispatcher.
type Outbox interface {
	Enqueue(tenantID, recipient, text string)
}

// OrderDirectory is the order-data collaborator. Implemented by the order
// repository; failures are converted into an apology reply at the handler
// boundary and never corrupt session state.
type OrderDirectory interface {
	FindByShortCode(ctx context.Context, tenantID, shortCode string) (*model.Order, error)
	SetDeliveryAddress(ctx context.Context, orderID, address string) error
	ListRecentByCustomer(ctx context.Context, tenantID, customerPhone string, limit int) ([]model.Order, error)
}

const recentOrdersLimit = 5

// Machine owns the checkout/support flow handlers. Routes() assembles them
// in the fixed priority order; that order is the central correctness
// property of this package and must not be reshuffled.
type Machine struct {
	orders OrderDirectory
	outbox Outbox
}

func NewMachine(orders OrderDirectory, outbox Outbox) *Machine {
	return &Machine{orders: orders, outbox: outbox}
}

// Routes returns the transition table. Context-bound routes (2–5, 8) are
// evaluated before context-free ones (6, 7, 9); the external order marker
// preempts everything because it originates from the trusted checkout
// system, not from end-user free text.
func (m *Machine) Routes() []Route {
	return []Route{
		{
			Name:   "order_marker",
			Match:  func(c *Ctx) bool { return matchOrderMarker(c.Msg.Text) != "" },
			Handle: m.handleOrderMarker,
		},
		{
			Name:   "payment_choice",
			Match:  func(c *Ctx) bool { return c.Session.Step() == model.StepAwaitingPaymentChoice },
			Handle: m.handlePaymentChoice,
		},
		{
			Name:   "payment_proof",
			Match:  func(c *Ctx) bool { return c.Session.Step() == model.StepAwaitingPaymentProof },
			Handle: m.handlePaymentProof,
		},
		{
			Name: "confirmation",
			Match: func(c *Ctx) bool {
				step := c.Session.Step()
				return step == model.StepOrderReceived || step == model.StepAwaitingConfirmation
			},
			Handle: m.handleConfirmation,
		},
		{
			Name:   "address",
			Match:  func(c *Ctx) bool { return c.Session.Step() == model.StepAwaitingAddress },
			Handle: m.handleAddress,
		},
		{
			Name:   "greeting",
			Match:  func(c *Ctx) bool { return isGreeting(c.Norm) },
			Handle: m.handleGreeting,
		},
		{
			Name:   "command",
			Match:  func(c *Ctx) bool { return commandFor(c.Norm) != "" },
			Handle: m.handleCommand,
		},
		{
			Name: "order_code",
			Match: func(c *Ctx) bool {
				return c.Session.Step() == model.StepWaitingOrderCode && isOrderCode(c.Msg.Text)
			},
			Handle: m.handleOrderCode,
		},
		{
			Name:   "fallback",
			Match:  func(c *Ctx) bool { return true },
			Handle: m.handleFallback,
		},
	}
}

func (m *Machine) reply(c *Ctx, text string) {
	m.outbox.Enqueue(c.Msg.TenantID, c.Msg.UserID, text)
}

func (m *Machine) apologize(c *Ctx, operation string, err error) {
	log.Error().Err(err).
		Str("tenantId", c.Msg.TenantID).
		Str("userId", c.Msg.UserID).
		Str("operation", operation).
		Msg("collaborator call failed")
	m.reply(c, apologyText())
}

// Priority 1: a trusted checkout-flow marker forces the session into
// order_received no matter what was in flight.
func (m *Machine) handleOrderMarker(ctx context.Context, c *Ctx) error {
	code := matchOrderMarker(c.Msg.Text)

	order, err := m.orders.FindByShortCode(ctx, c.Msg.TenantID, code)
	if err != nil {
		m.apologize(c, "order lookup", err)
		return nil
	}
	if order == nil {
		log.Warn().
			Str("tenantId", c.Msg.TenantID).
			Str("shortCode", code).
			Msg("order marker referenced unknown order")
		m.reply(c, orderNotFound(code))
		return nil
	}

	c.Session.SetPendingOrder(order)
	c.Session.SetStep(model.StepOrderReceived)
	m.reply(c, orderReceivedAck(order))
	return nil
}

// Priority 2: while a payment choice is pending, the message is strictly a
// menu selection.
func (m *Machine) handlePaymentChoice(ctx context.Context, c *Ctx) error {
	order := c.Session.PendingOrder()
	if order == nil {
		// Torn flow (evicted order ref); bail out to welcome.
		c.Session.Reset()
		m.reply(c, menuText(c.Tenant.Name))
		return nil
	}

	switch {
	case c.Norm == "1":
		c.Session.SetPaymentMethod(model.PaymentOnline)
		c.Session.SetStep(model.StepAwaitingPaymentProof)
		m.reply(c, onlinePaymentText(order))
	case c.Norm == "2":
		c.Session.SetPaymentMethod(model.PaymentTransfer)
		c.Session.SetStep(model.StepAwaitingPaymentProof)
		m.reply(c, transferInstructionsText(order))
	case c.Norm == "3":
		c.Session.SetPaymentMethod(model.PaymentCash)
		c.Session.Reset()
		m.reply(c, cashConfirmedText(order))
	case c.Norm == "4" || isCancel(c.Norm):
		c.Session.Reset()
		m.reply(c, cancelledText())
	case isChangeMethod(c.Norm):
		m.reply(c, paymentMenuText())
	default:
		m.reply(c, paymentMenuText())
	}
	return nil
}

// Priority 3: awaiting the payment-proof image.
func (m *Machine) handlePaymentProof(ctx context.Context, c *Ctx) error {
	switch {
	case c.Msg.HasImage:
		c.Session.Reset()
		m.reply(c, proofReceivedText())
	case isChangeMethod(c.Norm):
		c.Session.SetStep(model.StepAwaitingPaymentChoice)
		m.reply(c, paymentMenuText())
	default:
		m.reply(c, proofRepromptText())
	}
	return nil
}

// Priority 4: yes/no on the pending order.
func (m *Machine) handleConfirmation(ctx context.Context, c *Ctx) error {
	order := c.Session.PendingOrder()
	if order == nil {
		c.Session.Reset()
		m.reply(c, menuText(c.Tenant.Name))
		return nil
	}

	switch {
	case isAffirmative(c.Norm):
		if order.Origin == model.OrderOriginWeb && order.DeliveryAddress != nil && *order.DeliveryAddress != "" {
			c.Session.SetStep(model.StepAwaitingPaymentChoice)
			m.reply(c, paymentMenuText())
		} else {
			c.Session.SetStep(model.StepAwaitingAddress)
			m.reply(c, addressPromptText())
		}
	case isNegative(c.Norm):
		c.Session.Reset()
		m.reply(c, cancelledText())
	default:
		m.reply(c, confirmRepromptText())
	}
	return nil
}

// Priority 5: any plausible text is the delivery address.
func (m *Machine) handleAddress(ctx context.Context, c *Ctx) error {
	address := c.Msg.Text
	if len(address) < 10 {
		m.reply(c, addressTooShortText())
		return nil
	}

	order := c.Session.PendingOrder()
	if order == nil {
		c.Session.Reset()
		m.reply(c, menuText(c.Tenant.Name))
		return nil
	}

	if err := m.orders.SetDeliveryAddress(ctx, order.ID, address); err != nil {
		m.apologize(c, "record delivery address", err)
		return nil
	}

	c.Session.SetDeliveryAddress(address)
	c.Session.SetStep(model.StepAwaitingPaymentChoice)
	m.reply(c, paymentMenuText())
	return nil
}

// Priority 6: greetings reset to the main menu.
func (m *Machine) handleGreeting(ctx context.Context, c *Ctx) error {
	c.Session.SetStep(model.StepMainMenu)
	m.reply(c, menuText(c.Tenant.Name))
	return nil
}

func commandFor(normalized string) string {
	switch normalized {
	case "1", "catalogo", "ver catalogo", "menu":
		return "catalog"
	case "2", "estado", "estado de pedido", "rastrear", "rastrear pedido":
		return "order_status"
	case "3", "mis pedidos", "pedidos":
		return "my_orders"
	case "4", "horario", "horarios":
		return "hours"
	case "5", "ayuda", "help":
		return "help"
	}
	return ""
}

// Priority 7: fixed command vocabulary and number shortcuts.
func (m *Machine) handleCommand(ctx context.Context, c *Ctx) error {
	switch commandFor(c.Norm) {
	case "catalog":
		m.reply(c, catalogText(c.Tenant.Name))
	case "order_status":
		c.Session.SetStep(model.StepWaitingOrderCode)
		m.reply(c, orderCodePrompt())
	case "my_orders":
		orders, err := m.orders.ListRecentByCustomer(ctx, c.Msg.TenantID, c.Msg.UserID, recentOrdersLimit)
		if err != nil {
			m.apologize(c, "list recent orders", err)
			return nil
		}
		m.reply(c, ordersListText(orders))
	case "hours":
		m.reply(c, hoursText(c.Tenant.Name, c.Tenant.BusinessHours))
	case "help":
		m.reply(c, helpText())
	}
	return nil
}

// Priority 8: a 4-digit token while waiting_order_code triggers the lookup.
// The session returns to welcome whether or not the lookup succeeds.
func (m *Machine) handleOrderCode(ctx context.Context, c *Ctx) error {
	code := c.Norm
	c.Session.SetStep(model.StepWelcome)

	order, err := m.orders.FindByShortCode(ctx, c.Msg.TenantID, code)
	if err != nil {
		m.apologize(c, "order lookup", err)
		return nil
	}
	if order == nil {
		m.reply(c, orderNotFound(code))
		return nil
	}

	m.reply(c, orderStatusText(order))
	return nil
}

// Priority 9: anything else re-shows the menu without changing step.
func (m *Machine) handleFallback(ctx context.Context, c *Ctx) error {
	m.reply(c, menuText(c.Tenant.Name))
	return nil
}
