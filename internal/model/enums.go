package model

type ConnectionStatus string

const (
	ConnectionDisconnected   ConnectionStatus = "disconnected"
	ConnectionPendingPairing ConnectionStatus = "pending_pairing"
	ConnectionConnecting     ConnectionStatus = "connecting"
	ConnectionConnected      ConnectionStatus = "connected"
)

// Step is the discriminator of the per-user conversation state machine.
// Which single input is awaited follows from the step itself, so "only one
// pending expectation at a time" holds by construction.
type Step string

const (
	StepWelcome               Step = "welcome"
	StepMainMenu              Step = "main_menu"
	StepWaitingOrderCode      Step = "waiting_order_code"
	StepOrderReceived         Step = "order_received"
	StepAwaitingConfirmation  Step = "awaiting_confirmation"
	StepAwaitingAddress       Step = "awaiting_address"
	StepAwaitingPaymentChoice Step = "awaiting_payment_choice"
	StepAwaitingPaymentProof  Step = "awaiting_payment_proof"
)

type PaymentMethod string

const (
	PaymentOnline   PaymentMethod = "online"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCash     PaymentMethod = "cash"
)

type OrderOrigin string

const (
	OrderOriginWeb  OrderOrigin = "web"
	OrderOriginChat OrderOrigin = "chat"
)

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusPreparing      OrderStatus = "preparing"
	OrderStatusOutForDelivery OrderStatus = "out_for_delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)
