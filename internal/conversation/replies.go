package conversation

import (
	"fmt"
	"strings"

	"github.com/tiendalink/wabot-server-go/internal/model"
)

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func menuText(storeName string) string {
	return fmt.Sprintf(
		"¡Hola! Bienvenido a %s 👋\n\n"+
			"1️⃣ Ver catálogo\n"+
			"2️⃣ Estado de mi pedido\n"+
			"3️⃣ Mis pedidos\n"+
			"4️⃣ Horarios\n"+
			"5️⃣ Ayuda\n\n"+
			"Escribe el número de la opción que necesitas.",
		storeName,
	)
}

func catalogText(storeName string) string {
	return fmt.Sprintf(
		"Puedes ver nuestro catálogo completo y armar tu pedido aquí:\n"+
			"https://tiendalink.app/%s\n\n"+
			"Cuando completes tu compra recibirás la confirmación por este chat.",
		strings.ToLower(strings.ReplaceAll(storeName, " ", "-")),
	)
}

func orderCodePrompt() string {
	return "Claro, escríbeme el código de tu pedido (4 dígitos) y lo busco. 🔎"
}

func orderReceivedAck(o *model.Order) string {
	return fmt.Sprintf(
		"✅ Recibimos tu pedido #%s por %s.\n\n¿Lo confirmamos? (si / no)",
		o.ShortCode, formatCents(o.TotalCents),
	)
}

func orderNotFound(code string) string {
	return fmt.Sprintf("No encontré ningún pedido con el código %s. Verifica el código e inténtalo de nuevo.", code)
}

func orderStatusText(o *model.Order) string {
	status := map[model.OrderStatus]string{
		model.OrderStatusPendingPayment: "pendiente de pago",
		model.OrderStatusPaid:           "pagado",
		model.OrderStatusPreparing:      "en preparación",
		model.OrderStatusOutForDelivery: "en camino 🚚",
		model.OrderStatusDelivered:      "entregado ✅",
		model.OrderStatusCancelled:      "cancelado",
	}[o.Status]
	if status == "" {
		status = string(o.Status)
	}

	text := fmt.Sprintf("Tu pedido #%s está %s. Total: %s.", o.ShortCode, status, formatCents(o.TotalCents))
	if o.DeliveryAddress != nil && *o.DeliveryAddress != "" {
		text += fmt.Sprintf("\nEntrega en: %s", *o.DeliveryAddress)
	}
	return text
}

func ordersListText(orders []model.Order) string {
	if len(orders) == 0 {
		return "Todavía no tienes pedidos con nosotros. Escribe 1 para ver el catálogo. 🛍️"
	}

	var b strings.Builder
	b.WriteString("Tus últimos pedidos:\n")
	for _, o := range orders {
		fmt.Fprintf(&b, "\n#%s — %s — %s", o.ShortCode, formatCents(o.TotalCents), o.Status)
	}
	b.WriteString("\n\nEscribe 2 para consultar el estado de uno de ellos.")
	return b.String()
}

func hoursText(storeName, hours string) string {
	if hours == "" {
		hours = "Lunes a sábado, 9:00 a 19:00"
	}
	return fmt.Sprintf("Horarios de %s:\n%s", storeName, hours)
}

func helpText() string {
	return "Estoy aquí para ayudarte 🙂\n\n" +
		"Puedo mostrarte el catálogo, buscar el estado de un pedido o darte " +
		"nuestros horarios. Escribe *hola* en cualquier momento para volver al menú."
}

func paymentMenuText() string {
	return "¿Cómo quieres pagar?\n\n" +
		"1️⃣ Pago en línea\n" +
		"2️⃣ Transferencia bancaria\n" +
		"3️⃣ Efectivo contra entrega\n" +
		"4️⃣ Cancelar pedido\n\n" +
		"Escribe el número de la opción."
}

func onlinePaymentText(o *model.Order) string {
	return fmt.Sprintf(
		"Perfecto. Completa tu pago aquí:\nhttps://tiendalink.app/pay/%s\n\n"+
			"Cuando termines, envíame una captura del comprobante. 📸",
		o.ID,
	)
}

func transferInstructionsText(o *model.Order) string {
	return fmt.Sprintf(
		"Datos para tu transferencia de %s:\n\n"+
			"Banco: BBVA\nCLABE: 0123 4567 8901 2345 67\nConcepto: pedido %s\n\n"+
			"Cuando la realices, envíame una captura del comprobante. 📸",
		formatCents(o.TotalCents), o.ShortCode,
	)
}

func cashConfirmedText(o *model.Order) string {
	return fmt.Sprintf(
		"¡Listo! Tu pedido #%s queda confirmado con pago en efectivo contra entrega. "+
			"Te avisaremos por aquí cuando salga en camino. 🙌",
		o.ShortCode,
	)
}

func proofReceivedText() string {
	return "¡Gracias! Recibimos tu comprobante y está en verificación manual. " +
		"Te confirmaremos por aquí en cuanto quede validado. ✅"
}

func proofRepromptText() string {
	return "Necesito una imagen del comprobante para continuar. 📸\n" +
		"Envíala por aquí, o escribe *cambiar* para elegir otro método de pago."
}

func addressPromptText() string {
	return "¿A qué dirección entregamos tu pedido? 🏠\n" +
		"Incluye calle, número y colonia."
}

func addressTooShortText() string {
	return "Esa dirección parece muy corta. Escríbela completa por favor " +
		"(calle, número, colonia)."
}

func confirmRepromptText() string {
	return "¿Confirmamos tu pedido? Responde *si* para continuar o *no* para cancelarlo."
}

func cancelledText() string {
	return "Tu pedido fue cancelado. Si cambias de opinión, escribe *hola* y empezamos de nuevo. 👋"
}

func apologyText() string {
	return "Lo sentimos, tuvimos un problema procesando tu solicitud. " +
		"Inténtalo de nuevo en unos minutos. 🙏"
}

func throttleNoticeText(waitSeconds int) string {
	return fmt.Sprintf(
		"Estás enviando mensajes muy rápido. Espera %d segundos e inténtalo de nuevo. ⏳",
		waitSeconds,
	)
}
