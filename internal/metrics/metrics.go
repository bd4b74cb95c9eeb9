package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	InboundProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wabot_inbound_messages_total",
		Help: "Inbound messages that reached the conversation router, by route.",
	}, []string{"route"})

	InboundDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wabot_inbound_dropped_total",
		Help: "Inbound messages dropped before the router, by reason.",
	}, []string{"reason"})

	OutboundSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wabot_outbound_sent_total",
		Help: "Outbound messages successfully sent.",
	})

	OutboundDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wabot_outbound_dropped_total",
		Help: "Outbound messages dropped after a send failure.",
	})

	ReconnectAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wabot_reconnect_attempts_total",
		Help: "Automatic reconnection attempts after abnormal closures.",
	})

	ConnectedTenants = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wabot_connected_tenants",
		Help: "Tenants currently in connected state.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
