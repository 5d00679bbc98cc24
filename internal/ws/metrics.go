package ws

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	roomsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "game_rooms_active",
		Help: "Rooms whose actor is running",
	})
	roomsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_rooms_created_total",
			Help: "Rooms created or restored",
		},
		[]string{"game"},
	)
	roomsClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_rooms_closed_total",
			Help: "Rooms closed by reason",
		},
		[]string{"reason"},
	)
	movesAccepted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_moves_total",
			Help: "Accepted moves",
		},
		[]string{"game", "action"},
	)
	movesRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_moves_rejected_total",
			Help: "Rejected moves by code",
		},
		[]string{"game", "code"},
	)
	reconnects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "game_reconnects_total",
		Help: "Players that reclaimed their seat within the grace period",
	})
	forfeits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_forfeits_total",
			Help: "Seats forfeited by leaving or grace expiry",
		},
		[]string{"game", "cause"},
	)
	integrityFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_integrity_failures_total",
			Help: "Rooms closed because an invariant broke",
		},
		[]string{"game"},
	)
	connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections",
		Help: "Open websocket connections",
	})
	messagesDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_messages_dropped_total",
		Help: "Outbound messages dropped because a client buffer was full",
	})
	messagesLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ws_messages_rate_limited_total",
		Help: "Inbound messages refused by the per connection limiter",
	})
)

func init() {
	prometheus.MustRegister(
		roomsActive,
		roomsCreated,
		roomsClosed,
		movesAccepted,
		movesRejected,
		reconnects,
		forfeits,
		integrityFailures,
		connections,
		messagesDropped,
		messagesLimited,
	)
}
