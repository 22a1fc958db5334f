package ws

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chessroom_ws_connections",
			Help: "Open websocket connections",
		},
	)
	RoomsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chessroom_rooms_active",
			Help: "Rooms held in memory",
		},
	)
	EventsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chessroom_ws_events_total",
			Help: "Inbound websocket events by type",
		},
		[]string{"event"},
	)
	MovesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chessroom_moves_total",
			Help: "Move attempts by outcome",
		},
		[]string{"outcome"},
	)
	GamesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chessroom_games_finished_total",
			Help: "Finished games by result type",
		},
		[]string{"result"},
	)
	FramesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chessroom_ws_frames_dropped_total",
			Help: "Frames dropped by flood control or a full send queue",
		},
		[]string{"direction"},
	)
)

func init() {
	prometheus.MustRegister(ConnectionsActive)
	prometheus.MustRegister(RoomsActive)
	prometheus.MustRegister(EventsReceived)
	prometheus.MustRegister(MovesTotal)
	prometheus.MustRegister(GamesFinished)
	prometheus.MustRegister(FramesDropped)
}
