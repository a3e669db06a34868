package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chess_relay_requests_total",
			Help: "HTTP requests served, by endpoint and status code",
		},
		[]string{"endpoint", "status"},
	)
	PlayersRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chess_relay_players_registered_total",
			Help: "Handles issued by /register",
		},
	)
	GamesStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chess_relay_games_started_total",
			Help: "Waiting games claimed by a second player",
		},
	)
	GamesFinished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chess_relay_games_finished_total",
			Help: "Games that left the active table, by reason",
		},
		[]string{"reason"},
	)
	MovesRelayed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chess_relay_moves_total",
			Help: "Moves accepted and moves delivered to the opponent",
		},
		[]string{"direction"},
	)
	Swept = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chess_relay_swept_total",
			Help: "Idle records dropped by the janitor, by kind",
		},
		[]string{"kind"},
	)
)

const (
	MoveSubmitted = "submitted"
	MoveDelivered = "delivered"
)

func init() {
	prometheus.MustRegister(Requests)
	prometheus.MustRegister(PlayersRegistered)
	prometheus.MustRegister(GamesStarted)
	prometheus.MustRegister(GamesFinished)
	prometheus.MustRegister(MovesRelayed)
	prometheus.MustRegister(Swept)
}
