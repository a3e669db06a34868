package entity

import "time"

const ReasonResigned = "resigned"

// Result is the terminal record of a game that left the active table.
type Result struct {
	GameID     string    `json:"game_id"`
	Winner     string    `json:"winner"`
	Loser      string    `json:"loser"`
	Reason     string    `json:"reason"`
	FinishedAt time.Time `json:"finished_at"`
}
