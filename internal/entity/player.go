package entity

import "time"

type Player struct {
	ID           string    `json:"id"`
	Addr         string    `json:"addr,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}
