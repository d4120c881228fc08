package model

import "time"

// Player is owned by exactly one room and mutated only through room
// operations, never by the delivery layer.
type Player struct {
	ConnID   ConnID
	Name     string
	Score    int
	Solved   bool
	IsHost   bool
	JoinedAt time.Time
}
