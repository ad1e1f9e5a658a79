package model

import "time"

// EventType identifies a message pushed to session subscribers
type EventType string

const (
	EventConnected     EventType = "connected"
	EventSnapshot      EventType = "snapshot"
	EventSessionClosed EventType = "session_closed"
)

// GameSummary is the archived outcome of a finished game
type GameSummary struct {
	PIN         PIN
	Winner      Team
	PlayerCount int
	Players     []PlayerOutcome
	CreatedAt   time.Time
	FinishedAt  time.Time
}

// PlayerOutcome is one player's final assignment in a GameSummary
type PlayerOutcome struct {
	Key   PlayerKey
	Name  string
	Team  Team
	Role  Role
	Rooms RoomHistory
}
