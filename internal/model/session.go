package model

import (
	"sort"
	"time"
)

// PIN is the five digit code players use to join a session
type PIN string

const (
	MinPIN = 10000
	MaxPIN = 99999
)

// Valid reports whether the PIN is exactly five digits in range
func (p PIN) Valid() bool {
	if len(p) != 5 {
		return false
	}
	for _, c := range p {
		if c < '0' || c > '9' {
			return false
		}
	}
	return p[0] != '0'
}

// MinPlayers is the smallest roster that can be assigned teams
const MinPlayers = 2

// GameInfo carries bookkeeping that is not part of the game rules
type GameInfo struct {
	CreatedAt       time.Time `json:"created_at"`
	StatusChangedAt time.Time `json:"status_changed_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	// NextJoiner is the ordinal the next joiner key will be minted with
	NextJoiner int `json:"next_joiner"`
	// Version increases by one on every committed write
	Version int64 `json:"version"`
}

// Session is the single document describing one game
type Session struct {
	PIN     PIN                   `json:"pin"`
	Status  GameStatus            `json:"gameStatus"`
	Players map[PlayerKey]*Player `json:"players"`
	Info    GameInfo              `json:"game_info"`
}

// NewSession creates a not-started session holding only the creator
func NewSession(pin PIN, creatorName string, now time.Time) *Session {
	return &Session{
		PIN:    pin,
		Status: StatusNotStarted,
		Players: map[PlayerKey]*Player{
			CreatorKey: {Name: creatorName},
		},
		Info: GameInfo{
			CreatedAt:       now,
			StatusChangedAt: now,
			UpdatedAt:       now,
			NextJoiner:      1,
		},
	}
}

// GetPlayer returns the player with the given key, or nil if absent
func (s *Session) GetPlayer(key PlayerKey) *Player {
	return s.Players[key]
}

// PlayerKeys returns all keys, creator first and joiners in join order
func (s *Session) PlayerKeys() []PlayerKey {
	keys := make([]PlayerKey, 0, len(s.Players))
	for k := range s.Players {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// FindRole returns the first player holding the given role
func (s *Session) FindRole(role Role) (PlayerKey, *Player, bool) {
	for _, k := range s.PlayerKeys() {
		p := s.Players[k]
		if p.Assignment != nil && p.Assignment.Role == role {
			return k, p, true
		}
	}
	return "", nil, false
}

// SetStatus moves the session to a new status and stamps the change time
func (s *Session) SetStatus(status GameStatus, now time.Time) {
	s.Status = status
	s.Info.StatusChangedAt = now
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	c := *s
	c.Players = make(map[PlayerKey]*Player, len(s.Players))
	for k, p := range s.Players {
		c.Players[k] = p.Clone()
	}
	return &c
}
