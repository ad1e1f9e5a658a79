package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PlayerKey identifies a player within one session: "creator" or "joinerN"
type PlayerKey string

// CreatorKey is the key of the player who created the session
const CreatorKey PlayerKey = "creator"

const joinerPrefix = "joiner"

// JoinerKey mints the key for the n-th joiner (n starts at 1)
func JoinerKey(n int) PlayerKey {
	return PlayerKey(fmt.Sprintf("%s%d", joinerPrefix, n))
}

// IsCreator reports whether the key belongs to the session creator
func (k PlayerKey) IsCreator() bool {
	return k == CreatorKey
}

// joinerOrdinal returns N for "joinerN", 0 for the creator and -1 otherwise
func (k PlayerKey) joinerOrdinal() int {
	if k == CreatorKey {
		return 0
	}
	rest, ok := strings.CutPrefix(string(k), joinerPrefix)
	if !ok {
		return -1
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return -1
	}
	return n
}

// Less orders the creator first, then joiners by N, then anything else lexically
func (k PlayerKey) Less(other PlayerKey) bool {
	a, b := k.joinerOrdinal(), other.joinerOrdinal()
	switch {
	case a >= 0 && b >= 0:
		return a < b
	case a >= 0:
		return true
	case b >= 0:
		return false
	}
	return k < other
}

type Team string

const (
	TeamBlue Team = "Blue"
	TeamRed  Team = "Red"
	TeamGrey Team = "Grey"
)

type Role string

const (
	RolePresident  Role = "President"
	RoleBomber     Role = "Bomber"
	RoleTeamMember Role = "Team Member"
	RoleGambler    Role = "Gambler"
)

// Room is one of the two virtual rooms, numbered 1 and 2
type Room int

const (
	Room1 Room = 1
	Room2 Room = 2
)

func (r Room) Valid() bool {
	return r == Room1 || r == Room2
}

// Flip returns the other room
func (r Room) Flip() Room {
	if r == Room1 {
		return Room2
	}
	return Room1
}

// RoomHistory records a player's room at each checkpoint: index 0 is the
// initial room, 1..2 the rooms after rounds 1 and 2, and 3 the final room.
type RoomHistory [NumRounds + 1]Room

// NewRoomHistory returns a history that never leaves the given room
func NewRoomHistory(r Room) RoomHistory {
	return RoomHistory{r, r, r, r}
}

// Final returns the room the player ends the game in
func (h RoomHistory) Final() Room {
	return h[NumRounds]
}

// Valid reports whether every checkpoint holds a real room
func (h RoomHistory) Valid() bool {
	for _, r := range h {
		if !r.Valid() {
			return false
		}
	}
	return true
}

// Assignment is what a player receives when the game starts
type Assignment struct {
	Team  Team
	Role  Role
	Rooms RoomHistory
}

// Player is a seat in a session. A nil Assignment means the game has not
// started for this player yet.
type Player struct {
	Name       string
	Assignment *Assignment
}

func (p *Player) IsAssigned() bool {
	return p.Assignment != nil
}

// Clone returns a deep copy of the player
func (p *Player) Clone() *Player {
	c := &Player{Name: p.Name}
	if p.Assignment != nil {
		a := *p.Assignment
		c.Assignment = &a
	}
	return c
}

// playerDocument is the flat document shape players are stored in
type playerDocument struct {
	Name string `json:"name"`
	Team Team   `json:"team,omitempty"`
	Role Role   `json:"role,omitempty"`
	Room []Room `json:"Room,omitempty"`
}

func (p Player) MarshalJSON() ([]byte, error) {
	doc := playerDocument{Name: p.Name}
	if p.Assignment != nil {
		doc.Team = p.Assignment.Team
		doc.Role = p.Assignment.Role
		doc.Room = p.Assignment.Rooms[:]
	}
	return json.Marshal(doc)
}

// UnmarshalJSON reads the flat document shape. A record missing any of team,
// role or a full room history is treated as unassigned.
func (p *Player) UnmarshalJSON(data []byte) error {
	var doc playerDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	p.Name = doc.Name
	p.Assignment = nil
	if doc.Team == "" || doc.Role == "" || len(doc.Room) != len(RoomHistory{}) {
		return nil
	}
	a := &Assignment{Team: doc.Team, Role: doc.Role}
	copy(a.Rooms[:], doc.Room)
	p.Assignment = a
	return nil
}
