package response

import (
	"time"

	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/services/rounds"
	"github.com/mcoot/tworoomsboom/internal/services/seat"
)

// Player represents a player in API responses
type Player struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Team  string `json:"team,omitempty"`
	Role  string `json:"role,omitempty"`
	Rooms []int  `json:"rooms,omitempty"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(key model.PlayerKey, p *model.Player) Player {
	out := Player{Key: string(key), Name: p.Name}
	if p.Assignment != nil {
		out.Team = string(p.Assignment.Team)
		out.Role = string(p.Assignment.Role)
		out.Rooms = roomsFromModel(p.Assignment.Rooms)
	}
	return out
}

func roomsFromModel(h model.RoomHistory) []int {
	rooms := make([]int, len(h))
	for i, r := range h {
		rooms[i] = int(r)
	}
	return rooms
}

// Session represents a session document in API responses. Players are
// listed creator first, then joiners in join order.
type Session struct {
	PIN             string    `json:"pin"`
	Status          string    `json:"status"`
	Players         []Player  `json:"players"`
	CreatedAt       time.Time `json:"created_at"`
	StatusChangedAt time.Time `json:"status_changed_at"`
	Version         int64     `json:"version"`
}

// SessionFromModel converts a model.Session
func SessionFromModel(s *model.Session) Session {
	out := Session{
		PIN:             string(s.PIN),
		Status:          string(s.Status),
		Players:         make([]Player, 0, len(s.Players)),
		CreatedAt:       s.Info.CreatedAt,
		StatusChangedAt: s.Info.StatusChangedAt,
		Version:         s.Info.Version,
	}
	for _, key := range s.PlayerKeys() {
		out.Players = append(out.Players, PlayerFromModel(key, s.Players[key]))
	}
	return out
}

// SeatResponse is returned when a client takes a seat in a session
type SeatResponse struct {
	Session   Session   `json:"session"`
	PlayerKey string    `json:"player_key"`
	SeatToken string    `json:"seat_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SeatResponseFromModel creates a SeatResponse
func SeatResponseFromModel(s *model.Session, st *seat.Seat) SeatResponse {
	return SeatResponse{
		Session:   SessionFromModel(s),
		PlayerKey: string(st.PlayerKey),
		SeatToken: st.Token,
		ExpiresAt: st.ExpiresAt,
	}
}

// Result is the outcome board of a game
type Result struct {
	PIN     string         `json:"pin"`
	Status  string         `json:"status"`
	Players []Player       `json:"players"`
	Result  *rounds.Result `json:"result"`
}

// ResultFromModel creates a Result
func ResultFromModel(s *model.Session, res *rounds.Result) Result {
	return Result{
		PIN:     string(s.PIN),
		Status:  string(s.Status),
		Players: SessionFromModel(s).Players,
		Result:  res,
	}
}

// GameSummary represents an archived game
type GameSummary struct {
	PIN         string    `json:"pin"`
	Winner      string    `json:"winner"`
	PlayerCount int       `json:"player_count"`
	Players     []Player  `json:"players"`
	CreatedAt   time.Time `json:"created_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// GameSummaryFromModel converts a model.GameSummary
func GameSummaryFromModel(g model.GameSummary) GameSummary {
	out := GameSummary{
		PIN:         string(g.PIN),
		Winner:      string(g.Winner),
		PlayerCount: g.PlayerCount,
		Players:     make([]Player, 0, len(g.Players)),
		CreatedAt:   g.CreatedAt,
		FinishedAt:  g.FinishedAt,
	}
	for _, p := range g.Players {
		player := Player{Key: string(p.Key), Name: p.Name, Team: string(p.Team), Role: string(p.Role)}
		if p.Rooms.Valid() {
			player.Rooms = roomsFromModel(p.Rooms)
		}
		out.Players = append(out.Players, player)
	}
	return out
}

// History lists archived games, newest first
type History struct {
	Games []GameSummary `json:"games"`
}
