package view

import (
	"time"

	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/services/rounds"
)

// Kind says which screen a client should show
type Kind string

const (
	// KindWaiting means the requested phase has not started yet
	KindWaiting Kind = "waiting"
	// KindPhase means the requested phase is the current one
	KindPhase Kind = "phase"
	// KindMovedOn means the game is past the requested phase; see NavigateTo
	KindMovedOn Kind = "moved_on"
	KindResults Kind = "results"
	// KindNotFound means the player key has no record in the session
	KindNotFound Kind = "not_found"
	// KindFinished means the session was ended and clients return to the lobby
	KindFinished Kind = "finished"
)

// SubPhase splits a round into its countdown and the exchange prompt after it
type SubPhase string

const (
	SubPhaseCountdown SubPhase = "countdown"
	SubPhaseExchange  SubPhase = "exchange"
)

// Mate is a player listed on someone else's screen
type Mate struct {
	Key  model.PlayerKey `json:"key"`
	Name string          `json:"name"`
}

// Card is what a player sees about themselves
type Card struct {
	Name string     `json:"name"`
	Team model.Team `json:"team,omitempty"`
	Role model.Role `json:"role,omitempty"`
}

// View is everything a client needs to draw one phase for one player
type View struct {
	Kind       Kind             `json:"kind"`
	PIN        model.PIN        `json:"pin"`
	PlayerKey  model.PlayerKey  `json:"player_key"`
	Phase      model.GameStatus `json:"phase"`
	Status     model.GameStatus `json:"status"`
	NavigateTo model.GameStatus `json:"navigate_to,omitempty"`
	IsCreator  bool             `json:"is_creator"`

	Card      *Card      `json:"card,omitempty"`
	Room      model.Room `json:"room,omitempty"`
	RoomMates []Mate     `json:"room_mates,omitempty"`

	// waiting room
	Roster   []Mate `json:"roster,omitempty"`
	CanStart bool   `json:"can_start,omitempty"`

	// rounds
	Round            int      `json:"round,omitempty"`
	SubPhase         SubPhase `json:"sub_phase,omitempty"`
	RemainingSeconds int      `json:"remaining_seconds,omitempty"`
	Hostages         int      `json:"hostages,omitempty"`
	HostageSchedule  []int    `json:"hostage_schedule,omitempty"`

	Result *rounds.Result `json:"result,omitempty"`
}

// Service projects session documents into per-player views
type Service struct {
	rules *rounds.Rules
}

func New(rules *rounds.Rules) *Service {
	return &Service{rules: rules}
}

// Render builds the view of the requested phase for one player. An empty
// requested phase means the session's current status.
func (s *Service) Render(sess *model.Session, key model.PlayerKey, requested model.GameStatus, now time.Time) *View {
	if requested == "" {
		requested = sess.Status
	}

	v := &View{
		PIN:       sess.PIN,
		PlayerKey: key,
		Phase:     requested,
		Status:    sess.Status,
		IsCreator: key.IsCreator(),
	}

	if sess.Status == model.StatusFinished {
		v.Kind = KindFinished
		return v
	}

	player := sess.GetPlayer(key)
	if player == nil {
		v.Kind = KindNotFound
		return v
	}
	v.Card = &Card{Name: player.Name}
	if player.Assignment != nil {
		v.Card.Team = player.Assignment.Team
		v.Card.Role = player.Assignment.Role
	}

	switch {
	case requested.Before(sess.Status):
		v.Kind = KindMovedOn
		v.NavigateTo = sess.Status
		return v
	case sess.Status.Before(requested):
		v.Kind = KindWaiting
		return v
	}

	switch sess.Status {
	case model.StatusNotStarted:
		v.Kind = KindPhase
		v.Roster = mates(sess, func(*model.Player) bool { return true })
		v.CanStart = v.IsCreator && len(sess.Players) >= model.MinPlayers
	case model.StatusResults:
		v.Kind = KindResults
		if res, err := rounds.Outcome(sess); err == nil {
			v.Result = res
		}
	default:
		if player.Assignment == nil {
			v.Kind = KindNotFound
			return v
		}
		v.Kind = KindPhase
		s.fillRoom(v, sess, player, now)
	}
	return v
}

// fillRoom adds the room, room mates and round timing for preparation and
// the three rounds. During round k players stand in their room from
// checkpoint k-1.
func (s *Service) fillRoom(v *View, sess *model.Session, player *model.Player, now time.Time) {
	k := sess.Status.Round()
	checkpoint := 0
	if k > 0 {
		checkpoint = k - 1
	}

	v.Room = player.Assignment.Rooms[checkpoint]
	v.RoomMates = mates(sess, func(p *model.Player) bool {
		return p.Assignment != nil && p.Assignment.Rooms[checkpoint] == v.Room
	})

	schedule := rounds.HostageSchedule(len(sess.Players))
	v.HostageSchedule = schedule[:]

	if k == 0 {
		return
	}
	v.Round = k
	v.Hostages = s.rules.Hostages(len(sess.Players), k)

	remaining := s.rules.Duration(k) - now.Sub(sess.Info.StatusChangedAt)
	if remaining > 0 {
		v.SubPhase = SubPhaseCountdown
		v.RemainingSeconds = int((remaining + time.Second - 1) / time.Second)
	} else {
		v.SubPhase = SubPhaseExchange
	}
}

func mates(sess *model.Session, include func(*model.Player) bool) []Mate {
	var out []Mate
	for _, k := range sess.PlayerKeys() {
		p := sess.Players[k]
		if include(p) {
			out = append(out, Mate{Key: k, Name: p.Name})
		}
	}
	return out
}
