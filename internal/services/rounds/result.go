package rounds

import (
	"fmt"

	"github.com/mcoot/tworoomsboom/internal/model"
)

// Checkpoint lists who was in each room at one point in the game
type Checkpoint struct {
	Room1 []model.PlayerKey `json:"room1"`
	Room2 []model.PlayerKey `json:"room2"`
}

// Result is the outcome board of a game
type Result struct {
	Winner        model.Team      `json:"winner"`
	BomberKey     model.PlayerKey `json:"bomber"`
	PresidentKey  model.PlayerKey `json:"president"`
	BomberRoom    model.Room      `json:"bomber_room"`
	PresidentRoom model.Room      `json:"president_room"`
	// Checkpoints are the initial rooms, rooms after rounds 1 and 2, and final rooms
	Checkpoints [model.NumRounds + 1]Checkpoint `json:"checkpoints"`
}

// Outcome computes the result of a session
func Outcome(s *model.Session) (*Result, error) {
	bomberKey, bomber, ok := s.FindRole(model.RoleBomber)
	if !ok {
		return nil, fmt.Errorf("%w: no bomber", model.ErrRolesMissing)
	}
	presidentKey, president, ok := s.FindRole(model.RolePresident)
	if !ok {
		return nil, fmt.Errorf("%w: no president", model.ErrRolesMissing)
	}

	res := &Result{
		BomberKey:     bomberKey,
		PresidentKey:  presidentKey,
		BomberRoom:    bomber.Assignment.Rooms.Final(),
		PresidentRoom: president.Assignment.Rooms.Final(),
	}
	res.Winner = Winner(res.BomberRoom, res.PresidentRoom)

	for i := range res.Checkpoints {
		res.Checkpoints[i] = CheckpointAt(s, i)
	}
	return res, nil
}

// CheckpointAt groups assigned players by their room at checkpoint i
func CheckpointAt(s *model.Session, i int) Checkpoint {
	cp := Checkpoint{Room1: []model.PlayerKey{}, Room2: []model.PlayerKey{}}
	for _, key := range s.PlayerKeys() {
		p := s.Players[key]
		if p.Assignment == nil {
			continue
		}
		if p.Assignment.Rooms[i] == model.Room1 {
			cp.Room1 = append(cp.Room1, key)
		} else {
			cp.Room2 = append(cp.Room2, key)
		}
	}
	return cp
}

// Summary builds the archive record for a session with a decided outcome
func Summary(s *model.Session, res *Result) *model.GameSummary {
	summary := &model.GameSummary{
		PIN:         s.PIN,
		Winner:      res.Winner,
		PlayerCount: len(s.Players),
		CreatedAt:   s.Info.CreatedAt,
		FinishedAt:  s.Info.StatusChangedAt,
	}
	for _, key := range s.PlayerKeys() {
		p := s.Players[key]
		out := model.PlayerOutcome{Key: key, Name: p.Name}
		if p.Assignment != nil {
			out.Team = p.Assignment.Team
			out.Role = p.Assignment.Role
			out.Rooms = p.Assignment.Rooms
		}
		summary.Players = append(summary.Players, out)
	}
	return summary
}
