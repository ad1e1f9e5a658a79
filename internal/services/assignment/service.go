package assignment

import (
	"slices"

	"github.com/mcoot/tworoomsboom/internal/dependencies/random"
	"github.com/mcoot/tworoomsboom/internal/model"
)

// Options controls the assignment rules
type Options struct {
	// GamblerForOddRoster sets aside one grey Gambler when the roster is odd
	GamblerForOddRoster bool
}

// DefaultOptions returns the standard rules
func DefaultOptions() Options {
	return Options{GamblerForOddRoster: true}
}

// Service deals teams, roles and starting rooms
type Service struct {
	random  random.Random
	options Options
}

// New creates a new assignment Service
func New(random random.Random, options Options) *Service {
	return &Service{
		random:  random,
		options: options,
	}
}

// Assign deals an assignment to every key. Keys should be passed in a stable
// order so that a mocked random source gives repeatable results.
//
// Teams and rooms come from two independent shuffles. The first player of
// each team half takes that team's unique role.
func (s *Service) Assign(keys []model.PlayerKey) (map[model.PlayerKey]*model.Assignment, error) {
	if len(keys) < model.MinPlayers {
		return nil, model.ErrInsufficientPlayers
	}

	result := make(map[model.PlayerKey]*model.Assignment, len(keys))
	pool := slices.Clone(keys)

	if s.options.GamblerForOddRoster && len(pool)%2 == 1 {
		idx := s.random.Intn(len(pool))
		result[pool[idx]] = &model.Assignment{
			Team:  model.TeamGrey,
			Role:  model.RoleGambler,
			Rooms: model.NewRoomHistory(model.Room1),
		}
		pool = slices.Delete(pool, idx, idx+1)
	}

	half := (len(pool) + 1) / 2

	teamOrder := s.shuffled(pool)
	for i, key := range teamOrder {
		a := &model.Assignment{Role: model.RoleTeamMember}
		switch {
		case i == 0:
			a.Team, a.Role = model.TeamBlue, model.RolePresident
		case i < half:
			a.Team = model.TeamBlue
		case i == half:
			a.Team, a.Role = model.TeamRed, model.RoleBomber
		default:
			a.Team = model.TeamRed
		}
		result[key] = a
	}

	roomOrder := s.shuffled(pool)
	for i, key := range roomOrder {
		room := model.Room2
		if i < half {
			room = model.Room1
		}
		result[key].Rooms = model.NewRoomHistory(room)
	}

	return result, nil
}

func (s *Service) shuffled(keys []model.PlayerKey) []model.PlayerKey {
	out := slices.Clone(keys)
	random.Shuffle(s.random, len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
