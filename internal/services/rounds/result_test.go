package rounds

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/tworoomsboom/internal/model"
)

func finishedSession() *model.Session {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := model.NewSession("12345", "Ada", now)
	s.Players[model.JoinerKey(1)] = &model.Player{Name: "Bo"}
	s.Players[model.JoinerKey(2)] = &model.Player{Name: "Cy"}
	s.Players[model.CreatorKey].Assignment = &model.Assignment{
		Team: model.TeamRed, Role: model.RoleBomber, Rooms: model.RoomHistory{1, 1, 2, 2},
	}
	s.Players[model.JoinerKey(1)].Assignment = &model.Assignment{
		Team: model.TeamBlue, Role: model.RolePresident, Rooms: model.RoomHistory{1, 2, 2, 2},
	}
	s.Players[model.JoinerKey(2)].Assignment = &model.Assignment{
		Team: model.TeamGrey, Role: model.RoleGambler, Rooms: model.NewRoomHistory(model.Room1),
	}
	s.SetStatus(model.StatusResults, now.Add(10*time.Minute))
	return s
}

func TestOutcome(t *testing.T) {
	res, err := Outcome(finishedSession())
	require.NoError(t, err)

	assert.Equal(t, model.TeamRed, res.Winner)
	assert.Equal(t, model.CreatorKey, res.BomberKey)
	assert.Equal(t, model.JoinerKey(1), res.PresidentKey)
	assert.Equal(t, model.Room2, res.BomberRoom)

	assert.Equal(t, []model.PlayerKey{"creator", "joiner1", "joiner2"}, res.Checkpoints[0].Room1)
	assert.Empty(t, res.Checkpoints[0].Room2)
	assert.Equal(t, []model.PlayerKey{"creator", "joiner2"}, res.Checkpoints[1].Room1)
	assert.Equal(t, []model.PlayerKey{"joiner1"}, res.Checkpoints[1].Room2)
	assert.Equal(t, []model.PlayerKey{"joiner2"}, res.Checkpoints[3].Room1)
}

func TestOutcomeMissingRoles(t *testing.T) {
	s := model.NewSession("12345", "", time.Now())
	_, err := Outcome(s)
	assert.ErrorIs(t, err, model.ErrRolesMissing)
}

func TestSummary(t *testing.T) {
	s := finishedSession()
	res, err := Outcome(s)
	require.NoError(t, err)

	summary := Summary(s, res)
	assert.Equal(t, model.PIN("12345"), summary.PIN)
	assert.Equal(t, model.TeamRed, summary.Winner)
	assert.Equal(t, 3, summary.PlayerCount)
	require.Len(t, summary.Players, 3)
	assert.Equal(t, "Ada", summary.Players[0].Name)
	assert.Equal(t, model.RoleGambler, summary.Players[2].Role)
}
