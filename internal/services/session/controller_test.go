package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/tworoomsboom/internal/dependencies/mocks"
	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/services/archive"
	"github.com/mcoot/tworoomsboom/internal/services/assignment"
	"github.com/mcoot/tworoomsboom/internal/storage/memory"
	"github.com/mcoot/tworoomsboom/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *testutil.FlakyStorage
	archive    *archive.Memory
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = testutil.NewFlakyStorage(memory.New())
	s.archive = archive.NewMemory(10)
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	assigner := assignment.New(s.random, assignment.DefaultOptions())
	s.controller = NewController(s.storage, assigner, s.archive, s.clock, s.random, testutil.NopLogger())
	s.ctx = context.Background()
}

// newSession creates a session and joins n-1 more players
func (s *ControllerSuite) newSession(n int) model.PIN {
	sess, err := s.controller.CreateSession(s.ctx, "Host")
	s.Require().NoError(err)
	for i := 1; i < n; i++ {
		_, _, err := s.controller.JoinSession(s.ctx, sess.PIN, "Guest")
		s.Require().NoError(err)
	}
	return sess.PIN
}

func (s *ControllerSuite) startedSession(n int) *model.Session {
	pin := s.newSession(n)
	sess, err := s.controller.AssignTeams(s.ctx, pin, model.CreatorKey)
	s.Require().NoError(err)
	return sess
}

func (s *ControllerSuite) advanceTo(pin model.PIN, target model.GameStatus) {
	for {
		sess, err := s.controller.GetSession(s.ctx, pin)
		s.Require().NoError(err)
		if sess.Status == target {
			return
		}
		_, err = s.controller.Advance(s.ctx, pin, model.CreatorKey, "")
		s.Require().NoError(err)
	}
}

// CreateSession tests

func (s *ControllerSuite) TestCreateSession() {
	s.random.QueueIntn(2345)

	sess, err := s.controller.CreateSession(s.ctx, "  Ada  ")
	s.Require().NoError(err)

	s.Equal(model.PIN("12345"), sess.PIN)
	s.Equal(model.StatusNotStarted, sess.Status)
	s.Len(sess.Players, 1)
	s.Equal("Ada", sess.Players[model.CreatorKey].Name)
	s.False(sess.Players[model.CreatorKey].IsAssigned())
	s.Equal(s.clock.Now(), sess.Info.CreatedAt)
}

func (s *ControllerSuite) TestCreateSessionRetriesTakenPIN() {
	s.random.QueueIntn(2345, 2345, 5000)

	first, err := s.controller.CreateSession(s.ctx, "")
	s.Require().NoError(err)
	second, err := s.controller.CreateSession(s.ctx, "")
	s.Require().NoError(err)

	s.Equal(model.PIN("12345"), first.PIN)
	s.Equal(model.PIN("15000"), second.PIN)
}

func (s *ControllerSuite) TestCreateSessionGivesUpWhenPINsExhausted() {
	_, err := s.controller.CreateSession(s.ctx, "")
	s.Require().NoError(err)

	// every draw is 10000 from here on
	_, err = s.controller.CreateSession(s.ctx, "")
	s.ErrorIs(err, model.ErrWriteFailure)
}

func (s *ControllerSuite) TestCreateSessionWriteFailure() {
	s.storage.FailWrites(errors.New("connection refused"))
	_, err := s.controller.CreateSession(s.ctx, "")
	s.ErrorIs(err, model.ErrWriteFailure)
}

// JoinSession tests

func (s *ControllerSuite) TestJoinSessionMintsMonotonicKeys() {
	pin := s.newSession(1)

	_, k1, err := s.controller.JoinSession(s.ctx, pin, "Bo")
	s.Require().NoError(err)
	sess, k2, err := s.controller.JoinSession(s.ctx, pin, "Cy")
	s.Require().NoError(err)

	s.Equal(model.JoinerKey(1), k1)
	s.Equal(model.JoinerKey(2), k2)
	s.Equal([]model.PlayerKey{"creator", "joiner1", "joiner2"}, sess.PlayerKeys())
	s.Equal("Cy", sess.Players[k2].Name)
	s.False(sess.Players[k2].IsAssigned())
	s.Equal(3, sess.Info.NextJoiner)
}

func (s *ControllerSuite) TestJoinSessionNotFoundCreatesNothing() {
	_, _, err := s.controller.JoinSession(s.ctx, "00000", "Bo")
	s.ErrorIs(err, model.ErrSessionNotFound)

	_, _, err = s.controller.JoinSession(s.ctx, "54321", "Bo")
	s.ErrorIs(err, model.ErrSessionNotFound)

	exists, err := s.storage.SessionExists(s.ctx, "54321")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *ControllerSuite) TestJoinSessionAfterStartRejected() {
	sess := s.startedSession(2)
	_, _, err := s.controller.JoinSession(s.ctx, sess.PIN, "Late")
	s.ErrorIs(err, model.ErrGameInProgress)
}

func (s *ControllerSuite) TestConcurrentJoinsGetDistinctKeys() {
	pin := s.newSession(1)
	keys := make(chan model.PlayerKey, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, key, err := s.controller.JoinSession(s.ctx, pin, "P")
			s.NoError(err)
			keys <- key
		}()
	}

	seen := map[model.PlayerKey]bool{}
	for i := 0; i < 10; i++ {
		seen[<-keys] = true
	}
	s.Len(seen, 10)

	sess, err := s.controller.GetSession(s.ctx, pin)
	s.Require().NoError(err)
	s.Len(sess.Players, 11)
}

// SetName tests

func (s *ControllerSuite) TestSetName() {
	pin := s.newSession(2)
	sess, err := s.controller.SetName(s.ctx, pin, model.JoinerKey(1), "Bobby")
	s.Require().NoError(err)
	s.Equal("Bobby", sess.Players[model.JoinerKey(1)].Name)
}

func (s *ControllerSuite) TestSetNameTruncates() {
	pin := s.newSession(1)
	sess, err := s.controller.SetName(s.ctx, pin, model.CreatorKey, "abcdefghijklmnopqrstuvwxyz0123456789")
	s.Require().NoError(err)
	s.Equal("abcdefghijklmnopqrstuvwxyz012345", sess.Players[model.CreatorKey].Name)
}

func (s *ControllerSuite) TestSetNameMissingPlayer() {
	pin := s.newSession(1)
	_, err := s.controller.SetName(s.ctx, pin, model.JoinerKey(7), "Ghost")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// AssignTeams tests

func (s *ControllerSuite) TestAssignTeams() {
	s.clock.Advance(time.Minute)
	sess := s.startedSession(5)

	s.Equal(model.StatusPreparation, sess.Status)
	s.Equal(s.clock.Now(), sess.Info.StatusChangedAt)
	for key, p := range sess.Players {
		s.True(p.IsAssigned(), key)
	}
	_, _, ok := sess.FindRole(model.RoleGambler)
	s.True(ok)
}

func (s *ControllerSuite) TestAssignTeamsInsufficientPlayersNoWrite() {
	pin := s.newSession(1)
	before, err := s.controller.GetSession(s.ctx, pin)
	s.Require().NoError(err)

	_, err = s.controller.AssignTeams(s.ctx, pin, model.CreatorKey)
	s.ErrorIs(err, model.ErrInsufficientPlayers)

	after, err := s.controller.GetSession(s.ctx, pin)
	s.Require().NoError(err)
	s.Equal(before.Info.Version, after.Info.Version)
	s.Equal(model.StatusNotStarted, after.Status)
}

func (s *ControllerSuite) TestAssignTeamsRequiresCreator() {
	pin := s.newSession(3)
	_, err := s.controller.AssignTeams(s.ctx, pin, model.JoinerKey(1))
	s.ErrorIs(err, model.ErrNotCreator)
}

func (s *ControllerSuite) TestAssignTeamsTwiceRejected() {
	sess := s.startedSession(2)
	_, err := s.controller.AssignTeams(s.ctx, sess.PIN, model.CreatorKey)
	s.ErrorIs(err, model.ErrInvalidTransition)
}

func (s *ControllerSuite) TestAssignTeamsWriteFailure() {
	pin := s.newSession(2)
	s.storage.FailWrites(errors.New("network down"))

	_, err := s.controller.AssignTeams(s.ctx, pin, model.CreatorKey)
	s.ErrorIs(err, model.ErrWriteFailure)

	s.storage.FailWrites(nil)
	sess, err := s.controller.GetSession(s.ctx, pin)
	s.Require().NoError(err)
	s.Equal(model.StatusNotStarted, sess.Status)
}

func (s *ControllerSuite) TestReshuffle() {
	sess := s.startedSession(4)
	s.random.QueueIntn(1, 1, 1, 2, 0, 1)

	reshuffled, err := s.controller.Reshuffle(s.ctx, sess.PIN, model.CreatorKey)
	s.Require().NoError(err)
	s.Equal(model.StatusPreparation, reshuffled.Status)
	s.Greater(reshuffled.Info.Version, sess.Info.Version)
}

func (s *ControllerSuite) TestReshuffleOutsidePreparation() {
	pin := s.newSession(2)
	_, err := s.controller.Reshuffle(s.ctx, pin, model.CreatorKey)
	s.ErrorIs(err, model.ErrWrongPhase)
}

// Advance tests

func (s *ControllerSuite) TestAdvanceThroughRounds() {
	sess := s.startedSession(4)
	want := []model.GameStatus{model.StatusRound1, model.StatusRound2, model.StatusRound3, model.StatusResults}

	for _, status := range want {
		s.clock.Advance(time.Minute)
		next, err := s.controller.Advance(s.ctx, sess.PIN, model.CreatorKey, "")
		s.Require().NoError(err)
		s.Equal(status, next.Status)
		s.Equal(s.clock.Now(), next.Info.StatusChangedAt)
	}

	_, err := s.controller.Advance(s.ctx, sess.PIN, model.CreatorKey, "")
	s.ErrorIs(err, model.ErrInvalidTransition)
}

func (s *ControllerSuite) TestAdvanceWithStaleExpectation() {
	sess := s.startedSession(2)

	_, err := s.controller.Advance(s.ctx, sess.PIN, model.CreatorKey, model.StatusPreparation)
	s.Require().NoError(err)

	// a double click sends the same expectation again
	_, err = s.controller.Advance(s.ctx, sess.PIN, model.CreatorKey, model.StatusPreparation)
	s.ErrorIs(err, model.ErrInvalidTransition)

	current, err := s.controller.GetSession(s.ctx, sess.PIN)
	s.Require().NoError(err)
	s.Equal(model.StatusRound1, current.Status)
}

func (s *ControllerSuite) TestAdvanceFromNotStarted() {
	pin := s.newSession(2)
	_, err := s.controller.Advance(s.ctx, pin, model.CreatorKey, "")
	s.ErrorIs(err, model.ErrInvalidTransition)
}

func (s *ControllerSuite) TestAdvanceRequiresCreator() {
	sess := s.startedSession(2)
	_, err := s.controller.Advance(s.ctx, sess.PIN, model.JoinerKey(1), "")
	s.ErrorIs(err, model.ErrNotCreator)
}

// Exchange tests

func (s *ControllerSuite) TestExchangeTraded() {
	sess := s.startedSession(4)
	s.advanceTo(sess.PIN, model.StatusRound1)
	start := sess.Players[model.JoinerKey(2)].Assignment.Rooms[0]

	updated, err := s.controller.Exchange(s.ctx, sess.PIN, model.JoinerKey(2), 1, true)
	s.Require().NoError(err)

	flipped := start.Flip()
	s.Equal(model.RoomHistory{start, flipped, flipped, flipped}, updated.Players[model.JoinerKey(2)].Assignment.Rooms)
}

func (s *ControllerSuite) TestExchangeOnlyTouchesOwnHistory() {
	sess := s.startedSession(4)
	s.advanceTo(sess.PIN, model.StatusRound1)

	updated, err := s.controller.Exchange(s.ctx, sess.PIN, model.JoinerKey(2), 1, true)
	s.Require().NoError(err)

	for key, p := range updated.Players {
		if key == model.JoinerKey(2) {
			continue
		}
		s.Equal(sess.Players[key].Assignment.Rooms, p.Assignment.Rooms, key)
	}
}

func (s *ControllerSuite) TestExchangeWrongRound() {
	sess := s.startedSession(4)
	s.advanceTo(sess.PIN, model.StatusRound1)

	_, err := s.controller.Exchange(s.ctx, sess.PIN, model.CreatorKey, 2, true)
	s.ErrorIs(err, model.ErrWrongPhase)

	_, err = s.controller.Exchange(s.ctx, sess.PIN, model.CreatorKey, 5, true)
	s.ErrorIs(err, model.ErrInvalidRound)
}

func (s *ControllerSuite) TestExchangeMissingPlayer() {
	sess := s.startedSession(2)
	s.advanceTo(sess.PIN, model.StatusRound1)

	_, err := s.controller.Exchange(s.ctx, sess.PIN, model.JoinerKey(9), 1, true)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// EndSession tests

func (s *ControllerSuite) TestEndSessionFromResultsArchives() {
	sess := s.startedSession(4)
	s.advanceTo(sess.PIN, model.StatusResults)

	ended, err := s.controller.EndSession(s.ctx, sess.PIN, model.CreatorKey)
	s.Require().NoError(err)
	s.Equal(model.StatusFinished, ended.Status)

	history, err := s.controller.History(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(sess.PIN, history[0].PIN)
	s.Equal(4, history[0].PlayerCount)
}

func (s *ControllerSuite) TestEndSessionEarlyDoesNotArchive() {
	pin := s.newSession(3)

	_, err := s.controller.EndSession(s.ctx, pin, model.CreatorKey)
	s.Require().NoError(err)

	history, err := s.controller.History(s.ctx, 10)
	s.Require().NoError(err)
	s.Empty(history)
}

func (s *ControllerSuite) TestFinishedSessionRejectsMutations() {
	pin := s.newSession(2)
	_, err := s.controller.EndSession(s.ctx, pin, model.CreatorKey)
	s.Require().NoError(err)

	_, _, err = s.controller.JoinSession(s.ctx, pin, "Late")
	s.ErrorIs(err, model.ErrSessionFinished)
	_, err = s.controller.AssignTeams(s.ctx, pin, model.CreatorKey)
	s.ErrorIs(err, model.ErrSessionFinished)
	_, err = s.controller.EndSession(s.ctx, pin, model.CreatorKey)
	s.ErrorIs(err, model.ErrSessionFinished)
}

func (s *ControllerSuite) TestEndSessionRequiresCreator() {
	pin := s.newSession(2)
	_, err := s.controller.EndSession(s.ctx, pin, model.JoinerKey(1))
	s.ErrorIs(err, model.ErrNotCreator)
}

// Result tests

func (s *ControllerSuite) TestResult() {
	sess := s.startedSession(2)
	s.advanceTo(sess.PIN, model.StatusResults)

	_, res, err := s.controller.Result(s.ctx, sess.PIN)
	s.Require().NoError(err)

	bomber := sess.Players[res.BomberKey].Assignment.Rooms.Final()
	president := sess.Players[res.PresidentKey].Assignment.Rooms.Final()
	want := model.TeamBlue
	if bomber == president {
		want = model.TeamRed
	}
	s.Equal(want, res.Winner)
}

func (s *ControllerSuite) TestResultBeforeRoundsOver() {
	sess := s.startedSession(2)
	_, _, err := s.controller.Result(s.ctx, sess.PIN)
	s.ErrorIs(err, model.ErrWrongPhase)
}

// Full game

func (s *ControllerSuite) TestBomberWalksIntoPresident() {
	sess := s.startedSession(2)
	s.advanceTo(sess.PIN, model.StatusRound1)

	bomberKey, bomber, _ := sess.FindRole(model.RoleBomber)
	_, president, _ := sess.FindRole(model.RolePresident)
	s.NotEqual(bomber.Assignment.Rooms[0], president.Assignment.Rooms[0])

	_, err := s.controller.Exchange(s.ctx, sess.PIN, bomberKey, 1, true)
	s.Require().NoError(err)
	s.advanceTo(sess.PIN, model.StatusResults)

	_, res, err := s.controller.Result(s.ctx, sess.PIN)
	s.Require().NoError(err)
	s.Equal(model.TeamRed, res.Winner)
}
