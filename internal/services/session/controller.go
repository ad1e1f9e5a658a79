package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/tworoomsboom/internal/dependencies/clock"
	"github.com/mcoot/tworoomsboom/internal/dependencies/random"
	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/services/archive"
	"github.com/mcoot/tworoomsboom/internal/services/assignment"
	"github.com/mcoot/tworoomsboom/internal/services/rounds"
	"github.com/mcoot/tworoomsboom/internal/storage"
)

const (
	// MaxPINAttempts bounds the search for an unused PIN
	MaxPINAttempts = 10
	// MaxNameLength is the longest display name kept, in runes
	MaxNameLength = 32
)

// Controller applies every action on a session. All writes go through
// storage.UpdateSession so each action is one read-modify-write.
type Controller struct {
	storage  storage.Storage
	assigner *assignment.Service
	archive  archive.Archive
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
}

// NewController creates a new session Controller
func NewController(
	storage storage.Storage,
	assigner *assignment.Service,
	archive archive.Archive,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:  storage,
		assigner: assigner,
		archive:  archive,
		clock:    clock,
		random:   random,
		logger:   logger,
	}
}

// CreateSession opens a new session with the caller as creator
func (c *Controller) CreateSession(ctx context.Context, creatorName string) (*model.Session, error) {
	now := c.clock.Now()
	name := cleanName(creatorName)

	for attempt := 0; attempt < MaxPINAttempts; attempt++ {
		pin := model.PIN(strconv.Itoa(model.MinPIN + c.random.Intn(model.MaxPIN-model.MinPIN+1)))
		sess := model.NewSession(pin, name, now)

		err := c.storage.CreateSession(ctx, sess)
		if errors.Is(err, model.ErrSessionExists) {
			continue
		}
		if err != nil {
			return nil, c.writeError("create", pin, err)
		}

		c.logger.Info("session created", slog.String("pin", string(pin)))
		return sess, nil
	}

	c.logger.Error("no free session pin", slog.Int("attempts", MaxPINAttempts))
	return nil, fmt.Errorf("create: %w: no free pin after %d attempts", model.ErrWriteFailure, MaxPINAttempts)
}

// GetSession reads the current document
func (c *Controller) GetSession(ctx context.Context, pin model.PIN) (*model.Session, error) {
	if !pin.Valid() {
		return nil, model.ErrSessionNotFound
	}
	return c.storage.GetSession(ctx, pin)
}

// Watch streams the latest document of a session until ctx is done
func (c *Controller) Watch(ctx context.Context, pin model.PIN) (<-chan *model.Session, error) {
	if !pin.Valid() {
		return nil, model.ErrSessionNotFound
	}
	return c.storage.Watch(ctx, pin)
}

// JoinSession adds an unassigned player and returns the key minted for them.
// A missing session is reported without creating anything.
func (c *Controller) JoinSession(ctx context.Context, pin model.PIN, name string) (*model.Session, model.PlayerKey, error) {
	if !pin.Valid() {
		return nil, "", model.ErrSessionNotFound
	}

	var key model.PlayerKey
	sess, err := c.update(ctx, pin, "join", func(s *model.Session) error {
		if s.Status != model.StatusNotStarted {
			return model.ErrGameInProgress
		}
		n := s.Info.NextJoiner
		if n < 1 {
			n = 1
		}
		// skip ordinals already taken by documents written without the counter
		for s.Players[model.JoinerKey(n)] != nil {
			n++
		}
		key = model.JoinerKey(n)
		s.Players[key] = &model.Player{Name: cleanName(name)}
		s.Info.NextJoiner = n + 1
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	c.logger.Info("player joined",
		slog.String("pin", string(pin)),
		slog.String("player_key", string(key)),
		slog.Int("player_count", len(sess.Players)),
	)
	return sess, key, nil
}

// SetName changes a player's display name while the session is in the lobby
func (c *Controller) SetName(ctx context.Context, pin model.PIN, key model.PlayerKey, name string) (*model.Session, error) {
	return c.update(ctx, pin, "set name", func(s *model.Session) error {
		p := s.GetPlayer(key)
		if p == nil {
			return model.ErrPlayerNotFound
		}
		if s.Status != model.StatusNotStarted {
			return model.ErrGameInProgress
		}
		p.Name = cleanName(name)
		return nil
	})
}

// AssignTeams deals teams, roles and rooms and moves the session to preparation
func (c *Controller) AssignTeams(ctx context.Context, pin model.PIN, requester model.PlayerKey) (*model.Session, error) {
	if !requester.IsCreator() {
		return nil, model.ErrNotCreator
	}

	sess, err := c.update(ctx, pin, "assign", func(s *model.Session) error {
		if s.Status != model.StatusNotStarted {
			return fmt.Errorf("%w: teams already assigned", model.ErrInvalidTransition)
		}
		return c.deal(s)
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("teams assigned",
		slog.String("pin", string(pin)),
		slog.Int("player_count", len(sess.Players)),
	)
	return sess, nil
}

// Reshuffle deals a fresh assignment during preparation
func (c *Controller) Reshuffle(ctx context.Context, pin model.PIN, requester model.PlayerKey) (*model.Session, error) {
	if !requester.IsCreator() {
		return nil, model.ErrNotCreator
	}

	return c.update(ctx, pin, "reshuffle", func(s *model.Session) error {
		if s.Status != model.StatusPreparation {
			return model.ErrWrongPhase
		}
		return c.deal(s)
	})
}

func (c *Controller) deal(s *model.Session) error {
	assignments, err := c.assigner.Assign(s.PlayerKeys())
	if err != nil {
		return err
	}
	for key, a := range assignments {
		s.Players[key].Assignment = a
	}
	s.SetStatus(model.StatusPreparation, c.clock.Now())
	return nil
}

// Advance moves the session one step forward. If expected is set, the call
// only applies while the session is still in that status.
func (c *Controller) Advance(ctx context.Context, pin model.PIN, requester model.PlayerKey, expected model.GameStatus) (*model.Session, error) {
	if !requester.IsCreator() {
		return nil, model.ErrNotCreator
	}

	var from model.GameStatus
	sess, err := c.update(ctx, pin, "advance", func(s *model.Session) error {
		if expected != "" && s.Status != expected {
			return fmt.Errorf("%w: session is %s, not %s", model.ErrInvalidTransition, s.Status, expected)
		}
		next, err := rounds.Advance(s.Status)
		if err != nil {
			return err
		}
		from = s.Status
		s.SetStatus(next, c.clock.Now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("session advanced",
		slog.String("pin", string(pin)),
		slog.String("from", string(from)),
		slog.String("to", string(sess.Status)),
	)
	return sess, nil
}

// Exchange records a player's decision for the current round. Only the
// player's own room history changes.
func (c *Controller) Exchange(ctx context.Context, pin model.PIN, key model.PlayerKey, round int, traded bool) (*model.Session, error) {
	if round < 1 || round > model.NumRounds {
		return nil, fmt.Errorf("%w: %d", model.ErrInvalidRound, round)
	}

	return c.update(ctx, pin, "exchange", func(s *model.Session) error {
		p := s.GetPlayer(key)
		if p == nil || p.Assignment == nil {
			return model.ErrPlayerNotFound
		}
		if s.Status.Round() != round {
			return fmt.Errorf("%w: session is %s, not round %d", model.ErrWrongPhase, s.Status, round)
		}
		rooms, err := rounds.Exchange(p.Assignment.Rooms, round, traded)
		if err != nil {
			return err
		}
		p.Assignment.Rooms = rooms
		return nil
	})
}

// EndSession finishes the session for every subscriber. Games ended from
// the results board are archived.
func (c *Controller) EndSession(ctx context.Context, pin model.PIN, requester model.PlayerKey) (*model.Session, error) {
	if !requester.IsCreator() {
		return nil, model.ErrNotCreator
	}

	var from model.GameStatus
	sess, err := c.update(ctx, pin, "end", func(s *model.Session) error {
		from = s.Status
		s.SetStatus(model.StatusFinished, c.clock.Now())
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("session ended",
		slog.String("pin", string(pin)),
		slog.String("from", string(from)),
	)

	if from == model.StatusResults {
		c.record(ctx, sess)
	}
	return sess, nil
}

func (c *Controller) record(ctx context.Context, sess *model.Session) {
	res, err := rounds.Outcome(sess)
	if err != nil {
		c.logger.Warn("no outcome to archive",
			slog.String("pin", string(sess.PIN)),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := c.archive.Record(ctx, rounds.Summary(sess, res)); err != nil {
		c.logger.Error("failed to archive game",
			slog.String("pin", string(sess.PIN)),
			slog.String("error", err.Error()),
		)
	}
}

// Result returns the outcome board once the rounds are over
func (c *Controller) Result(ctx context.Context, pin model.PIN) (*model.Session, *rounds.Result, error) {
	sess, err := c.GetSession(ctx, pin)
	if err != nil {
		return nil, nil, err
	}
	if sess.Status != model.StatusResults && sess.Status != model.StatusFinished {
		return nil, nil, fmt.Errorf("%w: results are not available while %s", model.ErrWrongPhase, sess.Status)
	}
	res, err := rounds.Outcome(sess)
	if err != nil {
		return nil, nil, err
	}
	return sess, res, nil
}

// History lists archived games, newest first
func (c *Controller) History(ctx context.Context, limit int) ([]model.GameSummary, error) {
	return c.archive.Recent(ctx, limit)
}

// update applies fn to a live session. Finished sessions reject every
// action, and store failures surface as ErrWriteFailure.
func (c *Controller) update(ctx context.Context, pin model.PIN, op string, fn storage.MutateFunc) (*model.Session, error) {
	if !pin.Valid() {
		return nil, model.ErrSessionNotFound
	}

	sess, err := c.storage.UpdateSession(ctx, pin, func(s *model.Session) error {
		if s.Status == model.StatusFinished {
			return model.ErrSessionFinished
		}
		if err := fn(s); err != nil {
			return err
		}
		s.Info.UpdatedAt = c.clock.Now()
		return nil
	})
	if err != nil {
		return nil, c.writeError(op, pin, err)
	}
	return sess, nil
}

func (c *Controller) writeError(op string, pin model.PIN, err error) error {
	if model.IsDomainError(err) {
		return err
	}
	c.logger.Error("session write failed",
		slog.String("op", op),
		slog.String("pin", string(pin)),
		slog.String("error", err.Error()),
	)
	return fmt.Errorf("%s %s: %w: %w", op, pin, model.ErrWriteFailure, err)
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > MaxNameLength {
		name = string([]rune(name)[:MaxNameLength])
	}
	return name
}
