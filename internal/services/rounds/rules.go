package rounds

import (
	"fmt"
	"time"

	"github.com/mcoot/tworoomsboom/internal/model"
)

// Config holds the round timings shown to players
type Config struct {
	Round1 time.Duration
	Round2 time.Duration
	Round3 time.Duration
}

// DefaultConfig returns the rules-card timings: a short first round, a long
// second round and a medium third round.
func DefaultConfig() Config {
	return Config{
		Round1: time.Minute,
		Round2: 3 * time.Minute,
		Round3: 2 * time.Minute,
	}
}

// Rules exposes the per-round parameters of a game
type Rules struct {
	cfg Config
}

func New(cfg Config) *Rules {
	return &Rules{cfg: cfg}
}

// Duration returns the countdown length of round k, or zero for an unknown round
func (r *Rules) Duration(k int) time.Duration {
	switch k {
	case 1:
		return r.cfg.Round1
	case 2:
		return r.cfg.Round2
	case 3:
		return r.cfg.Round3
	}
	return 0
}

// Hostages returns how many hostages each room sends in round k for a
// roster of the given size.
func (r *Rules) Hostages(playerCount, k int) int {
	if k < 1 || k > model.NumRounds {
		return 0
	}
	return HostageSchedule(playerCount)[k-1]
}

// HostageSchedule returns the hostages per room for rounds 1..3
func HostageSchedule(playerCount int) [model.NumRounds]int {
	switch {
	case playerCount >= 22:
		return [model.NumRounds]int{3, 2, 1}
	case playerCount >= 11:
		return [model.NumRounds]int{2, 1, 1}
	}
	return [model.NumRounds]int{1, 1, 1}
}

// Advance returns the status one step after current. Only preparation and
// the rounds advance this way: starting the game goes through assignment
// and finishing it goes through ending the session.
func Advance(current model.GameStatus) (model.GameStatus, error) {
	switch current {
	case model.StatusPreparation, model.StatusRound1, model.StatusRound2, model.StatusRound3:
		next, _ := current.Next()
		return next, nil
	case model.StatusFinished:
		return "", model.ErrSessionFinished
	}
	return "", fmt.Errorf("%w: cannot advance from %s", model.ErrInvalidTransition, current)
}

// Exchange returns the room history after a player's decision in round k:
// the room after round k is the room before it, flipped if the player was
// traded, and every later checkpoint follows it.
func Exchange(h model.RoomHistory, k int, traded bool) (model.RoomHistory, error) {
	if k < 1 || k > model.NumRounds {
		return h, fmt.Errorf("%w: %d", model.ErrInvalidRound, k)
	}
	room := h[k-1]
	if traded {
		room = room.Flip()
	}
	for i := k; i <= model.NumRounds; i++ {
		h[i] = room
	}
	return h, nil
}

// Winner decides the game from the final rooms: Red wins when the Bomber
// ends with the President.
func Winner(bomberFinal, presidentFinal model.Room) model.Team {
	if bomberFinal == presidentFinal {
		return model.TeamRed
	}
	return model.TeamBlue
}
