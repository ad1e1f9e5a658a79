package model

import "errors"

// Common errors used across the application
var (
	// Session errors
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionExists       = errors.New("session already exists")
	ErrSessionFinished     = errors.New("session has finished")
	ErrGameInProgress      = errors.New("game is in progress")
	ErrInsufficientPlayers = errors.New("insufficient players to start game")
	ErrWriteFailure        = errors.New("failed to write session")

	// Player errors
	ErrPlayerNotFound = errors.New("player not found")
	ErrNotCreator     = errors.New("player is not the session creator")

	// State machine errors
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrWrongPhase        = errors.New("action not allowed in current phase")
	ErrInvalidStatus     = errors.New("invalid game status")
	ErrInvalidRound      = errors.New("invalid round")
	ErrRolesMissing      = errors.New("bomber or president missing")

	// Seat errors
	ErrInvalidSeat = errors.New("invalid seat token")
	ErrSeatExpired = errors.New("seat token expired")
)

var domainErrors = []error{
	ErrSessionNotFound,
	ErrSessionExists,
	ErrSessionFinished,
	ErrGameInProgress,
	ErrInsufficientPlayers,
	ErrWriteFailure,
	ErrPlayerNotFound,
	ErrNotCreator,
	ErrInvalidTransition,
	ErrWrongPhase,
	ErrInvalidStatus,
	ErrInvalidRound,
	ErrRolesMissing,
	ErrInvalidSeat,
	ErrSeatExpired,
}

// IsDomainError reports whether err wraps one of the sentinel errors above
func IsDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
