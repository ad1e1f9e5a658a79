package model

import "fmt"

// GameStatus is the phase a session is in. It only ever moves forward.
type GameStatus string

const (
	StatusNotStarted  GameStatus = "not_started"
	StatusPreparation GameStatus = "preparation"
	StatusRound1      GameStatus = "round1"
	StatusRound2      GameStatus = "round2"
	StatusRound3      GameStatus = "round3"
	StatusResults     GameStatus = "results"
	StatusFinished    GameStatus = "finished"
)

// NumRounds is the number of exchange rounds in a game
const NumRounds = 3

var statusOrder = []GameStatus{
	StatusNotStarted,
	StatusPreparation,
	StatusRound1,
	StatusRound2,
	StatusRound3,
	StatusResults,
	StatusFinished,
}

// ParseGameStatus validates a status string
func ParseGameStatus(s string) (GameStatus, error) {
	status := GameStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return status, nil
}

// Index returns the position of the status in the game order, or -1 if unknown
func (s GameStatus) Index() int {
	for i, st := range statusOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s GameStatus) Valid() bool {
	return s.Index() >= 0
}

// Before reports whether s comes strictly earlier in the game than other
func (s GameStatus) Before(other GameStatus) bool {
	return s.Index() < other.Index()
}

// Next returns the status that follows s. The second value is false for
// finished and unknown statuses.
func (s GameStatus) Next() (GameStatus, bool) {
	i := s.Index()
	if i < 0 || i == len(statusOrder)-1 {
		return "", false
	}
	return statusOrder[i+1], true
}

// Round returns 1..3 for round statuses and 0 otherwise
func (s GameStatus) Round() int {
	switch s {
	case StatusRound1:
		return 1
	case StatusRound2:
		return 2
	case StatusRound3:
		return 3
	}
	return 0
}

// IsStarted reports whether teams and rooms have been assigned
func (s GameStatus) IsStarted() bool {
	return StatusNotStarted.Before(s)
}

func (s GameStatus) String() string {
	return string(s)
}

// RoundStatus returns the status for exchange round k (1..3)
func RoundStatus(k int) (GameStatus, error) {
	switch k {
	case 1:
		return StatusRound1, nil
	case 2:
		return StatusRound2, nil
	case 3:
		return StatusRound3, nil
	}
	return "", fmt.Errorf("%w: %d", ErrInvalidRound, k)
}
