package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/tworoomsboom/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeSessionNotFound     = "SESSION_NOT_FOUND"
	CodeSessionFinished     = "SESSION_FINISHED"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodeNotCreator          = "NOT_CREATOR"
	CodeGameInProgress      = "GAME_IN_PROGRESS"
	CodeInsufficientPlayers = "INSUFFICIENT_PLAYERS"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeWrongPhase          = "WRONG_PHASE"
	CodeInvalidStatus       = "INVALID_STATUS"
	CodeInvalidRound        = "INVALID_ROUND"
	CodeRolesMissing        = "ROLES_MISSING"
	CodeWriteFailure        = "WRITE_FAILURE"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "Invalid PIN"}}
	case errors.Is(err, model.ErrSessionFinished):
		return &httpError{http.StatusGone, APIError{CodeSessionFinished, "Session has ended"}}
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found in this session"}}
	case errors.Is(err, model.ErrNotCreator):
		return &httpError{http.StatusForbidden, APIError{CodeNotCreator, "Only the session creator can do this"}}
	case errors.Is(err, model.ErrGameInProgress):
		return &httpError{http.StatusConflict, APIError{CodeGameInProgress, "Game has already started"}}
	case errors.Is(err, model.ErrInsufficientPlayers):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientPlayers, "Not enough players to assign teams"}}
	case errors.Is(err, model.ErrInvalidTransition):
		return &httpError{http.StatusConflict, APIError{CodeInvalidTransition, "Session cannot move on from here"}}
	case errors.Is(err, model.ErrWrongPhase):
		return &httpError{http.StatusConflict, APIError{CodeWrongPhase, "Not allowed in the current phase"}}
	case errors.Is(err, model.ErrInvalidStatus):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidStatus, "Unknown game status"}}
	case errors.Is(err, model.ErrInvalidRound):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRound, "Round must be 1, 2 or 3"}}
	case errors.Is(err, model.ErrRolesMissing):
		return &httpError{http.StatusConflict, APIError{CodeRolesMissing, "Bomber or President is missing"}}
	case errors.Is(err, model.ErrInvalidSeat), errors.Is(err, model.ErrSeatExpired):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired seat"}}
	case errors.Is(err, model.ErrWriteFailure):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeWriteFailure, "Failed, try again"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Seat token required"}}
}

// NewForbiddenError creates a forbidden error
func NewForbiddenError(message string) error {
	return &httpError{http.StatusForbidden, APIError{CodeForbidden, message}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
