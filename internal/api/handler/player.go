package handler

import (
	"net/http"
	"strings"

	"github.com/mcoot/tworoomsboom/internal/api/middleware"
	"github.com/mcoot/tworoomsboom/internal/api/request"
	"github.com/mcoot/tworoomsboom/internal/api/response"
	"github.com/mcoot/tworoomsboom/internal/dependencies/clock"
	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/services/seat"
	"github.com/mcoot/tworoomsboom/internal/services/session"
	"github.com/mcoot/tworoomsboom/internal/services/view"
)

// PlayerHandler handles per-player endpoints
type PlayerHandler struct {
	controller *session.Controller
	seats      *seat.Service
	views      *view.Service
	clock      clock.Clock
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(controller *session.Controller, seats *seat.Service, views *view.Service, clock clock.Clock) *PlayerHandler {
	return &PlayerHandler{
		controller: controller,
		seats:      seats,
		views:      views,
		clock:      clock,
	}
}

// Join handles POST /api/v1/sessions/{pin}/players
func (h *PlayerHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req request.JoinSessionRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}

	sess, key, err := h.controller.JoinSession(r.Context(), pinVar(r), req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}

	st, err := h.seats.Issue(sess.PIN, key)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SeatResponseFromModel(sess, st))
}

// SetName handles PATCH /api/v1/sessions/{pin}/players/{key}/name
func (h *PlayerHandler) SetName(w http.ResponseWriter, r *http.Request) {
	st := middleware.MustGetSeat(r.Context())
	key := keyVar(r)
	if st.PlayerKey != key {
		WriteError(w, NewForbiddenError("You can only rename yourself"))
		return
	}

	var req request.SetNameRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		WriteError(w, NewInvalidRequestError("name is required"))
		return
	}

	sess, err := h.controller.SetName(r.Context(), pinVar(r), key, req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.WriteSession(w, sess)
}

// View handles GET /api/v1/sessions/{pin}/players/{key}/view?phase=
//
// Cards are readable by key alone, like the PIN itself. A seat for another
// player is refused.
func (h *PlayerHandler) View(w http.ResponseWriter, r *http.Request) {
	key := keyVar(r)
	if st := middleware.GetSeat(r.Context()); st != nil && st.PlayerKey != key {
		WriteError(w, NewForbiddenError("Seat belongs to another player"))
		return
	}

	var phase model.GameStatus
	if raw := r.URL.Query().Get("phase"); raw != "" {
		parsed, err := model.ParseGameStatus(raw)
		if err != nil {
			WriteError(w, err)
			return
		}
		phase = parsed
	}

	sess, err := h.controller.GetSession(r.Context(), pinVar(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, h.views.Render(sess, key, phase, h.clock.Now()))
}
