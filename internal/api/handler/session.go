package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tworoomsboom/internal/api/middleware"
	"github.com/mcoot/tworoomsboom/internal/api/request"
	"github.com/mcoot/tworoomsboom/internal/api/response"
	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/services/seat"
	"github.com/mcoot/tworoomsboom/internal/services/session"
)

// SessionHandler handles session lifecycle endpoints
type SessionHandler struct {
	controller *session.Controller
	seats      *seat.Service
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(controller *session.Controller, seats *seat.Service) *SessionHandler {
	return &SessionHandler{
		controller: controller,
		seats:      seats,
	}
}

// Create handles POST /api/v1/sessions
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSessionRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	sess, err := h.controller.CreateSession(r.Context(), req.Name)
	if err != nil {
		WriteError(w, err)
		return
	}

	st, err := h.seats.Issue(sess.PIN, model.CreatorKey)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.SeatResponseFromModel(sess, st))
}

// Get handles GET /api/v1/sessions/{pin}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.controller.GetSession(r.Context(), pinVar(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.WriteSession(w, sess)
}

// End handles DELETE /api/v1/sessions/{pin}
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	st := middleware.MustGetSeat(r.Context())

	if _, err := h.controller.EndSession(r.Context(), pinVar(r), st.PlayerKey); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}

func pinVar(r *http.Request) model.PIN {
	return model.PIN(mux.Vars(r)["pin"])
}

func keyVar(r *http.Request) model.PlayerKey {
	return model.PlayerKey(mux.Vars(r)["key"])
}

// decodeBody decodes a JSON body into v. An empty body leaves v as is.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return NewInvalidRequestError("Invalid request body")
}
