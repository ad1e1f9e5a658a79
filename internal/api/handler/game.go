package handler

import (
	"net/http"
	"strconv"

	"github.com/mcoot/tworoomsboom/internal/api/middleware"
	"github.com/mcoot/tworoomsboom/internal/api/request"
	"github.com/mcoot/tworoomsboom/internal/api/response"
	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/services/archive"
	"github.com/mcoot/tworoomsboom/internal/services/session"
)

// MaxHistoryLimit caps GET /history?limit=
const MaxHistoryLimit = 100

// GameHandler handles the game state machine endpoints
type GameHandler struct {
	controller *session.Controller
}

// NewGameHandler creates a new game handler
func NewGameHandler(controller *session.Controller) *GameHandler {
	return &GameHandler{controller: controller}
}

// Assign handles POST /api/v1/sessions/{pin}/assign
func (h *GameHandler) Assign(w http.ResponseWriter, r *http.Request) {
	st := middleware.MustGetSeat(r.Context())

	sess, err := h.controller.AssignTeams(r.Context(), pinVar(r), st.PlayerKey)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.WriteSession(w, sess)
}

// Reshuffle handles POST /api/v1/sessions/{pin}/reshuffle
func (h *GameHandler) Reshuffle(w http.ResponseWriter, r *http.Request) {
	st := middleware.MustGetSeat(r.Context())

	sess, err := h.controller.Reshuffle(r.Context(), pinVar(r), st.PlayerKey)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.WriteSession(w, sess)
}

// Advance handles POST /api/v1/sessions/{pin}/advance
func (h *GameHandler) Advance(w http.ResponseWriter, r *http.Request) {
	st := middleware.MustGetSeat(r.Context())

	var req request.AdvanceRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	var expected model.GameStatus
	if req.Expected != "" {
		parsed, err := model.ParseGameStatus(req.Expected)
		if err != nil {
			WriteError(w, err)
			return
		}
		expected = parsed
	}

	sess, err := h.controller.Advance(r.Context(), pinVar(r), st.PlayerKey, expected)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.WriteSession(w, sess)
}

// Exchange handles POST /api/v1/sessions/{pin}/exchange
func (h *GameHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	st := middleware.MustGetSeat(r.Context())

	var req request.ExchangeRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err)
		return
	}

	sess, err := h.controller.Exchange(r.Context(), pinVar(r), st.PlayerKey, req.Round, req.Traded)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.WriteSession(w, sess)
}

// Result handles GET /api/v1/sessions/{pin}/result
func (h *GameHandler) Result(w http.ResponseWriter, r *http.Request) {
	sess, res, err := h.controller.Result(r.Context(), pinVar(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ResultFromModel(sess, res))
}

// History handles GET /api/v1/history?limit=
func (h *GameHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := archive.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxHistoryLimit {
			WriteError(w, NewInvalidRequestError("limit must be between 1 and 100"))
			return
		}
		limit = n
	}

	games, err := h.controller.History(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	out := response.History{Games: make([]response.GameSummary, 0, len(games))}
	for _, g := range games {
		out.Games = append(out.Games, response.GameSummaryFromModel(g))
	}
	response.JSON(w, http.StatusOK, out)
}
