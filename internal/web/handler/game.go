package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/mcoot/tworoomsboom/internal/dependencies/clock"
	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/services/seat"
	"github.com/mcoot/tworoomsboom/internal/services/session"
	"github.com/mcoot/tworoomsboom/internal/services/view"
	"github.com/mcoot/tworoomsboom/internal/web/middleware"
	"github.com/mcoot/tworoomsboom/internal/web/templates/pages"
)

// GameHandler handles the phase pages and the actions posted from them
type GameHandler struct {
	controller *session.Controller
	views      *view.Service
	clock      clock.Clock
}

// NewGameHandler creates a new GameHandler
func NewGameHandler(controller *session.Controller, views *view.Service, clock clock.Clock) *GameHandler {
	return &GameHandler{
		controller: controller,
		views:      views,
		clock:      clock,
	}
}

// View renders GET /sessions/{pin}/{phase}?player=
func (h *GameHandler) View(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	pin := model.PIN(vars["pin"])

	key := model.PlayerKey(r.URL.Query().Get("player"))
	if st := middleware.GetSeat(r.Context()); key == "" && st != nil && st.PIN == pin {
		key = st.PlayerKey
	}
	if key == "" {
		http.Redirect(w, r, "/join/"+string(pin), http.StatusSeeOther)
		return
	}

	sess, err := h.controller.GetSession(r.Context(), pin)
	if err != nil {
		fail(w, r, err, "/")
		return
	}

	phase, err := model.ParseGameStatus(vars["phase"])
	if err != nil {
		http.Redirect(w, r, phasePath(pin, sess.Status, key), http.StatusSeeOther)
		return
	}

	v := h.views.Render(sess, key, phase, h.clock.Now())
	switch v.Kind {
	case view.KindMovedOn:
		http.Redirect(w, r, phasePath(pin, v.NavigateTo, key), http.StatusSeeOther)
		return
	case view.KindFinished:
		if st := middleware.GetSeat(r.Context()); st != nil && st.PIN == pin {
			middleware.ClearSeatCookie(w)
		}
		middleware.SetFlash(w, "info", "The game has ended")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := pages.PhaseData{
		PageData: pageData(r, phaseTitle(phase)),
		View:     v,
		Names:    make(map[model.PlayerKey]string, len(sess.Players)),
	}
	data.PIN = string(pin)
	data.EventsURL = "/api/v1/sessions/" + string(pin) + "/events?player=" + string(key)
	data.Version = sess.Info.Version
	for k, p := range sess.Players {
		data.Names[k] = p.Name
	}

	render(w, r, pages.Phase(data))
}

// Assign handles POST /sessions/{pin}/assign
func (h *GameHandler) Assign(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(st *seat.Seat) (*model.Session, error) {
		return h.controller.AssignTeams(r.Context(), st.PIN, st.PlayerKey)
	})
}

// Reshuffle handles POST /sessions/{pin}/reshuffle
func (h *GameHandler) Reshuffle(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(st *seat.Seat) (*model.Session, error) {
		return h.controller.Reshuffle(r.Context(), st.PIN, st.PlayerKey)
	})
}

// Advance handles POST /sessions/{pin}/advance
func (h *GameHandler) Advance(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(st *seat.Seat) (*model.Session, error) {
		var expected model.GameStatus
		if raw := r.FormValue("expected"); raw != "" {
			parsed, err := model.ParseGameStatus(raw)
			if err != nil {
				return nil, err
			}
			expected = parsed
		}
		return h.controller.Advance(r.Context(), st.PIN, st.PlayerKey, expected)
	})
}

// Exchange handles POST /sessions/{pin}/exchange
func (h *GameHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(st *seat.Seat) (*model.Session, error) {
		round, err := strconv.Atoi(r.FormValue("round"))
		if err != nil {
			return nil, model.ErrInvalidRound
		}
		traded := r.FormValue("traded") == "true"
		return h.controller.Exchange(r.Context(), st.PIN, st.PlayerKey, round, traded)
	})
}

// End handles POST /sessions/{pin}/end
func (h *GameHandler) End(w http.ResponseWriter, r *http.Request) {
	st, ok := h.seatFor(w, r)
	if !ok {
		return
	}

	if _, err := h.controller.EndSession(r.Context(), st.PIN, st.PlayerKey); err != nil {
		h.back(w, r, st, err)
		return
	}

	middleware.ClearSeatCookie(w)
	middleware.SetFlash(w, "success", "Game ended")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// act runs a seated action and redirects to the page for the resulting status
func (h *GameHandler) act(w http.ResponseWriter, r *http.Request, fn func(*seat.Seat) (*model.Session, error)) {
	st, ok := h.seatFor(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, "error", "Invalid form data")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	sess, err := fn(st)
	if err != nil {
		h.back(w, r, st, err)
		return
	}

	http.Redirect(w, r, phasePath(sess.PIN, sess.Status, st.PlayerKey), http.StatusSeeOther)
}

func (h *GameHandler) seatFor(w http.ResponseWriter, r *http.Request) (*seat.Seat, bool) {
	st := middleware.GetSeat(r.Context())
	if st == nil || string(st.PIN) != mux.Vars(r)["pin"] {
		middleware.SetFlash(w, "error", "You are not seated in this game")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil, false
	}
	return st, true
}

// back flashes err and returns the player to the session's current page
func (h *GameHandler) back(w http.ResponseWriter, r *http.Request, st *seat.Seat, err error) {
	sess, getErr := h.controller.GetSession(r.Context(), st.PIN)
	if getErr != nil {
		fail(w, r, err, "/")
		return
	}
	fail(w, r, err, phasePath(st.PIN, sess.Status, st.PlayerKey))
}

func phaseTitle(s model.GameStatus) string {
	switch s {
	case model.StatusNotStarted:
		return "Waiting room"
	case model.StatusPreparation:
		return "Preparation"
	case model.StatusResults:
		return "Results"
	}
	if k := s.Round(); k > 0 {
		return "Round " + strconv.Itoa(k)
	}
	return "Game"
}
