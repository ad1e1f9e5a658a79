package handler

import (
	"net/http"
	"strings"

	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/services/seat"
	"github.com/mcoot/tworoomsboom/internal/services/session"
	"github.com/mcoot/tworoomsboom/internal/web/middleware"
)

// LobbyHandler handles creating and joining sessions from the lobby forms
type LobbyHandler struct {
	controller *session.Controller
	seats      *seat.Service
}

// NewLobbyHandler creates a new LobbyHandler
func NewLobbyHandler(controller *session.Controller, seats *seat.Service) *LobbyHandler {
	return &LobbyHandler{
		controller: controller,
		seats:      seats,
	}
}

// Create handles POST /sessions
func (h *LobbyHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, "error", "Invalid form data")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		middleware.SetFlash(w, "error", "Name is required")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	sess, err := h.controller.CreateSession(r.Context(), name)
	if err != nil {
		fail(w, r, err, "/")
		return
	}

	h.seat(w, r, sess.PIN, model.CreatorKey)
}

// Join handles POST /sessions/join
func (h *LobbyHandler) Join(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		middleware.SetFlash(w, "error", "Invalid form data")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	pin := model.PIN(strings.TrimSpace(r.FormValue("pin")))
	name := strings.TrimSpace(r.FormValue("name"))
	back := "/"
	if pin.Valid() {
		back = "/join/" + string(pin)
	}
	if name == "" {
		middleware.SetFlash(w, "error", "Name is required")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	sess, key, err := h.controller.JoinSession(r.Context(), pin, name)
	if err != nil {
		fail(w, r, err, back)
		return
	}

	h.seat(w, r, sess.PIN, key)
}

func (h *LobbyHandler) seat(w http.ResponseWriter, r *http.Request, pin model.PIN, key model.PlayerKey) {
	st, err := h.seats.Issue(pin, key)
	if err != nil {
		fail(w, r, err, "/")
		return
	}

	middleware.SetSeatCookie(w, st)
	http.Redirect(w, r, phasePath(pin, model.StatusNotStarted, key), http.StatusSeeOther)
}

// Leave handles POST /leave
func (h *LobbyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSeatCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
