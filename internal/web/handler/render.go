package handler

import (
	"errors"
	"net/http"

	"github.com/a-h/templ"

	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/web/middleware"
)

func render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// fail sets an error flash for err and redirects to target
func fail(w http.ResponseWriter, r *http.Request, err error, target string) {
	middleware.SetFlash(w, "error", flashMessage(err))
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func flashMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		return "Invalid PIN"
	case errors.Is(err, model.ErrSessionFinished):
		return "That game has ended"
	case errors.Is(err, model.ErrGameInProgress):
		return "That game has already started"
	case errors.Is(err, model.ErrInsufficientPlayers):
		return "At least two players are needed"
	case errors.Is(err, model.ErrNotCreator):
		return "Only the game creator can do that"
	case errors.Is(err, model.ErrPlayerNotFound):
		return "You are not in this game"
	case errors.Is(err, model.ErrInvalidTransition), errors.Is(err, model.ErrWrongPhase):
		return "The game has moved on"
	case errors.Is(err, model.ErrWriteFailure):
		return "Failed, try again"
	}
	return "Something went wrong"
}

func phasePath(pin model.PIN, phase model.GameStatus, key model.PlayerKey) string {
	return "/sessions/" + string(pin) + "/" + string(phase) + "?player=" + string(key)
}
