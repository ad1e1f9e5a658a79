package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/web/middleware"
	"github.com/mcoot/tworoomsboom/internal/web/templates/layout"
	"github.com/mcoot/tworoomsboom/internal/web/templates/pages"
)

// HomeHandler handles the lobby page
type HomeHandler struct{}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler() *HomeHandler {
	return &HomeHandler{}
}

// Home renders the lobby page
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	render(w, r, pages.Home(pages.HomeData{PageData: pageData(r, "Home")}))
}

// JoinPage renders the lobby with the join form pre-filled, the target of QR codes
func (h *HomeHandler) JoinPage(w http.ResponseWriter, r *http.Request) {
	pin := model.PIN(mux.Vars(r)["pin"])
	if !pin.Valid() {
		middleware.SetFlash(w, "error", "Invalid PIN")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	render(w, r, pages.Home(pages.HomeData{
		PageData: pageData(r, "Join "+string(pin)),
		PIN:      string(pin),
	}))
}

func pageData(r *http.Request, title string) layout.PageData {
	data := layout.PageData{
		Title: title,
		Flash: middleware.GetFlash(r.Context()),
	}
	if st := middleware.GetSeat(r.Context()); st != nil {
		data.PIN = string(st.PIN)
		data.PlayerKey = string(st.PlayerKey)
	}
	return data
}
