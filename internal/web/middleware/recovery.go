package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/tworoomsboom/internal/middleware"
	"github.com/mcoot/tworoomsboom/internal/web/templates/layout"
)

// Recovery turns a handler panic into the site's error page
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, errorPage)
}

func errorPage(w http.ResponseWriter, r *http.Request, _ any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	page := layout.Base(layout.PageData{
		Title: "Error",
		Flash: &layout.FlashMessage{Type: "error", Message: "Something went wrong"},
	}, layout.Link("/", "Back to the lobby"))
	_ = page.Render(r.Context(), w)
}
