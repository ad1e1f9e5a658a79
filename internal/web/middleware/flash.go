package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/mcoot/tworoomsboom/internal/web/templates/layout"
)

const (
	flashCookieName = "flash"
	flashContextKey = contextKey("flash")
	flashMaxAge     = 60
)

// GetFlash returns the notice carried over from the previous response, if any
func GetFlash(ctx context.Context) *layout.FlashMessage {
	flash, _ := ctx.Value(flashContextKey).(*layout.FlashMessage)
	return flash
}

// SetFlash queues a notice for the page the browser is redirected to.
// Levels are "info", "success" and "error".
func SetFlash(w http.ResponseWriter, level, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape(level) + "|" + url.QueryEscape(message),
		Path:     "/",
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Flash moves a queued notice into the request context and expires it,
// so each notice is shown exactly once
func Flash() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(flashCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			http.SetCookie(w, &http.Cookie{
				Name:     flashCookieName,
				Path:     "/",
				MaxAge:   -1,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			ctx := context.WithValue(r.Context(), flashContextKey, decodeFlash(cookie.Value))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func decodeFlash(value string) *layout.FlashMessage {
	level, message, ok := strings.Cut(value, "|")
	if !ok {
		level, message = "info", value
	}
	if l, err := url.QueryUnescape(level); err == nil {
		level = l
	}
	if m, err := url.QueryUnescape(message); err == nil {
		message = m
	}
	return &layout.FlashMessage{Type: level, Message: message}
}
