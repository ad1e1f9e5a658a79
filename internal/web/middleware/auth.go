package middleware

import (
	"context"
	"net/http"

	"github.com/mcoot/tworoomsboom/internal/services/seat"
)

type contextKey string

const (
	seatContextKey contextKey = "seat"

	// SeatCookieName holds the browser's seat token
	SeatCookieName = "seat"
)

// GetSeat retrieves the browser's seat from the request context
// Returns nil if the browser holds no valid seat
func GetSeat(ctx context.Context) *seat.Seat {
	s, _ := ctx.Value(seatContextKey).(*seat.Seat)
	return s
}

// OptionalSeat returns middleware that resolves the seat cookie if present
// Sets the seat in context if valid, nil otherwise
func OptionalSeat(seats *seat.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), seatContextKey, seatFromCookie(r, seats))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSeat returns middleware that requires a seat cookie
// Redirects to the lobby with a flash if there is none
func RequireSeat(seats *seat.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := seatFromCookie(r, seats)
			if s == nil {
				SetFlash(w, "error", "Join a game first")
				http.Redirect(w, r, "/", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), seatContextKey, s)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetSeatCookie stores a seat token in the browser
func SetSeatCookie(w http.ResponseWriter, s *seat.Seat) {
	http.SetCookie(w, &http.Cookie{
		Name:     SeatCookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSeatCookie removes the seat token from the browser
func ClearSeatCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SeatCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func seatFromCookie(r *http.Request, seats *seat.Service) *seat.Seat {
	cookie, err := r.Cookie(SeatCookieName)
	if err != nil {
		return nil
	}

	s, err := seats.Validate(cookie.Value)
	if err != nil {
		return nil
	}

	return s
}
