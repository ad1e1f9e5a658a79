package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mcoot/tworoomsboom/internal/api/apierr"
	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/services/seat"
)

type contextKey string

const seatContextKey contextKey = "seat"

// SeatCookie is the cookie the HTML pages keep the seat token in
const SeatCookie = "seat"

// Seat requires a valid seat token for the session named by the {pin}
// route variable
func Seat(seats *seat.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			s, err := seats.Validate(token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			if pin, ok := mux.Vars(r)["pin"]; ok && model.PIN(pin) != s.PIN {
				apierr.WriteError(w, apierr.NewForbiddenError("Seat belongs to another session"))
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), seatContextKey, s)))
		})
	}
}

// OptionalSeat attaches the seat if a valid one for this session is present
func OptionalSeat(seats *seat.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractToken(r); token != "" {
				s, err := seats.Validate(token)
				pin, scoped := mux.Vars(r)["pin"]
				if err == nil && (!scoped || model.PIN(pin) == s.PIN) {
					r = r.WithContext(context.WithValue(r.Context(), seatContextKey, s))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken reads the seat token from the Authorization header, the
// "token" query parameter (EventSource cannot set headers) or the cookie
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}

	cookie, err := r.Cookie(SeatCookie)
	if err == nil {
		return cookie.Value
	}

	return ""
}

// GetSeat returns the seat from the request context
func GetSeat(ctx context.Context) *seat.Seat {
	s, _ := ctx.Value(seatContextKey).(*seat.Seat)
	return s
}

// MustGetSeat returns the seat or panics
func MustGetSeat(ctx context.Context) *seat.Seat {
	s := GetSeat(ctx)
	if s == nil {
		panic("no seat in context - seat middleware not applied?")
	}
	return s
}
