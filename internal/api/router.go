package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tworoomsboom/internal/api/handler"
	"github.com/mcoot/tworoomsboom/internal/api/middleware"
	"github.com/mcoot/tworoomsboom/internal/dependencies/clock"
	"github.com/mcoot/tworoomsboom/internal/services/seat"
	"github.com/mcoot/tworoomsboom/internal/services/session"
	"github.com/mcoot/tworoomsboom/internal/services/view"
	"github.com/mcoot/tworoomsboom/internal/web/stream"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger            *slog.Logger
	Clock             clock.Clock
	SeatService       *seat.Service
	SessionController *session.Controller
	ViewService       *view.Service
	HubManager        *stream.HubManager
	// PublicURL is the externally visible base URL used in join QR codes
	PublicURL string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	Mount(r, cfg)
	return r
}

// Mount registers the API routes under /api/v1 on an existing router
func Mount(r *mux.Router, cfg RouterConfig) {
	sessionHandler := handler.NewSessionHandler(cfg.SessionController, cfg.SeatService)
	playerHandler := handler.NewPlayerHandler(cfg.SessionController, cfg.SeatService, cfg.ViewService, cfg.Clock)
	gameHandler := handler.NewGameHandler(cfg.SessionController)
	streamHandler := handler.NewStreamHandler(cfg.SessionController, cfg.HubManager, cfg.PublicURL)

	seatMiddleware := middleware.Seat(cfg.SeatService)
	optionalSeatMiddleware := middleware.OptionalSeat(cfg.SeatService)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Logging(cfg.Logger))
	api.Use(middleware.Recovery(cfg.Logger))

	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	api.HandleFunc("/history", gameHandler.History).Methods(http.MethodGet)

	// Anyone with the PIN
	api.HandleFunc("/sessions", sessionHandler.Create).Methods(http.MethodPost)
	public := api.PathPrefix("/sessions/{pin}").Subrouter()
	public.Use(optionalSeatMiddleware)
	public.HandleFunc("", sessionHandler.Get).Methods(http.MethodGet)
	public.HandleFunc("/players", playerHandler.Join).Methods(http.MethodPost)
	public.HandleFunc("/players/{key}/view", playerHandler.View).Methods(http.MethodGet)
	public.HandleFunc("/result", gameHandler.Result).Methods(http.MethodGet)
	public.HandleFunc("/events", streamHandler.Events).Methods(http.MethodGet)
	public.HandleFunc("/ws", streamHandler.WebSocket).Methods(http.MethodGet)
	public.HandleFunc("/qr", streamHandler.QR).Methods(http.MethodGet)

	// Seat holders only
	seated := api.PathPrefix("/sessions/{pin}").Subrouter()
	seated.Use(seatMiddleware)
	seated.HandleFunc("", sessionHandler.End).Methods(http.MethodDelete)
	seated.HandleFunc("/players/{key}/name", playerHandler.SetName).Methods(http.MethodPatch)
	seated.HandleFunc("/assign", gameHandler.Assign).Methods(http.MethodPost)
	seated.HandleFunc("/reshuffle", gameHandler.Reshuffle).Methods(http.MethodPost)
	seated.HandleFunc("/advance", gameHandler.Advance).Methods(http.MethodPost)
	seated.HandleFunc("/exchange", gameHandler.Exchange).Methods(http.MethodPost)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
