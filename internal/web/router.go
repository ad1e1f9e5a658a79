package web

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tworoomsboom/internal/dependencies/clock"
	httpmw "github.com/mcoot/tworoomsboom/internal/middleware"
	"github.com/mcoot/tworoomsboom/internal/services/seat"
	"github.com/mcoot/tworoomsboom/internal/services/session"
	"github.com/mcoot/tworoomsboom/internal/services/view"
	"github.com/mcoot/tworoomsboom/internal/web/handler"
	"github.com/mcoot/tworoomsboom/internal/web/middleware"
)

// RouterConfig holds configuration for the web router
type RouterConfig struct {
	Logger            *slog.Logger
	Clock             clock.Clock
	SeatService       *seat.Service
	SessionController *session.Controller
	ViewService       *view.Service
	StaticDir         string // Path to static files directory
}

// NewRouter creates a new web router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	Mount(r, cfg)
	return r
}

// Mount registers the HTML routes on an existing router
func Mount(r *mux.Router, cfg RouterConfig) {
	homeHandler := handler.NewHomeHandler()
	lobbyHandler := handler.NewLobbyHandler(cfg.SessionController, cfg.SeatService)
	gameHandler := handler.NewGameHandler(cfg.SessionController, cfg.ViewService, cfg.Clock)

	site := r.NewRoute().Subrouter()
	site.Use(httpmw.Logging(cfg.Logger))
	site.Use(middleware.Recovery(cfg.Logger))
	site.Use(middleware.Flash())

	if cfg.StaticDir != "" {
		staticHandler := http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir)))
		site.PathPrefix("/static/").Handler(staticHandler)
	}

	// Pages and lobby forms
	public := site.NewRoute().Subrouter()
	public.Use(middleware.OptionalSeat(cfg.SeatService))
	public.HandleFunc("/", homeHandler.Home).Methods(http.MethodGet)
	public.HandleFunc("/join/{pin}", homeHandler.JoinPage).Methods(http.MethodGet)
	public.HandleFunc("/leave", lobbyHandler.Leave).Methods(http.MethodPost)
	public.HandleFunc("/sessions", lobbyHandler.Create).Methods(http.MethodPost)
	public.HandleFunc("/sessions/join", lobbyHandler.Join).Methods(http.MethodPost)
	public.HandleFunc("/sessions/{pin:[0-9]+}/{phase}", gameHandler.View).Methods(http.MethodGet)

	// Game actions need the browser's seat
	seated := site.PathPrefix("/sessions/{pin:[0-9]+}").Subrouter()
	seated.Use(middleware.RequireSeat(cfg.SeatService))
	seated.HandleFunc("/assign", gameHandler.Assign).Methods(http.MethodPost)
	seated.HandleFunc("/reshuffle", gameHandler.Reshuffle).Methods(http.MethodPost)
	seated.HandleFunc("/advance", gameHandler.Advance).Methods(http.MethodPost)
	seated.HandleFunc("/exchange", gameHandler.Exchange).Methods(http.MethodPost)
	seated.HandleFunc("/end", gameHandler.End).Methods(http.MethodPost)
}
