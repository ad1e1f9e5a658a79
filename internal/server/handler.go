// Package server assembles the JSON API and the HTML pages into one handler.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/tworoomsboom/internal/api"
	"github.com/mcoot/tworoomsboom/internal/factory"
	"github.com/mcoot/tworoomsboom/internal/web"
)

// Options holds the settings the routers need beyond the wired app
type Options struct {
	Logger *slog.Logger
	// PublicURL is the externally visible base URL used in join QR codes
	PublicURL string
	// StaticDir is served under /static/ when set
	StaticDir string
}

// Handler mounts the API under /api/v1 and the pages at the root
func Handler(app *factory.App, opts Options) http.Handler {
	r := mux.NewRouter()

	api.Mount(r, api.RouterConfig{
		Logger:            opts.Logger,
		Clock:             app.Clock,
		SeatService:       app.SeatService,
		SessionController: app.SessionController,
		ViewService:       app.ViewService,
		HubManager:        app.HubManager,
		PublicURL:         opts.PublicURL,
	})

	web.Mount(r, web.RouterConfig{
		Logger:            opts.Logger,
		Clock:             app.Clock,
		SeatService:       app.SeatService,
		SessionController: app.SessionController,
		ViewService:       app.ViewService,
		StaticDir:         opts.StaticDir,
	})

	return r
}
