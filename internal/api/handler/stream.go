package handler

import (
	"net/http"
	"strings"

	"github.com/skip2/go-qrcode"

	"github.com/mcoot/tworoomsboom/internal/api/middleware"
	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/services/session"
	"github.com/mcoot/tworoomsboom/internal/web/stream"
)

const qrSize = 320

// StreamHandler serves live session snapshots and the join QR code
type StreamHandler struct {
	controller *session.Controller
	hubManager *stream.HubManager
	publicURL  string
}

// NewStreamHandler creates a new stream handler. publicURL is the base the
// join link in QR codes points at; empty means derive it from the request.
func NewStreamHandler(controller *session.Controller, hubManager *stream.HubManager, publicURL string) *StreamHandler {
	return &StreamHandler{
		controller: controller,
		hubManager: hubManager,
		publicURL:  strings.TrimSuffix(publicURL, "/"),
	}
}

// Events handles GET /api/v1/sessions/{pin}/events
func (h *StreamHandler) Events(w http.ResponseWriter, r *http.Request) {
	hub, err := h.hubManager.GetOrCreateHub(pinVar(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	stream.ServeSSE(w, r, hub, subscriber(r))
}

// WebSocket handles GET /api/v1/sessions/{pin}/ws
func (h *StreamHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	hub, err := h.hubManager.GetOrCreateHub(pinVar(r))
	if err != nil {
		WriteError(w, err)
		return
	}

	stream.ServeWS(w, r, hub, subscriber(r))
}

// QR handles GET /api/v1/sessions/{pin}/qr, a PNG of the join link
func (h *StreamHandler) QR(w http.ResponseWriter, r *http.Request) {
	pin := pinVar(r)
	if _, err := h.controller.GetSession(r.Context(), pin); err != nil {
		WriteError(w, err)
		return
	}

	png, err := qrcode.Encode(h.joinURL(r, pin), qrcode.Medium, qrSize)
	if err != nil {
		WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(png)
}

// joinURL is the page a scanned code opens
func (h *StreamHandler) joinURL(r *http.Request, pin model.PIN) string {
	base := h.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/join/" + string(pin)
}

// subscriber names the client in hub logs: the seat's key, or ?player=
func subscriber(r *http.Request) model.PlayerKey {
	if st := middleware.GetSeat(r.Context()); st != nil {
		return st.PlayerKey
	}
	return model.PlayerKey(r.URL.Query().Get("player"))
}
