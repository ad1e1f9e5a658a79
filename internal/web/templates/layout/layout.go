// Package layout holds the page shell shared by every HTML page.
package layout

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"
)

// FlashMessage is a one-shot notice shown at the top of the next page
type FlashMessage struct {
	Type    string
	Message string
}

// PageData carries what the shell needs on every page
type PageData struct {
	Title string
	Flash *FlashMessage
	// PIN and PlayerKey identify the seat the browser holds, if any
	PIN       string
	PlayerKey string
	// EventsURL, when set, makes the page reload on any session snapshot
	// newer than Version, the session version the page was rendered from
	EventsURL string
	Version   int64
}

// Base wraps body in the document shell
func Base(data PageData, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := NewWriter(w)
		h.Raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		h.Raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.Raw(`<title>`)
		h.Text(data.Title)
		h.Raw(` | Two Rooms and a Boom</title></head><body>`)

		h.Raw(`<header><a href="/" class="brand">Two Rooms and a Boom</a>`)
		if data.PIN != "" {
			h.Raw(`<span class="pin">PIN `)
			h.Text(data.PIN)
			h.Raw(`</span>`)
		}
		if data.PlayerKey != "" {
			h.Raw(`<form method="post" action="/leave" class="leave"><button type="submit">Leave</button></form>`)
		}
		h.Raw(`</header>`)

		if data.Flash != nil {
			h.Raw(`<div class="flash flash-`)
			h.Text(data.Flash.Type)
			h.Raw(`" role="alert">`)
			h.Text(data.Flash.Message)
			h.Raw(`</div>`)
		}

		h.Raw(`<main>`)
		if h.Err() != nil {
			return h.Err()
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		h.Raw(`</main>`)

		if data.EventsURL != "" {
			h.Raw(`<script data-version="`)
			h.Text(strconv.FormatInt(data.Version, 10))
			h.Raw(`">(function(){var seen=`)
			h.Raw(strconv.FormatInt(data.Version, 10))
			h.Raw(`;var s=new EventSource("`)
			h.Text(data.EventsURL)
			h.Raw(`");s.addEventListener("snapshot",function(e){var v;try{v=JSON.parse(e.data).version}catch(_){v=seen+1}if(v>seen){s.close();location.reload()}});`)
			h.Raw(`s.addEventListener("session_closed",function(){s.close();location.reload()})})();</script>`)
		}
		h.Raw(`</body></html>`)
		return h.Err()
	})
}

// Writer writes HTML, escaping text and remembering the first error
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter creates a Writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Raw writes trusted markup
func (h *Writer) Raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

// Text writes escaped text
func (h *Writer) Text(s string) {
	h.Raw(templ.EscapeString(s))
}

// Err returns the first write error
func (h *Writer) Err() error {
	return h.err
}

// Link renders a single paragraph holding one link
func Link(href, label string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := NewWriter(w)
		h.Raw(`<p><a href="`)
		h.Text(href)
		h.Raw(`">`)
		h.Text(label)
		h.Raw(`</a></p>`)
		return h.Err()
	})
}
