package pages

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/mcoot/tworoomsboom/internal/web/templates/layout"
)

// HomeData is the data for the lobby page
type HomeData struct {
	layout.PageData
	// PIN pre-fills the join form (from /join/{pin} links and QR codes)
	PIN string
}

// Home renders the lobby: start a new game or join one by PIN
func Home(data HomeData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := layout.NewWriter(w)

		if data.PIN == "" {
			h.Raw(`<section id="create"><h2>New game</h2>`)
			h.Raw(`<form method="post" action="/sessions">`)
			h.Raw(`<label>Your name <input type="text" name="name" maxlength="32" required></label>`)
			h.Raw(`<button type="submit">Create game</button></form></section>`)
		}

		h.Raw(`<section id="join"><h2>Join a game</h2>`)
		h.Raw(`<form method="post" action="/sessions/join">`)
		h.Raw(`<label>PIN <input type="text" name="pin" inputmode="numeric" pattern="[1-9][0-9]{4}" required value="`)
		h.Text(data.PIN)
		h.Raw(`"></label>`)
		h.Raw(`<label>Your name <input type="text" name="name" maxlength="32" required></label>`)
		h.Raw(`<button type="submit">Join game</button></form></section>`)

		return h.Err()
	})
	return layout.Base(data.PageData, body)
}
