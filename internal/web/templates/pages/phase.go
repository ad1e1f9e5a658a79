package pages

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/services/view"
	"github.com/mcoot/tworoomsboom/internal/web/templates/layout"
)

// PhaseData is the data for one phase page
type PhaseData struct {
	layout.PageData
	View *view.View
	// Names resolves player keys on the results board
	Names map[model.PlayerKey]string
}

// Phase renders the screen for the view's kind
func Phase(data PhaseData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := layout.NewWriter(w)
		v := data.View

		h.Raw(`<section id="phase" data-kind="`)
		h.Text(string(v.Kind))
		h.Raw(`" data-phase="`)
		h.Text(string(v.Phase))
		h.Raw(`">`)

		switch v.Kind {
		case view.KindWaiting:
			h.Raw(`<p id="waiting">Waiting for the game to reach `)
			h.Text(phaseTitle(v.Phase))
			h.Raw(`…</p>`)
		case view.KindNotFound:
			h.Raw(`<p id="not-found">You are not in this game.</p><p><a href="/">Back to the lobby</a></p>`)
		case view.KindResults:
			results(h, data)
		case view.KindPhase:
			switch {
			case v.Status == model.StatusNotStarted:
				waitingRoom(h, v)
			case v.Round > 0:
				card(h, v)
				round(h, v)
			default:
				card(h, v)
				preparation(h, v)
			}
		}

		h.Raw(`</section>`)
		return h.Err()
	})
	return layout.Base(data.PageData, body)
}

func waitingRoom(h *layout.Writer, v *view.View) {
	h.Raw(`<h2>Waiting room</h2><p>Share PIN <strong class="pin">`)
	h.Text(string(v.PIN))
	h.Raw(`</strong> or the code below.</p>`)
	h.Raw(`<img class="qr" alt="Join QR code" src="/api/v1/sessions/`)
	h.Text(string(v.PIN))
	h.Raw(`/qr">`)

	h.Raw(`<ul id="roster">`)
	for _, m := range v.Roster {
		h.Raw(`<li data-key="`)
		h.Text(string(m.Key))
		h.Raw(`">`)
		h.Text(m.Name)
		if m.Key == v.PlayerKey {
			h.Raw(` <em>(you)</em>`)
		}
		h.Raw(`</li>`)
	}
	h.Raw(`</ul>`)

	if v.CanStart {
		actionForm(h, v.PIN, "assign", "assign", "Assign teams")
	} else if v.IsCreator {
		h.Raw(`<p class="hint">Waiting for at least one more player.</p>`)
	}
}

func card(h *layout.Writer, v *view.View) {
	h.Raw(`<div id="card"><p class="name">`)
	h.Text(v.Card.Name)
	h.Raw(`</p><p class="team team-`)
	h.Text(string(v.Card.Team))
	h.Raw(`">`)
	h.Text(string(v.Card.Team))
	h.Raw(`</p><p class="role">`)
	h.Text(string(v.Card.Role))
	h.Raw(`</p></div>`)

	h.Raw(`<p id="room">Room `)
	h.Text(strconv.Itoa(int(v.Room)))
	h.Raw(`</p><ul id="room-mates">`)
	for _, m := range v.RoomMates {
		h.Raw(`<li>`)
		h.Text(m.Name)
		h.Raw(`</li>`)
	}
	h.Raw(`</ul>`)
}

func preparation(h *layout.Writer, v *view.View) {
	h.Raw(`<h2>Preparation</h2><p>Go to your room. Hostages per round: <span id="hostage-schedule">`)
	for i, n := range v.HostageSchedule {
		if i > 0 {
			h.Raw(`, `)
		}
		h.Text(strconv.Itoa(n))
	}
	h.Raw(`</span></p>`)

	if v.IsCreator {
		actionForm(h, v.PIN, "reshuffle", "reshuffle", "Reshuffle")
		advanceForm(h, v, "Start round 1")
	}
}

func round(h *layout.Writer, v *view.View) {
	h.Raw(`<h2>Round `)
	h.Text(strconv.Itoa(v.Round))
	h.Raw(`</h2><p id="hostages">Send `)
	h.Text(strconv.Itoa(v.Hostages))
	h.Raw(` hostage(s) across.</p>`)

	if v.SubPhase == view.SubPhaseCountdown {
		h.Raw(`<p id="countdown" data-remaining="`)
		h.Text(strconv.Itoa(v.RemainingSeconds))
		h.Raw(`">`)
		h.Text(fmt.Sprintf("%d:%02d", v.RemainingSeconds/60, v.RemainingSeconds%60))
		h.Raw(` left</p>`)
	} else {
		h.Raw(`<p id="countdown" data-remaining="0">Time is up. Exchange hostages.</p>`)
	}

	h.Raw(`<form method="post" id="exchange" action="/sessions/`)
	h.Text(string(v.PIN))
	h.Raw(`/exchange"><input type="hidden" name="round" value="`)
	h.Text(strconv.Itoa(v.Round))
	h.Raw(`"><button type="submit" name="traded" value="true">I was traded</button>`)
	h.Raw(`<button type="submit" name="traded" value="false">I stayed</button></form>`)

	if v.IsCreator {
		next := "Next round"
		if v.Round == model.NumRounds {
			next = "Show results"
		}
		advanceForm(h, v, next)
	}
}

func results(h *layout.Writer, data PhaseData) {
	v := data.View
	h.Raw(`<h2>Results</h2>`)
	res := v.Result
	if res == nil {
		h.Raw(`<p id="winner">No result: the Bomber or President is missing.</p>`)
	} else {
		h.Raw(`<p id="winner" class="team-`)
		h.Text(string(res.Winner))
		h.Raw(`">`)
		h.Text(string(res.Winner))
		h.Raw(` team wins</p>`)

		h.Raw(`<table id="board"><thead><tr><th></th><th>Room 1</th><th>Room 2</th></tr></thead><tbody>`)
		for i, cp := range res.Checkpoints {
			h.Raw(`<tr><th>`)
			h.Text(checkpointTitle(i))
			h.Raw(`</th><td>`)
			names(h, data, cp.Room1)
			h.Raw(`</td><td>`)
			names(h, data, cp.Room2)
			h.Raw(`</td></tr>`)
		}
		h.Raw(`</tbody></table>`)
	}

	if v.IsCreator {
		actionForm(h, v.PIN, "end", "end", "End game")
	}
}

func names(h *layout.Writer, data PhaseData, keys []model.PlayerKey) {
	for i, k := range keys {
		if i > 0 {
			h.Raw(`, `)
		}
		name := data.Names[k]
		if name == "" {
			name = string(k)
		}
		h.Text(name)
		if data.View.Result != nil {
			switch k {
			case data.View.Result.BomberKey:
				h.Raw(` <span class="role">(Bomber)</span>`)
			case data.View.Result.PresidentKey:
				h.Raw(` <span class="role">(President)</span>`)
			}
		}
	}
}

func actionForm(h *layout.Writer, pin model.PIN, action, id, label string) {
	h.Raw(`<form method="post" action="/sessions/`)
	h.Text(string(pin))
	h.Raw(`/`)
	h.Text(action)
	h.Raw(`"><button type="submit" id="`)
	h.Text(id)
	h.Raw(`">`)
	h.Text(label)
	h.Raw(`</button></form>`)
}

// advanceForm only applies while the session is still in the status shown
func advanceForm(h *layout.Writer, v *view.View, label string) {
	h.Raw(`<form method="post" action="/sessions/`)
	h.Text(string(v.PIN))
	h.Raw(`/advance"><input type="hidden" name="expected" value="`)
	h.Text(string(v.Status))
	h.Raw(`"><button type="submit" id="advance">`)
	h.Text(label)
	h.Raw(`</button></form>`)
}

func phaseTitle(s model.GameStatus) string {
	switch s {
	case model.StatusNotStarted:
		return "the waiting room"
	case model.StatusPreparation:
		return "preparation"
	case model.StatusResults:
		return "the results"
	}
	if k := s.Round(); k > 0 {
		return "round " + strconv.Itoa(k)
	}
	return string(s)
}

func checkpointTitle(i int) string {
	switch i {
	case 0:
		return "Start"
	case model.NumRounds:
		return "Final"
	}
	return "After round " + strconv.Itoa(i)
}
