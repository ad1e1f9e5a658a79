package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mcoot/tworoomsboom/internal/api/response"
	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/services/view"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		o.println(string(data))
	} else {
		o.println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.Session:
		o.printSession(v)
	case response.SeatResponse:
		o.printSeat(v)
	case response.Result:
		o.printResult(v)
	case *view.View:
		o.printView(v)
	case response.History:
		o.printHistory(v)
	case HealthResult:
		o.printf("Status: %s\n", v.Status)
	default:
		o.printJSON(data)
	}
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) println(s string) {
	_, _ = fmt.Fprintln(o.w, s)
}

func (o *Output) printSession(s response.Session) {
	o.printf("Session: %s\n", s.PIN)
	o.printf("Status: %s\n", s.Status)
	o.printf("Players (%d):\n", len(s.Players))
	o.printPlayers(s.Players)
}

func (o *Output) printPlayers(players []response.Player) {
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	for _, p := range players {
		rooms := make([]string, len(p.Rooms))
		for i, r := range p.Rooms {
			rooms[i] = fmt.Sprint(r)
		}
		_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\t%s\n", p.Key, p.Name, p.Team, p.Role, strings.Join(rooms, ","))
	}
	_ = tw.Flush()
}

func (o *Output) printSeat(s response.SeatResponse) {
	o.printf("Seated as %s in session %s\n", s.PlayerKey, s.Session.PIN)
	o.printf("Seat expires: %s\n", s.ExpiresAt.Format("2006-01-02 15:04:05 MST"))
	o.printSession(s.Session)
}

func (o *Output) printView(v *view.View) {
	o.printf("Phase: %s (%s)\n", v.Phase, v.Kind)
	switch v.Kind {
	case view.KindMovedOn:
		o.printf("The game has moved on to %s\n", v.NavigateTo)
		return
	case view.KindWaiting:
		o.printf("Waiting; the session is in %s\n", v.Status)
		return
	case view.KindNotFound:
		o.println("You are not in this game")
		return
	case view.KindFinished:
		o.println("The game has ended")
		return
	}

	if v.Card != nil {
		o.printf("You: %s", v.Card.Name)
		if v.Card.Team != "" {
			o.printf(", %s %s", v.Card.Team, v.Card.Role)
		}
		o.println("")
	}
	if len(v.Roster) > 0 {
		names := make([]string, len(v.Roster))
		for i, m := range v.Roster {
			names[i] = m.Name
		}
		o.printf("Waiting room: %s\n", strings.Join(names, ", "))
		if v.CanStart {
			o.println("Ready to assign teams")
		}
	}
	if v.Room != 0 {
		names := make([]string, len(v.RoomMates))
		for i, m := range v.RoomMates {
			names[i] = m.Name
		}
		o.printf("Room %d with: %s\n", v.Room, strings.Join(names, ", "))
	}
	if v.Round > 0 {
		o.printf("Round %d: send %d hostage(s)\n", v.Round, v.Hostages)
		if v.SubPhase == view.SubPhaseCountdown {
			o.printf("Time left: %d:%02d\n", v.RemainingSeconds/60, v.RemainingSeconds%60)
		} else {
			o.println("Time is up: exchange hostages")
		}
	}
	if v.Result != nil {
		o.printf("Winner: %s\n", v.Result.Winner)
	}
}

func (o *Output) printResult(r response.Result) {
	o.printf("Session: %s\n", r.PIN)
	if r.Result == nil {
		o.println("No result")
		return
	}

	names := make(map[model.PlayerKey]string, len(r.Players))
	for _, p := range r.Players {
		names[model.PlayerKey(p.Key)] = p.Name
	}
	list := func(keys []model.PlayerKey) string {
		out := make([]string, len(keys))
		for i, k := range keys {
			out[i] = names[k]
			switch k {
			case r.Result.BomberKey:
				out[i] += " (Bomber)"
			case r.Result.PresidentKey:
				out[i] += " (President)"
			}
		}
		return strings.Join(out, ", ")
	}

	o.printf("Winner: %s\n", r.Result.Winner)
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "\tRoom 1\tRoom 2")
	for i, cp := range r.Result.Checkpoints {
		label := fmt.Sprintf("After round %d", i)
		switch i {
		case 0:
			label = "Start"
		case model.NumRounds:
			label = "Final"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", label, list(cp.Room1), list(cp.Room2))
	}
	_ = tw.Flush()
}

func (o *Output) printHistory(h response.History) {
	if len(h.Games) == 0 {
		o.println("No finished games")
		return
	}
	for _, g := range h.Games {
		o.printf("%s  %s  %s wins  %d players\n", g.FinishedAt.Format("2006-01-02 15:04"), g.PIN, g.Winner, g.PlayerCount)
	}
}
