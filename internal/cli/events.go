package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool
	var count int
	var player string

	cmd := &cobra.Command{
		Use:   "events [pin]",
		Short: "Stream a session's events",
		Long: `Connect to the session's event stream and print events as they arrive.

Events:
  - connected: the stream is open
  - snapshot: the session after a write, shaped like "session get -o json"
    (sent once on connect)
  - session_closed: the session was ended; the stream closes

Press Ctrl+C to disconnect.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := cfg.PIN(args)
			if err != nil {
				return err
			}
			return streamEvents(cmd, pin, player, count, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many snapshot events (0: until closed)")
	cmd.Flags().StringVar(&player, "player", "", "Subscribe as this player key when no seat is held")

	return cmd
}

// SSEEvent represents a parsed SSE event
type SSEEvent struct {
	Time  time.Time       `json:"time"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func streamEvents(cmd *cobra.Command, pin, player string, count int, jsonOutput bool) error {
	query := url.Values{}
	if token := cfg.SeatToken(); token != "" {
		query.Set("token", token)
	} else if player != "" {
		query.Set("player", player)
	}
	target := strings.TrimSuffix(cfg.ServerURL, "/") + sessionPath(pin) + "/events"
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	httpClient := &http.Client{
		Timeout: 0, // No timeout for SSE
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var errResp ErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Code != "" {
			errResp.Error.Status = resp.StatusCode
			return &errResp.Error
		}
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	w := cmd.OutOrStdout()
	if !jsonOutput {
		_, _ = fmt.Fprintf(w, "Connected to session %s\n", pin)
	}

	snapshots := 0
	err = readSSE(resp.Body, func(event, data string) bool {
		printEvent(w, event, data, jsonOutput)
		switch event {
		case "snapshot":
			snapshots++
			return count == 0 || snapshots < count
		case "session_closed":
			return false
		}
		return true
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		_, _ = fmt.Fprintln(w, "Disconnected")
	}
	return nil
}

// readSSE calls fn for each event in the stream until fn returns false or
// the stream ends. Comment lines are skipped.
func readSSE(r io.Reader, fn func(event, data string) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var currentEvent string
	var dataLines []string

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			if currentEvent != "" {
				if !fn(currentEvent, strings.Join(dataLines, "\n")) {
					return nil
				}
			}
			currentEvent = ""
			dataLines = nil
		}
	}

	return scanner.Err()
}

func printEvent(w io.Writer, event, data string, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		raw := json.RawMessage(data)
		if !json.Valid(raw) {
			raw, _ = json.Marshal(data)
		}
		evt := SSEEvent{
			Time:  now,
			Event: event,
			Data:  raw,
		}
		jsonData, _ := json.Marshal(evt)
		_, _ = fmt.Fprintln(w, string(jsonData))
		return
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	displayData := strings.ReplaceAll(data, "\n", " ")
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, event, displayData)
}
