package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mcoot/tworoomsboom/internal/api/response"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Token     string
	StateFile string
	Output    string
	Verbose   bool

	State State
}

// State is the seat remembered between invocations
type State struct {
	PIN       string    `json:"pin"`
	PlayerKey string    `json:"player_key"`
	SeatToken string    `json:"seat_token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("TWOROOMS_SERVER", "http://localhost:8080"),
		Token:     os.Getenv("TWOROOMS_TOKEN"),
		StateFile: getEnvOrDefault("TWOROOMS_STATE_FILE", defaultStateFile()),
		Output:    "text",
	}
}

// LoadState reads the state file. A missing file is an empty state.
func (c *Config) LoadState() error {
	data, err := os.ReadFile(c.StateFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	if err := json.Unmarshal(data, &c.State); err != nil {
		return fmt.Errorf("corrupt state file %s: %w", c.StateFile, err)
	}
	return nil
}

// SaveState remembers a newly taken seat
func (c *Config) SaveState(seat response.SeatResponse) error {
	c.State = State{
		PIN:       seat.Session.PIN,
		PlayerKey: seat.PlayerKey,
		SeatToken: seat.SeatToken,
		ExpiresAt: seat.ExpiresAt,
	}

	data, err := json.MarshalIndent(c.State, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(c.StateFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(c.StateFile, data, 0600)
}

// ClearState forgets the seat
func (c *Config) ClearState() error {
	c.State = State{}
	if err := os.Remove(c.StateFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SeatToken returns the explicit token, or the remembered one
func (c *Config) SeatToken() string {
	if c.Token != "" {
		return c.Token
	}
	return c.State.SeatToken
}

// PIN returns args[0] if given, otherwise the remembered session
func (c *Config) PIN(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if c.State.PIN == "" {
		return "", errors.New("no session: pass a PIN or run 'session create' or 'session join' first")
	}
	return c.State.PIN, nil
}

// PlayerKey returns the remembered player key
func (c *Config) PlayerKey() (string, error) {
	if c.State.PlayerKey == "" {
		return "", errors.New("no seat: run 'session create' or 'session join' first")
	}
	return c.State.PlayerKey, nil
}

func defaultStateFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tworooms/state.json"
	}
	return filepath.Join(home, ".tworooms", "state.json")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
