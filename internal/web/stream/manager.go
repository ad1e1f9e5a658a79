package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/tworoomsboom/internal/api/response"
	"github.com/mcoot/tworoomsboom/internal/model"
)

// Watcher is the part of the session controller hubs are fed from
type Watcher interface {
	Watch(ctx context.Context, pin model.PIN) (<-chan *model.Session, error)
}

// HubManager keeps one hub per watched session. Each hub is fed by a
// single store watch, so every client of a PIN shares one subscription.
type HubManager struct {
	hubs    map[model.PIN]*Hub
	mu      sync.Mutex
	watcher Watcher
	logger  *slog.Logger
}

// NewHubManager creates a new HubManager
func NewHubManager(watcher Watcher, logger *slog.Logger) *HubManager {
	return &HubManager{
		hubs:    make(map[model.PIN]*Hub),
		watcher: watcher,
		logger:  logger.With(slog.String("component", "stream")),
	}
}

// GetOrCreateHub returns the hub for a session, starting its store watch if
// needed. Fails with model.ErrSessionNotFound for unknown sessions.
func (m *HubManager) GetOrCreateHub(pin model.PIN) (*Hub, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if hub, ok := m.hubs[pin]; ok {
		return hub, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	snapshots, err := m.watcher.Watch(ctx, pin)
	if err != nil {
		cancel()
		return nil, err
	}

	hub := NewHub(pin, m.logger)
	hub.stopWatch = cancel
	m.hubs[pin] = hub
	go hub.Run()
	go m.pump(hub, snapshots)

	m.logger.Info("stream hub created", slog.String("pin", string(pin)))
	return hub, nil
}

// GetHub returns the hub for a session, or nil if none is running
func (m *HubManager) GetHub(pin model.PIN) *Hub {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hubs[pin]
}

// pump forwards store snapshots into the hub until the watch ends.
// Snapshots use the same schema as the REST session endpoints.
func (m *HubManager) pump(hub *Hub, snapshots <-chan *model.Session) {
	for snap := range snapshots {
		data, err := json.Marshal(response.SessionFromModel(snap))
		if err != nil {
			hub.logger.Error("failed to encode snapshot", slog.String("error", err.Error()))
			continue
		}
		hub.Broadcast(Message{Event: model.EventSnapshot, Data: data})
		if snap.Status == model.StatusFinished {
			hub.Broadcast(Message{Event: model.EventSessionClosed, Data: []byte(`{"status":"finished"}`)})
			break
		}
	}
	m.removeHub(hub)
}

func (m *HubManager) removeHub(hub *Hub) {
	m.mu.Lock()
	if current, ok := m.hubs[hub.pin]; ok && current == hub {
		delete(m.hubs, hub.pin)
		m.logger.Info("stream hub removed", slog.String("pin", string(hub.pin)))
	}
	m.mu.Unlock()
	hub.Close()
}

// RemoveHub stops the hub for a session
func (m *HubManager) RemoveHub(pin model.PIN) {
	if hub := m.GetHub(pin); hub != nil {
		m.removeHub(hub)
	}
}

// CleanupEmptyHubs stops hubs that have had no clients for at least minAge
// since creation. It returns how many were removed.
func (m *HubManager) CleanupEmptyHubs(minAge time.Duration) int {
	m.mu.Lock()
	var stale []*Hub
	for pin, hub := range m.hubs {
		if hub.ClientCount() == 0 && time.Since(hub.createdAt) >= minAge {
			stale = append(stale, hub)
			delete(m.hubs, pin)
		}
	}
	m.mu.Unlock()

	for _, hub := range stale {
		hub.Close()
	}
	if len(stale) > 0 {
		m.logger.Info("stream empty hubs cleaned up", slog.Int("removed", len(stale)))
	}
	return len(stale)
}

// HubCount returns the number of running hubs
func (m *HubManager) HubCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hubs)
}

// Shutdown stops every hub
func (m *HubManager) Shutdown() {
	m.mu.Lock()
	hubs := m.hubs
	m.hubs = make(map[model.PIN]*Hub)
	m.mu.Unlock()

	for _, hub := range hubs {
		hub.Close()
	}
}
