package memory

import (
	"context"
	"sync"
	"time"

	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.Mutex

	sessions map[model.PIN]*model.Session
	watchers map[model.PIN]map[*watcher]struct{}
}

type watcher struct {
	ch chan *model.Session
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		sessions: make(map[model.PIN]*model.Session),
		watchers: make(map[model.PIN]map[*watcher]struct{}),
	}
}

var (
	_ storage.Storage = (*Storage)(nil)
	_ storage.Purger  = (*Storage)(nil)
)

func (s *Storage) CreateSession(ctx context.Context, sess *model.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.PIN]; ok {
		return model.ErrSessionExists
	}
	stored := sess.Clone()
	stored.Info.Version = 1
	s.sessions[sess.PIN] = stored
	sess.Info.Version = stored.Info.Version
	return nil
}

func (s *Storage) GetSession(ctx context.Context, pin model.PIN) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[pin]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

func (s *Storage) SessionExists(ctx context.Context, pin model.PIN) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[pin]
	return ok, nil
}

func (s *Storage) UpdateSession(ctx context.Context, pin model.PIN, fn storage.MutateFunc) (*model.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions[pin]
	if !ok {
		return nil, model.ErrSessionNotFound
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	next.PIN = pin
	next.Info.Version = current.Info.Version + 1
	s.sessions[pin] = next

	for w := range s.watchers[pin] {
		storage.DeliverLatest(w.ch, next.Clone())
	}
	return next.Clone(), nil
}

func (s *Storage) DeleteSession(ctx context.Context, pin model.PIN) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, pin)
	for w := range s.watchers[pin] {
		close(w.ch)
	}
	delete(s.watchers, pin)
	return nil
}

func (s *Storage) Watch(ctx context.Context, pin model.PIN) (<-chan *model.Session, error) {
	s.mu.Lock()
	sess, ok := s.sessions[pin]
	if !ok {
		s.mu.Unlock()
		return nil, model.ErrSessionNotFound
	}

	w := &watcher{ch: make(chan *model.Session, 1)}
	w.ch <- sess.Clone()
	if s.watchers[pin] == nil {
		s.watchers[pin] = make(map[*watcher]struct{})
	}
	s.watchers[pin][w] = struct{}{}
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		if set, ok := s.watchers[pin]; ok {
			if _, ok := set[w]; ok {
				delete(set, w)
				close(w.ch)
				if len(set) == 0 {
					delete(s.watchers, pin)
				}
			}
		}
	}()

	return w.ch, nil
}

// PurgeStale removes expired sessions. Memory has no key TTL so the janitor
// calls this periodically.
func (s *Storage) PurgeStale(ctx context.Context, finishedBefore, idleBefore time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for pin, sess := range s.sessions {
		updated := sess.Info.UpdatedAt
		finishedExpired := sess.Status == model.StatusFinished && updated.Before(finishedBefore)
		if !finishedExpired && !updated.Before(idleBefore) {
			continue
		}
		delete(s.sessions, pin)
		for w := range s.watchers[pin] {
			close(w.ch)
		}
		delete(s.watchers, pin)
		purged++
	}
	return purged, nil
}

// WatcherCount returns the number of open watches on a PIN
func (s *Storage) WatcherCount(pin model.PIN) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.watchers[pin])
}
