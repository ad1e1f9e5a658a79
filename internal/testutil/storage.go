package testutil

import (
	"context"
	"sync"

	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/storage"
)

// FlakyStorage wraps a store and fails writes while an error is set
type FlakyStorage struct {
	storage.Storage

	mu       sync.Mutex
	writeErr error
}

var _ storage.Storage = (*FlakyStorage)(nil)

func NewFlakyStorage(inner storage.Storage) *FlakyStorage {
	return &FlakyStorage{Storage: inner}
}

// FailWrites makes every following create and update return err; nil heals it
func (f *FlakyStorage) FailWrites(err error) {
	f.mu.Lock()
	f.writeErr = err
	f.mu.Unlock()
}

func (f *FlakyStorage) err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writeErr
}

func (f *FlakyStorage) CreateSession(ctx context.Context, s *model.Session) error {
	if err := f.err(); err != nil {
		return err
	}
	return f.Storage.CreateSession(ctx, s)
}

func (f *FlakyStorage) UpdateSession(ctx context.Context, pin model.PIN, fn storage.MutateFunc) (*model.Session, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.Storage.UpdateSession(ctx, pin, fn)
}
