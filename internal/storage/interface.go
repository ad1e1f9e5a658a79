package storage

import (
	"context"
	"time"

	"github.com/mcoot/tworoomsboom/internal/model"
)

// MutateFunc edits a session in place. Returning an error aborts the write.
type MutateFunc func(s *model.Session) error

// Storage is the session store: one document per PIN
type Storage interface {
	// CreateSession stores a new document. Returns model.ErrSessionExists if
	// the PIN is taken.
	CreateSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, pin model.PIN) (*model.Session, error)
	SessionExists(ctx context.Context, pin model.PIN) (bool, error)

	// UpdateSession applies fn to the current document and commits the result
	// atomically with respect to other updates of the same PIN. The committed
	// document is returned. Errors from fn are returned unchanged.
	UpdateSession(ctx context.Context, pin model.PIN, fn MutateFunc) (*model.Session, error)

	DeleteSession(ctx context.Context, pin model.PIN) error

	// Watch delivers the current document immediately and then every
	// committed version. The channel holds at most one pending snapshot; a
	// slow reader only sees the latest. The channel is closed when ctx is
	// done or the session is deleted.
	Watch(ctx context.Context, pin model.PIN) (<-chan *model.Session, error)
}

// Purger is implemented by stores that need explicit expiry
type Purger interface {
	// PurgeStale deletes finished sessions last updated before finishedBefore
	// and any session last updated before idleBefore
	PurgeStale(ctx context.Context, finishedBefore, idleBefore time.Time) (int, error)
}

// DeliverLatest puts snap on ch, replacing any snapshot still waiting there.
// ch must have a buffer of one and a single sender.
func DeliverLatest(ch chan *model.Session, snap *model.Session) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
