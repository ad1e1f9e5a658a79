package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/tworoomsboom/internal/model"
	"github.com/mcoot/tworoomsboom/internal/storage"
)

// deletedPayload is published when a session is deleted
const deletedPayload = ""

// Storage is a Redis-backed implementation of the storage interface.
// Writes use WATCH/MULTI and publish the committed document so that
// watchers on any server instance see it.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ping checks the connection, used by the health endpoint
func (s *Storage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var _ storage.Storage = (*Storage)(nil)

func (s *Storage) ttlFor(sess *model.Session) time.Duration {
	if sess.Status == model.StatusFinished {
		return s.cfg.FinishedTTL
	}
	return s.cfg.SessionTTL
}

func (s *Storage) CreateSession(ctx context.Context, sess *model.Session) error {
	sess.Info.Version = 1
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	ok, err := s.client.SetNX(ctx, sessionKey(sess.PIN), data, s.ttlFor(sess)).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrSessionExists
	}
	return nil
}

func (s *Storage) GetSession(ctx context.Context, pin model.PIN) (*model.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(pin)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSessionNotFound
		}
		return nil, err
	}
	return decodeSession(data)
}

func (s *Storage) SessionExists(ctx context.Context, pin model.PIN) (bool, error) {
	n, err := s.client.Exists(ctx, sessionKey(pin)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Storage) UpdateSession(ctx context.Context, pin model.PIN, fn storage.MutateFunc) (*model.Session, error) {
	key := sessionKey(pin)
	var committed *model.Session

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrSessionNotFound
			}
			return err
		}

		sess, err := decodeSession(data)
		if err != nil {
			return err
		}
		version := sess.Info.Version
		if err := fn(sess); err != nil {
			return err
		}
		sess.PIN = pin
		sess.Info.Version = version + 1

		out, err := json.Marshal(sess)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, s.ttlFor(sess))
			pipe.Publish(ctx, sessionChannel(pin), out)
			return nil
		})
		if err != nil {
			return err
		}
		committed = sess
		return nil
	}

	if _, ok := ctx.Deadline(); !ok && s.cfg.ContentionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ContentionTimeout)
		defer cancel()
	}

	for attempt := 0; ; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return committed, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}

		timer := time.NewTimer(s.cfg.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("update %s: still conflicting after %d attempts: %w", pin, attempt+1, ctx.Err())
		case <-timer.C:
		}
	}
}

func (s *Storage) DeleteSession(ctx context.Context, pin model.PIN) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, sessionKey(pin))
	pipe.Publish(ctx, sessionChannel(pin), deletedPayload)
	_, err := pipe.Exec(ctx)
	return err
}

// Watch subscribes before reading the current document so no commit can
// fall between the two. Snapshots older than one already delivered are
// dropped.
func (s *Storage) Watch(ctx context.Context, pin model.PIN) (<-chan *model.Session, error) {
	sub := s.client.Subscribe(ctx, sessionChannel(pin))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	current, err := s.GetSession(ctx, pin)
	if err != nil {
		_ = sub.Close()
		return nil, err
	}

	out := make(chan *model.Session, 1)
	out <- current

	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()

		lastVersion := current.Info.Version
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok || msg.Payload == deletedPayload {
					return
				}
				snap, err := decodeSession([]byte(msg.Payload))
				if err != nil || snap.Info.Version <= lastVersion {
					continue
				}
				lastVersion = snap.Info.Version
				storage.DeliverLatest(out, snap)
			}
		}
	}()

	return out, nil
}

func decodeSession(data []byte) (*model.Session, error) {
	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, err
	}
	if sess.Players == nil {
		sess.Players = make(map[model.PlayerKey]*model.Player)
	}
	return &sess, nil
}
