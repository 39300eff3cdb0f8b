package dialog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type memoryEntry struct {
	session Session
	expires time.Time
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[int64]memoryEntry
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[int64]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, actorID int64) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[actorID]
	if !ok {
		return nil, nil
	}
	if !e.expires.IsZero() && !s.now().Before(e.expires) {
		delete(s.sessions, actorID)
		return nil, nil
	}
	out := e.session
	out.Data = make(map[string]string, len(e.session.Data))
	for k, v := range e.session.Data {
		out.Data[k] = v
	}
	return &out, nil
}

func (s *MemoryStore) Put(_ context.Context, sess *Session, ttl time.Duration) error {
	e := memoryEntry{session: *sess}
	e.session.Data = make(map[string]string, len(sess.Data))
	for k, v := range sess.Data {
		e.session.Data[k] = v
	}
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.sessions[sess.ActorID] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, actorID int64) error {
	s.mu.Lock()
	delete(s.sessions, actorID)
	s.mu.Unlock()
	return nil
}

// RedisStore keeps sessions as JSON values with a TTL, so they survive a restart
// and are shared between replicas.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "hozur:dialog:"}
}

func (s *RedisStore) key(actorID int64) string {
	return fmt.Sprintf("%s%d", s.prefix, actorID)
}

func (s *RedisStore) Get(ctx context.Context, actorID int64) (*Session, error) {
	data, err := s.client.Get(ctx, s.key(actorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Put(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.client.Set(ctx, s.key(sess.ActorID), data, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, actorID int64) error {
	return s.client.Del(ctx, s.key(actorID)).Err()
}

const retryInterval = time.Minute

// FailoverStore serves from primary and switches to fallback when primary
// fails. Primary is retried once retryInterval has passed since the failure.
type FailoverStore struct {
	primary  Store
	fallback Store
	logger   zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

func NewFailoverStore(primary, fallback Store, logger zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With().Str("component", "dialog_store").Logger(),
	}
}

func (s *FailoverStore) usePrimary() bool {
	if !s.isDown.Load() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Since(s.lastCheck) >= retryInterval
}

func (s *FailoverStore) markDown(err error) {
	s.mu.Lock()
	s.lastCheck = time.Now()
	s.mu.Unlock()
	if !s.isDown.Swap(true) {
		s.logger.Warn().Err(err).Msg("session store primary unavailable, using fallback")
	}
}

func (s *FailoverStore) markUp() {
	if s.isDown.Swap(false) {
		s.logger.Info().Msg("session store primary recovered")
	}
}

func (s *FailoverStore) Get(ctx context.Context, actorID int64) (*Session, error) {
	if s.usePrimary() {
		sess, err := s.primary.Get(ctx, actorID)
		if err == nil {
			s.markUp()
			return sess, nil
		}
		s.markDown(err)
	}
	return s.fallback.Get(ctx, actorID)
}

func (s *FailoverStore) Put(ctx context.Context, sess *Session, ttl time.Duration) error {
	if s.usePrimary() {
		err := s.primary.Put(ctx, sess, ttl)
		if err == nil {
			s.markUp()
			return nil
		}
		s.markDown(err)
	}
	return s.fallback.Put(ctx, sess, ttl)
}

func (s *FailoverStore) Delete(ctx context.Context, actorID int64) error {
	// Drop both copies so a session written during an outage cannot resurface.
	ferr := s.fallback.Delete(ctx, actorID)
	if s.usePrimary() {
		err := s.primary.Delete(ctx, actorID)
		if err == nil {
			s.markUp()
			return ferr
		}
		s.markDown(err)
	}
	return ferr
}
