package interview

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SessionStore keeps live interview sessions in Redis so any server process
// holding the interview id can resume a session after a reconnect or restart.
// Snapshots are plain JSON under interview:{id}; the durable database, not the
// cache, is authoritative once an interview completes.
type SessionStore struct {
	redis   *redis.Client
	logger  zerolog.Logger
	ttl     time.Duration
	lockTTL time.Duration
}

// SessionStoreOptions tunes cache behavior.
type SessionStoreOptions struct {
	TTL     time.Duration // 0 = no expiry
	LockTTL time.Duration
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client *redis.Client, logger zerolog.Logger, opts SessionStoreOptions) *SessionStore {
	if opts.LockTTL <= 0 {
		opts.LockTTL = 10 * time.Second
	}
	return &SessionStore{
		redis:   client,
		logger:  logger.With().Str("component", "session_store").Logger(),
		ttl:     opts.TTL,
		lockTTL: opts.LockTTL,
	}
}

func sessionKey(interviewID int64) string {
	return fmt.Sprintf("interview:%d", interviewID)
}

func lockKey(interviewID int64) string {
	return fmt.Sprintf("interview:lock:%d", interviewID)
}

// Save persists the session snapshot.
func (s *SessionStore) Save(ctx context.Context, interviewID int64, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.redis.Set(ctx, sessionKey(interviewID), data, s.ttl).Err()
}

// Load retrieves a session snapshot. Returns ErrSessionNotFound when absent.
func (s *SessionStore) Load(ctx context.Context, interviewID int64) (*Session, error) {
	data, err := s.redis.Get(ctx, sessionKey(interviewID)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// Delete removes the cache entry once the durable record is authoritative.
func (s *SessionStore) Delete(ctx context.Context, interviewID int64) error {
	return s.redis.Del(ctx, sessionKey(interviewID)).Err()
}

// Acquire takes a short-lived lease on the interview so the load-mutate-save
// round trip is exclusive across processes. Returns an unlock function and
// ErrLockHeld when another holder owns the lease. The fencing value ensures
// unlock only ever deletes its own lease.
func (s *SessionStore) Acquire(ctx context.Context, interviewID int64) (func() error, error) {
	key := lockKey(interviewID)
	lockValue := uuid.New().String()

	acquired, err := s.redis.SetNX(ctx, key, lockValue, s.lockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !acquired {
		return nil, ErrLockHeld
	}

	unlock := func() error {
		// Lua script ensures we only delete our own lock
		script := `
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			else
				return 0
			end
		`
		return s.redis.Eval(ctx, script, []string{key}, lockValue).Err()
	}

	return unlock, nil
}
