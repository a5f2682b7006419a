package interview

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, opts SessionStoreOptions) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewSessionStore(client, zerolog.Nop(), opts), mr
}

func TestSessionStoreRoundTrip(t *testing.T) {
	store, _ := newTestStore(t, SessionStoreOptions{})
	ctx := context.Background()

	sess := NewSession(testCandidate(), []Question{testQuestion(1, DifficultyEasy)})
	sess.CurrentQuestion()
	sess.Answer("cached", 0)

	require.NoError(t, store.Save(ctx, 42, sess))

	loaded, err := store.Load(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, loaded.Status)
	require.Len(t, loaded.Questions, 1)
	assert.Equal(t, "cached", loaded.Questions[0].Answer)
}

func TestSessionStoreLoadMissing(t *testing.T) {
	store, _ := newTestStore(t, SessionStoreOptions{})

	_, err := store.Load(context.Background(), 999)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStoreDelete(t *testing.T) {
	store, _ := newTestStore(t, SessionStoreOptions{})
	ctx := context.Background()

	sess := NewSession(testCandidate(), nil)
	require.NoError(t, store.Save(ctx, 42, sess))
	require.NoError(t, store.Delete(ctx, 42))

	_, err := store.Load(ctx, 42)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStoreTTL(t *testing.T) {
	store, mr := newTestStore(t, SessionStoreOptions{TTL: time.Minute})
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, 42, NewSession(testCandidate(), nil)))

	mr.FastForward(2 * time.Minute)
	_, err := store.Load(ctx, 42)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAcquireIsExclusive(t *testing.T) {
	store, _ := newTestStore(t, SessionStoreOptions{})
	ctx := context.Background()

	unlock, err := store.Acquire(ctx, 42)
	require.NoError(t, err)

	_, err = store.Acquire(ctx, 42)
	assert.ErrorIs(t, err, ErrLockHeld)

	// Another interview is unaffected.
	otherUnlock, err := store.Acquire(ctx, 43)
	require.NoError(t, err)
	require.NoError(t, otherUnlock())

	require.NoError(t, unlock())

	unlock, err = store.Acquire(ctx, 42)
	require.NoError(t, err)
	require.NoError(t, unlock())
}

func TestAcquireLeaseExpires(t *testing.T) {
	store, mr := newTestStore(t, SessionStoreOptions{LockTTL: time.Second})
	ctx := context.Background()

	_, err := store.Acquire(ctx, 42)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	unlock, err := store.Acquire(ctx, 42)
	require.NoError(t, err, "expired lease must be reclaimable")
	require.NoError(t, unlock())
}

func TestUnlockOnlyReleasesOwnLease(t *testing.T) {
	store, mr := newTestStore(t, SessionStoreOptions{LockTTL: time.Second})
	ctx := context.Background()

	staleUnlock, err := store.Acquire(ctx, 42)
	require.NoError(t, err)

	// The first holder's lease lapses and a second holder takes over.
	mr.FastForward(2 * time.Second)
	unlock, err := store.Acquire(ctx, 42)
	require.NoError(t, err)

	// A late release from the stale holder must not free the new lease.
	require.NoError(t, staleUnlock())
	_, err = store.Acquire(ctx, 42)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, unlock())
}
