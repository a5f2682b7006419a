package interview

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFastTimers(t *testing.T) *TimerService {
	t.Helper()
	timers := NewTimerService(zerolog.Nop())
	timers.interval = 5 * time.Millisecond
	t.Cleanup(timers.Shutdown)
	return timers
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestTimerStopsWhenTickReportsDone(t *testing.T) {
	timers := newFastTimers(t)

	var ticks atomic.Int64
	timers.Start(context.Background(), 1, func(ctx context.Context) (bool, error) {
		return ticks.Add(1) < 3, nil
	})

	waitFor(t, func() bool { return ticks.Load() >= 3 }, "tick never reached 3")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(3), ticks.Load(), "loop must not tick past done")

	timers.mu.Lock()
	_, running := timers.running[1]
	timers.mu.Unlock()
	assert.False(t, running, "finished countdown must clear its entry")
}

func TestTimerStopsOnError(t *testing.T) {
	timers := newFastTimers(t)

	var ticks atomic.Int64
	timers.Start(context.Background(), 1, func(ctx context.Context) (bool, error) {
		ticks.Add(1)
		return true, assert.AnError
	})

	waitFor(t, func() bool { return ticks.Load() >= 1 }, "tick never ran")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), ticks.Load())
}

func TestTimerStopCancelsLoop(t *testing.T) {
	timers := newFastTimers(t)

	var ticks atomic.Int64
	timers.Start(context.Background(), 1, func(ctx context.Context) (bool, error) {
		ticks.Add(1)
		return true, nil
	})

	waitFor(t, func() bool { return ticks.Load() >= 2 }, "countdown never ran")
	timers.Stop(1)

	settled := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, ticks.Load(), settled+1, "stopped countdown kept ticking")
}

func TestTimerStartReplacesRunningCountdown(t *testing.T) {
	timers := newFastTimers(t)

	var first, second atomic.Int64
	timers.Start(context.Background(), 1, func(ctx context.Context) (bool, error) {
		first.Add(1)
		return true, nil
	})
	waitFor(t, func() bool { return first.Load() >= 1 }, "first countdown never ran")

	timers.Start(context.Background(), 1, func(ctx context.Context) (bool, error) {
		second.Add(1)
		return true, nil
	})
	waitFor(t, func() bool { return second.Load() >= 2 }, "replacement countdown never ran")

	firstSettled := first.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, first.Load(), firstSettled+1, "replaced countdown kept ticking")
	assert.Greater(t, second.Load(), int64(2))
}

func TestTimerShutdownStopsEverything(t *testing.T) {
	timers := newFastTimers(t)

	var ticks atomic.Int64
	for userID := int64(1); userID <= 3; userID++ {
		timers.Start(context.Background(), userID, func(ctx context.Context) (bool, error) {
			ticks.Add(1)
			return true, nil
		})
	}
	waitFor(t, func() bool { return ticks.Load() >= 3 }, "countdowns never ran")

	timers.Shutdown()
	settled := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, ticks.Load(), settled+3)

	timers.mu.Lock()
	remaining := len(timers.running)
	timers.mu.Unlock()
	require.Zero(t, remaining)
}
