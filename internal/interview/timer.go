package interview

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc runs once per countdown interval. Returning false stops the
// countdown; errors are logged and also stop it.
type TickFunc func(ctx context.Context) (bool, error)

type timerHandle struct {
	cancel context.CancelFunc
}

// TimerService drives the one-second countdown for each connected
// candidate's active question. One goroutine runs per user; starting a
// new countdown replaces the previous one, and disconnects stop it.
type TimerService struct {
	logger   zerolog.Logger
	interval time.Duration

	mu      sync.Mutex
	running map[int64]*timerHandle
}

func NewTimerService(logger zerolog.Logger) *TimerService {
	return &TimerService{
		logger:   logger.With().Str("component", "interview_timer").Logger(),
		interval: time.Second,
		running:  make(map[int64]*timerHandle),
	}
}

// Start launches a countdown for the user, replacing any running one.
// The loop exits when tick reports it is done, tick fails, or the
// countdown is stopped.
func (s *TimerService) Start(ctx context.Context, userID int64, tick TickFunc) {
	loopCtx, cancel := context.WithCancel(ctx)
	handle := &timerHandle{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.running[userID]; ok {
		prev.cancel()
	}
	s.running[userID] = handle
	s.mu.Unlock()

	go s.run(loopCtx, userID, handle, tick)
}

// Stop halts the user's countdown if one is running.
func (s *TimerService) Stop(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if handle, ok := s.running[userID]; ok {
		handle.cancel()
		delete(s.running, userID)
	}
}

// Shutdown halts every running countdown.
func (s *TimerService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, handle := range s.running {
		handle.cancel()
		delete(s.running, userID)
	}
}

func (s *TimerService) run(ctx context.Context, userID int64, handle *timerHandle, tick TickFunc) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.clear(userID, handle)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			keepGoing, err := tick(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Warn().Err(err).Int64("user_id", userID).Msg("countdown tick failed")
				}
				return
			}
			if !keepGoing {
				return
			}
		}
	}
}

// clear drops the bookkeeping entry once the loop exits on its own,
// leaving any replacement countdown untouched.
func (s *TimerService) clear(userID int64, handle *timerHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if current, ok := s.running[userID]; ok && current == handle {
		delete(s.running, userID)
	}
}
