package jobs

import (
	"log/slog"
	"sync"
	"time"
)

// Sweeper drops expired sessions
type Sweeper interface {
	Sweep() int
}

// SessionSweeper periodically evicts expired sessions from an in-memory store
type SessionSweeper struct {
	store    Sweeper
	interval time.Duration
	log      *slog.Logger

	mu      sync.Mutex
	stop    chan struct{}
	done    chan struct{}
	running bool
}

// NewSessionSweeper creates a new sweeper; it does nothing until Start
func NewSessionSweeper(store Sweeper, interval time.Duration, log *slog.Logger) *SessionSweeper {
	return &SessionSweeper{
		store:    store,
		interval: interval,
		log:      log,
	}
}

// Start begins sweeping in the background
func (s *SessionSweeper) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.log.Warn("sweeper.already_running")
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stop, s.done)
	s.log.Info("sweeper.started", slog.Duration("interval", s.interval))
}

// Stop halts the sweeper and waits for the loop to exit
func (s *SessionSweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()

	<-done
	s.log.Info("sweeper.stopped")
}

func (s *SessionSweeper) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.store.Sweep(); n > 0 {
				s.log.Info("sweeper.expired", slog.Int("sessions", n))
			}
		case <-stop:
			return
		}
	}
}
