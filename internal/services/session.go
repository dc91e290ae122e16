package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Ananth-NQI/petjourney-backend/internal/models"
)

// DefaultSessionTTL matches the reply-token validity window
const DefaultSessionTTL = 15 * time.Minute

// ErrSessionConflict is returned when an update kept losing races on the same user
var ErrSessionConflict = errors.New("session update conflict")

// UpdateFunc computes the next session from the current one (nil when absent).
// When write is false nothing is stored; when next is nil the session is deleted.
type UpdateFunc func(current *models.Session) (next *models.Session, write bool)

// SessionStore keeps one booking session per user, expiring idle ones
type SessionStore interface {
	// Get returns nil, nil when the user has no live session
	Get(ctx context.Context, userID string) (*models.Session, error)
	// Put upserts the session and stamps UpdatedAt
	Put(ctx context.Context, userID string, s *models.Session) error
	Delete(ctx context.Context, userID string) error
	// Update runs get, fn, put/delete for one user without interleaving other updates of that user
	Update(ctx context.Context, userID string, fn UpdateFunc) error
}

// MemorySessionStore is an in-process SessionStore
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	locks    map[string]*keyLock
	ttl      time.Duration
	now      func() time.Time
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// MemoryOption customizes a MemorySessionStore
type MemoryOption func(*MemorySessionStore)

// WithClock replaces time.Now, used to test expiry
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemorySessionStore) { s.now = now }
}

// NewMemorySessionStore creates a store whose sessions expire after ttl of inactivity
func NewMemorySessionStore(ttl time.Duration, opts ...MemoryOption) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	s := &MemorySessionStore{
		sessions: make(map[string]*models.Session),
		locks:    make(map[string]*keyLock),
		ttl:      ttl,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemorySessionStore) expired(sess *models.Session, now time.Time) bool {
	return now.Sub(sess.UpdatedAt) > s.ttl
}

// Get returns a copy of the live session, purging it if it has expired
func (s *MemorySessionStore) Get(_ context.Context, userID string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	if s.expired(sess, s.now()) {
		delete(s.sessions, userID)
		return nil, nil
	}
	return sess.Clone(), nil
}

// Put stores a copy of sess under userID
func (s *MemorySessionStore) Put(_ context.Context, userID string, sess *models.Session) error {
	if sess == nil {
		return errors.New("nil session")
	}
	c := sess.Clone()
	c.UserID = userID

	s.mu.Lock()
	defer s.mu.Unlock()
	c.UpdatedAt = s.now()
	s.sessions[userID] = c
	return nil
}

// Delete removes the user's session; deleting a missing session is not an error
func (s *MemorySessionStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

// Update serializes read-modify-write per user. Other users are not blocked.
func (s *MemorySessionStore) Update(ctx context.Context, userID string, fn UpdateFunc) error {
	unlock := s.lockUser(userID)
	defer unlock()

	cur, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	next, write := fn(cur)
	if !write {
		return nil
	}
	if next == nil {
		return s.Delete(ctx, userID)
	}
	return s.Put(ctx, userID, next)
}

func (s *MemorySessionStore) lockUser(userID string) func() {
	s.mu.Lock()
	kl, ok := s.locks[userID]
	if !ok {
		kl = &keyLock{}
		s.locks[userID] = kl
	}
	kl.refs++
	s.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		s.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(s.locks, userID)
		}
		s.mu.Unlock()
	}
}

// Sweep purges every expired session and returns how many were removed
func (s *MemorySessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// ActiveSessions counts sessions that have not expired yet (for monitoring)
func (s *MemorySessionStore) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for _, sess := range s.sessions {
		if !s.expired(sess, now) {
			n++
		}
	}
	return n
}
