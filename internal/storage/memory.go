package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Ananth-NQI/petjourney-backend/internal/models"
)

// MemoryStore holds bookings in memory for development and tests
type MemoryStore struct {
	mu       sync.RWMutex
	bookings map[string]*models.Booking
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bookings: make(map[string]*models.Booking),
	}
}

func (m *MemoryStore) CreateBooking(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.bookings[b.ID]; exists {
		return fmt.Errorf("booking %s already exists", b.ID)
	}
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	c := *b
	m.bookings[b.ID] = &c
	return nil
}

func (m *MemoryStore) GetBooking(_ context.Context, id string) (*models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, exists := m.bookings[id]
	if !exists {
		return nil, ErrNotFound
	}
	c := *b
	return &c, nil
}

// GetBookingsByUser returns the user's bookings, newest first
func (m *MemoryStore) GetBookingsByUser(_ context.Context, userID string) ([]*models.Booking, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*models.Booking
	for _, b := range m.bookings {
		if b.UserID == userID {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ConfirmedAt.After(out[j].ConfirmedAt)
	})
	return out, nil
}

func (m *MemoryStore) CountBookings(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.bookings)), nil
}
