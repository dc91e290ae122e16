package storage

import (
	"context"
	"errors"

	"github.com/Ananth-NQI/petjourney-backend/internal/models"
)

// ErrNotFound is returned when a booking does not exist
var ErrNotFound = errors.New("booking not found")

// Store defines the interface for booking persistence
type Store interface {
	CreateBooking(ctx context.Context, b *models.Booking) error
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetBookingsByUser(ctx context.Context, userID string) ([]*models.Booking, error)
	CountBookings(ctx context.Context) (int64, error)
}
