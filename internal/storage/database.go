package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Ananth-NQI/petjourney-backend/internal/models"
)

// DatabaseStore persists bookings with gorm
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore wraps an open gorm connection
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (d *DatabaseStore) CreateBooking(ctx context.Context, b *models.Booking) error {
	if err := d.db.WithContext(ctx).Create(b).Error; err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (d *DatabaseStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	var b models.Booking
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return &b, nil
}

// GetBookingsByUser returns the user's bookings, newest first
func (d *DatabaseStore) GetBookingsByUser(ctx context.Context, userID string) ([]*models.Booking, error) {
	var out []*models.Booking
	err := d.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("confirmed_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return out, nil
}

func (d *DatabaseStore) CountBookings(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.WithContext(ctx).Model(&models.Booking{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return n, nil
}
