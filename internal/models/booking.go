package models

import "time"

// Booking is a confirmed pet-hotel reservation made through the chat flow
type Booking struct {
	ID     string `json:"id" gorm:"primaryKey;size:36"`
	UserID string `json:"user_id" gorm:"index;size:64"`

	Hotel string `json:"hotel"`
	Area  string `json:"area"`

	Service  string `json:"service"`
	Date     string `json:"date"`
	Room     string `json:"room"`
	PetType  string `json:"pet_type"`
	PetCount int    `json:"pet_count"`

	Status string `json:"status"`

	ConfirmedAt time.Time `json:"confirmed_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BookingStatusConfirmed is the status of a booking confirmed in chat
const BookingStatusConfirmed = "confirmed"

// NewBookingFromSession copies the collected session fields into a booking record
func NewBookingFromSession(id string, s *Session, confirmedAt time.Time) *Booking {
	return &Booking{
		ID:          id,
		UserID:      s.UserID,
		Hotel:       s.Hotel,
		Area:        s.Area,
		Service:     s.Service,
		Date:        s.Date,
		Room:        s.Room,
		PetType:     s.PetType,
		PetCount:    s.PetCount,
		Status:      BookingStatusConfirmed,
		ConfirmedAt: confirmedAt,
	}
}
