package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/petjourney-backend/internal/storage"
)

// BookingHandler exposes confirmed bookings to staff
type BookingHandler struct {
	store storage.Store
}

// NewBookingHandler creates a new booking handler
func NewBookingHandler(store storage.Store) *BookingHandler {
	return &BookingHandler{
		store: store,
	}
}

// GetBooking retrieves booking by ID
func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Booking ID is required",
		})
	}

	booking, err := h.store.GetBooking(c.UserContext(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Booking not found",
		})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve booking",
		})
	}

	return c.JSON(booking)
}

// GetUserBookings retrieves all bookings for a LINE user, newest first
func (h *BookingHandler) GetUserBookings(c *fiber.Ctx) error {
	userID := c.Params("userID")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User ID is required",
		})
	}

	bookings, err := h.store.GetBookingsByUser(c.UserContext(), userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to retrieve bookings",
		})
	}

	return c.JSON(fiber.Map{
		"bookings": bookings,
		"count":    len(bookings),
	})
}

// Stats returns the total number of confirmed bookings
func (h *BookingHandler) Stats(c *fiber.Ctx) error {
	total, err := h.store.CountBookings(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to count bookings",
		})
	}
	return c.JSON(fiber.Map{"total": total})
}
