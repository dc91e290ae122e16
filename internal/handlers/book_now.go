package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/Ananth-NQI/petjourney-backend/internal/models"
	"github.com/Ananth-NQI/petjourney-backend/internal/services"
)

const bookNowPushTimeout = 10 * time.Second

// Pusher sends messages to a user outside of a reply
type Pusher interface {
	Push(ctx context.Context, to string, msgs []messaging_api.MessageInterface, retryKey string) error
}

// BookNowHandler accepts booking requests from the LIFF/web form and pushes a
// summary into the user's chat
type BookNowHandler struct {
	pusher   Pusher
	renderer *services.Renderer
	newKey   func() string
	log      *slog.Logger
}

// NewBookNowHandler creates a new book-now handler; a nil pusher only echoes the request
func NewBookNowHandler(p Pusher, r *services.Renderer, log *slog.Logger) *BookNowHandler {
	return &BookNowHandler{
		pusher:   p,
		renderer: r,
		newKey:   uuid.NewString,
		log:      log,
	}
}

// Handle reads the request from the query (GET) or a JSON body (POST)
func (h *BookNowHandler) Handle(c *fiber.Ctx) error {
	req, err := parseBookingRequest(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"ok":    false,
			"error": "Invalid request body",
		})
	}

	userID := req.UserID
	received := req
	received.UserID = ""

	if h.pusher == nil || userID == "" {
		return c.JSON(fiber.Map{
			"ok":       true,
			"pushed":   false,
			"note":     "No userId; nothing was pushed",
			"received": received,
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), bookNowPushTimeout)
	defer cancel()
	if err := h.pusher.Push(ctx, userID, h.renderer.BookingRequest(req), h.newKey()); err != nil {
		h.log.Warn("book_now.push_failed", slog.String("user_id", userID), slog.String("err", err.Error()))
		return c.JSON(fiber.Map{
			"ok":       false,
			"pushed":   false,
			"reason":   "LINE push failed",
			"received": received,
		})
	}

	h.log.Info("book_now.pushed", slog.String("user_id", userID), slog.String("hotel", req.Hotel))
	return c.JSON(fiber.Map{
		"ok":       true,
		"pushed":   true,
		"to":       userID,
		"received": received,
	})
}

// parseBookingRequest accepts strings or numbers for every field
func parseBookingRequest(c *fiber.Ctx) (models.BookingRequest, error) {
	fields := map[string]string{}
	if c.Method() == fiber.MethodPost {
		body := bytes.TrimSpace(c.Body())
		if len(body) > 0 {
			var raw map[string]any
			dec := json.NewDecoder(bytes.NewReader(body))
			dec.UseNumber()
			if err := dec.Decode(&raw); err != nil {
				return models.BookingRequest{}, err
			}
			for k, v := range raw {
				if v != nil {
					fields[k] = fmt.Sprint(v)
				}
			}
		}
	} else {
		fields = c.Queries()
	}

	get := func(key string) string { return strings.TrimSpace(fields[key]) }
	return models.BookingRequest{
		Hotel:      get("hotel"),
		Area:       get("area"),
		GuestName:  get("guestName"),
		GuestCount: get("guestCount"),
		Phone:      get("phone"),
		CheckIn:    get("checkIn"),
		CheckOut:   get("checkOut"),
		Nights:     get("nights"),
		RoomCount:  get("roomCount"),
		PetType:    get("petType"),
		PetCount:   get("petCount"),
		UserID:     get("userId"),
	}, nil
}
