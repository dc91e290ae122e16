package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/Ananth-NQI/petjourney-backend/internal/models"
)

// AdminNotifier tells staff about a confirmed booking
type AdminNotifier interface {
	NotifyBooking(ctx context.Context, b *models.Booking) error
}

// LinePushNotifier pushes the booking to an admin LINE account
type LinePushNotifier struct {
	sender  *LineSender
	to      string
	retries int
	backoff time.Duration
	log     *slog.Logger
}

// NewLinePushNotifier returns nil when adminUserID is empty
func NewLinePushNotifier(sender *LineSender, adminUserID string, retries int, log *slog.Logger) *LinePushNotifier {
	if adminUserID == "" || sender == nil {
		return nil
	}
	return &LinePushNotifier{
		sender:  sender,
		to:      adminUserID,
		retries: retries,
		backoff: 500 * time.Millisecond,
		log:     log,
	}
}

// NotifyBooking pushes with retries; all attempts share one retry key
func (n *LinePushNotifier) NotifyBooking(ctx context.Context, b *models.Booking) error {
	msgs := []messaging_api.MessageInterface{
		messaging_api.TextMessage{Text: AdminBookingText(b)},
	}
	retryKey := uuid.NewString()

	attempt := 0
	return withRetry(ctx, n.retries, n.backoff, func(ctx context.Context) error {
		attempt++
		err := n.sender.Push(ctx, n.to, msgs, retryKey)
		if err != nil {
			n.log.Warn("admin.push_failed",
				slog.String("booking_id", b.ID),
				slog.Int("attempt", attempt),
				slog.String("err", err.Error()),
			)
		}
		return err
	})
}

// MultiNotifier fans a booking out to several notifiers
type MultiNotifier []AdminNotifier

// NotifyBooking calls every notifier and joins their errors
func (m MultiNotifier) NotifyBooking(ctx context.Context, b *models.Booking) error {
	var errs []error
	for _, n := range m {
		if err := n.NotifyBooking(ctx, b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
