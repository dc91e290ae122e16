package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/Ananth-NQI/petjourney-backend/internal/flow"
	"github.com/Ananth-NQI/petjourney-backend/internal/models"
	"github.com/Ananth-NQI/petjourney-backend/internal/storage"
)

const (
	// DefaultReplyTimeout bounds one reply call
	DefaultReplyTimeout = 5 * time.Second
	// DefaultBatchTimeout bounds all replies of one webhook delivery
	DefaultBatchTimeout = 8 * time.Second
	adminNotifyTimeout  = 30 * time.Second
	bookingWriteTimeout = 5 * time.Second
)

// EventDispatcher drives the booking flow for each inbound event
type EventDispatcher struct {
	sessions     SessionStore
	sender       MessageSender
	bookings     storage.Store
	admin        AdminNotifier
	dedupe       *Deduper
	replyTimeout time.Duration
	batchTimeout time.Duration
	now          func() time.Time
	newID        func() string
	log          *slog.Logger

	wg sync.WaitGroup
}

// DispatcherOption customizes an EventDispatcher
type DispatcherOption func(*EventDispatcher)

// WithAdminNotifier enables out-of-band alerts for confirmed bookings
func WithAdminNotifier(n AdminNotifier) DispatcherOption {
	return func(d *EventDispatcher) { d.admin = n }
}

// WithBookingStore records confirmed bookings
func WithBookingStore(s storage.Store) DispatcherOption {
	return func(d *EventDispatcher) { d.bookings = s }
}

// WithDeduper skips events whose webhookEventId was already handled
func WithDeduper(dd *Deduper) DispatcherOption {
	return func(d *EventDispatcher) { d.dedupe = dd }
}

// WithReplyTimeout bounds each reply call
func WithReplyTimeout(t time.Duration) DispatcherOption {
	return func(d *EventDispatcher) {
		if t > 0 {
			d.replyTimeout = t
		}
	}
}

// WithBatchTimeout bounds the replies of one Dispatch call. Once it passes, the
// remaining events still update sessions but their replies are skipped.
func WithBatchTimeout(t time.Duration) DispatcherOption {
	return func(d *EventDispatcher) {
		if t > 0 {
			d.batchTimeout = t
		}
	}
}

// NewEventDispatcher creates a dispatcher; sessions and sender are required
func NewEventDispatcher(sessions SessionStore, sender MessageSender, log *slog.Logger, opts ...DispatcherOption) *EventDispatcher {
	d := &EventDispatcher{
		sessions:     sessions,
		sender:       sender,
		replyTimeout: DefaultReplyTimeout,
		batchTimeout: DefaultBatchTimeout,
		now:          time.Now,
		newID:        uuid.NewString,
		log:          log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch handles a batch in order. A failing event is logged and does not stop the rest.
func (d *EventDispatcher) Dispatch(ctx context.Context, events []webhook.EventInterface) {
	replyCtx, cancel := context.WithTimeout(ctx, d.batchTimeout)
	defer cancel()

	for i, ev := range events {
		in := flow.ParseEvent(ev)
		if err := d.handleEvent(ctx, replyCtx, in); err != nil {
			d.log.Error("event.failed",
				slog.Int("index", i),
				slog.String("type", in.Type),
				slog.String("user_id", in.UserID),
				slog.String("err", err.Error()),
			)
		}
	}
}

// Wait blocks until background admin notifications have finished
func (d *EventDispatcher) Wait() {
	d.wg.Wait()
}

func (d *EventDispatcher) handleEvent(ctx, replyCtx context.Context, in flow.Inbound) error {
	if d.dedupe != nil && d.dedupe.Seen(in.EventID) {
		d.log.Info("event.duplicate",
			slog.String("webhook_event_id", in.EventID),
			slog.Bool("redelivery", in.Redelivery),
		)
		return nil
	}
	if in.Action == nil {
		d.log.Debug("event.ignored", slog.String("type", in.Type))
		return nil
	}
	userID := in.UserID

	var out flow.Outcome
	err := d.sessions.Update(ctx, userID, func(cur *models.Session) (*models.Session, bool) {
		out = flow.Transition(userID, cur, in.Action)
		return out.Next, out.Write
	})
	if err != nil {
		return fmt.Errorf("session update: %w", err)
	}

	d.log.Info("event.processed",
		slog.String("user_id", userID),
		slog.String("action", in.Action.Name()),
		slog.String("effect", out.Effect.Kind.String()),
		slog.String("step", string(out.Effect.Step)),
		slog.Bool("redelivery", in.Redelivery),
	)

	if out.Effect.Kind == flow.EffectConfirmed {
		d.confirmBooking(ctx, out.Effect.Session)
	}

	if out.Effect.Kind == flow.EffectNone || in.ReplyToken == "" {
		return nil
	}
	if err := replyCtx.Err(); err != nil {
		return fmt.Errorf("reply skipped: %w", err)
	}
	rctx, cancel := context.WithTimeout(replyCtx, d.replyTimeout)
	defer cancel()
	if err := d.sender.Reply(rctx, in.ReplyToken, out.Effect); err != nil {
		return fmt.Errorf("reply: %w", err)
	}
	return nil
}

// confirmBooking records the booking and alerts the admin. Neither failure reaches the user.
func (d *EventDispatcher) confirmBooking(ctx context.Context, s *models.Session) {
	b := models.NewBookingFromSession(d.newID(), s, d.now())

	if d.bookings != nil {
		wctx, cancel := context.WithTimeout(ctx, bookingWriteTimeout)
		err := d.bookings.CreateBooking(wctx, b)
		cancel()
		if err != nil {
			d.log.Error("booking.save_failed", slog.String("booking_id", b.ID), slog.String("err", err.Error()))
		} else {
			d.log.Info("booking.saved", slog.String("booking_id", b.ID), slog.String("user_id", b.UserID))
		}
	}

	if d.admin == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), adminNotifyTimeout)
		defer cancel()
		if err := d.admin.NotifyBooking(nctx, b); err != nil {
			d.log.Error("admin.notify_failed", slog.String("booking_id", b.ID), slog.String("err", err.Error()))
		}
	}()
}
