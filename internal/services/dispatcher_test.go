package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/webhook"

	"github.com/Ananth-NQI/petjourney-backend/internal/flow"
	"github.com/Ananth-NQI/petjourney-backend/internal/logger"
	"github.com/Ananth-NQI/petjourney-backend/internal/models"
	"github.com/Ananth-NQI/petjourney-backend/internal/storage"
)

type sentReply struct {
	token  string
	effect flow.Effect
}

type fakeSender struct {
	mu      sync.Mutex
	replies []sentReply
	failFor map[string]error
}

func (f *fakeSender) Reply(_ context.Context, token string, eff flow.Effect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, sentReply{token: token, effect: eff})
	if err, ok := f.failFor[token]; ok {
		return err
	}
	return nil
}

func (f *fakeSender) sent() []sentReply {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentReply(nil), f.replies...)
}

type fakeNotifier struct {
	mu       sync.Mutex
	bookings []*models.Booking
}

func (f *fakeNotifier) NotifyBooking(_ context.Context, b *models.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings = append(f.bookings, b)
	return nil
}

func postback(user, token, data string, params map[string]string) webhook.EventInterface {
	return webhook.PostbackEvent{
		ReplyToken: token,
		Source:     webhook.UserSource{UserId: user},
		Postback:   &webhook.PostbackContent{Data: data, Params: params},
	}
}

func text(user, token, msg string) webhook.MessageEvent {
	return webhook.MessageEvent{
		ReplyToken: token,
		Source:     webhook.UserSource{UserId: user},
		Message:    webhook.TextMessageContent{Text: msg},
	}
}

func newTestDispatcher(opts ...DispatcherOption) (*EventDispatcher, *MemorySessionStore, *fakeSender) {
	sessions := NewMemorySessionStore(15 * time.Minute)
	sender := &fakeSender{failFor: map[string]error{}}
	d := NewEventDispatcher(sessions, sender, logger.Discard(), opts...)
	d.newID = func() string { return "booking-1" }
	return d, sessions, sender
}

func TestDispatchStartThenService(t *testing.T) {
	ctx := context.Background()
	d, sessions, sender := newTestDispatcher()

	d.Dispatch(ctx, []webhook.EventInterface{text("U1", "t1", "จอง")})
	s, _ := sessions.Get(ctx, "U1")
	if s == nil || s.Step != models.StepChooseService {
		t.Fatalf("after start: %+v", s)
	}

	d.Dispatch(ctx, []webhook.EventInterface{postback("U1", "t2", "ACTION=SERVICE&VALUE=BOARDING", nil)})
	s, _ = sessions.Get(ctx, "U1")
	if s.Step != models.StepPickDate || s.Service != "BOARDING" {
		t.Fatalf("after service: %+v", s)
	}

	replies := sender.sent()
	if len(replies) != 2 || replies[0].token != "t1" || replies[1].token != "t2" {
		t.Fatalf("replies = %+v", replies)
	}
	if replies[1].effect.Kind != flow.EffectPrompt || replies[1].effect.Step != models.StepPickDate {
		t.Fatalf("second reply = %+v", replies[1].effect)
	}
}

func TestDispatchBatchIsSequential(t *testing.T) {
	ctx := context.Background()
	d, sessions, _ := newTestDispatcher()

	d.Dispatch(ctx, []webhook.EventInterface{
		postback("U1", "t1", "ACTION=START", nil),
		postback("U1", "t2", "ACTION=SERVICE&VALUE=BOARDING", nil),
		postback("U1", "t3", "ACTION=DATE", map[string]string{"date": "2026-01-10"}),
	})

	s, _ := sessions.Get(ctx, "U1")
	if s == nil || s.Step != models.StepPickRoom || s.Date != "2026-01-10" {
		t.Fatalf("batch not applied in order: %+v", s)
	}
}

func TestDispatchPetCountBeforePetType(t *testing.T) {
	ctx := context.Background()
	d, sessions, sender := newTestDispatcher()
	_ = sessions.Put(ctx, "U1", &models.Session{
		Step: models.StepPickPet, Service: "BOARDING", Date: "2026-01-10", Room: "STANDARD",
	})

	d.Dispatch(ctx, []webhook.EventInterface{postback("U1", "t1", "ACTION=PETCOUNT&VALUE=2", nil)})

	s, _ := sessions.Get(ctx, "U1")
	if s.Step != models.StepPickPet || s.PetCount != 0 {
		t.Fatalf("session changed: %+v", s)
	}
	if got := sender.sent(); len(got) != 1 || got[0].effect.Kind != flow.EffectPetTypeRequired {
		t.Fatalf("replies = %+v", got)
	}
}

func TestDispatchConfirmRecordsAndNotifies(t *testing.T) {
	ctx := context.Background()
	bookings := storage.NewMemoryStore()
	admin := &fakeNotifier{}
	d, sessions, sender := newTestDispatcher(WithBookingStore(bookings), WithAdminNotifier(admin))

	_ = sessions.Put(ctx, "U1", &models.Session{
		Step: models.StepSummary, Service: "TRANSPORT", Date: "2026-01-10",
		Room: "DELUXE", PetType: "CAT", PetCount: 1,
	})

	d.Dispatch(ctx, []webhook.EventInterface{postback("U1", "t1", "ACTION=CONFIRM", nil)})
	d.Wait()

	if s, _ := sessions.Get(ctx, "U1"); s != nil {
		t.Fatalf("session should be deleted, got %+v", s)
	}

	replies := sender.sent()
	if len(replies) != 1 || replies[0].effect.Kind != flow.EffectConfirmed {
		t.Fatalf("replies = %+v", replies)
	}
	got := replies[0].effect.Session
	if got.Service != "TRANSPORT" || got.Date != "2026-01-10" || got.Room != "DELUXE" || got.PetType != "CAT" || got.PetCount != 1 {
		t.Fatalf("confirmed = %+v", got)
	}

	b, err := bookings.GetBooking(ctx, "booking-1")
	if err != nil {
		t.Fatalf("booking not saved: %v", err)
	}
	if b.UserID != "U1" || b.Status != models.BookingStatusConfirmed {
		t.Fatalf("saved booking = %+v", b)
	}

	if len(admin.bookings) != 1 || admin.bookings[0].ID != "booking-1" {
		t.Fatalf("admin notifications = %+v", admin.bookings)
	}
}

func TestDispatchSendFailureIsIsolated(t *testing.T) {
	ctx := context.Background()
	d, sessions, sender := newTestDispatcher()
	sender.failFor["bad"] = errors.New("reply token expired")

	d.Dispatch(ctx, []webhook.EventInterface{
		text("U1", "bad", "book"),
		text("U2", "good", "book"),
	})

	if s, _ := sessions.Get(ctx, "U1"); s == nil {
		t.Fatal("state change must survive a failed reply")
	}
	if s, _ := sessions.Get(ctx, "U2"); s == nil {
		t.Fatal("second event was not processed")
	}
	if n := len(sender.sent()); n != 2 {
		t.Fatalf("replies attempted = %d, want 2", n)
	}
}

func TestDispatchResetSendsNothing(t *testing.T) {
	ctx := context.Background()
	d, sessions, sender := newTestDispatcher()
	_ = sessions.Put(ctx, "U1", &models.Session{Step: models.StepChooseService})

	d.Dispatch(ctx, []webhook.EventInterface{postback("U1", "t1", "ACTION=RESET", nil)})

	if s, _ := sessions.Get(ctx, "U1"); s != nil {
		t.Fatal("reset should delete the session")
	}
	if n := len(sender.sent()); n != 0 {
		t.Fatalf("reset replied %d times", n)
	}
}

func TestDispatchSkipsRedeliveredEvents(t *testing.T) {
	ctx := context.Background()
	d, _, sender := newTestDispatcher(WithDeduper(NewDeduper(time.Minute)))

	ev := text("U1", "t1", "book")
	ev.WebhookEventId = "01HEVENT"
	redelivered := ev
	redelivered.DeliveryContext = &webhook.DeliveryContext{IsRedelivery: true}
	d.Dispatch(ctx, []webhook.EventInterface{ev, redelivered})

	if n := len(sender.sent()); n != 1 {
		t.Fatalf("duplicate event replied %d times", n)
	}
}

func TestDispatchConcurrentDuplicatePostback(t *testing.T) {
	ctx := context.Background()
	d, sessions, _ := newTestDispatcher()
	_ = sessions.Put(ctx, "U1", &models.Session{Step: models.StepChooseService})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Dispatch(ctx, []webhook.EventInterface{postback("U1", "t", "ACTION=SERVICE&VALUE=BOARDING", nil)})
		}()
	}
	wg.Wait()

	s, _ := sessions.Get(ctx, "U1")
	if s.Step != models.StepPickDate || s.Service != "BOARDING" || s.Date != "" {
		t.Fatalf("duplicate delivery applied more than once: %+v", s)
	}
}

func TestDispatchIgnoresNonActionable(t *testing.T) {
	ctx := context.Background()
	d, _, sender := newTestDispatcher()

	d.Dispatch(ctx, []webhook.EventInterface{
		webhook.FollowEvent{ReplyToken: "t1", Source: webhook.UserSource{UserId: "U1"}},
		webhook.MessageEvent{ReplyToken: "t2", Source: webhook.UserSource{UserId: "U1"}, Message: webhook.StickerMessageContent{}},
	})
	if n := len(sender.sent()); n != 0 {
		t.Fatalf("replies = %d, want 0", n)
	}
}

type blockingSender struct{ calls atomic.Int32 }

func (b *blockingSender) Reply(ctx context.Context, _ string, _ flow.Effect) error {
	b.calls.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestDispatchBatchDeadlineBoundsReplies(t *testing.T) {
	ctx := context.Background()
	sessions := NewMemorySessionStore(15 * time.Minute)
	sender := &blockingSender{}
	d := NewEventDispatcher(sessions, sender, logger.Discard(),
		WithReplyTimeout(time.Minute),
		WithBatchTimeout(50*time.Millisecond),
	)

	start := time.Now()
	d.Dispatch(ctx, []webhook.EventInterface{
		text("U1", "t1", "book"),
		text("U2", "t2", "book"),
		text("U3", "t3", "book"),
	})
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("batch took %v", elapsed)
	}

	for _, u := range []string{"U1", "U2", "U3"} {
		if s, _ := sessions.Get(ctx, u); s == nil {
			t.Errorf("%s: session not started", u)
		}
	}
	if n := sender.calls.Load(); n != 1 {
		t.Fatalf("replies attempted = %d, want 1", n)
	}
}
