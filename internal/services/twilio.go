package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/Ananth-NQI/petjourney-backend/internal/config"
	"github.com/Ananth-NQI/petjourney-backend/internal/models"
)

// TwilioNotifier sends booking alerts to an admin over WhatsApp
type TwilioNotifier struct {
	client *twilio.RestClient
	from   string // "+14155238886" or "whatsapp:+14155238886"
	to     string
	log    *slog.Logger
}

// NewTwilioNotifier creates a notifier, failing when any credential is missing
func NewTwilioNotifier(cfg config.TwilioConfig, log *slog.Logger) (*TwilioNotifier, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("missing Twilio credentials or admin phone")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioNotifier{
		client: client,
		from:   cfg.WhatsAppFrom,
		to:     cfg.AdminPhone,
		log:    log,
	}, nil
}

// NotifyBooking sends one WhatsApp message; the Twilio client has no context support,
// so ctx is only checked before the call.
func (t *TwilioNotifier) NotifyBooking(ctx context.Context, b *models.Booking) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(whatsappAddr(t.from))
	params.SetTo(whatsappAddr(t.to))
	params.SetBody(AdminBookingText(b))

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send WhatsApp alert: %w", err)
	}
	if resp.ErrorCode != nil && *resp.ErrorCode != 0 {
		return fmt.Errorf("twilio error %d", *resp.ErrorCode)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	t.log.Info("admin.whatsapp_sent", slog.String("booking_id", b.ID), slog.String("sid", sid))
	return nil
}

func whatsappAddr(phone string) string {
	phone = strings.TrimSpace(phone)
	if strings.HasPrefix(phone, "whatsapp:") {
		return phone
	}
	return "whatsapp:" + phone
}
