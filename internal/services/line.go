package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
	"golang.org/x/time/rate"

	"github.com/Ananth-NQI/petjourney-backend/internal/flow"
)

// MessageSender delivers the reply for one event
type MessageSender interface {
	Reply(ctx context.Context, replyToken string, eff flow.Effect) error
}

// LineSender renders effects and sends them through the Messaging API
type LineSender struct {
	api      *messaging_api.MessagingApiAPI
	renderer *Renderer
	limiter  *rate.Limiter
	log      *slog.Logger
}

// NewLineSender creates a Messaging API client. endpoint may be empty for the default host.
func NewLineSender(accessToken, endpoint string, ratePerSecond float64, renderer *Renderer, log *slog.Logger) (*LineSender, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("missing LINE channel access token")
	}

	var opts []messaging_api.MessagingApiAPIOption
	if endpoint != "" {
		opts = append(opts, messaging_api.WithEndpoint(endpoint))
	}
	api, err := messaging_api.NewMessagingApiAPI(accessToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("create messaging api client: %w", err)
	}

	burst := int(ratePerSecond)
	if burst < 1 {
		burst = 1
	}
	return &LineSender{
		api:      api,
		renderer: renderer,
		limiter:  rate.NewLimiter(rate.Limit(ratePerSecond), burst),
		log:      log,
	}, nil
}

// Reply answers an event. Reply tokens are single use, so this is never retried.
func (s *LineSender) Reply(ctx context.Context, replyToken string, eff flow.Effect) error {
	msgs := s.renderer.Render(eff)
	if len(msgs) == 0 || replyToken == "" {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	_, err := s.api.WithContext(ctx).ReplyMessage(&messaging_api.ReplyMessageRequest{
		ReplyToken: replyToken,
		Messages:   msgs,
	})
	if err != nil {
		return fmt.Errorf("LINE reply failed: %w", err)
	}
	return nil
}

// Push sends messages to a user outside of a reply. retryKey makes retries idempotent on LINE's side.
func (s *LineSender) Push(ctx context.Context, to string, msgs []messaging_api.MessageInterface, retryKey string) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := s.api.WithContext(ctx).PushMessage(&messaging_api.PushMessageRequest{
		To:       to,
		Messages: msgs,
	}, retryKey)
	if err != nil {
		return fmt.Errorf("LINE push failed: %w", err)
	}
	return nil
}
