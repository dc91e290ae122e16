package flow

import "github.com/line/line-bot-sdk-go/v8/linebot/webhook"

// Inbound is one webhook event reduced to what the booking dialogue needs
type Inbound struct {
	Type       string
	EventID    string
	ReplyToken string
	UserID     string
	Redelivery bool
	// Action is nil for events the bot does not react to (follows, stickers, events without a user)
	Action Action
}

// ParseEvent extracts the sender, reply token and action from a decoded webhook event
func ParseEvent(ev webhook.EventInterface) Inbound {
	in := Inbound{}
	if ev == nil {
		return in
	}
	in.Type = ev.GetType()

	switch e := ev.(type) {
	case webhook.MessageEvent:
		in.EventID = e.WebhookEventId
		in.ReplyToken = e.ReplyToken
		in.UserID = sourceUserID(e.Source)
		in.Redelivery = e.DeliveryContext != nil && e.DeliveryContext.IsRedelivery
		if text, ok := e.Message.(webhook.TextMessageContent); ok && in.UserID != "" {
			in.Action = ParseText(text.Text)
		}
	case webhook.PostbackEvent:
		in.EventID = e.WebhookEventId
		in.ReplyToken = e.ReplyToken
		in.UserID = sourceUserID(e.Source)
		in.Redelivery = e.DeliveryContext != nil && e.DeliveryContext.IsRedelivery
		if e.Postback != nil && in.UserID != "" {
			in.Action = ParsePostback(e.Postback.Data, e.Postback.Params)
		}
	}
	return in
}

func sourceUserID(src webhook.SourceInterface) string {
	switch s := src.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	}
	return ""
}
