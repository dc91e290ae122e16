package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/Ananth-NQI/petjourney-backend/internal/flow"
	"github.com/Ananth-NQI/petjourney-backend/internal/logger"
	"github.com/Ananth-NQI/petjourney-backend/internal/services"
)

type pushCall struct {
	to       string
	msgs     []messaging_api.MessageInterface
	retryKey string
}

type fakePusher struct {
	calls []pushCall
	err   error
}

func (f *fakePusher) Push(_ context.Context, to string, msgs []messaging_api.MessageInterface, retryKey string) error {
	f.calls = append(f.calls, pushCall{to: to, msgs: msgs, retryKey: retryKey})
	return f.err
}

func newBookNowApp(p Pusher) *fiber.App {
	h := NewBookNowHandler(p, services.NewRenderer(), logger.Discard())
	h.newKey = func() string { return "retry-1" }
	app := fiber.New()
	app.Get("/api/book-now", h.Handle)
	app.Post("/api/book-now", h.Handle)
	return app
}

func doBookNow(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, body
}

func TestBookNowPostPushesSummary(t *testing.T) {
	p := &fakePusher{}
	app := newBookNowApp(p)

	payload := `{"hotel":"Paws Inn","area":"Sukhumvit","guestName":"Nok","nights":2,"petType":"dog","petCount":"1","userId":"U1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/book-now", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	code, body := doBookNow(t, app, req)

	if code != http.StatusOK || body["ok"] != true || body["pushed"] != true || body["to"] != "U1" {
		t.Fatalf("got %d %v", code, body)
	}
	received := body["received"].(map[string]any)
	if received["nights"] != "2" || received["hotel"] != "Paws Inn" {
		t.Fatalf("received = %v", received)
	}
	if _, ok := received["userId"]; ok {
		t.Fatal("userId echoed back")
	}

	if len(p.calls) != 1 {
		t.Fatalf("pushes = %d", len(p.calls))
	}
	call := p.calls[0]
	if call.to != "U1" || call.retryKey != "retry-1" || len(call.msgs) != 1 {
		t.Fatalf("push = %+v", call)
	}
	msg, ok := call.msgs[0].(messaging_api.TextMessage)
	if !ok {
		t.Fatalf("message is %T", call.msgs[0])
	}
	for _, want := range []string{"Paws Inn", "Nok", "2 คืน", "สุนัข"} {
		if !strings.Contains(msg.Text, want) {
			t.Errorf("text %q missing %q", msg.Text, want)
		}
	}
	start := msg.QuickReply.Items[0].Action.(*messaging_api.PostbackAction)
	if got := flow.ParsePostback(start.Data, nil); got != (flow.Start{Hotel: "Paws Inn", Area: "Sukhumvit"}) {
		t.Errorf("start button parses to %#v", got)
	}
}

func TestBookNowGetWithoutUser(t *testing.T) {
	p := &fakePusher{}
	app := newBookNowApp(p)

	code, body := doBookNow(t, app, httptest.NewRequest(http.MethodGet, "/api/book-now?hotel=Paws%20Inn&roomCount=1", nil))
	if code != http.StatusOK || body["ok"] != true || body["pushed"] != false {
		t.Fatalf("got %d %v", code, body)
	}
	if body["received"].(map[string]any)["hotel"] != "Paws Inn" {
		t.Fatalf("received = %v", body["received"])
	}
	if len(p.calls) != 0 {
		t.Fatal("nothing should be pushed without a user")
	}
}

func TestBookNowPushFailure(t *testing.T) {
	app := newBookNowApp(&fakePusher{err: errors.New("429")})

	code, body := doBookNow(t, app, httptest.NewRequest(http.MethodGet, "/api/book-now?userId=U1", nil))
	if code != http.StatusOK || body["ok"] != false || body["pushed"] != false || body["reason"] == nil {
		t.Fatalf("got %d %v", code, body)
	}
}

func TestBookNowWithoutPusher(t *testing.T) {
	app := newBookNowApp(nil)
	code, body := doBookNow(t, app, httptest.NewRequest(http.MethodGet, "/api/book-now?userId=U1", nil))
	if code != http.StatusOK || body["pushed"] != false {
		t.Fatalf("got %d %v", code, body)
	}
}

func TestBookNowRejectsBadJSON(t *testing.T) {
	app := newBookNowApp(&fakePusher{})
	req := httptest.NewRequest(http.MethodPost, "/api/book-now", bytes.NewBufferString(`{"hotel":`))
	code, body := doBookNow(t, app, req)
	if code != http.StatusBadRequest || body["ok"] != false {
		t.Fatalf("got %d %v", code, body)
	}
}
