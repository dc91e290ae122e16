package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/Ananth-NQI/petjourney-backend/internal/flow"
	"github.com/Ananth-NQI/petjourney-backend/internal/models"
)

// Choice is one quick-reply button
type Choice struct {
	Value string
	Label string
}

// Booking choices offered in the chat
var (
	ServiceChoices = []Choice{
		{"BOARDING", "🏨 ฝากเลี้ยง"},
		{"TRANSPORT", "🚗 รับ-ส่ง"},
		{"GROOMING", "✂️ อาบน้ำตัดขน"},
	}
	RoomChoices = []Choice{
		{"STANDARD", "Standard"},
		{"DELUXE", "Deluxe"},
		{"SUITE", "Suite"},
	}
	PetTypeChoices = []Choice{
		{"DOG", "🐶 สุนัข"},
		{"CAT", "🐱 แมว"},
		{"OTHER", "🐾 อื่นๆ"},
	}
	PetCountChoices = []Choice{
		{"1", "1"}, {"2", "2"}, {"3", "3"}, {"4", "4"}, {"5", "5"},
	}
)

// Renderer turns flow effects into LINE messages
type Renderer struct {
	now func() time.Time
}

// NewRenderer creates a renderer using the wall clock for the date picker minimum
func NewRenderer() *Renderer {
	return &Renderer{now: time.Now}
}

// Render returns the messages for an effect; EffectNone renders nothing
func (r *Renderer) Render(eff flow.Effect) []messaging_api.MessageInterface {
	switch eff.Kind {
	case flow.EffectNone:
		return nil
	case flow.EffectPrompt:
		return []messaging_api.MessageInterface{r.prompt(eff.Step, eff.Session)}
	case flow.EffectPetTypeRequired:
		return []messaging_api.MessageInterface{
			withChoices("⚠️ กรุณาเลือกประเภทสัตว์เลี้ยงก่อนระบุจำนวน", "PETTYPE", PetTypeChoices),
		}
	case flow.EffectInvalidPetCount:
		return []messaging_api.MessageInterface{
			withChoices("⚠️ จำนวนสัตว์เลี้ยงต้องเป็นตัวเลขมากกว่า 0", "PETCOUNT", PetCountChoices),
		}
	case flow.EffectCancelled:
		return []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: "❌ ยกเลิกการจองแล้ว พิมพ์ \"จอง\" เพื่อเริ่มใหม่"},
		}
	case flow.EffectConfirmed:
		return []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: "✅ ยืนยันการจองเรียบร้อย\n\n" + SummaryText(eff.Session)},
		}
	case flow.EffectIncomplete:
		return []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: "⚠️ ข้อมูลการจองไม่ครบ กรุณาเริ่มใหม่โดยพิมพ์ \"จอง\""},
		}
	case flow.EffectHelp:
		return r.help(eff)
	}
	return nil
}

// help re-shows the current step after the hint when a booking is in progress
func (r *Renderer) help(eff flow.Effect) []messaging_api.MessageInterface {
	if eff.Session == nil {
		return []messaging_api.MessageInterface{
			withActions("🐾 Pet Journey\nพิมพ์ \"จอง\" หรือกดปุ่มด้านล่างเพื่อเริ่มจองที่พักสัตว์เลี้ยง",
				postbackItem("เริ่มจอง", flow.PostbackData("START", ""))),
		}
	}
	return []messaging_api.MessageInterface{
		messaging_api.TextMessage{Text: "🤔 ไม่เข้าใจข้อความ กรุณาเลือกจากตัวเลือกด้านล่าง หรือพิมพ์ \"จอง\" เพื่อเริ่มใหม่"},
		r.prompt(eff.Step, eff.Session),
	}
}

func (r *Renderer) prompt(step models.Step, s *models.Session) messaging_api.MessageInterface {
	switch step {
	case models.StepChooseService:
		header := "🐾 Pet Journey Booking"
		if s != nil && s.Hotel != "" {
			header += "\nโรงแรม: " + s.Hotel
			if s.Area != "" {
				header += "\nพื้นที่: " + s.Area
			}
		}
		return withChoices(header+"\n\nต้องการใช้บริการแบบไหน?", "SERVICE", ServiceChoices)
	case models.StepPickDate:
		picker := &messaging_api.DatetimePickerAction{
			Label: "📅 เลือกวันที่",
			Data:  flow.PostbackData("DATE", ""),
			Mode:  messaging_api.DatetimePickerActionMODE_DATE,
			Min:   r.now().Format("2006-01-02"),
		}
		return withActions("📅 ต้องการเข้าพักวันที่เท่าไหร่?", messaging_api.QuickReplyItem{Type: "action", Action: picker})
	case models.StepPickRoom:
		return withChoices("🛏️ เลือกประเภทห้องพัก", "ROOM", RoomChoices)
	case models.StepPickPet, models.StepPickPetCount:
		if s != nil && s.PetType != "" {
			text := fmt.Sprintf("สัตว์เลี้ยง: %s\nมีสัตว์เลี้ยงกี่ตัว? (เปลี่ยนประเภทได้จากปุ่มด้านล่าง)", label(PetTypeChoices, s.PetType))
			items := append(choiceItems("PETCOUNT", PetCountChoices), choiceItems("PETTYPE", PetTypeChoices)...)
			return withActions(text, items...)
		}
		return withChoices("🐾 เลือกประเภทสัตว์เลี้ยง", "PETTYPE", PetTypeChoices)
	case models.StepSummary:
		return withActions("📋 สรุปการจอง\n\n"+SummaryText(s)+"\n\nยืนยันการจองหรือไม่?",
			postbackItem("✅ ยืนยัน", flow.PostbackData("CONFIRM", "")),
			postbackItem("❌ ยกเลิก", flow.PostbackData("CANCEL", "")))
	}
	return messaging_api.TextMessage{Text: "พิมพ์ \"จอง\" เพื่อเริ่มจอง"}
}

// SummaryText lists the collected booking fields, skipping empty ones
func SummaryText(s *models.Session) string {
	if s == nil {
		return ""
	}
	var rows []string
	add := func(name, value string) {
		if value != "" {
			rows = append(rows, name+": "+value)
		}
	}
	add("โรงแรม", s.Hotel)
	add("พื้นที่", s.Area)
	add("บริการ", label(ServiceChoices, s.Service))
	add("วันที่", s.Date)
	add("ห้องพัก", label(RoomChoices, s.Room))
	pet := label(PetTypeChoices, s.PetType)
	if s.PetCount > 0 {
		pet = strings.TrimSpace(fmt.Sprintf("%s · %d ตัว", pet, s.PetCount))
	}
	add("สัตว์เลี้ยง", pet)
	return strings.Join(rows, "\n")
}

// BookingRequestText lists the fields of a web booking request, skipping empty ones
func BookingRequestText(req models.BookingRequest) string {
	var rows []string
	add := func(name, value string) {
		if value = strings.TrimSpace(value); value != "" {
			rows = append(rows, name+": "+value)
		}
	}
	withUnit := func(value, unit string) string {
		if strings.TrimSpace(value) == "" {
			return ""
		}
		return strings.TrimSpace(value) + " " + unit
	}
	add("โรงแรม", req.Hotel)
	add("พื้นที่", req.Area)
	add("ผู้จอง", req.GuestName)
	add("เบอร์โทร", req.Phone)
	add("เช็คอิน", req.CheckIn)
	add("เช็คเอาท์", req.CheckOut)
	add("จำนวนคืน", withUnit(req.Nights, "คืน"))
	add("จำนวนห้อง", withUnit(req.RoomCount, "ห้อง"))
	add("จำนวนผู้เข้าพัก", withUnit(req.GuestCount, "คน"))

	var pet []string
	if t := strings.TrimSpace(req.PetType); t != "" {
		if l := label(PetTypeChoices, strings.ToUpper(t)); l != strings.ToUpper(t) {
			t = l
		}
		pet = append(pet, t)
	}
	if c := withUnit(req.PetCount, "ตัว"); c != "" {
		pet = append(pet, c)
	}
	add("สัตว์เลี้ยง", strings.Join(pet, " · "))

	if len(rows) == 0 {
		return "ไม่มีข้อมูลที่ส่งมา"
	}
	return strings.Join(rows, "\n")
}

// BookingRequest renders the summary pushed after a web booking request, with a
// button that starts the chat flow for the same hotel
func (r *Renderer) BookingRequest(req models.BookingRequest) []messaging_api.MessageInterface {
	text := "🐾 Pet Journey Booking Request\nกรอกข้อมูลเบื้องต้นเรียบร้อย ✅\n\n" +
		BookingRequestText(req) +
		"\n\nขั้นถัดไป: บอทจะถามข้อมูลเพิ่มเติมในแชท"
	return []messaging_api.MessageInterface{
		withActions(text, postbackItem("เริ่มจอง", flow.StartPostbackData(req.Hotel, req.Area))),
	}
}

// AdminBookingText is the out-of-band alert for a confirmed booking
func AdminBookingText(b *models.Booking) string {
	s := &models.Session{
		Hotel: b.Hotel, Area: b.Area, Service: b.Service, Date: b.Date,
		Room: b.Room, PetType: b.PetType, PetCount: b.PetCount,
	}
	return fmt.Sprintf("🔔 New booking %s\nUser: %s\n%s", b.ID, b.UserID, SummaryText(s))
}

func label(choices []Choice, value string) string {
	for _, c := range choices {
		if c.Value == value {
			return c.Label
		}
	}
	return value
}

func choiceItems(action string, choices []Choice) []messaging_api.QuickReplyItem {
	items := make([]messaging_api.QuickReplyItem, 0, len(choices))
	for _, c := range choices {
		items = append(items, postbackItem(c.Label, flow.PostbackData(action, c.Value)))
	}
	return items
}

func postbackItem(text, data string) messaging_api.QuickReplyItem {
	return messaging_api.QuickReplyItem{
		Type: "action",
		Action: &messaging_api.PostbackAction{
			Label:       text,
			Data:        data,
			DisplayText: text,
		},
	}
}

func withChoices(text, action string, choices []Choice) messaging_api.MessageInterface {
	return withActions(text, choiceItems(action, choices)...)
}

func withActions(text string, items ...messaging_api.QuickReplyItem) messaging_api.MessageInterface {
	return messaging_api.TextMessage{
		Text:       text,
		QuickReply: &messaging_api.QuickReply{Items: items},
	}
}
