// Package flow holds the booking dialogue state machine. It is pure: it turns the
// current session and an incoming action into the next session and a reply effect,
// and leaves storage and delivery to the caller.
package flow

import (
	"net/url"
	"strings"
)

// Action is one recognized user intent. The set of implementations is closed.
type Action interface {
	Name() string
	action()
}

// Start begins (or restarts) a booking, optionally for a given hotel
type Start struct {
	Hotel string
	Area  string
}

// Reset drops the session silently
type Reset struct{}

// Cancel drops the session and tells the user
type Cancel struct{}

// ChooseService picks the service type (boarding, transport, ...)
type ChooseService struct{ Value string }

// PickDate carries the date returned by the datetime picker; empty when the picker sent none
type PickDate struct{ Value string }

// PickRoom picks the room type
type PickRoom struct{ Value string }

// PickPetType picks the kind of pet
type PickPetType struct{ Value string }

// PickPetCount carries the raw pet count; it is validated by the engine
type PickPetCount struct{ Value string }

// Confirm asks to finalize the booking from the summary
type Confirm struct{}

// Unrecognized is any input that does not map to a command
type Unrecognized struct{ Input string }

func (Start) Name() string         { return "START" }
func (Reset) Name() string         { return "RESET" }
func (Cancel) Name() string        { return "CANCEL" }
func (ChooseService) Name() string { return "SERVICE" }
func (PickDate) Name() string      { return "DATE" }
func (PickRoom) Name() string      { return "ROOM" }
func (PickPetType) Name() string   { return "PETTYPE" }
func (PickPetCount) Name() string  { return "PETCOUNT" }
func (Confirm) Name() string       { return "CONFIRM" }
func (Unrecognized) Name() string  { return "UNRECOGNIZED" }

func (Start) action()         {}
func (Reset) action()         {}
func (Cancel) action()        {}
func (ChooseService) action() {}
func (PickDate) action()      {}
func (PickRoom) action()      {}
func (PickPetType) action()   {}
func (PickPetCount) action()  {}
func (Confirm) action()       {}
func (Unrecognized) action()  {}

// Postback data keys
const (
	KeyAction = "ACTION"
	KeyValue  = "VALUE"
	KeyHotel  = "HOTEL"
	KeyArea   = "AREA"

	// ParamDate is the postback param the datetime picker fills in
	ParamDate = "date"

	startBookingPrefix = "START_BOOKING"
)

// ParsePostback decodes ACTION=...&VALUE=... postback data
func ParsePostback(data string, params map[string]string) Action {
	pairs := parsePairs(data, "&")
	value := strings.TrimSpace(pairs[KeyValue])

	switch strings.ToUpper(strings.TrimSpace(pairs[KeyAction])) {
	case "START":
		return Start{Hotel: pairs[KeyHotel], Area: pairs[KeyArea]}
	case "RESET":
		return Reset{}
	case "CANCEL":
		return Cancel{}
	case "SERVICE":
		return ChooseService{Value: value}
	case "DATE":
		return PickDate{Value: strings.TrimSpace(params[ParamDate])}
	case "ROOM":
		return PickRoom{Value: value}
	case "PETTYPE":
		return PickPetType{Value: value}
	case "PETCOUNT":
		return PickPetCount{Value: value}
	case "CONFIRM":
		return Confirm{}
	}
	return Unrecognized{Input: data}
}

// ParseText maps free text to an action. Only the start phrases are commands.
func ParseText(text string) Action {
	t := strings.TrimSpace(text)
	switch {
	case strings.EqualFold(t, "book"), t == "จอง":
		return Start{}
	case strings.HasPrefix(t, startBookingPrefix):
		// START_BOOKING|hotel=Shama%20Yen%20Akart|area=...
		pairs := parsePairs(strings.TrimPrefix(t, startBookingPrefix), "|")
		return Start{Hotel: pairs[KeyHotel], Area: pairs[KeyArea]}
	}
	return Unrecognized{Input: t}
}

// parsePairs splits sep-joined KEY=VALUE pairs. Keys are upper-cased, values
// unescaped, and the first occurrence of a key wins.
func parsePairs(data, sep string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(data, sep) {
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		key := strings.ToUpper(strings.TrimSpace(kv[0]))
		if key == "" {
			continue
		}
		if _, seen := out[key]; seen {
			continue
		}
		val := ""
		if len(kv) == 2 {
			val = kv[1]
			if unescaped, err := url.PathUnescape(val); err == nil {
				val = unescaped
			}
		}
		out[key] = val
	}
	return out
}

// PostbackData builds the data string for a postback button
func PostbackData(action, value string) string {
	data := KeyAction + "=" + action
	if value != "" {
		data += "&" + KeyValue + "=" + escapeValue(value)
	}
	return data
}

// StartPostbackData builds a START postback carrying the hotel the user came from
func StartPostbackData(hotel, area string) string {
	data := KeyAction + "=START"
	if hotel != "" {
		data += "&" + KeyHotel + "=" + escapeValue(hotel)
	}
	if area != "" {
		data += "&" + KeyArea + "=" + escapeValue(area)
	}
	return data
}

// QueryEscape covers & and =; spaces become %20 so PathUnescape reverses it
func escapeValue(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}
