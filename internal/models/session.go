package models

import "time"

// Step is the user's position in the booking dialogue
type Step string

const (
	StepChooseService Step = "choose_service"
	StepPickDate      Step = "pick_date"
	StepPickRoom      Step = "pick_room"
	StepPickPet       Step = "pick_pet"
	StepPickPetCount  Step = "pick_pet_count"
	StepSummary       Step = "summary"
)

// Valid reports whether s is one of the known dialogue steps
func (s Step) Valid() bool {
	switch s {
	case StepChooseService, StepPickDate, StepPickRoom, StepPickPet, StepPickPetCount, StepSummary:
		return true
	}
	return false
}

// Session stores the in-progress booking for one LINE user
type Session struct {
	UserID   string `json:"user_id"`
	Step     Step   `json:"step"`
	Hotel    string `json:"hotel,omitempty"`
	Area     string `json:"area,omitempty"`
	Service  string `json:"service,omitempty"`
	Date     string `json:"date,omitempty"`
	Room     string `json:"room,omitempty"`
	PetType  string `json:"pet_type,omitempty"`
	PetCount int    `json:"pet_count,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a copy that can be mutated without touching s
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// Complete reports whether every field needed to confirm a booking is set
func (s *Session) Complete() bool {
	return s != nil &&
		s.Service != "" &&
		s.Date != "" &&
		s.Room != "" &&
		s.PetType != "" &&
		s.PetCount > 0
}

// Consistent reports whether the fields required to reach the current step are all set.
// PickPetCount only requires a pet type on top of PickPet.
func (s *Session) Consistent() bool {
	if s == nil || !s.Step.Valid() {
		return false
	}
	switch s.Step {
	case StepChooseService:
		return true
	case StepPickDate:
		return s.Service != ""
	case StepPickRoom:
		return s.Service != "" && s.Date != ""
	case StepPickPet:
		return s.Service != "" && s.Date != "" && s.Room != ""
	case StepPickPetCount:
		return s.Service != "" && s.Date != "" && s.Room != "" && s.PetType != ""
	case StepSummary:
		return s.Complete()
	}
	return false
}
