package flow

import (
	"strconv"
	"strings"

	"github.com/Ananth-NQI/petjourney-backend/internal/models"
)

// Outcome is the result of one transition
type Outcome struct {
	// Next is the session after the transition; nil means the user has no session
	Next *models.Session
	// Write is true when the store must be updated (upsert Next, or delete when Next is nil)
	Write bool
	// Effect is the reply to send
	Effect Effect
}

// Transition applies action to the current session (nil when the user has none).
// It never mutates current.
func Transition(userID string, current *models.Session, action Action) Outcome {
	switch a := action.(type) {
	case Start:
		next := &models.Session{
			UserID: userID,
			Step:   models.StepChooseService,
			Hotel:  a.Hotel,
			Area:   a.Area,
		}
		return Outcome{Next: next, Write: true, Effect: Prompt(next)}

	case Reset:
		return Outcome{Write: current != nil, Effect: Effect{Kind: EffectNone}}

	case Cancel:
		return Outcome{Write: current != nil, Effect: Effect{Kind: EffectCancelled}}

	case Unrecognized:
		eff := Effect{Kind: EffectHelp}
		if current != nil {
			eff.Step = current.Step
			eff.Session = current.Clone()
		}
		return Outcome{Next: current, Effect: eff}
	}

	// Everything below needs a booking in progress
	if current == nil {
		return Outcome{Effect: Effect{Kind: EffectHelp}}
	}
	if !current.Consistent() {
		return Outcome{Write: true, Effect: Effect{Kind: EffectIncomplete, Step: current.Step}}
	}

	switch a := action.(type) {
	case ChooseService:
		if current.Step != models.StepChooseService || a.Value == "" {
			return reprompt(current)
		}
		return advance(current, func(s *models.Session) {
			s.Service = a.Value
			s.Step = models.StepPickDate
		})

	case PickDate:
		if current.Step != models.StepPickDate || a.Value == "" {
			return reprompt(current)
		}
		return advance(current, func(s *models.Session) {
			s.Date = a.Value
			s.Step = models.StepPickRoom
		})

	case PickRoom:
		if current.Step != models.StepPickRoom || a.Value == "" {
			return reprompt(current)
		}
		return advance(current, func(s *models.Session) {
			s.Room = a.Value
			s.Step = models.StepPickPet
		})

	case PickPetType:
		if !atPetStep(current) || a.Value == "" {
			return reprompt(current)
		}
		return advance(current, func(s *models.Session) {
			s.PetType = a.Value
			s.Step = models.StepPickPet
		})

	case PickPetCount:
		if !atPetStep(current) {
			return reprompt(current)
		}
		if current.PetType == "" {
			return corrective(current, EffectPetTypeRequired)
		}
		n, err := strconv.Atoi(strings.TrimSpace(a.Value))
		if err != nil || n <= 0 {
			return corrective(current, EffectInvalidPetCount)
		}
		return advance(current, func(s *models.Session) {
			s.PetCount = n
			s.Step = models.StepSummary
		})

	case Confirm:
		if current.Step != models.StepSummary {
			return reprompt(current)
		}
		if !current.Complete() {
			return Outcome{Write: true, Effect: Effect{Kind: EffectIncomplete, Step: current.Step}}
		}
		return Outcome{
			Write:  true,
			Effect: Effect{Kind: EffectConfirmed, Step: current.Step, Session: current.Clone()},
		}
	}

	return reprompt(current)
}

func atPetStep(s *models.Session) bool {
	return s.Step == models.StepPickPet || s.Step == models.StepPickPetCount
}

// advance applies mutate to a copy of current and refuses the result if a field the
// new step depends on is empty.
func advance(current *models.Session, mutate func(*models.Session)) Outcome {
	next := current.Clone()
	mutate(next)
	if !next.Consistent() {
		return reprompt(current)
	}
	return Outcome{Next: next, Write: true, Effect: Prompt(next)}
}

func reprompt(current *models.Session) Outcome {
	return Outcome{Next: current, Effect: Prompt(current)}
}

func corrective(current *models.Session, kind EffectKind) Outcome {
	return Outcome{Next: current, Effect: Effect{Kind: kind, Step: current.Step, Session: current.Clone()}}
}
