package flow

import "github.com/Ananth-NQI/petjourney-backend/internal/models"

// EffectKind says what kind of reply the user should get
type EffectKind int

const (
	// EffectNone means nothing is sent
	EffectNone EffectKind = iota
	// EffectPrompt shows the prompt for Effect.Step
	EffectPrompt
	// EffectPetTypeRequired asks for the pet type before the count
	EffectPetTypeRequired
	// EffectInvalidPetCount rejects a non-numeric or non-positive pet count
	EffectInvalidPetCount
	// EffectCancelled acknowledges an explicit cancel
	EffectCancelled
	// EffectConfirmed carries the finished booking in Effect.Session
	EffectConfirmed
	// EffectIncomplete tells the user the booking data was incomplete and must be restarted
	EffectIncomplete
	// EffectHelp is the generic help prompt for unrecognized input
	EffectHelp
)

func (k EffectKind) String() string {
	switch k {
	case EffectNone:
		return "none"
	case EffectPrompt:
		return "prompt"
	case EffectPetTypeRequired:
		return "pet_type_required"
	case EffectInvalidPetCount:
		return "invalid_pet_count"
	case EffectCancelled:
		return "cancelled"
	case EffectConfirmed:
		return "confirmed"
	case EffectIncomplete:
		return "incomplete"
	case EffectHelp:
		return "help"
	}
	return "unknown"
}

// Effect is the semantic reply; rendering it into platform messages happens elsewhere
type Effect struct {
	Kind EffectKind
	// Step is the step being prompted, or the user's current step for corrective replies
	Step models.Step
	// Session is a snapshot of the session the reply refers to, if any
	Session *models.Session
}

// Prompt builds the effect that shows a step's prompt
func Prompt(s *models.Session) Effect {
	return Effect{Kind: EffectPrompt, Step: s.Step, Session: s.Clone()}
}
