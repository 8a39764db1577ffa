// Package nlu defines the language-understanding boundary: intent
// classification, field extraction, and confirmation reading. The engine
// treats every implementation as best-effort and fallible, and validates
// all extracted fields before trusting them.
package nlu

import (
	"context"
	"time"
)

// Intent is a coarse classification of what the patient wants this turn.
type Intent string

const (
	IntentBook       Intent = "book"
	IntentCancel     Intent = "cancel"
	IntentReschedule Intent = "reschedule"
	IntentInquiry    Intent = "inquiry"
	IntentEnd        Intent = "end"
	IntentUnknown    Intent = "unknown"
)

// Confirmation is the reading of a short reply against a pending action.
type Confirmation string

const (
	ConfirmationYes     Confirmation = "confirmed"
	ConfirmationNo      Confirmation = "declined"
	ConfirmationUnclear Confirmation = "ambiguous"
)

// TurnMessage is one entry of the bounded conversation history handed to
// the collaborator as context.
type TurnMessage struct {
	Role    string    `json:"role"` // "user" or "assistant"
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Fields is the raw extraction result, before validation. Empty strings and
// a zero unit count mean "not mentioned".
type Fields struct {
	PatientName  string `json:"patient_name,omitempty"`
	Treatment    string `json:"treatment,omitempty"`
	Provider     string `json:"provider,omitempty"`
	UnitCount    int    `json:"unit_count,omitempty"`
	DateTimeText string `json:"datetime_text,omitempty"`
}

// Classifier infers the patient's intents for a turn.
type Classifier interface {
	Classify(ctx context.Context, text string, history []TurnMessage) ([]Intent, error)
}

// Extractor pulls structured booking fields out of free text.
type Extractor interface {
	Extract(ctx context.Context, text string, history []TurnMessage) (Fields, error)
}

// Confirmer reads a short reply as yes/no/unclear given a description of
// what is pending.
type Confirmer interface {
	ReadConfirmation(ctx context.Context, reply, pendingDescription string) (Confirmation, error)
}

// Replier produces an open-ended reply when no deterministic transition
// applies. Optional; the engine has a canned fallback.
type Replier interface {
	Reply(ctx context.Context, text string, history []TurnMessage) (string, error)
}
