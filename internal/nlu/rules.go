package nlu

import (
	"context"
	"regexp"
	"strings"
)

// intentPatterns map message shapes to intents, checked in order. Reschedule
// outranks cancel because "reschedule" phrasing often contains "cancel".
var intentPatterns = []struct {
	intent Intent
	re     *regexp.Regexp
}{
	{IntentReschedule, regexp.MustCompile(`(?i)\b(reschedul\w*|move\s+(my\s+)?appointment|change\s+(my\s+)?(appointment|time|slot)|different\s+(time|day))\b`)},
	{IntentCancel, regexp.MustCompile(`(?i)\bcancel\w*\b`)},
	{IntentBook, regexp.MustCompile(`(?i)\b(book\w*|appointment|schedule|come\s+in|see\s+(the\s+)?dentist|need\s+a\s+(checkup|cleaning|filling))\b`)},
	{IntentEnd, regexp.MustCompile(`(?i)^\s*(bye|goodbye|that'?s\s+all|no\s+thanks?,?\s*bye|done|thanks,?\s*bye)\b`)},
	{IntentInquiry, regexp.MustCompile(`(?i)\b(how\s+much|price|cost|open|hours|where|address|insurance)\b`)},
}

// RuleClassifier is the deterministic keyword fallback used when no AI
// collaborator is configured or its call fails.
type RuleClassifier struct{}

// Classify returns the first matching intent, or IntentUnknown.
func (RuleClassifier) Classify(_ context.Context, text string, _ []TurnMessage) ([]Intent, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return []Intent{IntentUnknown}, nil
	}
	var intents []Intent
	for _, p := range intentPatterns {
		if p.re.MatchString(trimmed) {
			intents = append(intents, p.intent)
		}
	}
	if len(intents) == 0 {
		intents = []Intent{IntentUnknown}
	}
	return intents, nil
}

var _ Classifier = RuleClassifier{}
