package engine

import (
	"context"
	"regexp"

	"github.com/brightsmile/frontdesk/internal/nlu"
	"github.com/brightsmile/frontdesk/pkg/logging"
)

// Whole-word keyword lists for the deterministic fallback. The lists are
// disjoint; a reply matching both (or neither) reads as ambiguous.
var (
	affirmRe = regexp.MustCompile(`(?i)\b(yes|yeah|yep|yup|sure|ok|okay|confirm|confirmed|correct|right|sounds good|please do|go ahead|definitely|absolutely)\b`)
	denyRe   = regexp.MustCompile(`(?i)\b(no|nope|nah|cancel|don'?t|stop|negative|wrong|never ?mind|not)\b`)
)

// ConfirmDetector reads a short reply as confirmed/declined/ambiguous for
// the pending action. Primary path is the AI collaborator; keyword matching
// covers a missing or failing collaborator. An ambiguous reading is never
// treated as confirmed.
type ConfirmDetector struct {
	confirmer nlu.Confirmer
	logger    *logging.Logger
}

// NewConfirmDetector creates a detector. confirmer may be nil, in which case
// only the keyword fallback runs.
func NewConfirmDetector(confirmer nlu.Confirmer, logger *logging.Logger) *ConfirmDetector {
	if logger == nil {
		logger = logging.Default()
	}
	return &ConfirmDetector{confirmer: confirmer, logger: logger}
}

// Detect classifies the reply given a description of what is pending.
func (d *ConfirmDetector) Detect(ctx context.Context, reply, pendingDescription string) nlu.Confirmation {
	if d.confirmer != nil {
		outcome, err := d.confirmer.ReadConfirmation(ctx, reply, pendingDescription)
		if err == nil {
			return outcome
		}
		d.logger.Warn("confirmation collaborator failed, using keyword fallback", "error", err)
	}
	return keywordConfirmation(reply)
}

func keywordConfirmation(reply string) nlu.Confirmation {
	affirmed := affirmRe.MatchString(reply)
	denied := denyRe.MatchString(reply)
	switch {
	case affirmed && !denied:
		return nlu.ConfirmationYes
	case denied && !affirmed:
		return nlu.ConfirmationNo
	default:
		return nlu.ConfirmationUnclear
	}
}
