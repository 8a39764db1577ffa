package engine

import (
	"context"
	"time"

	"github.com/brightsmile/frontdesk/internal/audit"
	"github.com/brightsmile/frontdesk/internal/calendar"
	"github.com/brightsmile/frontdesk/internal/clinic"
	"github.com/brightsmile/frontdesk/internal/nlu"
	"github.com/brightsmile/frontdesk/internal/observability/metrics"
	"github.com/brightsmile/frontdesk/internal/scheduling"
	"github.com/brightsmile/frontdesk/pkg/logging"
)

// Deps wires the engine's collaborators. Store and Calendar are required;
// everything else degrades gracefully when nil.
type Deps struct {
	Store    *SessionStore
	Calendar calendar.Calendar

	// NLU collaborators, all optional. Classification falls back to the
	// deterministic rule classifier, confirmation to keyword matching,
	// extraction and open replies to nothing.
	Classifier nlu.Classifier
	Extractor  nlu.Extractor
	Confirmer  nlu.Confirmer
	Replier    nlu.Replier

	// Parser turns free text into a date/time preference. Optional; without
	// it every preference is a wildcard.
	Parser scheduling.Parser

	Recorder *audit.Recorder
	Metrics  *metrics.EngineMetrics
	Logger   *logging.Logger

	Hours        scheduling.Hours
	SlotCacheTTL time.Duration
	HistoryLimit int
}

// Engine is the turn orchestrator: it owns the offer/confirm/commit
// lifecycle for bookings, cancellations, and reschedules.
type Engine struct {
	store    *SessionStore
	cal      calendar.Calendar
	rules    nlu.RuleClassifier
	deps     Deps
	confirm  *ConfirmDetector
	recorder *audit.Recorder
	metrics  *metrics.EngineMetrics
	logger   *logging.Logger

	hours        scheduling.Hours
	slotCacheTTL time.Duration
	historyLimit int

	now func() time.Time
}

// NewEngine wires the turn orchestrator.
func NewEngine(deps Deps) *Engine {
	if deps.Store == nil {
		panic("engine: session store cannot be nil")
	}
	if deps.Calendar == nil {
		panic("engine: calendar cannot be nil")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Default()
	}
	hours := deps.Hours
	if hours == (scheduling.Hours{}) {
		hours = scheduling.DefaultHours
	}
	ttl := deps.SlotCacheTTL
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	limit := deps.HistoryLimit
	if limit <= 0 {
		limit = 20
	}
	return &Engine{
		store:        deps.Store,
		cal:          deps.Calendar,
		deps:         deps,
		confirm:      NewConfirmDetector(deps.Confirmer, logger),
		recorder:     deps.Recorder,
		metrics:      deps.Metrics,
		logger:       logger,
		hours:        hours,
		slotCacheTTL: ttl,
		historyLimit: limit,
		now:          time.Now,
	}
}

// HandleTurn processes one inbound message and returns the reply text. It is
// the module's only entry point; it never returns an error — total failure
// yields a generic apology. The session is fetched once here and threaded
// through every call for the turn, then written back exactly once.
func (e *Engine) HandleTurn(ctx context.Context, conversationID, text, contactID string) string {
	start := e.now()

	sess := e.store.Get(conversationID)
	if contactID != "" {
		sess.ContactID = contactID
	}
	sess.appendHistory("user", text, e.now(), e.historyLimit)

	reply, outcome := e.processTurn(ctx, &sess, text)
	if reply == "" {
		reply = replyApology
		outcome = "error"
	}
	sess.appendHistory("assistant", reply, e.now(), e.historyLimit)

	e.recorder.Record(ctx, audit.Event{
		EventType:      audit.EventTurnHandled,
		ConversationID: conversationID,
		ContactID:      sess.ContactID,
		Detail:         outcome,
	})
	e.metrics.ObserveTurn(outcome, e.now().Sub(start).Seconds())

	if outcome == "ended" {
		e.recorder.Record(ctx, audit.Event{
			EventType:      audit.EventSessionEnded,
			ConversationID: conversationID,
			ContactID:      sess.ContactID,
		})
		e.store.End(conversationID)
	} else {
		e.store.Put(sess)
	}
	return reply
}

// EndConversation drops the session immediately, for callers hanging up out
// of band rather than saying goodbye.
func (e *Engine) EndConversation(ctx context.Context, conversationID string) {
	e.recorder.Record(ctx, audit.Event{
		EventType:      audit.EventSessionEnded,
		ConversationID: conversationID,
	})
	e.store.End(conversationID)
}

// processTurn runs deterministic checks ahead of AI-driven interpretation:
// a pending action consumes the turn before any classification happens.
func (e *Engine) processTurn(ctx context.Context, sess *Session, text string) (reply, outcome string) {
	switch sess.Pending.Kind {
	case PendingBooking:
		return e.resolveBooking(ctx, sess, text)
	case PendingCancellation:
		return e.resolveCancellation(ctx, sess, text)
	case PendingReschedule:
		return e.resolveReschedule(ctx, sess, text)
	}

	// Deterministic capture: a bare tooth count while we are waiting for one.
	captureUnitCount(sess, text)

	intents := e.classify(ctx, sess, text)
	e.mergeExtractedFields(ctx, sess, text)

	switch primaryIntent(intents) {
	case nlu.IntentBook:
		return e.advanceBooking(ctx, sess)
	case nlu.IntentCancel:
		return e.startCancellation(ctx, sess)
	case nlu.IntentReschedule:
		return e.startReschedule(ctx, sess)
	case nlu.IntentEnd:
		return replyGoodbye, "ended"
	case nlu.IntentInquiry:
		return e.openReply(ctx, sess, text), "inquiry"
	default:
		if sess.Collecting {
			return e.advanceBooking(ctx, sess)
		}
		return e.openReply(ctx, sess, text), "smalltalk"
	}
}

func (e *Engine) classify(ctx context.Context, sess *Session, text string) []nlu.Intent {
	if e.deps.Classifier != nil {
		intents, err := e.deps.Classifier.Classify(ctx, text, sess.History)
		if err == nil {
			return intents
		}
		e.metrics.ObserveExternalFailure("classifier")
		e.logger.Warn("intent classifier failed, using rule fallback", "error", err)
	}
	intents, _ := e.rules.Classify(ctx, text, sess.History)
	return intents
}

// mergeExtractedFields runs field extraction, validates the result, and
// merges accepted fields into the session. Invalid fields are dropped
// silently; an extraction failure never fails the turn.
func (e *Engine) mergeExtractedFields(ctx context.Context, sess *Session, text string) {
	if e.deps.Extractor == nil {
		return
	}
	raw, err := e.deps.Extractor.Extract(ctx, text, sess.History)
	if err != nil {
		e.metrics.ObserveExternalFailure("extractor")
		e.logger.Warn("field extraction failed", "error", err)
		return
	}
	fields := nlu.Validate(raw)

	if fields.PatientName != "" {
		sess.PatientName = fields.PatientName
	}
	if fields.HasTreatment {
		sess.Treatment = fields.Treatment
		sess.HasTreatment = true
	}
	if fields.HasProvider {
		sess.Provider = fields.Provider
		sess.HasProvider = true
	}
	if fields.UnitCount > 0 {
		sess.UnitCount = fields.UnitCount
	}
	if fields.DateTimeText != "" {
		sess.DateTimeText = fields.DateTimeText
	}
}

func (e *Engine) openReply(ctx context.Context, sess *Session, text string) string {
	if e.deps.Replier != nil {
		reply, err := e.deps.Replier.Reply(ctx, text, sess.History)
		if err == nil && reply != "" {
			return reply
		}
		if err != nil {
			e.metrics.ObserveExternalFailure("replier")
			e.logger.Warn("open reply generation failed", "error", err)
		}
	}
	return replyGeneric
}

// openSlots returns the open-slot list for matching/display, consulting the
// session cache first. The commit path must not call this; it re-fetches.
func (e *Engine) openSlots(ctx context.Context, sess *Session, providers []clinic.Provider) ([]scheduling.Slot, error) {
	if slots, ok := sess.cachedSlots(e.now(), e.slotCacheTTL); ok {
		return slots, nil
	}
	slots, err := e.cal.ListOpenSlots(ctx, sess.Treatment, providers)
	if err != nil {
		return nil, err
	}
	sess.SlotCache = slots
	sess.SlotCacheAt = e.now()
	return slots, nil
}

// parsePreference resolves the session's raw date/time text. Errors and a
// missing parser both degrade to the wildcard preference.
func (e *Engine) parsePreference(ctx context.Context, sess *Session) scheduling.Preference {
	if e.deps.Parser == nil || sess.DateTimeText == "" {
		return scheduling.Preference{}
	}
	pref, err := e.deps.Parser.Parse(ctx, sess.DateTimeText, e.now())
	if err != nil {
		e.metrics.ObserveExternalFailure("parser")
		e.logger.Warn("date/time parse failed", "error", err, "text", sess.DateTimeText)
		return scheduling.Preference{}
	}
	return pref
}

func (e *Engine) recordEvent(ctx context.Context, sess *Session, eventType audit.EventType, detail string) {
	e.recorder.Record(ctx, audit.Event{
		EventType:      eventType,
		ConversationID: sess.ConversationID,
		ContactID:      sess.ContactID,
		Detail:         detail,
	})
}

// intentPriority orders multi-intent turns: a reschedule mention wins over
// the cancel keyword it usually contains.
var intentPriority = []nlu.Intent{
	nlu.IntentReschedule,
	nlu.IntentCancel,
	nlu.IntentBook,
	nlu.IntentEnd,
	nlu.IntentInquiry,
}

func primaryIntent(intents []nlu.Intent) nlu.Intent {
	for _, want := range intentPriority {
		for _, got := range intents {
			if got == want {
				return want
			}
		}
	}
	return nlu.IntentUnknown
}
