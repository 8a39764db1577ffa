package nlu

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/brightsmile/frontdesk/internal/scheduling"
)

// GeminiClient implements the NLU interfaces using Google's Gemini API.
type GeminiClient struct {
	client  *genai.Client
	modelID string
}

// NewGeminiClient creates a Gemini-backed NLU client.
func NewGeminiClient(ctx context.Context, apiKey, modelID string) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("nlu: gemini api key is required")
	}
	if strings.TrimSpace(modelID) == "" {
		modelID = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("nlu: failed to create gemini client: %w", err)
	}

	return &GeminiClient{client: client, modelID: modelID}, nil
}

// Close releases the underlying API client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

const classifyPrompt = `You classify a dental patient's message into intents.
Valid intents: book, cancel, reschedule, inquiry, end, unknown.
Respond with a JSON array of intent strings, nothing else.

Message: %q`

// Classify asks the model for the patient's intents.
func (c *GeminiClient) Classify(ctx context.Context, text string, history []TurnMessage) ([]Intent, error) {
	raw, err := c.generate(ctx, fmt.Sprintf(classifyPrompt, text), history)
	if err != nil {
		return nil, err
	}

	var names []string
	if err := json.Unmarshal([]byte(extractJSON(raw)), &names); err != nil {
		return nil, fmt.Errorf("nlu: gemini returned unparseable intents: %w", err)
	}

	var intents []Intent
	for _, name := range names {
		switch Intent(strings.ToLower(strings.TrimSpace(name))) {
		case IntentBook, IntentCancel, IntentReschedule, IntentInquiry, IntentEnd:
			intents = append(intents, Intent(strings.ToLower(strings.TrimSpace(name))))
		}
	}
	if len(intents) == 0 {
		intents = []Intent{IntentUnknown}
	}
	return intents, nil
}

const extractPrompt = `Extract dental booking fields from the patient's message.
Respond with a single JSON object, nothing else, using exactly these keys
(omit keys that are not mentioned):
  patient_name   - the patient's name
  treatment      - requested service in the patient's words
  provider       - requested dentist in the patient's words
  unit_count     - integer tooth count, for fillings
  datetime_text  - the date/time preference verbatim

Message: %q`

// Extract asks the model for structured booking fields. Callers must run
// Validate on the result before trusting it.
func (c *GeminiClient) Extract(ctx context.Context, text string, history []TurnMessage) (Fields, error) {
	raw, err := c.generate(ctx, fmt.Sprintf(extractPrompt, text), history)
	if err != nil {
		return Fields{}, err
	}

	var fields Fields
	if err := json.Unmarshal([]byte(extractJSON(raw)), &fields); err != nil {
		return Fields{}, fmt.Errorf("nlu: gemini returned unparseable fields: %w", err)
	}
	return fields, nil
}

const confirmPrompt = `A dental patient was asked to confirm the following pending action:
%s

They replied: %q

Is the reply an agreement, a refusal, or unclear?
Respond with exactly one word: confirmed, declined, or ambiguous.`

// ReadConfirmation asks the model whether the reply confirms the pending
// action.
func (c *GeminiClient) ReadConfirmation(ctx context.Context, reply, pendingDescription string) (Confirmation, error) {
	raw, err := c.generate(ctx, fmt.Sprintf(confirmPrompt, pendingDescription, reply), nil)
	if err != nil {
		return ConfirmationUnclear, err
	}

	switch Confirmation(strings.ToLower(strings.TrimSpace(raw))) {
	case ConfirmationYes:
		return ConfirmationYes, nil
	case ConfirmationNo:
		return ConfirmationNo, nil
	case ConfirmationUnclear:
		return ConfirmationUnclear, nil
	}
	return ConfirmationUnclear, fmt.Errorf("nlu: gemini returned unexpected confirmation %q", raw)
}

const replyPrompt = `You are the friendly front-desk assistant of a dental practice.
Answer the patient's message briefly and helpfully. Do not invent
appointment times or prices.

Message: %q`

// Reply produces an open-ended response for messages the state machines
// cannot handle deterministically.
func (c *GeminiClient) Reply(ctx context.Context, text string, history []TurnMessage) (string, error) {
	return c.generate(ctx, fmt.Sprintf(replyPrompt, text), history)
}

const parsePrompt = `Resolve the patient's date/time preference to concrete values.
The current date and time is %s.
Respond with a single JSON object, nothing else, using these keys
(omit keys the patient did not constrain):
  date - the preferred day as YYYY-MM-DD
  time - the preferred time of day as HH:MM, 24-hour clock

Preference: %q`

// Parse resolves free text like "next Tuesday at 2pm" to a concrete
// preference, anchored at referenceTime.
func (c *GeminiClient) Parse(ctx context.Context, text string, referenceTime time.Time) (scheduling.Preference, error) {
	prompt := fmt.Sprintf(parsePrompt, referenceTime.Format("Monday, 2006-01-02 15:04"), text)
	raw, err := c.generate(ctx, prompt, nil)
	if err != nil {
		return scheduling.Preference{}, err
	}

	var parsed struct {
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := json.Unmarshal([]byte(extractJSON(raw)), &parsed); err != nil {
		return scheduling.Preference{}, fmt.Errorf("nlu: gemini returned unparseable preference: %w", err)
	}

	var pref scheduling.Preference
	if parsed.Date != "" {
		day, err := time.ParseInLocation("2006-01-02", parsed.Date, referenceTime.Location())
		if err != nil {
			return scheduling.Preference{}, fmt.Errorf("nlu: gemini returned bad date %q: %w", parsed.Date, err)
		}
		d := scheduling.DateOf(day)
		pref.Date = &d
	}
	if parsed.Time != "" {
		clock, err := time.Parse("15:04", parsed.Time)
		if err != nil {
			return scheduling.Preference{}, fmt.Errorf("nlu: gemini returned bad time %q: %w", parsed.Time, err)
		}
		pref.Time = &scheduling.ClockTime{Hour: clock.Hour(), Minute: clock.Minute()}
	}
	return pref, nil
}

func (c *GeminiClient) generate(ctx context.Context, prompt string, history []TurnMessage) (string, error) {
	model := c.client.GenerativeModel(c.modelID)
	model.SetTemperature(0)

	cs := model.StartChat()
	for _, msg := range history {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(content)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("nlu: gemini completion failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("nlu: gemini returned no candidates")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", errors.New("nlu: gemini returned empty content")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return strings.TrimSpace(sb.String()), nil
}

// extractJSON strips markdown code fences models sometimes wrap around JSON.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

var (
	_ Classifier        = (*GeminiClient)(nil)
	_ Extractor         = (*GeminiClient)(nil)
	_ Confirmer         = (*GeminiClient)(nil)
	_ Replier           = (*GeminiClient)(nil)
	_ scheduling.Parser = (*GeminiClient)(nil)
)
