// Package ambiguity detects unclear user input and produces clarification
// questions to resolve it.
package ambiguity

import "strings"

// Signal is one piece of evidence that a message is ambiguous.
type Signal struct {
	Kind        string   `json:"kind"`
	Strength    float64  `json:"strength"` // 0.0 to 1.0
	Description string   `json:"description"`
	Examples    []string `json:"examples,omitempty"`
}

// Signal kinds emitted by the detector.
const (
	SignalLowIntentConfidence = "low_intent_confidence"
	SignalMultipleIntents     = "multiple_intents"
	SignalTooShort            = "too_short"
	SignalGenericRequest      = "generic_request"
	SignalMultipleQuestions   = "multiple_questions"
)

// Missing-context item names.
const (
	MissingConversationContext = "conversation_context"
	MissingOrderID             = "order_id"
	MissingProductName         = "product_name"
)

// DefaultThreshold is the score at or above which input is ambiguous.
const DefaultThreshold = 0.6

var genericPhrases = []string{
	"help",
	"question",
	"issue",
	"problem",
	"can you",
	"i need",
}

// Detector scores how ambiguous a user message is. Stateless after
// construction.
type Detector struct {
	Threshold float64
}

// NewDetector returns a detector with the given ambiguity threshold.
// Pass 0 to use DefaultThreshold.
func NewDetector(threshold float64) Detector {
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	return Detector{Threshold: threshold}
}

// Detect evaluates the weighted ambiguity signals for a message.
// intentConfidence < 0 means no classification result is available.
// The score is the mean strength of the triggered signals, 0 if none fired.
func (d Detector) Detect(message string, intentConfidence float64, possibleIntents []string) (bool, float64, []Signal) {
	var signals []Signal

	if intentConfidence >= 0 && intentConfidence < 0.6 {
		signals = append(signals, Signal{
			Kind:        SignalLowIntentConfidence,
			Strength:    1.0 - intentConfidence,
			Description: "intent classification has low confidence",
		})
	}

	if len(possibleIntents) > 1 {
		signals = append(signals, Signal{
			Kind:        SignalMultipleIntents,
			Strength:    0.7,
			Description: "multiple possible intents: " + strings.Join(possibleIntents, ", "),
			Examples:    possibleIntents,
		})
	}

	words := len(strings.Fields(message))
	if words <= 3 {
		signals = append(signals, Signal{
			Kind:        SignalTooShort,
			Strength:    0.6,
			Description: "message is very short and lacks context",
		})
	}

	lower := strings.ToLower(message)
	if containsAny(lower, genericPhrases) && words <= 5 {
		signals = append(signals, Signal{
			Kind:        SignalGenericRequest,
			Strength:    0.7,
			Description: "message is generic and non-specific",
		})
	}

	if strings.Count(message, "?") > 1 {
		signals = append(signals, Signal{
			Kind:        SignalMultipleQuestions,
			Strength:    0.5,
			Description: "message contains multiple questions",
		})
	}

	score := 0.0
	if len(signals) > 0 {
		for _, s := range signals {
			score += s.Strength
		}
		score /= float64(len(signals))
	}

	return score >= d.Threshold, score, signals
}

// DetectMissingContext flags context items the message refers to but the
// request does not carry: pronoun references without history, order words
// without an order id, product words without a product name.
func (d Detector) DetectMissingContext(message string, ctx MessageContext) (bool, []string) {
	var missing []string
	lower := strings.ToLower(message)

	if containsAnyWord(lower, []string{"it", "that", "this", "they"}) && !ctx.HasHistory {
		missing = append(missing, MissingConversationContext)
	}
	if containsAnyWord(lower, []string{"order", "delivery", "shipment"}) && !ctx.HasOrderID {
		missing = append(missing, MissingOrderID)
	}
	if containsAnyWord(lower, []string{"product", "item"}) && !ctx.HasProductName {
		missing = append(missing, MissingProductName)
	}

	return len(missing) > 0, missing
}

// MessageContext carries the context facts the missing-context checks need.
type MessageContext struct {
	HasHistory     bool
	HasOrderID     bool
	HasProductName bool
}

func containsAny(s string, substrings []string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func containsAnyWord(s string, words []string) bool {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
	for _, f := range fields {
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}
