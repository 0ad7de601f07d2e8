package ambiguity

import "strings"

// intentDescriptions maps known intents to user-facing phrasings used in
// clarification questions.
var intentDescriptions = map[string]string{
	"order_status":       "check the status of an existing order",
	"product_info":       "learn about products or their availability",
	"ticket_creation":    "report an issue or get technical support",
	"returns_refunds":    "process a return or refund",
	"account_management": "manage your account settings",
}

// contextQuestions maps missing-context items to direct questions.
var contextQuestions = map[string]string{
	MissingOrderID:             "Could you provide your order number?",
	MissingProductName:         "Which product are you asking about?",
	MissingConversationContext: "Could you provide more details about what you're referring to?",
	"email":                    "Could you provide your email address?",
}

// IntentClarification phrases a disambiguation question for competing
// intents: two-way phrasing for exactly two candidates, a bulleted list for
// more, and a generic prompt otherwise.
func IntentClarification(possibleIntents []string) string {
	describe := func(intent string) string {
		if d, ok := intentDescriptions[intent]; ok {
			return d
		}
		return intent
	}

	switch {
	case len(possibleIntents) == 2:
		return "I want to help! Are you looking to " + describe(possibleIntents[0]) +
			", or " + describe(possibleIntents[1]) + "?"
	case len(possibleIntents) > 2:
		var b strings.Builder
		b.WriteString("I'd be happy to help! To make sure I assist you correctly, could you tell me if you're looking for:\n")
		for i, intent := range possibleIntents {
			if i >= 3 {
				break
			}
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("- " + describe(intent))
		}
		return b.String()
	default:
		return "Could you provide a bit more detail about what you need help with?"
	}
}

// ContextClarification asks for the missing context items: a direct question
// for one item, a bulleted list for several.
func ContextClarification(missing []string) string {
	question := func(item string) string {
		if q, ok := contextQuestions[item]; ok {
			return q
		}
		return item
	}

	if len(missing) == 1 {
		if q, ok := contextQuestions[missing[0]]; ok {
			return q
		}
		return "Could you provide more information?"
	}

	var b strings.Builder
	b.WriteString("To help you better, I need a bit more information:\n")
	for i, item := range missing {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("- " + question(item))
	}
	return b.String()
}

// GenericClarification is the fallback when the message is ambiguous but no
// specific question can be asked.
func GenericClarification() string {
	return "I want to make sure I understand correctly. Could you rephrase or provide more details about what you need?"
}
