package policy

// FallbackPolicy holds the canned responses used when normal processing
// fails or confidence collapses.
type FallbackPolicy struct {
	responses map[string]string
}

const genericFallback = "I'm experiencing technical difficulties. Please try again in a moment, or contact support@example.com for immediate assistance."

// NewFallbackPolicy returns the fixed intent→response table.
func NewFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{
		responses: map[string]string{
			"order_status":    "I'm having trouble accessing order information right now. Please email support@example.com with your order number, and we'll help you immediately.",
			"product_info":    "I'm unable to retrieve product details at the moment. Please visit our website or contact support for product information.",
			"ticket_creation": "I can't create a ticket right now, but you can email support@example.com and our team will help you.",
			"general":         genericFallback,
		},
	}
}

// Response returns the canned text for the intent, or the generic default.
func (p FallbackPolicy) Response(intent string) string {
	if r, ok := p.responses[intent]; ok {
		return r
	}
	return genericFallback
}

// ShouldUseFallback fires on outright agent failure or confidence below 0.3.
// hasConfidence distinguishes a missing score from a genuine 0.0.
func (p FallbackPolicy) ShouldUseFallback(agentFailed bool, confidence float64, hasConfidence bool) bool {
	if agentFailed {
		return true
	}
	return hasConfidence && confidence < 0.3
}
