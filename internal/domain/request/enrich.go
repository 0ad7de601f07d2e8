package request

// EnrichWithIntent records intent classification results on the context.
func EnrichWithIntent(c *Context, intent string, confidence float64) {
	c.CurrentIntent = intent
	c.SetConfidence("intent", confidence)
}

// EnrichWithClarification records a clarification requirement.
func EnrichWithClarification(c *Context, required bool, question string) {
	c.RequiresClarification = required
	c.ClarificationQuestion = question
}

// EnrichWithEscalation records an escalation decision.
func EnrichWithEscalation(c *Context, escalate bool, reason string) {
	c.EscalateToHuman = escalate
	c.EscalationReason = reason
}

// EnrichWithResult stores a component's execution result.
func EnrichWithResult(c *Context, component string, result map[string]any) {
	c.Results[component] = result
}
