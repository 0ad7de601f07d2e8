package ambiguity_test

import (
	"strings"
	"testing"

	"github.com/supportflow/supportflow/internal/domain/ambiguity"
)

func TestDetectClearMessage(t *testing.T) {
	d := ambiguity.NewDetector(0)
	ambiguous, score, signals := d.Detect("Could you check my recent delivery status please", 0.9, nil)
	if ambiguous {
		t.Error("clear message flagged ambiguous")
	}
	if score != 0.0 {
		t.Errorf("score = %v, want 0.0", score)
	}
	if len(signals) != 0 {
		t.Errorf("signals = %v, want none", signals)
	}
}

func TestDetectShortGenericLowConfidence(t *testing.T) {
	d := ambiguity.NewDetector(0)
	ambiguous, score, signals := d.Detect("help", 0.3, nil)
	if !ambiguous {
		t.Fatal("expected ambiguous")
	}
	if score < 0.6 {
		t.Errorf("score = %v, want >= 0.6", score)
	}
	kinds := make(map[string]bool)
	for _, s := range signals {
		kinds[s.Kind] = true
	}
	for _, want := range []string{
		ambiguity.SignalLowIntentConfidence,
		ambiguity.SignalTooShort,
		ambiguity.SignalGenericRequest,
	} {
		if !kinds[want] {
			t.Errorf("missing signal %q in %v", want, signals)
		}
	}
}

func TestDetectNoConfidenceSentinel(t *testing.T) {
	d := ambiguity.NewDetector(0)
	// Negative confidence means no classification; only message cues fire.
	ambiguous, _, signals := d.Detect("Could you check my recent delivery status please", -1, nil)
	if ambiguous {
		t.Error("no-confidence clear message flagged ambiguous")
	}
	if len(signals) != 0 {
		t.Errorf("signals = %v, want none", signals)
	}
}

func TestDetectMultipleIntents(t *testing.T) {
	d := ambiguity.NewDetector(0)
	_, _, signals := d.Detect("I want to return my order and also ask about a new product", 0.9,
		[]string{"returns_refunds", "product_info"})
	found := false
	for _, s := range signals {
		if s.Kind == ambiguity.SignalMultipleIntents {
			found = true
			if s.Strength != 0.7 {
				t.Errorf("strength = %v, want 0.7", s.Strength)
			}
		}
	}
	if !found {
		t.Error("multiple-intents signal not emitted")
	}
}

func TestDetectMultipleQuestions(t *testing.T) {
	d := ambiguity.NewDetector(0)
	_, _, signals := d.Detect("Where is my package? And can I change the address? What about refunds?", 0.9, nil)
	found := false
	for _, s := range signals {
		if s.Kind == ambiguity.SignalMultipleQuestions {
			found = true
		}
	}
	if !found {
		t.Error("multiple-questions signal not emitted")
	}
}

func TestDetectMissingContext(t *testing.T) {
	d := ambiguity.NewDetector(0)

	has, missing := d.DetectMissingContext("Where is my order?", ambiguity.MessageContext{})
	if !has {
		t.Fatal("order reference without order id should be missing context")
	}
	if len(missing) != 1 || missing[0] != ambiguity.MissingOrderID {
		t.Errorf("missing = %v, want [order_id]", missing)
	}

	has, _ = d.DetectMissingContext("Where is my order?", ambiguity.MessageContext{HasOrderID: true})
	if has {
		t.Error("order id present, nothing should be missing")
	}

	has, missing = d.DetectMissingContext("Is it still available?", ambiguity.MessageContext{})
	if !has || missing[0] != ambiguity.MissingConversationContext {
		t.Errorf("missing = %v, want [conversation_context]", missing)
	}

	// Word-boundary matching: "credit" must not trip the "it" pronoun check.
	has, _ = d.DetectMissingContext("I was charged on my credit card", ambiguity.MessageContext{})
	if has {
		t.Error("substring matches must not trigger missing context")
	}
}

func TestIntentClarificationPhrasing(t *testing.T) {
	two := ambiguity.IntentClarification([]string{"order_status", "returns_refunds"})
	if !strings.Contains(two, "check the status of an existing order") ||
		!strings.Contains(two, "process a return or refund") {
		t.Errorf("two-way question = %q", two)
	}

	many := ambiguity.IntentClarification([]string{"order_status", "product_info", "ticket_creation", "returns_refunds"})
	if strings.Count(many, "- ") != 3 {
		t.Errorf("bulleted question should list top 3, got %q", many)
	}

	generic := ambiguity.IntentClarification(nil)
	if generic == "" {
		t.Error("generic question must be non-empty")
	}
}

func TestResolverChoosesQuestion(t *testing.T) {
	r := ambiguity.NewResolver(ambiguity.NewDetector(0))

	// Ambiguous with candidates: intent disambiguation wins.
	res := r.AnalyzeAndResolve("help", 0.3, []string{"order_status", "ticket_creation"}, ambiguity.MessageContext{})
	if !res.RequiresClarification {
		t.Fatal("expected clarification")
	}
	if !strings.Contains(res.Question, "existing order") {
		t.Errorf("question = %q, want intent disambiguation", res.Question)
	}
	if res.Severity != ambiguity.SeverityHigh && res.Severity != ambiguity.SeverityMedium {
		t.Errorf("severity = %q", res.Severity)
	}

	// Clear message but missing context: context question wins.
	res = r.AnalyzeAndResolve("I would really like to know where my order currently is", 0.9, nil, ambiguity.MessageContext{})
	if !res.RequiresClarification {
		t.Fatal("expected clarification for missing order id")
	}
	if !strings.Contains(res.Question, "order number") {
		t.Errorf("question = %q, want order number prompt", res.Question)
	}

	// Ambiguous with no candidates and no missing context: generic prompt.
	res = r.AnalyzeAndResolve("hmm", 0.9, nil, ambiguity.MessageContext{HasHistory: true})
	if !res.RequiresClarification || res.Question == "" {
		t.Errorf("resolution = %+v, want generic clarification", res)
	}
}

func TestDisambiguationStrategy(t *testing.T) {
	s := ambiguity.NewDisambiguationStrategy()
	if s.HasPending("s1") {
		t.Fatal("no pending expected")
	}

	s.Register("s1", ambiguity.PendingClarification{Message: "first"})
	s.Register("s1", ambiguity.PendingClarification{Message: "second"})
	p, ok := s.Pending("s1")
	if !ok || p.Message != "second" {
		t.Errorf("pending = %+v/%v, want latest registration", p, ok)
	}

	resolved, ok := s.Resolve("s1", "my order number is 42")
	if !ok {
		t.Fatal("resolve should succeed")
	}
	if resolved.Original.Message != "second" || resolved.Response != "my order number is 42" {
		t.Errorf("resolved = %+v", resolved)
	}
	if s.HasPending("s1") {
		t.Error("resolve must consume the pending entry")
	}
	if _, ok := s.Resolve("s1", "again"); ok {
		t.Error("second resolve must fail")
	}
}
