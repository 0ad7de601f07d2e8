package policy

import "fmt"

// RoutingPolicy maps a confidence value to a routing verdict using fixed
// bands: high proceeds, medium proceeds with a disclaimer, low asks for
// clarification, very low falls back.
type RoutingPolicy struct {
	HighConfidence   float64
	MediumConfidence float64
	LowConfidence    float64
}

// NewRoutingPolicy returns the default bands (0.8 / 0.6 / 0.4).
func NewRoutingPolicy() RoutingPolicy {
	return RoutingPolicy{
		HighConfidence:   0.8,
		MediumConfidence: 0.6,
		LowConfidence:    0.4,
	}
}

// ActionForConfidence returns the verdict for a confidence value. The
// mapping is monotonic across the band edges.
func (p RoutingPolicy) ActionForConfidence(confidence float64, component string) Decision {
	switch {
	case confidence >= p.HighConfidence:
		return Decision{
			Verdict:  VerdictProceed,
			Reason:   fmt.Sprintf("high confidence (%.2f)", confidence),
			Metadata: Metadata{ConfidenceLevel: "high"},
		}
	case confidence >= p.MediumConfidence:
		return Decision{
			Verdict:  VerdictProceed,
			Reason:   fmt.Sprintf("medium confidence (%.2f)", confidence),
			Metadata: Metadata{ConfidenceLevel: "medium", AddDisclaimer: true},
		}
	case confidence >= p.LowConfidence:
		return Decision{
			Verdict:  VerdictClarify,
			Reason:   fmt.Sprintf("low confidence (%.2f), needs clarification", confidence),
			Metadata: Metadata{ConfidenceLevel: "low"},
		}
	default:
		return Decision{
			Verdict:  VerdictFallback,
			Reason:   fmt.Sprintf("very low confidence (%.2f)", confidence),
			Metadata: Metadata{ConfidenceLevel: "very_low"},
		}
	}
}
