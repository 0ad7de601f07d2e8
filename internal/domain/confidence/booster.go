package confidence

// Adjustments holds optional corrections applied to a base confidence value.
// Zero-valued fields are no-ops.
type Adjustments struct {
	Boost    float64
	Penalty  float64
	Multiply float64
}

// BoostFromHistory raises confidence when the request matches prior
// conversation context. Capped at 1.0.
func BoostFromHistory(base float64, historyMatch bool) float64 {
	if historyMatch {
		return clamp(base + 0.1)
	}
	return base
}

// BoostFromMetadata raises confidence for each corroborating metadata signal.
func BoostFromMetadata(base float64, hasOrderID, hasUserContext bool) float64 {
	boost := 0.0
	if hasOrderID {
		boost += 0.05
	}
	if hasUserContext {
		boost += 0.05
	}
	return clamp(base + boost)
}

// PenalizeFromAmbiguity lowers confidence in proportion to the ambiguity
// score, at most 0.2. Floored at 0.0.
func PenalizeFromAmbiguity(base, ambiguityScore float64) float64 {
	return clamp(base - ambiguityScore*0.2)
}

// Adjust applies boost, then penalty, then multiplier, clamping the result
// to [0, 1].
func Adjust(base float64, adj Adjustments) float64 {
	v := base
	if adj.Boost != 0 {
		v = clamp(v + adj.Boost)
	}
	if adj.Penalty != 0 {
		v = clamp(v - adj.Penalty)
	}
	if adj.Multiply != 0 {
		v *= adj.Multiply
	}
	return clamp(v)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
