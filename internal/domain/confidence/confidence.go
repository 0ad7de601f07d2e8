// Package confidence provides confidence scoring and aggregation for
// orchestration decisions.
package confidence

// Level buckets a raw confidence value for decision making.
type Level string

const (
	LevelVeryHigh Level = "very_high" // >= 0.9
	LevelHigh     Level = "high"      // >= 0.7
	LevelMedium   Level = "medium"    // >= 0.5
	LevelLow      Level = "low"       // >= 0.3
	LevelVeryLow  Level = "very_low"  // < 0.3
)

// LevelFor converts a raw score to its Level band.
func LevelFor(score float64) Level {
	switch {
	case score >= 0.9:
		return LevelVeryHigh
	case score >= 0.7:
		return LevelHigh
	case score >= 0.5:
		return LevelMedium
	case score >= 0.3:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

// Score is a single component's confidence with metadata.
type Score struct {
	Value     float64 `json:"value"` // 0.0 to 1.0
	Component string  `json:"component"`
	Reasoning string  `json:"reasoning,omitempty"`
}

// Level returns the band for this score.
func (s Score) Level() Level {
	return LevelFor(s.Value)
}

// Acceptable reports whether the score meets the given threshold.
func (s Score) Acceptable(threshold float64) bool {
	return s.Value >= threshold
}
