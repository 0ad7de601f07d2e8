package confidence

// ScoreBreakdown is one component's entry in a Report.
type ScoreBreakdown struct {
	Value     float64 `json:"value"`
	Level     Level   `json:"level"`
	Reasoning string  `json:"reasoning,omitempty"`
}

// Report is a full confidence summary across all scored components.
type Report struct {
	Overall   float64                   `json:"overall"`
	Level     Level                     `json:"level"`
	Minimum   float64                   `json:"minimum"`
	Maximum   float64                   `json:"maximum"`
	Scores    map[string]ScoreBreakdown `json:"scores"`
	Component int                       `json:"components_count"`
}

// Aggregator combines confidence scores from multiple components.
// Adding a score for the same component overwrites the previous one.
// An Aggregator belongs to a single request and is not safe for
// concurrent use.
type Aggregator struct {
	defaultThreshold float64
	scores           map[string]Score
	order            []string
}

// DefaultThreshold is the aggregate confidence bar when the caller does not
// supply one.
const DefaultThreshold = 0.7

// NewAggregator creates an Aggregator with the given default threshold.
// Pass 0 to use DefaultThreshold.
func NewAggregator(defaultThreshold float64) *Aggregator {
	if defaultThreshold == 0 {
		defaultThreshold = DefaultThreshold
	}
	return &Aggregator{
		defaultThreshold: defaultThreshold,
		scores:           make(map[string]Score),
	}
}

// Add records a confidence score for a component, replacing any prior score.
func (a *Aggregator) Add(component string, value float64, reasoning string) {
	if _, seen := a.scores[component]; !seen {
		a.order = append(a.order, component)
	}
	a.scores[component] = Score{Value: value, Component: component, Reasoning: reasoning}
}

// Get returns the score recorded for a component.
func (a *Aggregator) Get(component string) (float64, bool) {
	s, ok := a.scores[component]
	return s.Value, ok
}

// Len returns the number of scored components.
func (a *Aggregator) Len() int {
	return len(a.scores)
}

// WeightedAverage computes the weighted mean of all scores. A nil weights map
// means equal weights. Components absent from weights default to weight 1.0.
// Returns 0.0 when no scores have been recorded.
func (a *Aggregator) WeightedAverage(weights map[string]float64) float64 {
	if len(a.scores) == 0 {
		return 0.0
	}

	if weights == nil {
		var sum float64
		for _, s := range a.scores {
			sum += s.Value
		}
		return sum / float64(len(a.scores))
	}

	var weightedSum, totalWeight float64
	for component, s := range a.scores {
		w, ok := weights[component]
		if !ok {
			w = 1.0
		}
		weightedSum += s.Value * w
		totalWeight += w
	}
	if totalWeight <= 0 {
		return 0.0
	}
	return weightedSum / totalWeight
}

// Minimum returns the lowest score. ok is false when empty.
func (a *Aggregator) Minimum() (float64, bool) {
	if len(a.scores) == 0 {
		return 0, false
	}
	min := 1.1
	for _, s := range a.scores {
		if s.Value < min {
			min = s.Value
		}
	}
	return min, true
}

// Maximum returns the highest score. ok is false when empty.
func (a *Aggregator) Maximum() (float64, bool) {
	if len(a.scores) == 0 {
		return 0, false
	}
	max := -0.1
	for _, s := range a.scores {
		if s.Value > max {
			max = s.Value
		}
	}
	return max, true
}

// MeetsThreshold reports whether confidence meets the bar. With requireAll,
// every component must individually meet it; otherwise the equal-weight
// average must. threshold 0 means use the aggregator default. An empty
// aggregator never meets any threshold.
func (a *Aggregator) MeetsThreshold(threshold float64, requireAll bool) bool {
	if threshold == 0 {
		threshold = a.defaultThreshold
	}
	if len(a.scores) == 0 {
		return false
	}

	if requireAll {
		for _, s := range a.scores {
			if s.Value < threshold {
				return false
			}
		}
		return true
	}
	return a.WeightedAverage(nil) >= threshold
}

// LowestComponent returns the name of the weakest-scoring component.
// Insertion order breaks ties so the result is deterministic.
func (a *Aggregator) LowestComponent() (string, bool) {
	if len(a.scores) == 0 {
		return "", false
	}
	lowest := ""
	lowestVal := 1.1
	for _, component := range a.order {
		if s := a.scores[component]; s.Value < lowestVal {
			lowest = component
			lowestVal = s.Value
		}
	}
	return lowest, true
}

// Summary builds a full Report. An empty aggregator reports overall 0.0 at
// LevelVeryLow with no per-component entries.
func (a *Aggregator) Summary() Report {
	if len(a.scores) == 0 {
		return Report{
			Overall: 0.0,
			Level:   LevelVeryLow,
			Scores:  map[string]ScoreBreakdown{},
		}
	}

	overall := a.WeightedAverage(nil)
	min, _ := a.Minimum()
	max, _ := a.Maximum()

	breakdown := make(map[string]ScoreBreakdown, len(a.scores))
	for component, s := range a.scores {
		breakdown[component] = ScoreBreakdown{
			Value:     s.Value,
			Level:     s.Level(),
			Reasoning: s.Reasoning,
		}
	}

	return Report{
		Overall:   overall,
		Level:     LevelFor(overall),
		Minimum:   min,
		Maximum:   max,
		Scores:    breakdown,
		Component: len(a.scores),
	}
}
