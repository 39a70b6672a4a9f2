package scoring

// Level is the ordinal risk classification of a score
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Classify maps a score onto a level. A score equal to a threshold belongs
// to that threshold's band.
func Classify(score int, thresholds Thresholds) Level {
	if score >= thresholds.High {
		return LevelHigh
	}
	if score >= thresholds.Medium {
		return LevelMedium
	}
	return LevelLow
}

// Rank orders levels: low < medium < high
func (l Level) Rank() int {
	switch l {
	case LevelHigh:
		return 2
	case LevelMedium:
		return 1
	default:
		return 0
	}
}

// Valid reports whether l is one of the three levels
func (l Level) Valid() bool {
	return l == LevelLow || l == LevelMedium || l == LevelHigh
}
