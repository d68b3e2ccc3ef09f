package scoring

// Level is a global proficiency band (N0 lowest, N5 highest).
type Level string

const (
	LevelN0 Level = "N0"
	LevelN1 Level = "N1"
	LevelN2 Level = "N2"
	LevelN3 Level = "N3"
	LevelN4 Level = "N4"
	LevelN5 Level = "N5"
)

// CalculateLevel classifies a 0-100 score into a proficiency level.
func CalculateLevel(score float64) Level {
	switch {
	case score < 30:
		return LevelN0
	case score < 45:
		return LevelN1
	case score < 60:
		return LevelN2
	case score < 75:
		return LevelN3
	case score < 90:
		return LevelN4
	default:
		return LevelN5
	}
}

// CalculateGlobalScore averages competency scores into a single global score.
// An empty map yields the neutral prior of 50.
func CalculateGlobalScore(competencyScores map[string]float64) float64 {
	if len(competencyScores) == 0 {
		return 50
	}
	var sum float64
	for _, s := range competencyScores {
		sum += s
	}
	return sum / float64(len(competencyScores))
}
