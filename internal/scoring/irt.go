package scoring

import "math"

// thetaScale maps the 0-100 score range onto the ±3 sigma theta scale.
const thetaScale = 16.67

// Model is a proficiency update rule. Given the current estimate, the item
// parameters and the observed response score it produces a new estimate.
//
// Every Model guarantees: the returned score stays within [0,100], the
// returned CI width never exceeds the input width, and a single update is
// O(1) with no hidden randomness.
type Model interface {
	Update(currentScore, currentCI, difficulty, discrimination, responseScore float64) (newScore, newCI float64)
}

// ThetaModel is the default update rule, a 2-parameter logistic IRT step on
// the theta scale. The estimate moves toward where observed performance
// suggests the true ability lies, scaled by item discrimination.
type ThetaModel struct{}

func (ThetaModel) Update(currentScore, currentCI, difficulty, discrimination, responseScore float64) (float64, float64) {
	theta := scoreToTheta(currentScore)

	// P(correct) = 1 / (1 + exp(-a*(theta - b)))
	z := discrimination * (theta - difficulty)
	expectedProb := 1 / (1 + math.Exp(-z))

	// Scored better than expected raises theta, worse lowers it.
	performanceGap := responseScore - expectedProb
	learningRate := 0.3 * discrimination

	newTheta := clamp(theta+learningRate*performanceGap, -3, 3)

	return thetaToScore(newTheta), currentCI * 0.85
}

// DeltaModel is the earlier heuristic update rule, kept as an alternative
// strategy. Difficulty is interpreted on the discrete 0/1/2 scale and mapped
// to anchor scores 30/50/70.
type DeltaModel struct{}

func (DeltaModel) Update(currentScore, currentCI, difficulty, discrimination, responseScore float64) (float64, float64) {
	anchor := DifficultyAnchor(difficulty)
	maxChange := 15 * discrimination

	var delta float64
	switch {
	case responseScore >= 0.8:
		if anchor > currentScore {
			delta = maxChange * (anchor - currentScore) / 50
		} else {
			delta = maxChange / 2
		}
	case responseScore <= 0.2:
		if anchor < currentScore {
			delta = -maxChange * (currentScore - anchor) / 50
		} else {
			delta = -maxChange / 2
		}
	default:
		// Partial credit: small nudge proportional to distance from 0.5.
		delta = (responseScore - 0.5) * maxChange * 0.5
	}

	return clamp(currentScore+delta, 0, 100), currentCI * 0.8
}

// DifficultyAnchor maps a discrete difficulty (0/1/2) to its anchor score on
// the 0-100 scale. Out-of-range difficulties anchor at 50.
func DifficultyAnchor(difficulty float64) float64 {
	switch int(difficulty) {
	case 0:
		return 30
	case 1:
		return 50
	case 2:
		return 70
	default:
		return 50
	}
}

// scoreToTheta converts a 0-100 score to theta: 0 → -3, 50 → 0, 100 → +3.
func scoreToTheta(score float64) float64 {
	return (score - 50) / thetaScale
}

// thetaToScore converts theta back to the 0-100 scale.
func thetaToScore(theta float64) float64 {
	return clamp(50+theta*thetaScale, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
