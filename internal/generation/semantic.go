package generation

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"

	"github.com/oazco/profiler-backend/internal/llm"
)

// Semantic distance band for consecutive stems: below the floor the topic
// jump is jarring, above the ceiling the question is repetitive.
const (
	minStemSimilarity = 0.65
	maxStemSimilarity = 0.85

	// How many recent stems a candidate is compared against.
	recentStemWindow = 3

	// Minimum quality score (0-100) for a generated question to pass.
	qualityPassScore = 60
)

// DistanceReport is the outcome of comparing a candidate stem against the
// session's recent stems.
type DistanceReport struct {
	Valid         bool      `json:"valid"`
	AvgSimilarity float64   `json:"avg_similarity"`
	Similarities  []float64 `json:"similarity_scores"`
	Reason        string    `json:"reason"`
}

// QualityCheck is one scored quality criterion.
type QualityCheck struct {
	Check   string  `json:"check"`
	Score   float64 `json:"score"`
	Details string  `json:"details"`
}

// QualityReport aggregates the quality checks of a generated question.
type QualityReport struct {
	Valid  bool           `json:"valid"`
	Score  float64        `json:"quality_score"`
	Checks []QualityCheck `json:"checks"`
	Reason string         `json:"reason"`
}

// SemanticValidator guards generated question quality: it keeps consecutive
// stems inside the semantic distance band and rejects questions with skewed
// choices or unclear stems. Embedding lookups go through the (cached)
// embedder collaborator; validation fails open when embeddings are
// unavailable so generation outages never block a session.
type SemanticValidator struct {
	embed llm.Embedder
	log   zerolog.Logger
}

// NewSemanticValidator creates a validator over the given embedder.
func NewSemanticValidator(embed llm.Embedder, log zerolog.Logger) *SemanticValidator {
	return &SemanticValidator{
		embed: embed,
		log:   log.With().Str("component", "semantic_validator").Logger(),
	}
}

// ValidateDistance checks that the candidate stem keeps a healthy semantic
// distance from the last answered stems.
func (v *SemanticValidator) ValidateDistance(ctx context.Context, stem string, recentStems []string) DistanceReport {
	if len(recentStems) == 0 {
		return DistanceReport{Valid: true, Reason: "no previous questions to compare"}
	}

	candidate, err := v.embed.Embed(ctx, stem)
	if err != nil {
		v.log.Warn().Err(err).Msg("embedding failed, skipping distance validation")
		return DistanceReport{Valid: true, Reason: "embedding unavailable"}
	}

	if len(recentStems) > recentStemWindow {
		recentStems = recentStems[len(recentStems)-recentStemWindow:]
	}

	var similarities []float64
	for _, recent := range recentStems {
		vec, err := v.embed.Embed(ctx, recent)
		if err != nil {
			continue
		}
		similarities = append(similarities, cosineSimilarity(candidate, vec))
	}

	if len(similarities) == 0 {
		return DistanceReport{Valid: true, Reason: "no embeddings to compare"}
	}

	avg := mean(similarities)
	switch {
	case avg < minStemSimilarity:
		return DistanceReport{
			Valid:         false,
			AvgSimilarity: avg,
			Similarities:  similarities,
			Reason:        fmt.Sprintf("too dissimilar (%.2f < %.2f), jarring topic jump", avg, minStemSimilarity),
		}
	case avg > maxStemSimilarity:
		return DistanceReport{
			Valid:         false,
			AvgSimilarity: avg,
			Similarities:  similarities,
			Reason:        fmt.Sprintf("too similar (%.2f > %.2f), repetitive content", avg, maxStemSimilarity),
		}
	}

	return DistanceReport{
		Valid:         true,
		AvgSimilarity: avg,
		Similarities:  similarities,
		Reason:        fmt.Sprintf("good semantic distance (%.2f)", avg),
	}
}

// ValidateQuality scores a generated question on choice length parity, choice
// semantic diversity and stem clarity. A question passes at 60/100.
func (v *SemanticValidator) ValidateQuality(ctx context.Context, stem string, choices []string) QualityReport {
	if len(choices) < 4 {
		return QualityReport{
			Valid:  false,
			Reason: "insufficient choices (need 4)",
		}
	}

	var checks []QualityCheck

	checks = append(checks, lengthParityCheck(choices))
	checks = append(checks, v.choiceDiversityCheck(ctx, choices))
	checks = append(checks, stemClarityCheck(stem))

	var total float64
	for _, c := range checks {
		total += c.Score
	}
	score := total / float64(len(checks)) * 100

	report := QualityReport{
		Valid:  score >= qualityPassScore,
		Score:  score,
		Checks: checks,
	}
	if report.Valid {
		report.Reason = "passed quality checks"
	} else {
		report.Reason = fmt.Sprintf("low quality score: %.1f/100", score)
	}
	return report
}

// lengthParityCheck penalizes one conspicuously long or short choice, a
// common tell of the correct answer.
func lengthParityCheck(choices []string) QualityCheck {
	var avg float64
	for _, c := range choices {
		avg += float64(len(c))
	}
	avg /= float64(len(choices))

	var maxVariance float64
	if avg > 0 {
		for _, c := range choices {
			variance := math.Abs(float64(len(c))-avg) / avg
			if variance > maxVariance {
				maxVariance = variance
			}
		}
	}

	score := 0.0
	switch {
	case maxVariance < 0.3:
		score = 1.0
	case maxVariance < 0.5:
		score = 0.5
	}

	return QualityCheck{
		Check:   "length_similarity",
		Score:   score,
		Details: fmt.Sprintf("max variance %.0f%% (target <30%%)", maxVariance*100),
	}
}

// choiceDiversityCheck wants distractors that are related but not
// interchangeable: average pairwise similarity inside [0.40, 0.75].
func (v *SemanticValidator) choiceDiversityCheck(ctx context.Context, choices []string) QualityCheck {
	var embeddings [][]float64
	for _, c := range choices {
		vec, err := v.embed.Embed(ctx, c)
		if err != nil {
			break
		}
		embeddings = append(embeddings, vec)
	}

	if len(embeddings) < len(choices) {
		v.log.Warn().Msg("could not embed all choices, scoring diversity neutrally")
		return QualityCheck{
			Check:   "semantic_diversity",
			Score:   0.5,
			Details: "embeddings unavailable",
		}
	}

	var similarities []float64
	for i := 0; i < len(embeddings); i++ {
		for j := i + 1; j < len(embeddings); j++ {
			similarities = append(similarities, cosineSimilarity(embeddings[i], embeddings[j]))
		}
	}
	avg := mean(similarities)

	score := 0.0
	switch {
	case avg >= 0.4 && avg <= 0.75:
		score = 1.0
	case (avg >= 0.3 && avg < 0.4) || (avg > 0.75 && avg <= 0.85):
		score = 0.5
	}

	return QualityCheck{
		Check:   "semantic_diversity",
		Score:   score,
		Details: fmt.Sprintf("avg similarity %.2f (target 0.40-0.75)", avg),
	}
}

func stemClarityCheck(stem string) QualityCheck {
	words := len(strings.Fields(stem))

	score := 0.0
	switch {
	case words >= 10 && words <= 40:
		score = 1.0
	case (words >= 5 && words < 10) || (words > 40 && words <= 60):
		score = 0.5
	}

	return QualityCheck{
		Check:   "stem_clarity",
		Score:   score,
		Details: fmt.Sprintf("%d words (target 10-40)", words),
	}
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
