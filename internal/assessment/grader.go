package assessment

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/oazco/profiler-backend/internal/llm"
	"github.com/oazco/profiler-backend/internal/model"
)

// GradeResult is a normalized grading outcome.
type GradeResult struct {
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"breakdown"`
	Flags     map[string]bool    `json:"flags"`
}

// Grader maps raw answers to normalized scores in [0,1]. Multiple choice is
// graded deterministically; open-ended answers delegate to the rubric-scoring
// collaborator.
type Grader struct {
	rubric llm.RubricScorer
	log    zerolog.Logger
}

// NewGrader creates a grader using the given rubric scorer.
func NewGrader(rubric llm.RubricScorer, log zerolog.Logger) *Grader {
	return &Grader{
		rubric: rubric,
		log:    log.With().Str("component", "grader").Logger(),
	}
}

// Grade scores a raw answer for the given item. Empty or whitespace-only
// answers score 0 with a no_answer flag rather than failing: malformed user
// input must never break the session flow.
func (g *Grader) Grade(ctx context.Context, item *model.Item, answer string) (GradeResult, error) {
	if strings.TrimSpace(answer) == "" {
		return GradeResult{
			Score:     0,
			Breakdown: map[string]float64{},
			Flags:     map[string]bool{"no_answer": true},
		}, nil
	}

	switch item.Type {
	case model.ItemTypeMCQ, model.ItemTypeScenario:
		return g.gradeChoice(item, answer)
	case model.ItemTypeOpenEnded, model.ItemTypePromptWriting:
		return g.gradeOpen(ctx, item, answer)
	default:
		g.log.Warn().
			Str("item_id", item.ID.String()).
			Str("type", string(item.Type)).
			Msg("grading item of unknown type")
		return GradeResult{
			Score:     0.5,
			Breakdown: map[string]float64{},
			Flags:     map[string]bool{"unknown_type": true},
		}, nil
	}
}

func (g *Grader) gradeChoice(item *model.Item, answer string) (GradeResult, error) {
	payload, ok := item.Choice()
	if !ok {
		return GradeResult{}, fmt.Errorf("item %s has no choice payload", item.ID)
	}

	correct := NormalizeLetter(answer) == strings.ToUpper(strings.TrimSpace(payload.AnswerKey))

	score := 0.0
	if correct {
		score = 1.0
	}

	return GradeResult{
		Score:     score,
		Breakdown: map[string]float64{"correct": score},
		Flags:     map[string]bool{},
	}, nil
}

func (g *Grader) gradeOpen(ctx context.Context, item *model.Item, answer string) (GradeResult, error) {
	payload, ok := item.Open()
	if !ok {
		return GradeResult{}, fmt.Errorf("item %s has no open payload", item.ID)
	}

	result, err := g.rubric.Score(ctx, answer, payload.Rubric)
	if err != nil {
		return GradeResult{}, fmt.Errorf("rubric score: %w", err)
	}

	return GradeResult{
		Score:     result.Score,
		Breakdown: result.Breakdown,
		Flags:     result.Flags,
	}, nil
}

// NormalizeLetter reduces a raw answer to a single uppercase option letter:
// trims, uppercases, and takes the leading A-D for multi-char input like
// "B) porque...". The match is prefix-only; free text that merely mentions a
// letter must not grade as that option. Returns the normalized text unchanged
// when no leading letter is found, so the comparison fails naturally.
func NormalizeLetter(answer string) string {
	normalized := strings.ToUpper(strings.TrimSpace(answer))
	if len(normalized) == 1 {
		return normalized
	}

	for _, letter := range []string{"A", "B", "C", "D"} {
		if strings.HasPrefix(normalized, letter) {
			return letter
		}
	}
	return normalized
}
