package matrix

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/oazco/profiler-backend/internal/model"
)

// ErrNoPointsMap is returned for an item without a per-letter points map when
// the legacy fixed-table fallback is disabled.
var ErrNoPointsMap = errors.New("matrix item has no points map")

// legacyPoints is the original fixed mapping, valid only when choices are
// stored in ascending maturity order (A lowest, D highest).
var legacyPoints = map[string]int{"A": 1, "B": 2, "C": 3, "D": 4}

// GradeResult is one graded matrix answer.
type GradeResult struct {
	Letter  string  `json:"letter"`
	Points  int     `json:"points"`
	Score01 float64 `json:"score"`
}

// Grader maps a letter answer to 1-4 maturity points. Items carry their own
// letter-to-points map so shuffled choices grade correctly; items missing the
// map fall back to the fixed table only when legacyFallback is on.
type Grader struct {
	legacyFallback bool
	log            zerolog.Logger
}

// NewGrader creates a matrix grader.
func NewGrader(legacyFallback bool, log zerolog.Logger) *Grader {
	return &Grader{
		legacyFallback: legacyFallback,
		log:            log.With().Str("component", "matrix_grader").Logger(),
	}
}

// Grade scores one answer for a matrix item. Unrecognizable answers score the
// minimum of 1 point rather than failing the submission.
func (g *Grader) Grade(item *model.Item, answer string) (GradeResult, error) {
	payload, ok := item.Matrix()
	if !ok {
		return GradeResult{}, fmt.Errorf("item %s has no matrix payload", item.ID)
	}

	points := payload.PointsByLetter
	if len(points) == 0 {
		if !g.legacyFallback {
			return GradeResult{}, fmt.Errorf("item %s: %w", item.ID, ErrNoPointsMap)
		}
		g.log.Warn().
			Str("item_id", item.ID.String()).
			Msg("item has no points map, using legacy fixed table")
		points = legacyPoints
	}

	letter := extractLetter(answer)
	p, ok := points[letter]
	if !ok {
		g.log.Warn().
			Str("item_id", item.ID.String()).
			Str("answer", answer).
			Msg("unrecognizable matrix answer, scoring minimum")
		p = 1
	}

	return GradeResult{
		Letter:  letter,
		Points:  p,
		Score01: float64(p) / PointsPerQuestion,
	}, nil
}

// extractLetter normalizes a matrix answer to an option letter. Unlike the
// ability graders, verbose answers like "OPTION_D" keep the first A-D found
// anywhere in the text; a wrong extraction can only shift between the four
// maturity points, never grant credit for a keyed answer.
func extractLetter(answer string) string {
	normalized := strings.ToUpper(strings.TrimSpace(answer))
	if len(normalized) == 1 {
		return normalized
	}

	for _, letter := range []string{"A", "B", "C", "D"} {
		if strings.Contains(normalized, letter) {
			return letter
		}
	}
	return normalized
}
