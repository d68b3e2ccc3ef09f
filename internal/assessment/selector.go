package assessment

import (
	"errors"
	"math/rand"
	"sort"

	"github.com/oazco/profiler-backend/internal/model"
	"github.com/oazco/profiler-backend/internal/scoring"
)

// ErrNoCandidates is returned when nothing is left to ask: every active item
// has been answered (or the bank is empty).
var ErrNoCandidates = errors.New("no candidate items available")

// Number of top-scored candidates the selector picks among.
const topK = 5

// Selector picks the next item to maximize information gain. Candidate items
// are scored by a weighted heuristic and the winner is drawn uniformly from
// the top five, so sessions stay near-optimal without becoming repetitive.
// The random source is injected so tests can seed it.
type Selector struct {
	rng *rand.Rand
}

// NewSelector creates a selector using the given random source.
func NewSelector(rng *rand.Rand) *Selector {
	return &Selector{rng: rng}
}

// Select returns the best next item from candidates, excluding anything
// already answered in this session. Returns ErrNoCandidates when the filtered
// pool is empty.
func (s *Selector) Select(prof Proficiency, history []HistoryEntry, candidates []*model.Item) (*model.Item, error) {
	answered := make(map[string]bool, len(history))
	for _, h := range history {
		answered[h.ItemID] = true
	}

	var lastDimension string
	var lastType model.ItemType
	if len(history) > 0 {
		lastDimension = history[len(history)-1].Dimension
		lastType = history[len(history)-1].Type
	}

	type scored struct {
		score float64
		item  *model.Item
	}
	pool := make([]scored, 0, len(candidates))

	for _, item := range candidates {
		if !item.Active || answered[item.ID.String()] {
			continue
		}
		pool = append(pool, scored{
			score: s.scoreItem(item, prof, lastDimension, lastType),
			item:  item,
		})
	}

	if len(pool) == 0 {
		return nil, ErrNoCandidates
	}

	sort.SliceStable(pool, func(i, j int) bool { return pool[i].score > pool[j].score })

	k := min(topK, len(pool))
	return pool[s.rng.Intn(k)].item, nil
}

// scoreItem ranks one candidate. Higher wins.
func (s *Selector) scoreItem(item *model.Item, prof Proficiency, lastDimension string, lastType model.ItemType) float64 {
	score := 0.0

	competency := item.Competency()
	est := prof[competency]
	compScore := est.Score
	if _, ok := prof[competency]; !ok {
		compScore = 50
	}

	ciWidth := est.CIWidth()
	if _, ok := prof[competency]; !ok {
		ciWidth = 60
	}

	difficulty, discrimination := item.Params()

	// Proximity: items pitched near the current estimate are most informative.
	diff := compScore - scoring.DifficultyAnchor(difficulty)
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff < 20:
		score += 10
	case diff < 35:
		score += 5
	}

	// Uncertainty: prioritize competencies still poorly estimated.
	switch {
	case ciWidth > 25:
		score += 8
	case ciWidth > 15:
		score += 4
	}

	// More discriminating items carry more information.
	score += discrimination * 10

	// Diversity: avoid hammering the same competency or item type.
	if competency != lastDimension {
		score += 5
	}
	if item.Type != lastType {
		score += 3
	}

	// Coverage bootstrap: competencies with no data yet come first.
	switch est.ItemsSeen {
	case 0:
		score += 12
	case 1:
		score += 6
	}

	return score
}
