// Package assessment implements the adaptive (IRT-lite) assessment core:
// ability estimation per competency, information-gain item selection,
// grading, the stopping rule and result recommendation. Everything here is
// pure and deterministic; persistence and external collaborators are wired
// in by the service layer.
package assessment

import (
	"github.com/oazco/profiler-backend/internal/model"
	"github.com/oazco/profiler-backend/internal/scoring"
)

// Competencies are the nine skill dimensions of the adaptive assessment.
var Competencies = []string{
	"Fundamentos de IA/ML & LLMs",
	"Ferramentas de IA no dia a dia",
	"Prompt Engineering & Orquestração",
	"Dados & Contextualização (RAG)",
	"Automação de Processos com IA",
	"Ética, Segurança & Compliance",
	"Produto e Negócio com IA",
	"Code/No-code para IA",
	"LLMOps & Qualidade",
}

const (
	priorScore   = 50.0
	priorCIHalf  = 30.0 // half of the initial 60-wide interval
	loweredScore = 40.0 // prior when the initial free text was flagged unsafe
)

// AbilityEstimate is one competency's proficiency estimate.
// Invariant: 0 ≤ CILow ≤ Score ≤ CIHigh ≤ 100.
type AbilityEstimate struct {
	Score     float64 `json:"score"`
	CILow     float64 `json:"ci_low"`
	CIHigh    float64 `json:"ci_high"`
	ItemsSeen int     `json:"items_count"`
}

// CIWidth is the confidence interval width.
func (e AbilityEstimate) CIWidth() float64 {
	return e.CIHigh - e.CILow
}

// Proficiency maps competency name to its current estimate.
type Proficiency map[string]AbilityEstimate

// InitialProficiency builds the wide prior for every competency. A flagged
// initial response (longer than 20 chars and failing moderation) lowers the
// prior score.
func InitialProficiency(initialResponse string, unsafe bool) Proficiency {
	base := priorScore
	if unsafe && len(initialResponse) > 20 {
		base = loweredScore
	}

	prof := make(Proficiency, len(Competencies))
	for _, c := range Competencies {
		prof[c] = AbilityEstimate{
			Score:  base,
			CILow:  max(0, base-priorCIHalf),
			CIHigh: min(100, base+priorCIHalf),
		}
	}
	return prof
}

// Apply feeds one graded response into the competency's estimate using the
// given update model. Unknown competencies start from the neutral prior, so
// replaying old responses against a changed competency list stays total.
func (p Proficiency) Apply(m scoring.Model, competency string, difficulty, discrimination, responseScore float64) {
	est, ok := p[competency]
	if !ok {
		est = AbilityEstimate{Score: priorScore, CILow: 20, CIHigh: 80}
	}

	newScore, newCI := m.Update(est.Score, est.CIWidth(), difficulty, discrimination, responseScore)

	p[competency] = AbilityEstimate{
		Score:     newScore,
		CILow:     max(0, newScore-newCI/2),
		CIHigh:    min(100, newScore+newCI/2),
		ItemsSeen: est.ItemsSeen + 1,
	}
}

// Scores projects the per-competency point estimates.
func (p Proficiency) Scores() map[string]float64 {
	out := make(map[string]float64, len(p))
	for c, est := range p {
		out[c] = est.Score
	}
	return out
}

// ConvergedCount reports how many competencies have a CI width at or below
// the threshold.
func (p Proficiency) ConvergedCount(threshold float64) int {
	n := 0
	for _, est := range p {
		if est.CIWidth() <= threshold {
			n++
		}
	}
	return n
}

// HistoryEntry is the replay view of one answered item.
type HistoryEntry struct {
	ItemID    string
	Dimension string
	Type      model.ItemType
	Score     float64
	Stem      string
}

// State is the in-memory session view: a disposable cache derived entirely
// from the persisted response log.
type State struct {
	Proficiency   Proficiency
	ItemsAnswered int
	History       []HistoryEntry
}

// Replay rebuilds session state by running every persisted response through
// the update model in chronological order. Replaying the same sequence always
// yields the same state.
func Replay(initialResponse string, initialUnsafe bool, m scoring.Model, responses []model.Response) *State {
	state := &State{
		Proficiency: InitialProficiency(initialResponse, initialUnsafe),
		History:     make([]HistoryEntry, 0, len(responses)),
	}

	for _, r := range responses {
		state.Proficiency.Apply(m, r.ItemDimension, r.Difficulty, r.Discrimination, r.Score01)
		state.ItemsAnswered++
		state.History = append(state.History, HistoryEntry{
			ItemID:    r.ItemID.String(),
			Dimension: r.ItemDimension,
			Type:      r.ItemType,
			Score:     r.Score01,
			Stem:      r.ItemStem,
		})
	}

	return state
}

// Answered returns the set of item ids present in the history.
func (s *State) Answered() map[string]bool {
	ids := make(map[string]bool, len(s.History))
	for _, h := range s.History {
		ids[h.ItemID] = true
	}
	return ids
}
