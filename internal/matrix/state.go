package matrix

import (
	"github.com/oazco/profiler-backend/internal/model"
)

// StopReason identifies the matrix variant's stop decision.
type StopReason string

const (
	StopAllQuestionsCompleted StopReason = "all_questions_completed"
	StopQuestionsRemaining    StopReason = "questions_remaining"
)

// Decision is the matrix stop outcome.
type Decision struct {
	Stop      bool       `json:"should_stop"`
	Reason    StopReason `json:"reason"`
	Remaining int        `json:"remaining"`
}

// Answer is the replay view of one answered matrix question.
type Answer struct {
	ItemID string
	Block  string
	Points int
	Stem   string
}

// State is the additive accumulator of a matrix session, rebuilt entirely
// from the persisted response log.
type State struct {
	ItemsAnswered int
	TotalScore    int
	BlockScores   map[string]int
	History       []Answer
}

// Replay accumulates every persisted response in chronological order.
// Replaying the same sequence always yields the same state.
func Replay(responses []model.Response) *State {
	state := &State{
		BlockScores: make(map[string]int, len(Blocks)),
		History:     make([]Answer, 0, len(responses)),
	}
	for _, b := range Blocks {
		state.BlockScores[b.Name] = 0
	}

	for _, r := range responses {
		points := 0
		if r.MatrixPoints != nil {
			points = *r.MatrixPoints
		}

		state.ItemsAnswered++
		state.TotalScore += points
		if r.ItemDimension != "" {
			state.BlockScores[r.ItemDimension] += points
		}
		state.History = append(state.History, Answer{
			ItemID: r.ItemID.String(),
			Block:  r.ItemDimension,
			Points: points,
			Stem:   r.ItemStem,
		})
	}

	return state
}

// Answered returns the set of item ids present in the history.
func (s *State) Answered() map[string]bool {
	ids := make(map[string]bool, len(s.History))
	for _, a := range s.History {
		ids[a.ItemID] = true
	}
	return ids
}

// ShouldStop stops after exactly TotalQuestions answers.
func (s *State) ShouldStop() Decision {
	if s.ItemsAnswered >= TotalQuestions {
		return Decision{Stop: true, Reason: StopAllQuestionsCompleted}
	}
	return Decision{
		Stop:      false,
		Reason:    StopQuestionsRemaining,
		Remaining: TotalQuestions - s.ItemsAnswered,
	}
}

// NextBlock reports which block the next question belongs to, walking the
// blocks in presentation order until one is short of its quota. The second
// return is false once every block has its full count.
func (s *State) NextBlock() (string, bool) {
	counts := make(map[string]int, len(Blocks))
	for _, a := range s.History {
		counts[a.Block]++
	}

	for _, b := range Blocks {
		if counts[b.Name] < b.QuestionCount {
			return b.Name, true
		}
	}
	return "", false
}

// BlockDetail is the per-block breakdown of a finished session.
type BlockDetail struct {
	Block      string  `json:"block"`
	Score      int     `json:"score"`
	MaxScore   int     `json:"max_score"`
	Percentage float64 `json:"percentage"`
}

// BlockDetails computes the per-block breakdown in presentation order.
func (s *State) BlockDetails() []BlockDetail {
	details := make([]BlockDetail, 0, len(Blocks))
	for _, b := range Blocks {
		score := s.BlockScores[b.Name]
		maxScore := b.QuestionCount * PointsPerQuestion
		details = append(details, BlockDetail{
			Block:      b.Name,
			Score:      score,
			MaxScore:   maxScore,
			Percentage: float64(score) / float64(maxScore) * 100,
		})
	}
	return details
}

// Result is the final outcome of a matrix session.
type Result struct {
	TotalScore    int           `json:"total_score"`
	MaxPossible   int           `json:"max_possible"`
	MaturityLevel MaturityLevel `json:"maturity_level"`
	BlockDetails  []BlockDetail `json:"block_details"`
}

// Finalize classifies the accumulated total into its maturity level.
func (s *State) Finalize() Result {
	return Result{
		TotalScore:    s.TotalScore,
		MaxPossible:   MaxScore,
		MaturityLevel: ClassifyMaturity(s.TotalScore),
		BlockDetails:  s.BlockDetails(),
	}
}

// Progress reports session advancement for the live progress stream.
type Progress struct {
	TotalQuestions int            `json:"total_questions"`
	Completed      int            `json:"completed"`
	Remaining      int            `json:"remaining"`
	Percentage     float64        `json:"progress_percentage"`
	PerBlock       map[string]int `json:"blocks"`
}

// Progress summarizes how far along the session is.
func (s *State) Progress() Progress {
	counts := make(map[string]int, len(Blocks))
	for _, b := range Blocks {
		counts[b.Name] = 0
	}
	for _, a := range s.History {
		if _, ok := counts[a.Block]; ok {
			counts[a.Block]++
		}
	}

	return Progress{
		TotalQuestions: TotalQuestions,
		Completed:      s.ItemsAnswered,
		Remaining:      TotalQuestions - s.ItemsAnswered,
		Percentage:     float64(s.ItemsAnswered) / TotalQuestions * 100,
		PerBlock:       counts,
	}
}
