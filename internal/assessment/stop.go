package assessment

import "time"

// StopReason identifies which rule terminated (or held open) a session.
type StopReason string

const (
	StopMaxItems      StopReason = "max_items"
	StopMinNotReached StopReason = "min_not_reached"
	StopTimeLimit     StopReason = "time_limit"
	StopConvergence   StopReason = "convergence"
	StopContinue      StopReason = "continue"
)

// Decision is the outcome of evaluating the stopping rule.
type Decision struct {
	Stop   bool       `json:"should_stop"`
	Reason StopReason `json:"reason"`
}

// StopRule is the adaptive variant's stopping predicate. It is pure: the same
// state and clock always produce the same decision.
type StopRule struct {
	MaxItems        int
	MinItems        int
	TargetTime      time.Duration
	CIThreshold     float64
	MinCompetencies int
}

// Evaluate applies the rules in priority order: the hard item cap wins over
// everything, then the minimum-items floor, then the time limit, then
// convergence.
func (r StopRule) Evaluate(state *State, startedAt, now time.Time) Decision {
	if state.ItemsAnswered >= r.MaxItems {
		return Decision{Stop: true, Reason: StopMaxItems}
	}

	if state.ItemsAnswered < r.MinItems {
		return Decision{Stop: false, Reason: StopMinNotReached}
	}

	if now.Sub(startedAt) >= r.TargetTime {
		return Decision{Stop: true, Reason: StopTimeLimit}
	}

	if state.Proficiency.ConvergedCount(r.CIThreshold) >= r.MinCompetencies {
		return Decision{Stop: true, Reason: StopConvergence}
	}

	return Decision{Stop: false, Reason: StopContinue}
}
