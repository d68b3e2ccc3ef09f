package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oazco/profiler-backend/internal/assessment"
	"github.com/oazco/profiler-backend/internal/matrix"
	"github.com/oazco/profiler-backend/internal/model"
	"github.com/oazco/profiler-backend/internal/repository"
	"github.com/oazco/profiler-backend/internal/scoring"
)

// totalDimension is the snapshot row aggregating a whole matrix session.
const totalDimension = "total"

// AdaptiveResults is the final payload of an adaptive session.
type AdaptiveResults struct {
	SessionID       uuid.UUID                             `json:"session_id"`
	ItemsAnswered   int                                   `json:"items_answered"`
	Proficiency     map[string]assessment.AbilityEstimate `json:"proficiency"`
	Recommendations assessment.Recommendations            `json:"recommendations"`
	CompletedAt     *time.Time                            `json:"completed_at,omitempty"`
}

// MatrixResults is the final payload of a matrix session.
type MatrixResults struct {
	SessionID     uuid.UUID `json:"session_id"`
	ItemsAnswered int       `json:"items_answered"`
	matrix.Result
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Results is the variant union returned by Finalize and Results.
type Results struct {
	Variant  model.SessionVariant `json:"variant"`
	Adaptive *AdaptiveResults     `json:"adaptive,omitempty"`
	Matrix   *MatrixResults       `json:"matrix,omitempty"`
}

// Finalize completes a session: it persists the final snapshots and the
// completed status in one transaction and returns the results. Finalizing an
// already completed session returns ErrSessionCompleted; the status
// transition inside the transaction makes the guard race-free.
func (s *AssessmentService) Finalize(ctx context.Context, sessionID uuid.UUID) (*Results, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	sessionRepo := s.sessionRepo.WithTx(tx)
	if err := sessionRepo.Lock(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}

	session, err := s.getActiveSession(ctx, sessionRepo, sessionID)
	if err != nil {
		return nil, err
	}

	responses, err := s.responseRepo.WithTx(tx).ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	results, snapshots := s.computeResults(session, responses)

	if err := s.snapshotRepo.WithTx(tx).ReplaceForSession(ctx, sessionID, snapshots); err != nil {
		return nil, fmt.Errorf("persist snapshots: %w", err)
	}

	endedAt, err := sessionRepo.Complete(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSessionCompleted
		}
		return nil, fmt.Errorf("complete session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if results.Adaptive != nil {
		results.Adaptive.CompletedAt = &endedAt
	}
	if results.Matrix != nil {
		results.Matrix.CompletedAt = &endedAt
	}

	s.log.Info().
		Str("session_id", sessionID.String()).
		Str("variant", string(session.Variant)).
		Int("items", len(responses)).
		Msg("session finalized")

	return results, nil
}

// Results returns the outcome of a completed session, recomputed from the
// response log. Active sessions return ErrSessionNotCompleted.
func (s *AssessmentService) Results(ctx context.Context, sessionID uuid.UUID) (*Results, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != model.SessionStatusCompleted {
		return nil, ErrSessionNotCompleted
	}

	responses, err := s.responseRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	results, _ := s.computeResults(session, responses)
	if results.Adaptive != nil {
		results.Adaptive.CompletedAt = session.EndedAt
	}
	if results.Matrix != nil {
		results.Matrix.CompletedAt = session.EndedAt
	}
	return results, nil
}

// RefreshSnapshots recomputes and replaces a session's snapshot rows from its
// response log. Used by the background worker while the session runs.
func (s *AssessmentService) RefreshSnapshots(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}

	responses, err := s.responseRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("list responses: %w", err)
	}

	_, snapshots := s.computeResults(session, responses)
	return s.snapshotRepo.ReplaceForSession(ctx, sessionID, snapshots)
}

// computeResults derives the result payload and snapshot rows from the
// replayed response log.
func (s *AssessmentService) computeResults(session *model.Session, responses []model.Response) (*Results, []model.Snapshot) {
	if session.Variant == model.VariantMatrix {
		return s.computeMatrixResults(session, responses)
	}
	return s.computeAdaptiveResults(session, responses)
}

func (s *AssessmentService) computeAdaptiveResults(session *model.Session, responses []model.Response) (*Results, []model.Snapshot) {
	state := assessment.Replay(session.InitialResponse, session.InitialFlagged, s.model, responses)

	snapshots := make([]model.Snapshot, 0, len(assessment.Competencies))
	for _, competency := range assessment.Competencies {
		est := state.Proficiency[competency]
		ciLow, ciHigh := est.CILow, est.CIHigh
		snapshots = append(snapshots, model.Snapshot{
			SessionID: session.ID,
			Dimension: competency,
			Score0100: est.Score,
			CILow:     &ciLow,
			CIHigh:    &ciHigh,
		})
	}

	return &Results{
		Variant: model.VariantAdaptive,
		Adaptive: &AdaptiveResults{
			SessionID:       session.ID,
			ItemsAnswered:   state.ItemsAnswered,
			Proficiency:     state.Proficiency,
			Recommendations: assessment.Recommend(state.Proficiency),
		},
	}, snapshots
}

func (s *AssessmentService) computeMatrixResults(session *model.Session, responses []model.Response) (*Results, []model.Snapshot) {
	state := matrix.Replay(responses)
	result := state.Finalize()

	snapshots := make([]model.Snapshot, 0, len(result.BlockDetails)+1)
	for _, detail := range result.BlockDetails {
		raw, maxPts := detail.Score, detail.MaxScore
		snapshots = append(snapshots, model.Snapshot{
			SessionID: session.ID,
			Dimension: detail.Block,
			Score0100: detail.Percentage,
			RawPoints: &raw,
			MaxPoints: &maxPts,
		})
	}

	total, maxTotal := result.TotalScore, result.MaxPossible
	level := result.MaturityLevel.Name
	snapshots = append(snapshots, model.Snapshot{
		SessionID:     session.ID,
		Dimension:     totalDimension,
		Score0100:     float64(total) / float64(maxTotal) * 100,
		RawPoints:     &total,
		MaxPoints:     &maxTotal,
		MaturityLevel: &level,
	})

	return &Results{
		Variant: model.VariantMatrix,
		Matrix: &MatrixResults{
			SessionID:     session.ID,
			ItemsAnswered: state.ItemsAnswered,
			Result:        result,
		},
	}, snapshots
}

// Progress reports live advancement for the WebSocket stream.
type ProgressInfo struct {
	SessionID     uuid.UUID            `json:"session_id"`
	Variant       model.SessionVariant `json:"variant"`
	ItemsAnswered int                  `json:"items_answered"`
	ShouldStop    bool                 `json:"should_stop"`
	StopReason    string               `json:"stop_reason"`
	Matrix        *matrix.Progress     `json:"matrix,omitempty"`
	Converged     int                  `json:"converged_competencies,omitempty"`
	GlobalScore   float64              `json:"global_score,omitempty"`
}

// Progress computes the session's current progress from the response log.
func (s *AssessmentService) Progress(ctx context.Context, sessionID uuid.UUID) (*ProgressInfo, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	responses, err := s.responseRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	info := &ProgressInfo{
		SessionID: sessionID,
		Variant:   session.Variant,
	}

	if session.Variant == model.VariantMatrix {
		state := matrix.Replay(responses)
		progress := state.Progress()
		decision := state.ShouldStop()
		info.ItemsAnswered = state.ItemsAnswered
		info.ShouldStop = decision.Stop
		info.StopReason = string(decision.Reason)
		info.Matrix = &progress
		return info, nil
	}

	state := assessment.Replay(session.InitialResponse, session.InitialFlagged, s.model, responses)
	decision := s.stopRule().Evaluate(state, session.StartedAt, time.Now())
	info.ItemsAnswered = state.ItemsAnswered
	info.ShouldStop = decision.Stop
	info.StopReason = string(decision.Reason)
	info.Converged = state.Proficiency.ConvergedCount(s.cfg.ConvergenceCIThreshold)
	info.GlobalScore = scoring.CalculateGlobalScore(state.Proficiency.Scores())
	return info, nil
}
