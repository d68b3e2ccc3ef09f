package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/oazco/profiler-backend/internal/assessment"
	"github.com/oazco/profiler-backend/internal/config"
	"github.com/oazco/profiler-backend/internal/generation"
	"github.com/oazco/profiler-backend/internal/llm"
	"github.com/oazco/profiler-backend/internal/matrix"
	"github.com/oazco/profiler-backend/internal/model"
	"github.com/oazco/profiler-backend/internal/repository"
	"github.com/oazco/profiler-backend/internal/scoring"
)

// Assessment flow errors.
var (
	ErrSessionCompleted    = errors.New("session already completed")
	ErrSessionNotCompleted = errors.New("session not completed yet")
	ErrItemAlreadyAnswered = errors.New("item already answered in this session")
	ErrAssessmentComplete  = errors.New("assessment reached its stopping criterion")
	ErrNoItemsAvailable    = errors.New("no items available")
	ErrItemVariantMismatch = errors.New("item type does not match session variant")
)

// AssessmentService orchestrates both assessment variants: session lifecycle,
// item selection, response grading and result computation. All session state
// is derived by replaying the response log, so every method works from
// persistence alone.
type AssessmentService struct {
	cfg          *config.Config
	pool         *pgxpool.Pool
	rdb          *redis.Client
	sessionRepo  *repository.SessionRepository
	itemRepo     *repository.ItemRepository
	responseRepo *repository.ResponseRepository
	snapshotRepo *repository.SnapshotRepository
	tokens       *TokenService
	grader       *assessment.Grader
	matrixGrader *matrix.Grader
	selector     *assessment.Selector
	generator    *generation.Generator
	moderator    llm.Moderator
	model        scoring.Model
	log          zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService. generator may be nil
// when dynamic generation is disabled.
func NewAssessmentService(
	cfg *config.Config,
	pool *pgxpool.Pool,
	rdb *redis.Client,
	sessionRepo *repository.SessionRepository,
	itemRepo *repository.ItemRepository,
	responseRepo *repository.ResponseRepository,
	snapshotRepo *repository.SnapshotRepository,
	tokens *TokenService,
	rubric llm.RubricScorer,
	moderator llm.Moderator,
	generator *generation.Generator,
	rng *rand.Rand,
	log zerolog.Logger,
) *AssessmentService {
	return &AssessmentService{
		cfg:          cfg,
		pool:         pool,
		rdb:          rdb,
		sessionRepo:  sessionRepo,
		itemRepo:     itemRepo,
		responseRepo: responseRepo,
		snapshotRepo: snapshotRepo,
		tokens:       tokens,
		grader:       assessment.NewGrader(rubric, log),
		matrixGrader: matrix.NewGrader(cfg.MatrixLegacyPointsFallback, log),
		selector:     assessment.NewSelector(rng),
		generator:    generator,
		moderator:    moderator,
		model:        scoring.ThetaModel{},
		log:          log.With().Str("component", "assessment_service").Logger(),
	}
}

func (s *AssessmentService) stopRule() assessment.StopRule {
	return assessment.StopRule{
		MaxItems:        s.cfg.MaxItemsPerSession,
		MinItems:        s.cfg.MinItemsPerSession,
		TargetTime:      s.cfg.TargetSessionTime,
		CIThreshold:     s.cfg.ConvergenceCIThreshold,
		MinCompetencies: s.cfg.ConvergenceMinCompetencies,
	}
}

// StartSessionResult is returned when a session is created.
type StartSessionResult struct {
	Session *model.Session `json:"session"`
	Token   string         `json:"token"`
}

// StartSession creates a session and issues its access token. The optional
// initial free-text response runs through moderation; a flagged text lowers
// the adaptive prior, it never rejects the session.
func (s *AssessmentService) StartSession(ctx context.Context, req *model.StartSessionRequest) (*StartSessionResult, error) {
	flagged := false
	if req.InitialResponse != "" {
		mod, err := s.moderator.Moderate(ctx, req.InitialResponse)
		if err != nil {
			s.log.Warn().Err(err).Msg("moderation unavailable, treating initial response as safe")
		} else if !mod.Safe {
			flagged = true
			s.log.Info().Strs("flags", mod.Flags).Msg("initial response flagged by moderation")
		}
	}

	session := &model.Session{
		ID:              uuid.New(),
		Variant:         req.Variant,
		Status:          model.SessionStatusActive,
		InitialResponse: req.InitialResponse,
		InitialFlagged:  flagged,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := s.tokens.Issue(session.ID, session.Variant)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	// Cache the start timestamp for cheap progress reads.
	startKey := config.CacheKey.SessionStartKey(session.ID.String())
	if err := s.rdb.Set(ctx, startKey, session.StartedAt.Format(time.RFC3339Nano), s.cfg.JWTExpiry).Err(); err != nil {
		s.log.Warn().Err(err).Msg("failed to cache session start time")
	}

	s.log.Info().
		Str("session_id", session.ID.String()).
		Str("variant", string(session.Variant)).
		Msg("session started")

	return &StartSessionResult{Session: session, Token: token}, nil
}

// getActiveSession loads a session and rejects completed ones.
func (s *AssessmentService) getActiveSession(ctx context.Context, repo *repository.SessionRepository, id uuid.UUID) (*model.Session, error) {
	session, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionStatusCompleted {
		return nil, ErrSessionCompleted
	}
	return session, nil
}

// NextItemResult carries the next question plus progress context.
type NextItemResult struct {
	Item          model.PublicItem `json:"item"`
	ItemsAnswered int              `json:"items_answered"`
	Generated     bool             `json:"generated"`
}

// NextItem picks the next question for the session. Returns
// ErrAssessmentComplete once the stopping criterion holds, and
// ErrNoItemsAvailable when neither generation nor the item bank can supply a
// question.
func (s *AssessmentService) NextItem(ctx context.Context, sessionID uuid.UUID) (*NextItemResult, error) {
	session, err := s.getActiveSession(ctx, s.sessionRepo, sessionID)
	if err != nil {
		return nil, err
	}

	responses, err := s.responseRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	if session.Variant == model.VariantMatrix {
		return s.nextMatrixItem(ctx, session, responses)
	}
	return s.nextAdaptiveItem(ctx, session, responses)
}

func (s *AssessmentService) nextAdaptiveItem(ctx context.Context, session *model.Session, responses []model.Response) (*NextItemResult, error) {
	state := assessment.Replay(session.InitialResponse, session.InitialFlagged, s.model, responses)

	if decision := s.stopRule().Evaluate(state, session.StartedAt, time.Now()); decision.Stop {
		return nil, fmt.Errorf("%w: %s", ErrAssessmentComplete, decision.Reason)
	}

	// Dynamic generation first, bank as fallback.
	if s.generator != nil {
		if item, err := s.generateAdaptiveItem(ctx, state); err == nil {
			return &NextItemResult{
				Item:          item.Public(),
				ItemsAnswered: state.ItemsAnswered,
				Generated:     true,
			}, nil
		} else if !errors.Is(err, generation.ErrQualityRejected) {
			s.log.Warn().Err(err).Msg("generation failed, falling back to item bank")
		}
	}

	candidates, err := s.itemRepo.ListActiveAdaptive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	item, err := s.selector.Select(state.Proficiency, state.History, candidates)
	if errors.Is(err, assessment.ErrNoCandidates) {
		return nil, ErrNoItemsAvailable
	}
	if err != nil {
		return nil, err
	}

	return &NextItemResult{
		Item:          item.Public(),
		ItemsAnswered: state.ItemsAnswered,
	}, nil
}

// generateAdaptiveItem targets the least certain competency at a difficulty
// matching its current estimate, persisting the item so submission resolves.
func (s *AssessmentService) generateAdaptiveItem(ctx context.Context, state *assessment.State) (*model.Item, error) {
	competency, est := generationTarget(state)

	history := make([]generation.HistorySample, 0, len(state.History))
	for _, h := range state.History {
		history = append(history, generation.HistorySample{
			Competency: h.Dimension,
			Score:      h.Score * 100,
			Stem:       h.Stem,
		})
	}

	item, err := s.generator.GenerateAdaptive(ctx, competency, est.Score, generation.DifficultyFor(est.Score), history)
	if err != nil {
		return nil, err
	}
	if err := s.itemRepo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("persist generated item: %w", err)
	}
	return item, nil
}

// generationTarget picks the competency for the next generated question.
// Consecutive questions stay inside the current thematic cluster until
// the switch rule fires, so generated sessions do not jump topics abruptly;
// within the allowed cluster the least certain competency wins.
func generationTarget(state *assessment.State) (string, assessment.AbilityEstimate) {
	if len(state.History) == 0 {
		name, est, _ := widestCI(state.Proficiency, nil)
		return name, est
	}

	currentCluster := generation.ThematicCluster(state.History[len(state.History)-1].Dimension)

	recentClusters := make([]string, 0, len(state.History))
	samples := make([]generation.ClusterSample, 0, len(state.History))
	for _, h := range state.History {
		recentClusters = append(recentClusters, generation.ThematicCluster(h.Dimension))
		samples = append(samples, generation.ClusterSample{
			Competency: h.Dimension,
			Score:      h.Score * 100,
		})
	}

	if generation.ShouldSwitchCluster(currentCluster, recentClusters, samples) {
		if name, est, ok := widestCI(state.Proficiency, func(c string) bool {
			return generation.ThematicCluster(c) != currentCluster
		}); ok {
			return name, est
		}
	} else if name, est, ok := widestCI(state.Proficiency, func(c string) bool {
		return generation.ThematicCluster(c) == currentCluster
	}); ok {
		return name, est
	}

	name, est, _ := widestCI(state.Proficiency, nil)
	return name, est
}

// widestCI returns the competency with the widest confidence interval among
// those the filter admits; a nil filter admits all nine.
func widestCI(prof assessment.Proficiency, include func(string) bool) (string, assessment.AbilityEstimate, bool) {
	var (
		name  string
		est   assessment.AbilityEstimate
		width = -1.0
	)
	for _, competency := range assessment.Competencies {
		if include != nil && !include(competency) {
			continue
		}
		e := prof[competency]
		if w := e.CIWidth(); w > width {
			name, est, width = competency, e, w
		}
	}
	return name, est, width >= 0
}

func (s *AssessmentService) nextMatrixItem(ctx context.Context, session *model.Session, responses []model.Response) (*NextItemResult, error) {
	state := matrix.Replay(responses)

	if decision := state.ShouldStop(); decision.Stop {
		return nil, fmt.Errorf("%w: %s", ErrAssessmentComplete, decision.Reason)
	}

	blockName, ok := state.NextBlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAssessmentComplete, matrix.StopAllQuestionsCompleted)
	}

	if s.generator != nil {
		block, _ := matrix.BlockByName(blockName)
		history := make([]generation.HistorySample, 0, len(state.History))
		for _, a := range state.History {
			history = append(history, generation.HistorySample{Competency: a.Block, Stem: a.Stem})
		}

		if item, err := s.generator.GenerateMatrix(ctx, block.Name, block.Description, history); err == nil {
			if err := s.itemRepo.Create(ctx, item); err != nil {
				return nil, fmt.Errorf("persist generated item: %w", err)
			}
			return &NextItemResult{
				Item:          item.Public(),
				ItemsAnswered: state.ItemsAnswered,
				Generated:     true,
			}, nil
		}
		s.log.Warn().Str("block", blockName).Msg("matrix generation failed, falling back to item bank")
	}

	bank, err := s.itemRepo.ListActiveByBlock(ctx, blockName)
	if err != nil {
		return nil, fmt.Errorf("list block items: %w", err)
	}

	answered := state.Answered()
	for _, item := range bank {
		if !answered[item.ID.String()] {
			return &NextItemResult{
				Item:          item.Public(),
				ItemsAnswered: state.ItemsAnswered,
			}, nil
		}
	}
	return nil, ErrNoItemsAvailable
}

// SubmitResult reports one graded submission.
type SubmitResult struct {
	ItemID        uuid.UUID          `json:"item_id"`
	Score01       float64            `json:"graded_score_0_1"`
	MatrixPoints  *int               `json:"matrix_points,omitempty"`
	Flags         map[string]bool    `json:"flags,omitempty"`
	Breakdown     map[string]float64 `json:"rubric_breakdown,omitempty"`
	ItemsAnswered int                `json:"items_answered"`
	ShouldStop    bool               `json:"should_stop"`
	StopReason    string             `json:"stop_reason"`
}

// variantAllowsItem reports whether an item of the given type may be answered
// in a session of the given variant. Matrix sessions take only matrix items;
// adaptive sessions take everything else.
func variantAllowsItem(variant model.SessionVariant, itemType model.ItemType) bool {
	if variant == model.VariantMatrix {
		return itemType == model.ItemTypeMatrix
	}
	return itemType != model.ItemTypeMatrix
}

// SubmitResponse grades and persists one answer atomically. The session's
// advisory lock serializes concurrent submits, so two in-flight answers can
// never both pass the duplicate and stopping checks.
func (s *AssessmentService) SubmitResponse(ctx context.Context, sessionID uuid.UUID, req *model.SubmitResponseRequest) (*SubmitResult, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	sessionRepo := s.sessionRepo.WithTx(tx)
	responseRepo := s.responseRepo.WithTx(tx)

	if err := sessionRepo.Lock(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("lock session: %w", err)
	}

	session, err := s.getActiveSession(ctx, sessionRepo, sessionID)
	if err != nil {
		return nil, err
	}

	answered, err := responseRepo.ExistsForItem(ctx, sessionID, req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if answered {
		return nil, ErrItemAlreadyAnswered
	}

	item, err := s.itemRepo.WithTx(tx).GetByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if !variantAllowsItem(session.Variant, item.Type) {
		return nil, fmt.Errorf("%w: %s item in %s session", ErrItemVariantMismatch, item.Type, session.Variant)
	}

	responses, err := responseRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}

	resp := &model.Response{
		ID:        uuid.New(),
		SessionID: sessionID,
		ItemID:    item.ID,
		RawAnswer: req.Answer,
		LatencyMS: req.LatencyMS,
	}

	result := &SubmitResult{ItemID: item.ID}

	if session.Variant == model.VariantMatrix {
		state := matrix.Replay(responses)
		if decision := state.ShouldStop(); decision.Stop {
			return nil, fmt.Errorf("%w: %s", ErrAssessmentComplete, decision.Reason)
		}

		graded, err := s.matrixGrader.Grade(item, req.Answer)
		if err != nil {
			return nil, fmt.Errorf("grade matrix answer: %w", err)
		}
		points := graded.Points
		resp.MatrixPoints = &points
		resp.Score01 = graded.Score01

		result.MatrixPoints = &points
		result.Score01 = graded.Score01
		result.ItemsAnswered = state.ItemsAnswered + 1

		if state.ItemsAnswered+1 >= matrix.TotalQuestions {
			result.ShouldStop = true
			result.StopReason = string(matrix.StopAllQuestionsCompleted)
		} else {
			result.StopReason = string(matrix.StopQuestionsRemaining)
		}
	} else {
		state := assessment.Replay(session.InitialResponse, session.InitialFlagged, s.model, responses)
		if decision := s.stopRule().Evaluate(state, session.StartedAt, time.Now()); decision.Stop {
			return nil, fmt.Errorf("%w: %s", ErrAssessmentComplete, decision.Reason)
		}

		graded, err := s.grader.Grade(ctx, item, req.Answer)
		if err != nil {
			return nil, fmt.Errorf("grade answer: %w", err)
		}
		resp.Score01 = graded.Score
		resp.RubricBreakdown = graded.Breakdown
		resp.Flags = graded.Flags

		difficulty, discrimination := item.Params()
		state.Proficiency.Apply(s.model, item.Dimension(), difficulty, discrimination, graded.Score)
		state.ItemsAnswered++
		state.History = append(state.History, assessment.HistoryEntry{
			ItemID:    item.ID.String(),
			Dimension: item.Dimension(),
			Type:      item.Type,
			Score:     graded.Score,
			Stem:      item.Stem,
		})

		decision := s.stopRule().Evaluate(state, session.StartedAt, time.Now())

		result.Score01 = graded.Score
		result.Flags = graded.Flags
		result.Breakdown = graded.Breakdown
		result.ItemsAnswered = state.ItemsAnswered
		result.ShouldStop = decision.Stop
		result.StopReason = string(decision.Reason)
	}

	if err := responseRepo.Create(ctx, resp); err != nil {
		return nil, fmt.Errorf("persist response: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	s.enqueueSnapshotRefresh(ctx, sessionID)
	s.publishProgress(ctx, sessionID, result)

	return result, nil
}

// enqueueSnapshotRefresh pushes the session onto the snapshot worker queue.
// Snapshots are a derived cache, so a lost refresh is repaired by the next
// submit or finalize.
func (s *AssessmentService) enqueueSnapshotRefresh(ctx context.Context, sessionID uuid.UUID) {
	payload, _ := json.Marshal(map[string]string{"session_id": sessionID.String()})
	if err := s.rdb.RPush(ctx, config.WorkerKey.RefreshSnapshotsQueue, payload).Err(); err != nil {
		s.log.Warn().Err(err).Msg("failed to enqueue snapshot refresh")
	}
}

// publishProgress broadcasts the submission result on the session's progress
// channel for connected WebSocket clients.
func (s *AssessmentService) publishProgress(ctx context.Context, sessionID uuid.UUID, result *SubmitResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	channel := config.CacheKey.SessionProgressChannel(sessionID.String())
	if err := s.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		s.log.Warn().Err(err).Msg("failed to publish progress")
	}
}
