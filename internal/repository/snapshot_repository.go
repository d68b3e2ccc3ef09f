package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oazco/profiler-backend/internal/model"
)

// SnapshotRepository handles per-dimension result snapshots. Snapshots are a
// derived cache of the response log: replacing them wholesale is always safe.
type SnapshotRepository struct {
	db Querier
}

// NewSnapshotRepository creates a new SnapshotRepository.
func NewSnapshotRepository(db Querier) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// WithTx returns a copy bound to the transaction.
func (r *SnapshotRepository) WithTx(tx pgx.Tx) *SnapshotRepository {
	return &SnapshotRepository{db: tx}
}

// ReplaceForSession swaps the session's snapshot rows for the given set in
// one bulk insert.
func (r *SnapshotRepository) ReplaceForSession(ctx context.Context, sessionID uuid.UUID, snapshots []model.Snapshot) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM snapshots WHERE session_id = $1`, sessionID); err != nil {
		return err
	}
	if len(snapshots) == 0 {
		return nil
	}

	n := len(snapshots)
	ids := make([]uuid.UUID, 0, n)
	dimensions := make([]string, 0, n)
	scores := make([]float64, 0, n)
	ciLows := make([]*float64, 0, n)
	ciHighs := make([]*float64, 0, n)
	rawPoints := make([]*int, 0, n)
	maxPoints := make([]*int, 0, n)
	maturityLevels := make([]*string, 0, n)

	for _, s := range snapshots {
		id := s.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		ids = append(ids, id)
		dimensions = append(dimensions, s.Dimension)
		scores = append(scores, s.Score0100)
		ciLows = append(ciLows, s.CILow)
		ciHighs = append(ciHighs, s.CIHigh)
		rawPoints = append(rawPoints, s.RawPoints)
		maxPoints = append(maxPoints, s.MaxPoints)
		maturityLevels = append(maturityLevels, s.MaturityLevel)
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO snapshots (id, session_id, dimension, score_0_100,
			ci_low, ci_high, raw_points, max_points, maturity_level)
		 SELECT u.id, $1, u.dimension, u.score, u.ci_low, u.ci_high,
			u.raw_points, u.max_points, u.maturity_level
		 FROM UNNEST(
			$2::uuid[],
			$3::text[],
			$4::float8[],
			$5::float8[],
			$6::float8[],
			$7::int[],
			$8::int[],
			$9::text[]
		 ) AS u (id, dimension, score, ci_low, ci_high, raw_points, max_points, maturity_level)`,
		sessionID, ids, dimensions, scores, ciLows, ciHighs, rawPoints, maxPoints, maturityLevels,
	)
	return err
}
