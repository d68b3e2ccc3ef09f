package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oazco/profiler-backend/internal/model"
)

// ResponseRepository handles the append-only response log.
type ResponseRepository struct {
	db Querier
}

// NewResponseRepository creates a new ResponseRepository.
func NewResponseRepository(db Querier) *ResponseRepository {
	return &ResponseRepository{db: db}
}

// WithTx returns a copy bound to the transaction.
func (r *ResponseRepository) WithTx(tx pgx.Tx) *ResponseRepository {
	return &ResponseRepository{db: tx}
}

// Create appends one graded response. Responses are never updated or
// deleted.
func (r *ResponseRepository) Create(ctx context.Context, resp *model.Response) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO responses (id, session_id, item_id, raw_answer,
			graded_score_0_1, matrix_points, rubric_breakdown, flags, latency_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		resp.ID, resp.SessionID, resp.ItemID, resp.RawAnswer,
		resp.Score01, resp.MatrixPoints, resp.RubricBreakdown, resp.Flags, resp.LatencyMS,
	).Scan(&resp.CreatedAt)
}

// ListBySession retrieves a session's responses in submission order, joined
// with the item fields replay needs. Insertion order ties break on id so the
// replay sequence is stable.
func (r *ResponseRepository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Response, error) {
	rows, err := r.db.Query(ctx,
		`SELECT r.id, r.session_id, r.item_id, r.raw_answer,
			r.graded_score_0_1, r.matrix_points, r.rubric_breakdown, r.flags, r.latency_ms, r.created_at,
			i.type, COALESCE(i.competency, i.block, ''), i.stem,
			COALESCE(i.difficulty_b, 0), COALESCE(i.discrimination_a, 0)
		 FROM responses r
		 JOIN items i ON i.id = r.item_id
		 WHERE r.session_id = $1
		 ORDER BY r.created_at, r.id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []model.Response
	for rows.Next() {
		var resp model.Response
		if err := rows.Scan(
			&resp.ID, &resp.SessionID, &resp.ItemID, &resp.RawAnswer,
			&resp.Score01, &resp.MatrixPoints, &resp.RubricBreakdown, &resp.Flags, &resp.LatencyMS, &resp.CreatedAt,
			&resp.ItemType, &resp.ItemDimension, &resp.ItemStem,
			&resp.Difficulty, &resp.Discrimination,
		); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

// ExistsForItem reports whether the session already answered the item.
func (r *ResponseRepository) ExistsForItem(ctx context.Context, sessionID, itemID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM responses WHERE session_id = $1 AND item_id = $2)`,
		sessionID, itemID,
	).Scan(&exists)
	return exists, err
}
