package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/oazco/profiler-backend/internal/model"
)

// SessionRepository handles assessment session data access.
type SessionRepository struct {
	db Querier
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db Querier) *SessionRepository {
	return &SessionRepository{db: db}
}

// WithTx returns a copy bound to the transaction.
func (r *SessionRepository) WithTx(tx pgx.Tx) *SessionRepository {
	return &SessionRepository{db: tx}
}

// Create inserts a new active session.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO sessions (id, variant, status, initial_response, initial_flagged)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING started_at`,
		s.ID, s.Variant, model.SessionStatusActive, s.InitialResponse, s.InitialFlagged,
	).Scan(&s.StartedAt)
}

// GetByID retrieves one session.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	s := &model.Session{}
	err := r.db.QueryRow(ctx,
		`SELECT id, variant, status, initial_response, initial_flagged, started_at, ended_at
		 FROM sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.Variant, &s.Status, &s.InitialResponse, &s.InitialFlagged, &s.StartedAt, &s.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Complete marks a session completed. Completing an already completed session
// affects no rows and returns ErrNotFound, which doubles as the
// double-finalize guard inside a transaction.
func (r *SessionRepository) Complete(ctx context.Context, id uuid.UUID) (time.Time, error) {
	var endedAt time.Time
	err := r.db.QueryRow(ctx,
		`UPDATE sessions
		 SET status = $1, ended_at = NOW()
		 WHERE id = $2 AND status = $3
		 RETURNING ended_at`,
		model.SessionStatusCompleted, id, model.SessionStatusActive,
	).Scan(&endedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	return endedAt, err
}

// Lock takes the transaction-scoped advisory lock for the session, so
// concurrent submits to the same session serialize instead of double
// counting. Must run inside a transaction; the lock releases on commit or
// rollback.
func (r *SessionRepository) Lock(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, id)
	return err
}
