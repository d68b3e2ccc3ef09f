package model

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is an immutable per-dimension result row persisted when a session
// is finalized (and refreshed in the background while it runs). Adaptive
// sessions fill the CI fields, matrix sessions fill the points fields.
type Snapshot struct {
	ID        uuid.UUID `json:"id"`
	SessionID uuid.UUID `json:"session_id"`
	Dimension string    `json:"dimension"` // competency or block name
	Score0100 float64   `json:"score_0_100"`

	CILow  *float64 `json:"ci_low,omitempty"`
	CIHigh *float64 `json:"ci_high,omitempty"`

	RawPoints     *int    `json:"raw_points,omitempty"`
	MaxPoints     *int    `json:"max_points,omitempty"`
	MaturityLevel *string `json:"maturity_level,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
