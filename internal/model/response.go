package model

import (
	"time"

	"github.com/google/uuid"
)

// Response is one graded answer within a session. The responses table is the
// append-only source of truth: all in-memory session state is rebuilt by
// replaying it in chronological order.
type Response struct {
	ID              uuid.UUID          `json:"id"`
	SessionID       uuid.UUID          `json:"session_id"`
	ItemID          uuid.UUID          `json:"item_id"`
	RawAnswer       string             `json:"raw_answer"`
	Score01         float64            `json:"graded_score_0_1"`
	MatrixPoints    *int               `json:"matrix_points,omitempty"`
	RubricBreakdown map[string]float64 `json:"rubric_breakdown,omitempty"`
	Flags           map[string]bool    `json:"flags,omitempty"`
	LatencyMS       *int               `json:"latency_ms,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`

	// Item fields denormalized at load time for replay.
	ItemType       ItemType `json:"-"`
	ItemDimension  string   `json:"-"`
	ItemStem       string   `json:"-"`
	Difficulty     float64  `json:"-"`
	Discrimination float64  `json:"-"`
}
