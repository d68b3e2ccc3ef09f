package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionVariant selects the assessment flavor a session runs.
type SessionVariant string

const (
	VariantAdaptive SessionVariant = "adaptive"
	VariantMatrix   SessionVariant = "matrix"
)

// SessionStatus enumerates session states. Sessions only ever move from
// active to completed; there is no abort state.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// Session represents one assessment attempt.
type Session struct {
	ID              uuid.UUID      `json:"id"`
	Variant         SessionVariant `json:"variant"`
	Status          SessionStatus  `json:"status"`
	InitialResponse string         `json:"initial_response,omitempty"`
	InitialFlagged  bool           `json:"initial_flagged,omitempty"`
	StartedAt       time.Time      `json:"started_at"`
	EndedAt         *time.Time     `json:"ended_at,omitempty"`
}

// StartSessionRequest is the payload for starting an assessment session.
type StartSessionRequest struct {
	Variant         SessionVariant `json:"variant" binding:"required,oneof=adaptive matrix"`
	InitialResponse string         `json:"initial_response" binding:"max=4000"`
}

// SubmitResponseRequest is the payload for answering an item.
type SubmitResponseRequest struct {
	ItemID    uuid.UUID `json:"item_id" binding:"required"`
	Answer    string    `json:"answer" binding:"max=8000"`
	LatencyMS *int      `json:"latency_ms" binding:"omitempty,min=0"`
}
