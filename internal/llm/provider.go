// Package llm defines the contracts for the external language-model
// collaborators (text generation, rubric scoring, embeddings, moderation)
// and ships an OpenAI-backed implementation plus deterministic stubs.
package llm

import "context"

// TextGenerator produces structured JSON text from a prompt pair.
type TextGenerator interface {
	// GenerateJSON sends system/user prompts and returns the raw JSON body
	// of the completion. The caller owns parsing and validation.
	GenerateJSON(ctx context.Context, system, user string) ([]byte, error)
}

// RubricResult is the outcome of scoring a free-text answer against a rubric.
type RubricResult struct {
	Score     float64            `json:"score"`
	Breakdown map[string]float64 `json:"breakdown"`
	Flags     map[string]bool    `json:"flags"`
}

// RubricScorer grades open-ended answers against a criterion rubric.
type RubricScorer interface {
	Score(ctx context.Context, answer string, rubric map[string]string) (RubricResult, error)
}

// Embedder maps text to a dense vector for semantic comparison.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ModerationResult reports whether text is safe to process.
type ModerationResult struct {
	Safe  bool
	Flags []string
}

// Moderator screens free text for unsafe content.
type Moderator interface {
	Moderate(ctx context.Context, text string) (ModerationResult, error)
}
