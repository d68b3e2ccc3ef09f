package llm

import (
	"context"
	"errors"
	"math"
	"strings"
)

// ErrGenerationUnavailable is returned by the stub generator: without a real
// provider there is nothing to synthesize and callers must fall back to the
// item bank.
var ErrGenerationUnavailable = errors.New("text generation unavailable")

// Stub is a deterministic, offline implementation of every collaborator
// contract. It is the default when no API key is configured and the fixture
// for tests: same input, same output, no network.
type Stub struct{}

var rubricKeywords = []string{
	"ia", "inteligência artificial", "llm", "prompt", "automação",
	"dados", "modelo", "contexto", "ética", "segurança",
}

// GenerateJSON always fails; the stub cannot invent questions.
func (Stub) GenerateJSON(context.Context, string, string) ([]byte, error) {
	return nil, ErrGenerationUnavailable
}

// Score grades an answer with keyword and length heuristics. The rubric map
// only influences the breakdown keys indirectly; criteria are fixed.
func (Stub) Score(_ context.Context, answer string, _ map[string]string) (RubricResult, error) {
	trimmed := strings.TrimSpace(answer)
	if len(trimmed) < 5 {
		return RubricResult{
			Score: 0,
			Breakdown: map[string]float64{
				"relevancia": 0, "precisao": 0, "seguranca": 0.5,
				"completude": 0, "objetividade": 0,
			},
			Flags: map[string]bool{"incomplete": true},
		}, nil
	}

	lower := strings.ToLower(answer)
	keywordCount := 0
	for _, kw := range rubricKeywords {
		if strings.Contains(lower, kw) {
			keywordCount++
		}
	}

	lengthScore := math.Min(float64(len(answer))/200, 1)
	keywordScore := math.Min(float64(keywordCount)/3, 1)
	base := lengthScore*0.4 + keywordScore*0.6

	breakdown := map[string]float64{
		"relevancia":   round2(math.Min(keywordScore+0.2, 1)),
		"precisao":     round2(math.Min(base+0.1, 1)),
		"seguranca":    0.8,
		"completude":   round2(math.Min(lengthScore+0.1, 1)),
		"objetividade": round2(math.Min(base, 1)),
	}

	var sum float64
	for _, v := range breakdown {
		sum += v
	}

	flags := map[string]bool{}
	if len(answer) < 20 {
		flags["too_short"] = true
	}
	if len(answer) > 1000 {
		flags["very_long"] = true
	}

	return RubricResult{
		Score:     round2(sum / float64(len(breakdown))),
		Breakdown: breakdown,
		Flags:     flags,
	}, nil
}

// Embed fails; semantic validation degrades gracefully without embeddings.
func (Stub) Embed(context.Context, string) ([]float64, error) {
	return nil, ErrGenerationUnavailable
}

// Moderate flags obvious injection patterns, mirroring the minimal screening
// applied to the free-text initial response.
func (Stub) Moderate(_ context.Context, text string) (ModerationResult, error) {
	unsafePatterns := []string{"<script", "javascript:", "onerror="}

	lower := strings.ToLower(text)
	var flags []string
	for _, p := range unsafePatterns {
		if strings.Contains(lower, p) {
			flags = append(flags, "unsafe_content: "+p)
		}
	}

	return ModerationResult{Safe: len(flags) == 0, Flags: flags}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
