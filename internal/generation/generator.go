// Package generation produces personalized questions through a text
// generation collaborator, guarded by semantic validation. Generation is an
// optional path: callers fall back to the item bank whenever it fails.
package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/rs/zerolog"

	"github.com/oazco/profiler-backend/internal/llm"
	"github.com/oazco/profiler-backend/internal/model"
)

var (
	// ErrQualityRejected means every generation attempt failed validation.
	ErrQualityRejected = errors.New("generated question rejected by quality checks")

	// ErrNoItemsAvailable is terminal: generation failed and the item bank
	// has nothing left to offer.
	ErrNoItemsAvailable = errors.New("no items available: generation failed and item bank exhausted")
)

// difficultyTarget maps a named difficulty to IRT parameters and the prompt
// wording used to steer generation.
type difficultyTarget struct {
	Difficulty     float64
	Discrimination float64
	Description    string
}

var difficultyTargets = map[string]difficultyTarget{
	"easy":   {Difficulty: 0, Discrimination: 0.6, Description: "básico/introdutório"},
	"medium": {Difficulty: 1, Discrimination: 0.7, Description: "intermediário/prático"},
	"hard":   {Difficulty: 2, Discrimination: 0.9, Description: "avançado/especialista"},
}

// DifficultyFor picks the named difficulty target for a current score:
// struggling users get easier items, strong users get harder ones.
func DifficultyFor(currentScore float64) string {
	switch {
	case currentScore < 40:
		return "easy"
	case currentScore < 65:
		return "medium"
	default:
		return "hard"
	}
}

// HistorySample is the slice of session history the generator needs for
// prompt context and semantic validation.
type HistorySample struct {
	Competency string
	Score      float64
	Stem       string
}

// Generator creates adaptive and matrix questions via the text generation
// collaborator, validating every candidate before returning it. Choice order
// of matrix questions is shuffled with the injected random source, and the
// per-item points map records where each maturity level landed.
type Generator struct {
	text      llm.TextGenerator
	validator *SemanticValidator
	attempts  int
	rng       *rand.Rand
	log       zerolog.Logger
}

// NewGenerator creates a generator with the given attempt budget.
func NewGenerator(text llm.TextGenerator, validator *SemanticValidator, attempts int, rng *rand.Rand, log zerolog.Logger) *Generator {
	if attempts < 1 {
		attempts = 1
	}
	return &Generator{
		text:      text,
		validator: validator,
		attempts:  attempts,
		rng:       rng,
		log:       log.With().Str("component", "generator").Logger(),
	}
}

const adaptiveSystemPrompt = "Você é um gerador de questões técnicas para avaliação de proficiência em IA. " +
	"Seja preciso, técnico e contextualizado. Responda sempre em JSON válido."

type generatedQuestion struct {
	Stem           string            `json:"stem"`
	Choices        []string          `json:"choices"`
	AnswerKey      string            `json:"answer_key"`
	Explanation    string            `json:"explanation"`
	RubricCriteria map[string]string `json:"rubric_criteria"`
}

// GenerateAdaptive produces one multiple-choice question for the competency
// at the target difficulty. Each candidate runs through semantic distance and
// quality validation; after the attempt budget is spent the caller should
// fall back to the item bank.
func (g *Generator) GenerateAdaptive(ctx context.Context, competency string, currentScore float64, difficulty string, history []HistorySample) (*model.Item, error) {
	target, ok := difficultyTargets[difficulty]
	if !ok {
		target = difficultyTargets["medium"]
	}

	recentStems := recentStems(history)
	prompt := buildAdaptivePrompt(competency, currentScore, target, history)

	var lastReason string
	for attempt := 1; attempt <= g.attempts; attempt++ {
		raw, err := g.text.GenerateJSON(ctx, adaptiveSystemPrompt, prompt)
		if err != nil {
			return nil, fmt.Errorf("generate question: %w", err)
		}

		var q generatedQuestion
		if err := json.Unmarshal(raw, &q); err != nil {
			lastReason = "invalid JSON from generator"
			g.log.Warn().Int("attempt", attempt).Err(err).Msg("discarding unparseable generated question")
			continue
		}
		if q.Stem == "" || len(q.Choices) != 4 {
			lastReason = "incomplete question payload"
			g.log.Warn().Int("attempt", attempt).Msg("discarding incomplete generated question")
			continue
		}

		if distance := g.validator.ValidateDistance(ctx, q.Stem, recentStems); !distance.Valid {
			lastReason = distance.Reason
			g.log.Info().Int("attempt", attempt).Str("reason", distance.Reason).Msg("generated question rejected by distance check")
			continue
		}
		if quality := g.validator.ValidateQuality(ctx, q.Stem, q.Choices); !quality.Valid {
			lastReason = quality.Reason
			g.log.Info().Int("attempt", attempt).Str("reason", quality.Reason).Msg("generated question rejected by quality check")
			continue
		}

		item := model.NewChoiceItem(model.ItemTypeMCQ, q.Stem, model.ChoicePayload{
			Competency:     competency,
			Difficulty:     target.Difficulty,
			Discrimination: target.Discrimination,
			Choices:        q.Choices,
			AnswerKey:      normalizeKey(q.AnswerKey),
		})
		item.Tags = "generated,adaptive," + difficulty
		return item, nil
	}

	return nil, fmt.Errorf("%w after %d attempts: %s", ErrQualityRejected, g.attempts, lastReason)
}

const matrixSystemPrompt = "Você é um gerador de questões de autoavaliação de maturidade em IA. " +
	"As alternativas devem ser progressivas, da menor para a maior maturidade. Responda sempre em JSON válido."

type generatedMatrixQuestion struct {
	Stem    string   `json:"stem"`
	Choices []string `json:"choices"`
}

var letters = []string{"A", "B", "C", "D"}

// GenerateMatrix produces one matrix question for the block. The generator
// asks for choices in ascending maturity order, then shuffles the
// presentation order and records the points each letter is worth on the item
// itself, so grading stays correct regardless of where each choice landed.
func (g *Generator) GenerateMatrix(ctx context.Context, blockName, blockDescription string, history []HistorySample) (*model.Item, error) {
	recentStems := recentStems(history)
	prompt := buildMatrixPrompt(blockName, blockDescription, recentStems)

	var lastReason string
	for attempt := 1; attempt <= g.attempts; attempt++ {
		raw, err := g.text.GenerateJSON(ctx, matrixSystemPrompt, prompt)
		if err != nil {
			return nil, fmt.Errorf("generate matrix question: %w", err)
		}

		var q generatedMatrixQuestion
		if err := json.Unmarshal(raw, &q); err != nil {
			lastReason = "invalid JSON from generator"
			g.log.Warn().Int("attempt", attempt).Err(err).Msg("discarding unparseable matrix question")
			continue
		}
		if q.Stem == "" || len(q.Choices) != 4 {
			lastReason = "incomplete question payload"
			g.log.Warn().Int("attempt", attempt).Msg("discarding incomplete matrix question")
			continue
		}

		if distance := g.validator.ValidateDistance(ctx, q.Stem, recentStems); !distance.Valid {
			lastReason = distance.Reason
			g.log.Info().Int("attempt", attempt).Str("reason", distance.Reason).Msg("matrix question rejected by distance check")
			continue
		}

		choices, pointsByLetter := g.shuffleMatrixChoices(q.Choices)
		item := model.NewMatrixItem(q.Stem, model.MatrixPayload{
			Block:          blockName,
			Choices:        choices,
			PointsByLetter: pointsByLetter,
		})
		item.Tags = "generated,matrix"
		return item, nil
	}

	return nil, fmt.Errorf("%w after %d attempts: %s", ErrQualityRejected, g.attempts, lastReason)
}

// shuffleMatrixChoices permutes ascending-maturity choices into presentation
// order and builds the letter-to-points map for the permutation.
func (g *Generator) shuffleMatrixChoices(ascending []string) ([]string, map[string]int) {
	perm := g.rng.Perm(len(ascending))

	choices := make([]string, len(ascending))
	points := make(map[string]int, len(ascending))
	for position, original := range perm {
		choices[position] = ascending[original]
		points[letters[position]] = original + 1
	}
	return choices, points
}

func buildAdaptivePrompt(competency string, currentScore float64, target difficultyTarget, history []HistorySample) string {
	var context strings.Builder
	if len(history) > 0 {
		recent := history
		if len(recent) > 3 {
			recent = recent[len(recent)-3:]
		}
		context.WriteString("\nContexto do usuário:\n")
		for _, sample := range recent {
			fmt.Fprintf(&context, "- %s: pontuou %.1f\n", sample.Competency, sample.Score)
		}
	}

	return fmt.Sprintf(`Gere UMA questão de múltipla escolha (%s) sobre:
**Competência**: %s
**Nível do usuário**: %.0f/100
**Dificuldade alvo**: %s
%s
REQUISITOS DA QUESTÃO:
1. Relevante para profissionais usando IA no trabalho
2. Baseada em cenários reais e práticos
3. Teste conhecimento aplicado, não decoreba
4. 4 alternativas plausíveis (A, B, C, D)
5. Uma resposta claramente correta

RETORNE JSON:
{
  "stem": "texto da questão (contextualizada, prática, específica)",
  "choices": ["A...", "B...", "C...", "D..."],
  "answer_key": "A|B|C|D",
  "explanation": "breve justificativa da resposta correta",
  "rubric_criteria": {"relevancia": "...", "precisao": "..."}
}

NÃO repita questões genéricas. Seja criativo e contextual.`,
		target.Description, competency, currentScore, target.Description, context.String())
}

func buildMatrixPrompt(blockName, blockDescription string, recentStems []string) string {
	var avoid strings.Builder
	if len(recentStems) > 0 {
		avoid.WriteString("\nNão repita estas questões já feitas:\n")
		for _, stem := range recentStems {
			fmt.Fprintf(&avoid, "- %s\n", stem)
		}
	}

	return fmt.Sprintf(`Gere UMA questão de autoavaliação sobre o bloco:
**Bloco**: %s
**Objetivo**: %s
%s
REQUISITOS:
1. Pergunta direta sobre hábitos, percepção ou conhecimento do respondente
2. 4 alternativas PROGRESSIVAS, da menor maturidade (primeira) à maior (última)
3. Linguagem simples, sem jargão técnico desnecessário

RETORNE JSON:
{
  "stem": "texto da questão",
  "choices": ["menor maturidade", "...", "...", "maior maturidade"]
}`, blockName, blockDescription, avoid.String())
}

func recentStems(history []HistorySample) []string {
	if len(history) > recentStemWindow {
		history = history[len(history)-recentStemWindow:]
	}
	stems := make([]string, 0, len(history))
	for _, sample := range history {
		if sample.Stem != "" {
			stems = append(stems, sample.Stem)
		}
	}
	return stems
}

func normalizeKey(key string) string {
	key = strings.ToUpper(strings.TrimSpace(key))
	for _, l := range letters {
		if strings.HasPrefix(key, l) {
			return l
		}
	}
	return "A"
}
