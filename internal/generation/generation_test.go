package generation

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"

	"github.com/oazco/profiler-backend/internal/model"
)

// fakeEmbedder returns canned vectors per text, or an error when the text is
// unknown.
type fakeEmbedder struct {
	vectors map[string][]float64
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	if vec, ok := f.vectors[text]; ok {
		return vec, nil
	}
	return nil, errors.New("unknown text")
}

// fakeTextGenerator replays a queue of raw JSON responses.
type fakeTextGenerator struct {
	responses [][]byte
	calls     int
}

func (f *fakeTextGenerator) GenerateJSON(context.Context, string, string) ([]byte, error) {
	if f.calls >= len(f.responses) {
		return nil, errors.New("no more responses queued")
	}
	raw := f.responses[f.calls]
	f.calls++
	return raw, nil
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0}, []float64{1, 0}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"empty", nil, []float64{1}, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
	}
	for _, tt := range tests {
		if got := cosineSimilarity(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: cosineSimilarity = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestValidateDistanceBand(t *testing.T) {
	embed := &fakeEmbedder{vectors: map[string][]float64{
		"nova questão":          {1, 0},
		"quase idêntica":        {0.99, 0.141},
		"relacionada":           {0.75, 0.66},
		"totalmente diferente":  {0, 1},
		"levemente relacionada": {0.5, 0.87},
	}}
	v := NewSemanticValidator(embed, zerolog.Nop())
	ctx := context.Background()

	// Inside the band: similarity ~0.75.
	report := v.ValidateDistance(ctx, "nova questão", []string{"relacionada"})
	if !report.Valid {
		t.Errorf("in-band similarity rejected: %s", report.Reason)
	}

	// Above the ceiling: near-duplicate.
	report = v.ValidateDistance(ctx, "nova questão", []string{"quase idêntica"})
	if report.Valid {
		t.Error("near-duplicate accepted")
	}

	// Below the floor: jarring jump.
	report = v.ValidateDistance(ctx, "nova questão", []string{"totalmente diferente"})
	if report.Valid {
		t.Error("jarring topic jump accepted")
	}

	// No history: always valid.
	report = v.ValidateDistance(ctx, "nova questão", nil)
	if !report.Valid {
		t.Error("first question rejected")
	}

	// Embedding failure fails open.
	report = v.ValidateDistance(ctx, "texto sem embedding", []string{"relacionada"})
	if !report.Valid {
		t.Error("embedding failure should not block generation")
	}
}

func TestValidateQuality(t *testing.T) {
	// Related-but-distinct vectors: average pairwise similarity is 0.48,
	// inside the [0.4, 0.75] diversity band.
	embed := &fakeEmbedder{vectors: map[string][]float64{
		"alternativa um":     {1, 0, 0, 0},
		"alternativa dois":   {0.6, 0.8, 0, 0},
		"alternativa três":   {0.6, 0, 0.8, 0},
		"alternativa quatro": {0.6, 0, 0, 0.8},
	}}
	v := NewSemanticValidator(embed, zerolog.Nop())
	ctx := context.Background()

	stem := "Ao usar um modelo de linguagem para resumir documentos internos, qual prática reduz mais o risco de vazamento de dados?"
	choices := []string{"alternativa um", "alternativa dois", "alternativa três", "alternativa quatro"}

	report := v.ValidateQuality(ctx, stem, choices)
	if !report.Valid {
		t.Fatalf("well-formed question rejected: %s (score %.1f)", report.Reason, report.Score)
	}
	if len(report.Checks) != 3 {
		t.Errorf("checks = %d, want 3", len(report.Checks))
	}

	// Fewer than four choices is an immediate reject.
	report = v.ValidateQuality(ctx, stem, []string{"só uma"})
	if report.Valid {
		t.Error("question with one choice accepted")
	}

	// A stem of two words fails clarity and one grossly long choice fails
	// parity, dragging the score under the bar.
	report = v.ValidateQuality(ctx, "Qual?", []string{
		"alternativa um", "alternativa dois", "alternativa três",
		"uma alternativa excepcionalmente longa e detalhada que claramente se destaca das outras por seu tamanho desproporcional",
	})
	if report.Valid {
		t.Errorf("degenerate question accepted with score %.1f", report.Score)
	}
}

func TestThematicClusterSwitching(t *testing.T) {
	if ThematicCluster("Ética, Segurança & Compliance") != ClusterEthics {
		t.Error("ethics competency mapped to wrong cluster")
	}
	if ThematicCluster("competência desconhecida") != ClusterFoundations {
		t.Error("unknown competency should default to foundations")
	}

	// Four consecutive questions in one cluster force a switch.
	if !ShouldSwitchCluster(ClusterTools, []string{ClusterTools, ClusterTools, ClusterTools, ClusterTools}, nil) {
		t.Error("expected switch after 4 consecutive questions in cluster")
	}
	if ShouldSwitchCluster(ClusterTools, []string{ClusterEthics, ClusterTools}, nil) {
		t.Error("unexpected switch after short run")
	}

	// Mastery of the current cluster forces a switch.
	history := []ClusterSample{
		{Competency: "Ferramentas de IA no dia a dia", Score: 80},
		{Competency: "Prompt Engineering & Orquestração", Score: 85},
		{Competency: "Code/No-code para IA", Score: 90},
	}
	if !ShouldSwitchCluster(ClusterTools, []string{ClusterEthics, ClusterTools}, history) {
		t.Error("expected switch on cluster mastery")
	}
}

const validQuestionJSON = `{
	"stem": "Sua equipe quer usar um LLM para responder clientes com dados internos atualizados sem treinar o modelo do zero; qual abordagem resolve isso melhor?",
	"choices": ["alternativa um", "alternativa dois", "alternativa três", "alternativa quatro"],
	"answer_key": "B",
	"explanation": "RAG injeta contexto recuperado no prompt.",
	"rubric_criteria": {"relevancia": "cita recuperação de contexto"}
}`

func qualityEmbedder() *fakeEmbedder {
	return &fakeEmbedder{vectors: map[string][]float64{
		"alternativa um":     {1, 0, 0, 0},
		"alternativa dois":   {0.6, 0.8, 0, 0},
		"alternativa três":   {0.6, 0, 0.8, 0},
		"alternativa quatro": {0.6, 0, 0, 0.8},
	}}
}

func TestGenerateAdaptiveAcceptsValidQuestion(t *testing.T) {
	text := &fakeTextGenerator{responses: [][]byte{[]byte(validQuestionJSON)}}
	v := NewSemanticValidator(qualityEmbedder(), zerolog.Nop())
	g := NewGenerator(text, v, 3, rand.New(rand.NewSource(1)), zerolog.Nop())

	item, err := g.GenerateAdaptive(context.Background(), "Dados & Contextualização (RAG)", 55, "medium", nil)
	if err != nil {
		t.Fatalf("GenerateAdaptive: %v", err)
	}

	if item.Type != model.ItemTypeMCQ {
		t.Errorf("type = %s, want mcq", item.Type)
	}
	payload, ok := item.Choice()
	if !ok {
		t.Fatal("generated item has no choice payload")
	}
	if payload.AnswerKey != "B" {
		t.Errorf("answer key = %q, want B", payload.AnswerKey)
	}
	if payload.Difficulty != 1 || payload.Discrimination != 0.7 {
		t.Errorf("params = (%v, %v), want medium (1, 0.7)", payload.Difficulty, payload.Discrimination)
	}
	if payload.Competency != "Dados & Contextualização (RAG)" {
		t.Errorf("competency = %q", payload.Competency)
	}
}

func TestGenerateAdaptiveRetriesThenFails(t *testing.T) {
	// Three malformed payloads exhaust the attempt budget.
	bad := []byte(`{"stem": "", "choices": []}`)
	text := &fakeTextGenerator{responses: [][]byte{bad, bad, bad}}
	v := NewSemanticValidator(qualityEmbedder(), zerolog.Nop())
	g := NewGenerator(text, v, 3, rand.New(rand.NewSource(1)), zerolog.Nop())

	_, err := g.GenerateAdaptive(context.Background(), "Fundamentos de IA/ML & LLMs", 50, "easy", nil)
	if !errors.Is(err, ErrQualityRejected) {
		t.Fatalf("err = %v, want ErrQualityRejected", err)
	}
	if text.calls != 3 {
		t.Errorf("generator called %d times, want 3", text.calls)
	}
}

func TestGenerateAdaptiveRecoversOnRetry(t *testing.T) {
	bad := []byte(`not json at all`)
	text := &fakeTextGenerator{responses: [][]byte{bad, []byte(validQuestionJSON)}}
	v := NewSemanticValidator(qualityEmbedder(), zerolog.Nop())
	g := NewGenerator(text, v, 3, rand.New(rand.NewSource(1)), zerolog.Nop())

	item, err := g.GenerateAdaptive(context.Background(), "Fundamentos de IA/ML & LLMs", 50, "medium", nil)
	if err != nil {
		t.Fatalf("GenerateAdaptive: %v", err)
	}
	if item == nil || text.calls != 2 {
		t.Errorf("expected success on second attempt, calls = %d", text.calls)
	}
}

func TestGenerateMatrixShufflesWithPointsMap(t *testing.T) {
	raw := []byte(`{
		"stem": "Com que frequência você usa ferramentas de IA no seu trabalho hoje em dia?",
		"choices": ["Nunca usei", "Já testei por curiosidade", "Uso toda semana", "Uso todo dia e ensino colegas"]
	}`)
	text := &fakeTextGenerator{responses: [][]byte{raw}}
	v := NewSemanticValidator(qualityEmbedder(), zerolog.Nop())
	g := NewGenerator(text, v, 3, rand.New(rand.NewSource(99)), zerolog.Nop())

	item, err := g.GenerateMatrix(context.Background(), "Uso Prático", "Avalia o nível de aplicação real no dia a dia", nil)
	if err != nil {
		t.Fatalf("GenerateMatrix: %v", err)
	}

	payload, ok := item.Matrix()
	if !ok {
		t.Fatal("generated item has no matrix payload")
	}
	if len(payload.Choices) != 4 || len(payload.PointsByLetter) != 4 {
		t.Fatalf("choices = %d, points = %d, want 4 and 4", len(payload.Choices), len(payload.PointsByLetter))
	}

	// Every points value 1-4 appears exactly once, and each letter's points
	// match the maturity rank of the choice placed at that position.
	ranks := map[string]int{
		"Nunca usei":                    1,
		"Já testei por curiosidade":     2,
		"Uso toda semana":               3,
		"Uso todo dia e ensino colegas": 4,
	}
	seen := map[int]bool{}
	for i, letter := range []string{"A", "B", "C", "D"} {
		points := payload.PointsByLetter[letter]
		if points < 1 || points > 4 || seen[points] {
			t.Fatalf("letter %s has invalid points %d", letter, points)
		}
		seen[points] = true
		if ranks[payload.Choices[i]] != points {
			t.Errorf("letter %s: choice %q worth %d points, want %d", letter, payload.Choices[i], points, ranks[payload.Choices[i]])
		}
	}
}

func TestDifficultyFor(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{20, "easy"},
		{39.9, "easy"},
		{40, "medium"},
		{64.9, "medium"},
		{65, "hard"},
		{90, "hard"},
	}
	for _, tt := range tests {
		if got := DifficultyFor(tt.score); got != tt.want {
			t.Errorf("DifficultyFor(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}
