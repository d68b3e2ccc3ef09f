package matrix

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oazco/profiler-backend/internal/model"
)

func matrixItem(block string, points map[string]int) *model.Item {
	return model.NewMatrixItem("Com que frequência você usa ferramentas de IA?", model.MatrixPayload{
		Block: block,
		Choices: []string{
			"Nunca usei",
			"Já testei por curiosidade",
			"Uso algumas vezes por semana",
			"Uso todos os dias e ensino colegas",
		},
		PointsByLetter: points,
	})
}

func matrixResponse(itemID uuid.UUID, block string, points int) model.Response {
	return model.Response{
		ID:            uuid.New(),
		ItemID:        itemID,
		MatrixPoints:  &points,
		ItemType:      model.ItemTypeMatrix,
		ItemDimension: block,
	}
}

// fullSession builds 10 responses following the block quotas, all scoring the
// given points.
func fullSession(points int) []model.Response {
	var responses []model.Response
	for _, b := range Blocks {
		for i := 0; i < b.QuestionCount; i++ {
			responses = append(responses, matrixResponse(uuid.New(), b.Name, points))
		}
	}
	return responses
}

func TestGraderUsesItemPointsMap(t *testing.T) {
	g := NewGrader(false, zerolog.Nop())

	// Shuffled choices: the highest-maturity choice sits at letter A.
	item := matrixItem(Blocks[0].Name, map[string]int{"A": 4, "B": 1, "C": 3, "D": 2})

	got, err := g.Grade(item, "a")
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if got.Points != 4 {
		t.Errorf("points = %d, want 4 from the item map", got.Points)
	}
	if got.Score01 != 1.0 {
		t.Errorf("score = %v, want 1.0", got.Score01)
	}
}

func TestGraderLegacyFallback(t *testing.T) {
	item := matrixItem(Blocks[0].Name, nil)

	// Fallback enabled: fixed ascending table applies.
	g := NewGrader(true, zerolog.Nop())
	got, err := g.Grade(item, "C")
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if got.Points != 3 {
		t.Errorf("points = %d, want 3 from legacy table", got.Points)
	}

	// Fallback disabled: grading refuses items without a points map.
	g = NewGrader(false, zerolog.Nop())
	if _, err := g.Grade(item, "C"); !errors.Is(err, ErrNoPointsMap) {
		t.Fatalf("err = %v, want ErrNoPointsMap", err)
	}
}

func TestGraderMalformedAnswerScoresMinimum(t *testing.T) {
	g := NewGrader(true, zerolog.Nop())
	item := matrixItem(Blocks[0].Name, map[string]int{"A": 1, "B": 2, "C": 3, "D": 4})

	for _, answer := range []string{"Z", "não sei", "5"} {
		got, err := g.Grade(item, answer)
		if err != nil {
			t.Fatalf("Grade(%q): %v", answer, err)
		}
		if got.Points != 1 {
			t.Errorf("Grade(%q).Points = %d, want 1", answer, got.Points)
		}
	}
}

func TestGraderExtractsLetterFromVerboseAnswer(t *testing.T) {
	g := NewGrader(true, zerolog.Nop())
	item := matrixItem(Blocks[0].Name, map[string]int{"A": 1, "B": 2, "C": 3, "D": 4})

	got, err := g.Grade(item, "OPTION_D")
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if got.Points != 4 {
		t.Errorf("points = %d, want 4", got.Points)
	}
}

func TestTotalsClassifyMaturityLevels(t *testing.T) {
	tests := []struct {
		points int
		total  int
		level  string
	}{
		{1, 10, "Iniciante"},
		{2, 20, "Explorador"},
		{3, 30, "Praticante"},
		{4, 40, "Líder Digital"},
	}

	for _, tt := range tests {
		state := Replay(fullSession(tt.points))
		if state.TotalScore != tt.total {
			t.Errorf("all-%d total = %d, want %d", tt.points, state.TotalScore, tt.total)
		}
		result := state.Finalize()
		if result.MaturityLevel.Name != tt.level {
			t.Errorf("total %d classified as %s, want %s", state.TotalScore, result.MaturityLevel.Name, tt.level)
		}
	}
}

func TestClassifyMaturityClampsOutOfRange(t *testing.T) {
	if got := ClassifyMaturity(3); got.Name != "Iniciante" {
		t.Errorf("ClassifyMaturity(3) = %s, want Iniciante", got.Name)
	}
	if got := ClassifyMaturity(99); got.Name != "Líder Digital" {
		t.Errorf("ClassifyMaturity(99) = %s, want Líder Digital", got.Name)
	}
}

func TestBlockProgressionFollowsQuotas(t *testing.T) {
	var responses []model.Response
	state := Replay(responses)

	// Walk the whole session: blocks must appear in order, respecting quotas.
	want := []string{
		Blocks[0].Name, Blocks[0].Name, Blocks[0].Name,
		Blocks[1].Name, Blocks[1].Name, Blocks[1].Name,
		Blocks[2].Name, Blocks[2].Name,
		Blocks[3].Name, Blocks[3].Name,
	}

	for i, wantBlock := range want {
		block, ok := state.NextBlock()
		if !ok {
			t.Fatalf("step %d: no next block", i)
		}
		if block != wantBlock {
			t.Fatalf("step %d: next block = %q, want %q", i, block, wantBlock)
		}
		responses = append(responses, matrixResponse(uuid.New(), block, 2))
		state = Replay(responses)
	}

	if _, ok := state.NextBlock(); ok {
		t.Error("expected no next block after 10 answers")
	}
}

func TestShouldStopAfterTenQuestions(t *testing.T) {
	state := Replay(fullSession(2)[:9])
	d := state.ShouldStop()
	if d.Stop || d.Reason != StopQuestionsRemaining || d.Remaining != 1 {
		t.Errorf("after 9 answers: %+v", d)
	}

	state = Replay(fullSession(2))
	d = state.ShouldStop()
	if !d.Stop || d.Reason != StopAllQuestionsCompleted {
		t.Errorf("after 10 answers: %+v", d)
	}
}

func TestBlockDetails(t *testing.T) {
	state := Replay(fullSession(4))
	details := state.BlockDetails()

	if len(details) != len(Blocks) {
		t.Fatalf("details = %d blocks, want %d", len(details), len(Blocks))
	}
	for i, d := range details {
		if d.Score != d.MaxScore {
			t.Errorf("%s: score %d, want max %d", d.Block, d.Score, d.MaxScore)
		}
		if d.Percentage != 100 {
			t.Errorf("%s: percentage %v, want 100", d.Block, d.Percentage)
		}
		if d.Block != Blocks[i].Name {
			t.Errorf("details out of order at %d: %s", i, d.Block)
		}
	}
}

func TestReplayIgnoresNilPoints(t *testing.T) {
	responses := []model.Response{
		{ID: uuid.New(), ItemID: uuid.New(), ItemType: model.ItemTypeMatrix, ItemDimension: Blocks[0].Name},
	}
	state := Replay(responses)
	if state.TotalScore != 0 {
		t.Errorf("total = %d, want 0 for nil points", state.TotalScore)
	}
	if state.ItemsAnswered != 1 {
		t.Errorf("items answered = %d, want 1", state.ItemsAnswered)
	}
}
