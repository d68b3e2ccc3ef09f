package assessment

import (
	"context"
	"math/rand"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/oazco/profiler-backend/internal/llm"
	"github.com/oazco/profiler-backend/internal/model"
	"github.com/oazco/profiler-backend/internal/scoring"
)

func choiceItem(competency string, difficulty, discrimination float64) *model.Item {
	return model.NewChoiceItem(model.ItemTypeMCQ, "Qual alternativa está correta?", model.ChoicePayload{
		Competency:     competency,
		Difficulty:     difficulty,
		Discrimination: discrimination,
		Choices:        []string{"Opção A", "Opção B", "Opção C", "Opção D"},
		AnswerKey:      "B",
	})
}

func responseFor(item *model.Item, score float64) model.Response {
	difficulty, discrimination := item.Params()
	return model.Response{
		ID:             uuid.New(),
		ItemID:         item.ID,
		Score01:        score,
		ItemType:       item.Type,
		ItemDimension:  item.Dimension(),
		ItemStem:       item.Stem,
		Difficulty:     difficulty,
		Discrimination: discrimination,
	}
}

func TestInitialProficiencyCoversEveryCompetency(t *testing.T) {
	prof := InitialProficiency("", false)

	if len(prof) != len(Competencies) {
		t.Fatalf("expected %d competencies, got %d", len(Competencies), len(prof))
	}
	for c, est := range prof {
		if est.Score != 50 {
			t.Errorf("%s: prior score = %v, want 50", c, est.Score)
		}
		if est.CIWidth() != 60 {
			t.Errorf("%s: prior CI width = %v, want 60", c, est.CIWidth())
		}
	}
}

func TestInitialProficiencyLoweredByUnsafeResponse(t *testing.T) {
	prof := InitialProficiency("texto longo o suficiente para contar", true)
	for c, est := range prof {
		if est.Score != 40 {
			t.Errorf("%s: prior score = %v, want 40 after unsafe flag", c, est.Score)
		}
	}

	// Short flagged text keeps the neutral prior.
	prof = InitialProficiency("oi", true)
	for c, est := range prof {
		if est.Score != 50 {
			t.Errorf("%s: prior score = %v, want 50 for short text", c, est.Score)
		}
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	items := []*model.Item{
		choiceItem(Competencies[0], 1.0, 0.8),
		choiceItem(Competencies[1], 0.0, 0.7),
		choiceItem(Competencies[0], 2.0, 0.9),
	}
	responses := []model.Response{
		responseFor(items[0], 1.0),
		responseFor(items[1], 0.0),
		responseFor(items[2], 1.0),
	}

	model1 := scoring.ThetaModel{}
	model2 := scoring.ThetaModel{}

	a := Replay("", false, model1, responses)
	b := Replay("", false, model2, responses)

	if !reflect.DeepEqual(a.Proficiency, b.Proficiency) {
		t.Fatalf("replay diverged:\n%v\nvs\n%v", a.Proficiency, b.Proficiency)
	}
	if a.ItemsAnswered != 3 {
		t.Errorf("ItemsAnswered = %d, want 3", a.ItemsAnswered)
	}
	if len(a.History) != 3 {
		t.Errorf("history length = %d, want 3", len(a.History))
	}

	est := a.Proficiency[Competencies[0]]
	if est.ItemsSeen != 2 {
		t.Errorf("ItemsSeen = %d, want 2", est.ItemsSeen)
	}
	if est.Score <= 50 {
		t.Errorf("two correct answers should raise the estimate, got %v", est.Score)
	}
}

func TestApplyKeepsEstimateBounds(t *testing.T) {
	prof := InitialProficiency("", false)
	m := scoring.ThetaModel{}

	for i := 0; i < 20; i++ {
		prof.Apply(m, Competencies[0], 2.0, 1.0, 1.0)
	}

	est := prof[Competencies[0]]
	if est.CILow < 0 || est.CIHigh > 100 {
		t.Errorf("interval [%v, %v] escaped [0, 100]", est.CILow, est.CIHigh)
	}
	if est.Score < est.CILow || est.Score > est.CIHigh {
		t.Errorf("score %v outside interval [%v, %v]", est.Score, est.CILow, est.CIHigh)
	}
}

func TestSelectorNeverRepeatsItems(t *testing.T) {
	prof := InitialProficiency("", false)
	sel := NewSelector(rand.New(rand.NewSource(42)))

	var candidates []*model.Item
	for i := 0; i < 12; i++ {
		candidates = append(candidates, choiceItem(Competencies[i%len(Competencies)], float64(i%3), 0.8))
	}

	var history []HistoryEntry
	seen := make(map[string]bool)
	for i := 0; i < 12; i++ {
		item, err := sel.Select(prof, history, candidates)
		if err != nil {
			t.Fatalf("select %d: %v", i, err)
		}
		if seen[item.ID.String()] {
			t.Fatalf("item %s selected twice", item.ID)
		}
		seen[item.ID.String()] = true
		history = append(history, HistoryEntry{ItemID: item.ID.String(), Dimension: item.Dimension(), Type: item.Type})
	}

	if _, err := sel.Select(prof, history, candidates); err != ErrNoCandidates {
		t.Fatalf("exhausted pool: err = %v, want ErrNoCandidates", err)
	}
}

func TestSelectorSkipsInactiveItems(t *testing.T) {
	prof := InitialProficiency("", false)
	sel := NewSelector(rand.New(rand.NewSource(1)))

	active := choiceItem(Competencies[0], 1.0, 0.8)
	inactive := choiceItem(Competencies[1], 1.0, 0.8)
	inactive.Active = false

	for i := 0; i < 10; i++ {
		item, err := sel.Select(prof, nil, []*model.Item{active, inactive})
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		if item.ID == inactive.ID {
			t.Fatal("selected an inactive item")
		}
	}
}

func TestSelectorIsSeedDeterministic(t *testing.T) {
	prof := InitialProficiency("", false)
	var candidates []*model.Item
	for i := 0; i < 10; i++ {
		candidates = append(candidates, choiceItem(Competencies[i%len(Competencies)], 1.0, 0.5+float64(i)*0.05))
	}

	a, err := NewSelector(rand.New(rand.NewSource(7))).Select(prof, nil, candidates)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSelector(rand.New(rand.NewSource(7))).Select(prof, nil, candidates)
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != b.ID {
		t.Errorf("same seed picked different items: %s vs %s", a.ID, b.ID)
	}
}

func TestLockedRandIsSafeForConcurrentUse(t *testing.T) {
	rng := NewLockedRand(42)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if n := rng.Intn(10); n < 0 || n >= 10 {
					t.Errorf("Intn(10) = %d out of range", n)
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestGraderMultipleChoice(t *testing.T) {
	g := NewGrader(llm.Stub{}, zerolog.Nop())
	item := choiceItem(Competencies[0], 1.0, 0.8)

	tests := []struct {
		answer string
		want   float64
	}{
		{"B", 1},
		{"b", 1},
		{"  B  ", 1},
		{"B) porque o contexto importa", 1},
		{"A", 0},
		{"OPTION_B", 0},
		{"resposta qualquer", 0},
	}
	for _, tt := range tests {
		got, err := g.Grade(context.Background(), item, tt.answer)
		if err != nil {
			t.Fatalf("Grade(%q): %v", tt.answer, err)
		}
		if got.Score != tt.want {
			t.Errorf("Grade(%q) = %v, want %v", tt.answer, got.Score, tt.want)
		}
	}
}

func TestGraderFreeTextMentioningKeyLetterScoresZero(t *testing.T) {
	g := NewGrader(llm.Stub{}, zerolog.Nop())
	item := model.NewChoiceItem(model.ItemTypeMCQ, "Qual alternativa está correta?", model.ChoicePayload{
		Competency:     Competencies[0],
		Difficulty:     1.0,
		Discrimination: 0.8,
		Choices:        []string{"Opção A", "Opção B", "Opção C", "Opção D"},
		AnswerKey:      "A",
	})

	// Free text that merely contains the key letter must not earn credit.
	for _, answer := range []string{"resposta errada", "não tenho certeza da resposta", "talvez"} {
		got, err := g.Grade(context.Background(), item, answer)
		if err != nil {
			t.Fatalf("Grade(%q): %v", answer, err)
		}
		if got.Score != 0 {
			t.Errorf("Grade(%q) = %v, want 0", answer, got.Score)
		}
	}
}

func TestGraderEmptyAnswerFailsSoft(t *testing.T) {
	g := NewGrader(llm.Stub{}, zerolog.Nop())
	item := choiceItem(Competencies[0], 1.0, 0.8)

	got, err := g.Grade(context.Background(), item, "   ")
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if got.Score != 0 {
		t.Errorf("score = %v, want 0", got.Score)
	}
	if !got.Flags["no_answer"] {
		t.Error("expected no_answer flag")
	}
}

func TestGraderOpenEndedDelegatesToRubric(t *testing.T) {
	g := NewGrader(llm.Stub{}, zerolog.Nop())
	item := model.NewOpenItem(model.ItemTypeOpenEnded, "Explique como você usaria IA no seu trabalho.", model.OpenPayload{
		Competency: Competencies[1],
		Rubric:     map[string]string{"relevancia": "menciona contexto de trabalho"},
	})

	got, err := g.Grade(context.Background(), item, "Eu usaria um modelo de linguagem com prompt estruturado e contexto dos dados da empresa para automatizar respostas.")
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if got.Score <= 0 || got.Score > 1 {
		t.Errorf("score = %v, want in (0, 1]", got.Score)
	}
	if len(got.Breakdown) == 0 {
		t.Error("expected rubric breakdown")
	}
}

func defaultStopRule() StopRule {
	return StopRule{
		MaxItems:        12,
		MinItems:        8,
		TargetTime:      12 * time.Minute,
		CIThreshold:     12,
		MinCompetencies: 6,
	}
}

func convergedState(itemsAnswered int) *State {
	prof := make(Proficiency, len(Competencies))
	for _, c := range Competencies {
		prof[c] = AbilityEstimate{Score: 70, CILow: 65, CIHigh: 75, ItemsSeen: 2}
	}
	return &State{Proficiency: prof, ItemsAnswered: itemsAnswered}
}

func TestStopRulePriority(t *testing.T) {
	rule := defaultStopRule()
	start := time.Now()

	tests := []struct {
		name   string
		state  *State
		now    time.Time
		stop   bool
		reason StopReason
	}{
		{"max items wins over everything", convergedState(12), start.Add(20 * time.Minute), true, StopMaxItems},
		{"min floor holds even when converged", convergedState(5), start.Add(20 * time.Minute), false, StopMinNotReached},
		{"time limit after the floor", &State{Proficiency: InitialProficiency("", false), ItemsAnswered: 9}, start.Add(13 * time.Minute), true, StopTimeLimit},
		{"convergence past the floor", convergedState(9), start.Add(5 * time.Minute), true, StopConvergence},
		{"otherwise continue", &State{Proficiency: InitialProficiency("", false), ItemsAnswered: 9}, start.Add(5 * time.Minute), false, StopContinue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := rule.Evaluate(tt.state, start, tt.now)
			if d.Stop != tt.stop || d.Reason != tt.reason {
				t.Errorf("Evaluate = {%v %s}, want {%v %s}", d.Stop, d.Reason, tt.stop, tt.reason)
			}
		})
	}
}

func TestRecommendPicksTopThreeGaps(t *testing.T) {
	prof := InitialProficiency("", false)
	for _, c := range Competencies {
		prof[c] = AbilityEstimate{Score: 70, CILow: 65, CIHigh: 75}
	}
	prof["Prompt Engineering & Orquestração"] = AbilityEstimate{Score: 30, CILow: 25, CIHigh: 35}
	prof["Dados & Contextualização (RAG)"] = AbilityEstimate{Score: 40, CILow: 35, CIHigh: 45}
	prof["Ética, Segurança & Compliance"] = AbilityEstimate{Score: 50, CILow: 45, CIHigh: 55}
	prof["LLMOps & Qualidade"] = AbilityEstimate{Score: 55, CILow: 50, CIHigh: 60}

	rec := Recommend(prof)

	if len(rec.Tracks) != 3 {
		t.Fatalf("tracks = %d, want 3", len(rec.Tracks))
	}
	if rec.Tracks[0].Competency != "Prompt Engineering & Orquestração" {
		t.Errorf("worst gap first: got %q", rec.Tracks[0].Competency)
	}
	if rec.Tracks[0].TargetLevel != scoring.LevelN2 {
		t.Errorf("target level = %s, want N2 (one above N1)", rec.Tracks[0].TargetLevel)
	}
	if rec.Summary == "" {
		t.Error("expected a non-empty summary")
	}
}

func TestRecommendNoGaps(t *testing.T) {
	prof := InitialProficiency("", false)
	for _, c := range Competencies {
		prof[c] = AbilityEstimate{Score: 80, CILow: 75, CIHigh: 85}
	}

	rec := Recommend(prof)
	if len(rec.Tracks) != 0 {
		t.Errorf("tracks = %d, want 0", len(rec.Tracks))
	}
	if rec.GlobalLevel != scoring.LevelN4 {
		t.Errorf("global level = %s, want N4", rec.GlobalLevel)
	}
}
