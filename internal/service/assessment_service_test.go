package service

import (
	"testing"

	"github.com/oazco/profiler-backend/internal/assessment"
	"github.com/oazco/profiler-backend/internal/generation"
	"github.com/oazco/profiler-backend/internal/model"
)

func TestVariantAllowsItem(t *testing.T) {
	cases := []struct {
		variant  model.SessionVariant
		itemType model.ItemType
		want     bool
	}{
		{model.VariantAdaptive, model.ItemTypeMCQ, true},
		{model.VariantAdaptive, model.ItemTypeScenario, true},
		{model.VariantAdaptive, model.ItemTypeOpenEnded, true},
		{model.VariantAdaptive, model.ItemTypePromptWriting, true},
		{model.VariantAdaptive, model.ItemTypeMatrix, false},
		{model.VariantMatrix, model.ItemTypeMatrix, true},
		{model.VariantMatrix, model.ItemTypeMCQ, false},
		{model.VariantMatrix, model.ItemTypeOpenEnded, false},
	}
	for _, tc := range cases {
		if got := variantAllowsItem(tc.variant, tc.itemType); got != tc.want {
			t.Errorf("variantAllowsItem(%s, %s) = %v, want %v", tc.variant, tc.itemType, got, tc.want)
		}
	}
}

func proficiencyWithWidths(widths map[string]float64) assessment.Proficiency {
	prof := assessment.InitialProficiency("", false)
	for competency, width := range widths {
		est := prof[competency]
		est.CILow = est.Score - width/2
		est.CIHigh = est.Score + width/2
		prof[competency] = est
	}
	return prof
}

func historyOf(scores map[string]float64, entries ...string) []assessment.HistoryEntry {
	history := make([]assessment.HistoryEntry, 0, len(entries))
	for _, dimension := range entries {
		history = append(history, assessment.HistoryEntry{
			Dimension: dimension,
			Score:     scores[dimension],
		})
	}
	return history
}

func TestGenerationTargetEmptyHistoryPicksWidestCI(t *testing.T) {
	state := &assessment.State{
		Proficiency: proficiencyWithWidths(map[string]float64{
			"Fundamentos de IA/ML & LLMs": 20,
			"LLMOps & Qualidade":          80,
		}),
	}

	competency, _ := generationTarget(state)
	if competency != "LLMOps & Qualidade" {
		t.Fatalf("competency = %q, want widest-CI competency", competency)
	}
}

func TestGenerationTargetStaysInCurrentCluster(t *testing.T) {
	// The tools cluster has narrower intervals than ethics, but with only two
	// questions answered in tools the next target must stay there.
	state := &assessment.State{
		Proficiency: proficiencyWithWidths(map[string]float64{
			"Ferramentas de IA no dia a dia":    20,
			"Prompt Engineering & Orquestração": 40,
			"Code/No-code para IA":              30,
			"Ética, Segurança & Compliance":     90,
		}),
		History: historyOf(
			map[string]float64{"Ferramentas de IA no dia a dia": 0.5, "Prompt Engineering & Orquestração": 0.5},
			"Ferramentas de IA no dia a dia",
			"Prompt Engineering & Orquestração",
		),
	}

	competency, _ := generationTarget(state)
	if generation.ThematicCluster(competency) != generation.ClusterTools {
		t.Fatalf("competency = %q (cluster %q), want a tools-cluster competency", competency, generation.ThematicCluster(competency))
	}
	if competency != "Prompt Engineering & Orquestração" {
		t.Errorf("competency = %q, want widest CI within the tools cluster", competency)
	}
}

func TestGenerationTargetLeavesClusterAfterConsecutiveRun(t *testing.T) {
	scores := map[string]float64{
		"Ferramentas de IA no dia a dia":    0.4,
		"Prompt Engineering & Orquestração": 0.4,
		"Code/No-code para IA":              0.4,
	}
	state := &assessment.State{
		Proficiency: proficiencyWithWidths(map[string]float64{
			"Prompt Engineering & Orquestração": 95,
			"Ética, Segurança & Compliance":     70,
		}),
		History: historyOf(scores,
			"Ferramentas de IA no dia a dia",
			"Prompt Engineering & Orquestração",
			"Code/No-code para IA",
			"Prompt Engineering & Orquestração",
		),
	}

	competency, _ := generationTarget(state)
	if generation.ThematicCluster(competency) == generation.ClusterTools {
		t.Fatalf("competency = %q stayed in tools after four consecutive questions there", competency)
	}
	if competency != "Ética, Segurança & Compliance" {
		t.Errorf("competency = %q, want widest CI outside the tools cluster", competency)
	}
}

func TestGenerationTargetLeavesMasteredCluster(t *testing.T) {
	scores := map[string]float64{
		"Ética, Segurança & Compliance": 0.9,
		"Ferramentas de IA no dia a dia": 0.8,
	}
	state := &assessment.State{
		Proficiency: proficiencyWithWidths(map[string]float64{
			"Ética, Segurança & Compliance": 95,
			"Dados & Contextualização (RAG)": 70,
		}),
		History: historyOf(scores,
			"Ética, Segurança & Compliance",
			"Ferramentas de IA no dia a dia",
			"Ética, Segurança & Compliance",
			"Ética, Segurança & Compliance",
		),
	}

	competency, _ := generationTarget(state)
	if generation.ThematicCluster(competency) == generation.ClusterEthics {
		t.Fatalf("competency = %q stayed in ethics after three high-scoring answers there", competency)
	}
}
