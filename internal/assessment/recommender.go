package assessment

import (
	"fmt"
	"sort"

	"github.com/oazco/profiler-backend/internal/scoring"
)

// gapThreshold is the score below which a competency counts as a gap.
const gapThreshold = 60.0

// CompetencyGap describes one under-developed competency.
type CompetencyGap struct {
	Competency   string        `json:"competency"`
	CurrentScore float64       `json:"current_score"`
	CurrentLevel scoring.Level `json:"current_level"`
	Severity     float64       `json:"gap_severity"`
}

// Track is a suggested learning track for one competency gap.
type Track struct {
	Competency  string        `json:"competency"`
	Title       string        `json:"title"`
	FromLevel   scoring.Level `json:"from_level"`
	TargetLevel scoring.Level `json:"target_level"`
	Resources   []string      `json:"resources"`
}

// Recommendations is the final learning guidance emitted when an adaptive
// session completes.
type Recommendations struct {
	GlobalScore float64       `json:"global_score"`
	GlobalLevel scoring.Level `json:"global_level"`
	Tracks      []Track       `json:"tracks"`
	Summary     string        `json:"summary"`
}

var trackTemplates = map[string]Track{
	"Fundamentos de IA/ML & LLMs": {
		Title: "Fundamentos de IA",
		Resources: []string{
			"Curso: Introdução a LLMs e Modelos Generativos",
			"Leitura: Artigos sobre arquitetura Transformer",
			"Prática: Experimentar com APIs de LLMs",
		},
	},
	"Ferramentas de IA no dia a dia": {
		Title: "Ferramentas de IA",
		Resources: []string{
			"Workshop: ChatGPT e Claude para produtividade",
			"Prática: Integrar IA em workflows diários",
			"Estudo de caso: Casos de uso por área",
		},
	},
	"Prompt Engineering & Orquestração": {
		Title: "Prompt Engineering",
		Resources: []string{
			"Curso: Técnicas avançadas de prompting",
			"Prática: Chain-of-thought e few-shot learning",
			"Projeto: Criar sistema de prompts estruturados",
		},
	},
	"Dados & Contextualização (RAG)": {
		Title: "RAG e Contextualização",
		Resources: []string{
			"Curso: Retrieval-Augmented Generation na prática",
			"Prática: Montar uma base de conhecimento vetorial",
			"Projeto: Assistente com contexto da empresa",
		},
	},
	"Automação de Processos com IA": {
		Title: "Automação com IA",
		Resources: []string{
			"Curso: Automação de fluxos com agentes",
			"Prática: Automatizar uma rotina do seu time",
			"Estudo de caso: ROI de automações com IA",
		},
	},
	"Ética, Segurança & Compliance": {
		Title: "Ética e Segurança em IA",
		Resources: []string{
			"Curso: Uso responsável de IA corporativa",
			"Leitura: Políticas de dados e privacidade",
			"Workshop: Riscos e mitigação em LLMs",
		},
	},
	"Produto e Negócio com IA": {
		Title: "IA para Produto e Negócio",
		Resources: []string{
			"Curso: Estratégia de produto com IA",
			"Estudo de caso: Produtos potencializados por IA",
			"Prática: Desenhar uma feature com IA",
		},
	},
	"Code/No-code para IA": {
		Title: "Code e No-code para IA",
		Resources: []string{
			"Workshop: Ferramentas no-code com IA",
			"Prática: Prototipar com APIs de LLMs",
			"Projeto: MVP de assistente interno",
		},
	},
	"LLMOps & Qualidade": {
		Title: "LLMOps e Qualidade",
		Resources: []string{
			"Curso: Avaliação e monitoramento de LLMs",
			"Prática: Montar um pipeline de avaliação",
			"Leitura: Observabilidade para aplicações de IA",
		},
	},
}

// Recommend derives the top learning tracks from the final proficiency state.
func Recommend(prof Proficiency) Recommendations {
	globalScore := scoring.CalculateGlobalScore(prof.Scores())
	globalLevel := scoring.CalculateLevel(globalScore)

	var gaps []CompetencyGap
	for competency, est := range prof {
		if est.Score < gapThreshold {
			gaps = append(gaps, CompetencyGap{
				Competency:   competency,
				CurrentScore: est.Score,
				CurrentLevel: scoring.CalculateLevel(est.Score),
				Severity:     gapThreshold - est.Score,
			})
		}
	}

	sort.Slice(gaps, func(i, j int) bool {
		if gaps[i].Severity != gaps[j].Severity {
			return gaps[i].Severity > gaps[j].Severity
		}
		return gaps[i].Competency < gaps[j].Competency // deterministic order
	})

	tracks := make([]Track, 0, 3)
	for _, gap := range gaps {
		if len(tracks) == 3 {
			break
		}
		tracks = append(tracks, buildTrack(gap))
	}

	return Recommendations{
		GlobalScore: globalScore,
		GlobalLevel: globalLevel,
		Tracks:      tracks,
		Summary:     buildSummary(globalLevel, tracks),
	}
}

func buildTrack(gap CompetencyGap) Track {
	track, ok := trackTemplates[gap.Competency]
	if !ok {
		track = Track{
			Title:     gap.Competency,
			Resources: []string{"Trilha personalizada em construção"},
		}
	}

	track.Competency = gap.Competency
	track.FromLevel = gap.CurrentLevel
	track.TargetLevel = nextLevel(gap.CurrentLevel)
	return track
}

func nextLevel(level scoring.Level) scoring.Level {
	order := []scoring.Level{
		scoring.LevelN0, scoring.LevelN1, scoring.LevelN2,
		scoring.LevelN3, scoring.LevelN4, scoring.LevelN5,
	}
	for i, l := range order {
		if l == level && i < len(order)-1 {
			return order[i+1]
		}
	}
	return scoring.LevelN5
}

func buildSummary(globalLevel scoring.Level, tracks []Track) string {
	if len(tracks) == 0 {
		return fmt.Sprintf("Nível global %s. Nenhuma lacuna relevante identificada — continue praticando.", globalLevel)
	}
	return fmt.Sprintf("Nível global %s. Foque primeiro na trilha %q e avance uma trilha por vez.", globalLevel, tracks[0].Title)
}
