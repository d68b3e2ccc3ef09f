package generation

// Thematic clusters keep consecutive questions coherent without locking the
// whole session to one competency.
const (
	ClusterFoundations = "foundations"
	ClusterTools       = "tools"
	ClusterEthics      = "ethics"
	ClusterAdvanced    = "advanced"
)

var clusterByCompetency = map[string]string{
	"Fundamentos de IA/ML & LLMs":       ClusterFoundations,
	"Ferramentas de IA no dia a dia":    ClusterTools,
	"Prompt Engineering & Orquestração": ClusterTools,
	"Dados & Contextualização (RAG)":    ClusterAdvanced,
	"Automação de Processos com IA":     ClusterAdvanced,
	"Ética, Segurança & Compliance":     ClusterEthics,
	"Produto e Negócio com IA":          ClusterFoundations,
	"Code/No-code para IA":              ClusterTools,
	"LLMOps & Qualidade":                ClusterAdvanced,
}

// ThematicCluster maps a competency to its cluster. Unknown competencies fall
// into foundations.
func ThematicCluster(competency string) string {
	if cluster, ok := clusterByCompetency[competency]; ok {
		return cluster
	}
	return ClusterFoundations
}

// ClusterSample is one answered question seen through the cluster lens.
type ClusterSample struct {
	Competency string
	Score      float64
}

const (
	maxConsecutiveInCluster = 4
	masteryWindow           = 6
	masteryScoreThreshold   = 75.0
)

// ShouldSwitchCluster reports whether the next question should leave the
// current cluster: after four or more consecutive questions in it, or when
// the recent answers show mastery of it.
func ShouldSwitchCluster(currentCluster string, recentClusters []string, history []ClusterSample) bool {
	if len(recentClusters) < 2 {
		return false
	}

	consecutive := 1
	for i := len(recentClusters) - 2; i >= 0; i-- {
		if recentClusters[i] != currentCluster {
			break
		}
		consecutive++
	}
	if consecutive >= maxConsecutiveInCluster {
		return true
	}

	if len(history) > masteryWindow {
		history = history[len(history)-masteryWindow:]
	}

	var clusterScores []float64
	for _, sample := range history {
		if ThematicCluster(sample.Competency) == currentCluster {
			clusterScores = append(clusterScores, sample.Score)
		}
	}
	if len(clusterScores) >= 3 && mean(clusterScores) > masteryScoreThreshold {
		return true
	}

	return false
}
