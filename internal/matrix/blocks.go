// Package matrix implements the simplified 4-block maturity assessment:
// fixed block progression, additive 1-4 point scoring and classification into
// one of four maturity levels. No IRT machinery is involved; state is an
// accumulator rebuilt from the persisted response log.
package matrix

// Block is one thematic block of the matrix assessment.
type Block struct {
	Name          string `json:"name"`
	ID            string `json:"id"`
	Description   string `json:"description"`
	QuestionCount int    `json:"question_count"`
}

// Blocks lists the four thematic blocks in presentation order. Question
// counts sum to TotalQuestions.
var Blocks = []Block{
	{
		Name:          "Percepção e Atitude",
		ID:            "percepcao",
		Description:   "Avalia o quanto a pessoa compreende e se posiciona diante da IA",
		QuestionCount: 3,
	},
	{
		Name:          "Uso Prático",
		ID:            "uso_pratico",
		Description:   "Avalia o nível de aplicação real no dia a dia de trabalho",
		QuestionCount: 3,
	},
	{
		Name:          "Conhecimento e Entendimento",
		ID:            "conhecimento",
		Description:   "Mede o nível de consciência técnica e conceitual",
		QuestionCount: 2,
	},
	{
		Name:          "Cultura e Autonomia Digital",
		ID:            "cultura",
		Description:   "Mede a mentalidade de aprendizado e adaptação tecnológica",
		QuestionCount: 2,
	},
}

const (
	// TotalQuestions is the fixed session length of the matrix variant.
	TotalQuestions = 10

	// PointsPerQuestion caps the score of a single answer.
	PointsPerQuestion = 4

	// MinScore and MaxScore bound the total of a completed session.
	MinScore = TotalQuestions * 1
	MaxScore = TotalQuestions * PointsPerQuestion
)

// BlockByName returns the block config for a name.
func BlockByName(name string) (Block, bool) {
	for _, b := range Blocks {
		if b.Name == name {
			return b, true
		}
	}
	return Block{}, false
}

// MaturityLevel is one of the four maturity bands of the matrix variant.
type MaturityLevel struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	MinScore    int    `json:"min_score"`
	MaxScore    int    `json:"max_score"`
}

// MaturityLevels in ascending score order.
var MaturityLevels = []MaturityLevel{
	{Name: "Iniciante", Description: "Conhece superficialmente, pouco uso prático", MinScore: 10, MaxScore: 17},
	{Name: "Explorador", Description: "Testa ferramentas, entende potencial", MinScore: 18, MaxScore: 27},
	{Name: "Praticante", Description: "Usa no trabalho, entende conceitos-chave", MinScore: 28, MaxScore: 35},
	{Name: "Líder Digital", Description: "Integra, ensina e influencia o uso de IA", MinScore: 36, MaxScore: 40},
}

// ClassifyMaturity maps a completed session's total score to its maturity
// level. Totals below the minimum clamp to the lowest level and totals above
// the maximum clamp to the highest, so partial or malformed sessions still
// classify somewhere.
func ClassifyMaturity(totalScore int) MaturityLevel {
	for _, level := range MaturityLevels {
		if totalScore >= level.MinScore && totalScore <= level.MaxScore {
			return level
		}
	}
	if totalScore < MaturityLevels[0].MinScore {
		return MaturityLevels[0]
	}
	return MaturityLevels[len(MaturityLevels)-1]
}
